package main

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jonathan/comp-collector/internal/collector"
	"github.com/jonathan/comp-collector/internal/config"
	"github.com/jonathan/comp-collector/internal/interpreter"
	"github.com/jonathan/comp-collector/internal/logging"
	"github.com/jonathan/comp-collector/internal/pipeline"
	"github.com/jonathan/comp-collector/internal/reconcile"
	"github.com/jonathan/comp-collector/internal/sources/sourcetest"
)

func testWorkflow() (*pipeline.Workflow, *sourcetest.CompDB) {
	stats, comp, board := sourcetest.Fixture()
	set := sourcetest.Set(stats, comp, board)
	return pipeline.New(interpreter.New(nil), collector.New(set)), comp
}

func TestParsePort(t *testing.T) {
	port, err := parsePort("", 8080)
	require.NoError(t, err)
	assert.Equal(t, 8080, port)

	port, err = parsePort("9000", 8080)
	require.NoError(t, err)
	assert.Equal(t, 9000, port)

	_, err = parsePort("http", 8080)
	assert.Error(t, err)
	_, err = parsePort("70000", 8080)
	assert.Error(t, err)
}

func TestNewLLM_NoKey(t *testing.T) {
	client, err := newLLM(context.Background(), config.Defaults(), logging.Nop())
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestLocalSources(t *testing.T) {
	cfg := config.Defaults()
	index, err := newIndex(cfg, logging.Nop())
	require.NoError(t, err)

	set, err := localSources(cfg, index, logging.Nop())
	require.NoError(t, err)
	assert.NotNil(t, set.Stats)
	assert.NotNil(t, set.JobBoard)
	assert.Nil(t, set.CompDB, "no credentials configured")

	cfg.SalaryUsername, cfg.SalaryPassword = "user", "secret"
	set, err = localSources(cfg, index, logging.Nop())
	require.NoError(t, err)
	assert.NotNil(t, set.CompDB)

	cfg.JobBoardBaseURL = "not a url"
	_, err = localSources(cfg, index, logging.Nop())
	assert.Error(t, err)
}

func TestLoadConfig_Flags(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("HEADLESS", "true")
	defer func(level string, h, v bool) { logLevel, headed, verbose = level, h, v }(logLevel, headed, verbose)

	logLevel, headed, verbose = "", false, false
	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.False(t, cfg.Headed)

	logLevel, headed = "error", true
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.True(t, cfg.Headed)

	verbose = true
	cfg, err = loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestConverse_Interactive(t *testing.T) {
	defer func(v bool) { queryInteractive = v }(queryInteractive)
	queryInteractive = true

	wf, comp := testWorkflow()
	var out bytes.Buffer
	in := bufio.NewReader(strings.NewReader("Master's degree and 6 years of experience\n"))

	resp := converse(context.Background(), wf, "Software Engineer in Seattle", pipeline.RunOptions{}, in, &out)

	require.Equal(t, pipeline.WorkflowCompleted, resp.WorkflowStatus)
	assert.Contains(t, out.String(), "Could you please share")
	req := comp.LastRequest()
	assert.Equal(t, "Master's", req.EducationLevel)
	require.NotNil(t, req.ExperienceYears)
	assert.Equal(t, 6, *req.ExperienceYears)
}

func TestConverse_NonInteractiveSkips(t *testing.T) {
	defer func(v bool) { queryInteractive = v }(queryInteractive)
	queryInteractive = false

	wf, _ := testWorkflow()
	var out bytes.Buffer
	resp := converse(context.Background(), wf, "Software Engineer in Seattle", pipeline.RunOptions{}, bufio.NewReader(strings.NewReader("")), &out)

	assert.Equal(t, pipeline.WorkflowCompleted, resp.WorkflowStatus)
	assert.Equal(t, pipeline.MsgProcessed, resp.Message)
	assert.Empty(t, out.String())
}

func TestConverse_EOFSkips(t *testing.T) {
	defer func(v bool) { queryInteractive = v }(queryInteractive)
	queryInteractive = true

	wf, _ := testWorkflow()
	resp := converse(context.Background(), wf, "Software Engineer in Seattle", pipeline.RunOptions{}, bufio.NewReader(strings.NewReader("")), &bytes.Buffer{})
	assert.Equal(t, pipeline.WorkflowCompleted, resp.WorkflowStatus)
}

func TestExportResults(t *testing.T) {
	wf, _ := testWorkflow()
	resp := converse(context.Background(), wf, "Software Engineer in Seattle", pipeline.RunOptions{}, bufio.NewReader(strings.NewReader("skip\n")), &bytes.Buffer{})
	require.NotNil(t, resp.Results)

	dir := t.TempDir()
	xlsxPath := filepath.Join(dir, "jobs.xlsx")
	csvPath := filepath.Join(dir, "jobs.csv")
	require.NoError(t, exportResults(resp, xlsxPath, csvPath))

	wb, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()
	rows, err := wb.GetRows(reconcile.SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, len(resp.Results.StructuredJobs)+1)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Job Title,"))
}

func TestExportResults_Nothing(t *testing.T) {
	assert.NoError(t, exportResults(&pipeline.Response{}, "", ""))
	assert.Error(t, exportResults(&pipeline.Response{}, filepath.Join(t.TempDir(), "x.xlsx"), ""))
}
