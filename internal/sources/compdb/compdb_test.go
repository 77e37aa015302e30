package compdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/comp-collector/internal/sources"
	"github.com/jonathan/comp-collector/internal/types"
)

const gridHTML = `<table class="tablesaw data-grid">
<thead><tr><th>Percentile</th><th>Base Salary</th></tr></thead>
<tbody>
<tr><td>10th</td><td>$98,000</td></tr>
<tr><td>50th</td><td> $131,400 </td></tr>
</tbody></table>`

type fakePage struct {
	mu         sync.Mutex
	visible    map[string]bool
	attrs      map[string]string
	html       map[string]string
	onNavigate map[string][]string
	failTimes  map[string]int
	panicOn    string
	body       string
	actions    []string
}

func happyPage() *fakePage {
	visible := []string{
		`#loginid`, `#password`, `//button[contains(text(),"Sign In")]`,
		`//a[normalize-space()="Market Data"]`, `//a[normalize-space()="CompAnalyst Market Data"]`,
		`input[type="search"][placeholder="Search..."]`,
		`table tbody tr`, `table tbody tr label.sa-table-checkbox`,
		`a.btn.sa-wizard-btn-next`,
		`//a[contains(text(),"New Scope")]`,
		`.modal`, `#sa-addscope-geography`, `input[placeholder="Search Metro, City, Zip..."]`,
		`//div[@id="tab_searchResult"]//input[@type="checkbox"][1]`,
		`#sa-addscope-industry`, `//li[@id="industry_I00"]//input[@type="checkbox"]`,
		`#sa-addscope-companysize`, `//label[contains(.,"50 - 100 FTEs")]/input[@type="checkbox"]`,
		`#btn_add_scope_apply`,
		`a.btn.btn-cta.sa-wizard-btn-next`,
		`//button[contains(text(),"Adjust Pricing Factors")]`,
		`#experience-slider-value`, `//button[contains(text(),"Apply") and @onclick="experienceApply();"]`,
		`a[data-toggle="dropdown"].educationlabel.PricingFactors`,
		`//ul[contains(@class,"dropdown-menu") and contains(@id,"EducationCodeBox")]//a[normalize-space()="Bachelor's"]`,
		`button.btn.btn-primary.btn-recalculate`,
		`#btnSingleDatagridTab`,
	}
	p := &fakePage{
		visible:    map[string]bool{},
		attrs:      map[string]string{"table tbody tr|class": "sa-table-row sa-table-row-selected"},
		html:       map[string]string{`//table[contains(@class,"tablesaw")]`: gridHTML},
		onNavigate: map[string][]string{},
		failTimes:  map[string]int{},
		body:       "Market data for Software Engineer",
	}
	for _, sel := range visible {
		p.visible[sel] = true
	}
	return p
}

func (p *fakePage) record(format string, args ...any) {
	p.actions = append(p.actions, fmt.Sprintf(format, args...))
}

func (p *fakePage) check(sel string) error {
	if p.panicOn != "" && sel == p.panicOn {
		panic("browser crashed")
	}
	if !p.visible[sel] {
		return errors.New("not found")
	}
	if p.failTimes[sel] > 0 {
		p.failTimes[sel]--
		return errors.New("stale element")
	}
	return nil
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("navigate %s", url)
	for _, sel := range p.onNavigate[url] {
		p.visible[sel] = true
	}
	return nil
}

func (p *fakePage) WaitVisible(_ context.Context, sel string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.check(sel)
}

func (p *fakePage) Click(_ context.Context, sel string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(sel); err != nil {
		return err
	}
	p.record("click %s", sel)
	return nil
}

func (p *fakePage) Type(_ context.Context, sel, text string, submit bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(sel); err != nil {
		return err
	}
	p.record("type %s=%s submit=%v", sel, text, submit)
	return nil
}

func (p *fakePage) SetValue(_ context.Context, sel, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.check(sel); err != nil {
		return err
	}
	p.record("set %s=%s", sel, value)
	return nil
}

func (p *fakePage) Attribute(_ context.Context, sel, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.attrs[sel+"|"+name]
	if !ok {
		return "", errors.New("no attribute")
	}
	return v, nil
}

func (p *fakePage) OuterHTML(_ context.Context, sel string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.html[sel]
	if !ok {
		return "", errors.New("not found")
	}
	return h, nil
}

func (p *fakePage) BodyText(context.Context) (string, error) {
	return p.body, nil
}

func (p *fakePage) did(action string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, a := range p.actions {
		if a == action {
			return true
		}
	}
	return false
}

type launchCounter struct {
	page     Page
	err      error
	releases int
}

func (l *launchCounter) Launch(context.Context) (Page, func(), error) {
	if l.err != nil {
		return nil, func() {}, l.err
	}
	return l.page, func() { l.releases++ }, nil
}

func newTestAdapter(page Page, retries int) (*Adapter, *launchCounter) {
	l := &launchCounter{page: page}
	return New(l, Config{
		Credentials: Credentials{LoginURL: "https://login.test/sa/login", Username: "u@example.com", Password: "pw"},
		Retries:     retries,
	}), l
}

func request() types.CompDBRequest {
	return types.CompDBRequest{JobTitle: "Software Engineer", City: "Seattle"}
}

func TestFetch_Success(t *testing.T) {
	page := happyPage()
	a, l := newTestAdapter(page, 0)

	res := a.Fetch(context.Background(), request())
	require.True(t, res.OK(), res.Reason())
	table, _ := res.Payload()

	assert.Equal(t, []string{"Percentile", "Base Salary"}, table.Headers)
	assert.Equal(t, [][]string{{"10th", "$98,000"}, {"50th", "$131,400"}}, table.Rows)
	assert.Equal(t, 2, table.TotalRows)
	assert.Equal(t, "Bachelor's", table.EducationLevel)
	assert.Equal(t, types.DefaultExperienceYears, table.ExperienceYears)
	assert.Equal(t, "Market data for Software Engineer", table.RawText)
	assert.Empty(t, table.FailedStep)

	assert.True(t, page.did(`type #loginid=u@example.com submit=false`))
	assert.True(t, page.did(`type input[type="search"][placeholder="Search..."]=Software Engineer submit=true`))
	assert.True(t, page.did(`type input[placeholder="Search Metro, City, Zip..."]=Seattle submit=false`))
	assert.True(t, page.did(`set #experience-slider-value=5`))
	assert.Equal(t, 1, l.releases)
}

func TestFetch_RequestOverridesDefaults(t *testing.T) {
	page := happyPage()
	page.visible[`//ul[contains(@class,"dropdown-menu") and contains(@id,"EducationCodeBox")]//a[normalize-space()="Master's"]`] = true
	a, _ := newTestAdapter(page, 0)

	req := request()
	req.EducationLevel = "Master's"
	req.ExperienceYears = types.IntPtr(0)
	res := a.Fetch(context.Background(), req)
	require.True(t, res.OK(), res.Reason())
	table, _ := res.Payload()
	assert.Equal(t, "Master's", table.EducationLevel)
	assert.Equal(t, 0, table.ExperienceYears)
	assert.True(t, page.did(`set #experience-slider-value=0`))
}

func TestFetch_SoftStepsDoNotAbort(t *testing.T) {
	page := happyPage()
	delete(page.visible, `#experience-slider-value`)
	delete(page.visible, `a[data-toggle="dropdown"].educationlabel.PricingFactors`)
	a, _ := newTestAdapter(page, 0)

	res := a.Fetch(context.Background(), request())
	require.True(t, res.OK(), res.Reason())
	assert.True(t, page.did(`click button.btn.btn-primary.btn-recalculate`))
}

func TestFetch_HardStepAbortsWithPartial(t *testing.T) {
	page := happyPage()
	delete(page.visible, `#btn_add_scope_apply`)
	page.body = "Scope dialog still open"
	a, l := newTestAdapter(page, 0)

	res := a.Fetch(context.Background(), request())
	require.False(t, res.OK())
	assert.Contains(t, res.Reason(), `step "apply scope" failed`)

	partial, ok := res.Partial()
	require.True(t, ok)
	assert.Equal(t, "apply scope", partial.FailedStep)
	assert.Equal(t, "Scope dialog still open", partial.RawText)
	assert.Empty(t, partial.Rows)

	assert.False(t, page.did(`click a.btn.btn-cta.sa-wizard-btn-next`), "steps after the failure must not run")
	assert.Equal(t, 1, l.releases)
}

func TestFetch_RetriesStep(t *testing.T) {
	page := happyPage()
	page.failTimes[`//a[contains(text(),"New Scope")]`] = 1

	a, _ := newTestAdapter(page, 0)
	res := a.Fetch(context.Background(), request())
	require.False(t, res.OK())
	partial, _ := res.Partial()
	assert.Equal(t, "new scope", partial.FailedStep)

	page = happyPage()
	page.failTimes[`//a[contains(text(),"New Scope")]`] = 1
	a, _ = newTestAdapter(page, 1)
	res = a.Fetch(context.Background(), request())
	assert.True(t, res.OK(), res.Reason())
}

func TestFetch_PanicReleasesBrowser(t *testing.T) {
	page := happyPage()
	page.panicOn = `#btnSingleDatagridTab`
	a, l := newTestAdapter(page, 0)

	res := a.Fetch(context.Background(), request())
	require.False(t, res.OK())
	assert.Contains(t, res.Reason(), "panicked")
	assert.Equal(t, 1, l.releases)
}

func TestFetch_LaunchFailure(t *testing.T) {
	l := &launchCounter{err: errors.New("chrome not installed")}
	a := New(l, Config{})

	res := a.Fetch(context.Background(), request())
	require.False(t, res.OK())
	assert.Contains(t, res.Reason(), "chrome not installed")
}

func TestFetch_LoginInsideIframe(t *testing.T) {
	page := happyPage()
	delete(page.visible, `#loginid`)
	page.attrs["iframe|src"] = "https://login.test/frame"
	page.onNavigate["https://login.test/frame"] = []string{`#loginid`}
	a, _ := newTestAdapter(page, 0)

	res := a.Fetch(context.Background(), request())
	require.True(t, res.OK(), res.Reason())
	assert.True(t, page.did("navigate https://login.test/frame"))
}

func TestFetch_IndustryFromRequest(t *testing.T) {
	page := happyPage()
	page.visible[`//label[contains(.,"Healthcare")]/input[@type="checkbox"]`] = true
	a, _ := newTestAdapter(page, 0)

	req := request()
	req.Industry = "Healthcare"
	res := a.Fetch(context.Background(), req)
	require.True(t, res.OK(), res.Reason())
	assert.True(t, page.did(`click //label[contains(.,"Healthcare")]/input[@type="checkbox"]`))
	assert.False(t, page.did(`click //li[@id="industry_I00"]//input[@type="checkbox"]`))
}

func TestHealth(t *testing.T) {
	a, l := newTestAdapter(happyPage(), 0)
	h := a.Health(context.Background())
	assert.Equal(t, sources.StatusHealthy, h.Status)
	assert.Equal(t, sources.NameCompDB, h.Source)
	assert.Equal(t, 1, l.releases)

	empty := &fakePage{visible: map[string]bool{}}
	a, _ = newTestAdapter(empty, 0)
	h = a.Health(context.Background())
	assert.Equal(t, sources.StatusUnhealthy, h.Status)
}

func TestEducationLevels(t *testing.T) {
	a, _ := newTestAdapter(happyPage(), 0)
	levels := a.EducationLevels()
	assert.Len(t, levels, 7)
	assert.Contains(t, levels, "Bachelor's")

	levels[0] = "changed"
	assert.Equal(t, "High School", a.EducationLevels()[0])
}

func TestParseTable(t *testing.T) {
	headers, rows, err := ParseTable(gridHTML)
	require.NoError(t, err)
	assert.Equal(t, []string{"Percentile", "Base Salary"}, headers)
	assert.Len(t, rows, 2)

	_, _, err = ParseTable(`<div>no grid</div>`)
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, types.CompTable{
		Headers: []string{"Percentile", "Base Salary"},
		Rows:    [][]string{{"50th", "$131,400"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Percentile,Base Salary\n50th,\"$131,400\"\n", buf.String())

	assert.ErrorIs(t, WriteCSV(&buf, types.CompTable{}), ErrNoTable)
}

func TestCSVFilename(t *testing.T) {
	name := CSVFilename(types.CompTable{JobTitle: "Software Engineer", City: "New York"}, 1700000000)
	assert.Equal(t, "salary_data_software_engineer_new_york_1700000000.csv", name)
	assert.True(t, strings.HasSuffix(CSVFilename(types.CompTable{}, 1), "job_city_1.csv"))
}

func TestRunStep_ReturnsStepError(t *testing.T) {
	a := New(nil, Config{Retries: 1})
	calls := 0
	step := Step{Name: "search job title", Run: func(context.Context, *run) error {
		calls++
		return errors.New("element not visible")
	}}

	err := a.runStep(context.Background(), step, &run{})
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "search job title", stepErr.Step)
	assert.Equal(t, 2, stepErr.Attempts)
	assert.Equal(t, 2, calls)
	assert.EqualError(t, err, `step "search job title" failed: element not visible`)
}
