// Package compdb is the compensation-database source adapter. It drives a
// browser through the market-data wizard and reads the resulting table.
package compdb

import (
	"context"
	"fmt"
	"time"

	"github.com/jonathan/comp-collector/internal/logging"
	"github.com/jonathan/comp-collector/internal/sources"
	"github.com/jonathan/comp-collector/internal/types"
)

var educationLevels = []string{
	"High School",
	"Some College",
	"Associate's",
	"Bachelor's",
	"Master's",
	"Doctorate",
	"Professional",
}

// Config configures the adapter.
type Config struct {
	Credentials Credentials
	// Retries is the number of extra attempts per step.
	Retries    int
	RetryDelay time.Duration
	Logger     *logging.Logger
}

// Adapter implements sources.CompDB.
type Adapter struct {
	launcher Launcher
	creds    Credentials
	steps    []Step
	retries  int
	delay    time.Duration
	log      *logging.Logger
	now      func() time.Time
}

var _ sources.CompDB = (*Adapter)(nil)

// New creates an adapter that opens one browser session per call.
func New(launcher Launcher, cfg Config) *Adapter {
	if cfg.Logger == nil {
		cfg.Logger = logging.Nop()
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	return &Adapter{
		launcher: launcher,
		creds:    cfg.Credentials,
		steps:    Steps(),
		retries:  cfg.Retries,
		delay:    cfg.RetryDelay,
		log:      cfg.Logger.With("source", sources.NameCompDB),
		now:      time.Now,
	}
}

// EducationLevels lists the accepted education values.
func (a *Adapter) EducationLevels() []string {
	out := make([]string, len(educationLevels))
	copy(out, educationLevels)
	return out
}

// Fetch runs the wizard for req. A failing hard step aborts the run and
// returns the page text collected so far as a partial payload.
func (a *Adapter) Fetch(ctx context.Context, req types.CompDBRequest) (result sources.Result[types.CompTable]) {
	started := a.now()
	req = req.WithDefaults()
	table := types.CompTable{
		JobTitle:        req.JobTitle,
		City:            req.City,
		EducationLevel:  req.EducationLevel,
		ExperienceYears: *req.ExperienceYears,
	}

	page, release, err := a.launcher.Launch(ctx)
	if err != nil {
		a.log.Error("browser launch failed", "error", err)
		return sources.Failuref[types.CompTable]("Failed to initialize browser: %v", err)
	}
	defer release()
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("compensation wizard panicked", "panic", r)
			table.ElapsedSeconds = a.elapsed(started)
			result = sources.FailureWithPartial(fmt.Sprintf("compensation wizard panicked: %v", r), table)
		}
	}()

	a.log.Info("starting compensation wizard",
		"job_title", req.JobTitle, "city", req.City,
		"education", req.EducationLevel, "experience", *req.ExperienceYears)

	w := &run{page: page, req: req, creds: a.creds, table: &table}
	for i, step := range a.steps {
		err := a.runStep(ctx, step, w)
		if err == nil {
			a.log.Debug("wizard step done", "step", i+1, "name", step.Name)
			continue
		}
		if step.Soft && ctx.Err() == nil {
			a.log.Warn("optional wizard step failed, continuing", "step", step.Name, "error", err)
			continue
		}

		table.FailedStep = step.Name
		table.ElapsedSeconds = a.elapsed(started)
		if text, textErr := page.BodyText(context.WithoutCancel(ctx)); textErr == nil {
			table.RawText = text
		}
		a.log.Error("compensation wizard failed", "step", step.Name, "error", err, "elapsed", table.ElapsedSeconds)
		return sources.FailureWithPartial(err.Error(), table)
	}

	if text, err := page.BodyText(ctx); err == nil {
		table.RawText = text
	}
	table.ElapsedSeconds = a.elapsed(started)
	a.log.Info("compensation wizard finished", "rows", table.TotalRows, "columns", len(table.Headers), "elapsed", table.ElapsedSeconds)
	return sources.Success(table)
}

// StepError reports the wizard step that could not be completed.
type StepError struct {
	Step     string
	Attempts int
	Cause    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %q failed: %v", e.Step, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

func (a *Adapter) runStep(ctx context.Context, step Step, w *run) error {
	var err error
	attempt := 0
	for ; attempt <= a.retries; attempt++ {
		if attempt > 0 {
			a.log.Debug("retrying wizard step", "step", step.Name, "attempt", attempt+1, "error", err)
			if waitErr := sleep(ctx, a.delay); waitErr != nil {
				return &StepError{Step: step.Name, Attempts: attempt, Cause: waitErr}
			}
		}
		if err = step.Run(ctx, w); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return &StepError{Step: step.Name, Attempts: attempt + 1, Cause: ctx.Err()}
		}
	}
	return &StepError{Step: step.Name, Attempts: attempt, Cause: err}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (a *Adapter) elapsed(started time.Time) float64 {
	return float64(a.now().Sub(started).Milliseconds()) / 1000
}

// Health checks that the login page loads and shows its form.
func (a *Adapter) Health(ctx context.Context) sources.Health {
	h := sources.Health{Source: sources.NameCompDB, CheckedAt: a.now()}

	page, release, err := a.launcher.Launch(ctx)
	if err != nil {
		h.Status = sources.StatusUnhealthy
		h.Message = "Failed to initialize browser"
		return h
	}
	defer release()

	if err := page.Navigate(ctx, a.creds.LoginURL); err != nil {
		h.Status = sources.StatusUnhealthy
		h.Message = fmt.Sprintf("Health check failed: %v", err)
		return h
	}
	for _, sel := range []string{`input#loginid`, `input#password`, `iframe`} {
		if page.WaitVisible(ctx, sel) == nil {
			h.Status = sources.StatusHealthy
			h.Message = "login page accessible"
			return h
		}
	}
	h.Status = sources.StatusUnhealthy
	h.Message = "Could not find login elements"
	return h
}
