package compdb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/comp-collector/internal/types"
)

// Step is one wizard screen interaction. Soft steps may fail without
// aborting the run.
type Step struct {
	Name string
	Soft bool
	Run  func(ctx context.Context, w *run) error
}

// run is the state shared by the steps of one wizard execution.
type run struct {
	page  Page
	req   types.CompDBRequest
	creds Credentials
	table *types.CompTable
}

// Credentials log the wizard into the compensation database.
type Credentials struct {
	LoginURL string
	Username string
	Password string
}

// Default scope choices when the request leaves them empty.
const (
	DefaultCompanySize = "50 - 100 FTEs"
	allIndustries      = "All Industries"
)

// Steps returns the wizard in execution order.
func Steps() []Step {
	return []Step{
		{Name: "login", Run: login},
		{Name: "open market data", Run: clickStep(`//a[normalize-space()="Market Data"]`, `//a[contains(text(),"Market Data")]`)},
		{Name: "open compensation module", Run: clickStep(`//a[normalize-space()="CompAnalyst Market Data"]`, `//a[contains(text(),"CompAnalyst")]`)},
		{Name: "search job title", Run: searchTitle},
		{Name: "select first result", Run: selectFirstResult},
		{Name: "next", Run: clickStep(`a.btn.sa-wizard-btn-next`)},
		{Name: "new scope", Run: clickStep(
			`//a[span[@class="icon-add"] and contains(text(),"New Scope")]`,
			`//a[contains(text(),"New Scope")]`,
			`//button[contains(text(),"New Scope")]`,
			`//a[contains(@class,"btn") and contains(text(),"Scope")]`,
		)},
		{Name: "geography", Run: geography},
		{Name: "industry", Run: industry},
		{Name: "company size", Run: companySize},
		{Name: "apply scope", Run: clickStep(`#btn_add_scope_apply`, `button.btn.btn-cta`, `//button[contains(text(),"Apply")]`)},
		{Name: "proceed to pricing", Run: clickStep(`a.btn.btn-cta.sa-wizard-btn-next`)},
		{Name: "adjust pricing factors", Run: clickStep(
			`//button[contains(text(),"Adjust Pricing Factors")]`,
			`button.btn.btn-default.btn-cta[onclick*="adjustJobCompensableFactor"]`,
			`//button[contains(@class,"btn-cta") and contains(text(),"Adjust")]`,
		)},
		{Name: "experience", Soft: true, Run: experience},
		{Name: "education", Soft: true, Run: education},
		{Name: "recalculate", Run: clickStep(`button.btn.btn-primary.btn-recalculate`, `//button[contains(text(),"Recalculate")]`)},
		{Name: "tabular view", Run: clickStep(`#btnSingleDatagridTab`, `//a[contains(text(),"Data Grid")]`)},
		{Name: "extract table", Run: extractTable},
	}
}

// firstOf tries each selector in turn and returns the first success.
func firstOf(ctx context.Context, selectors []string, do func(sel string) error) error {
	var errs []error
	for _, sel := range selectors {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := do(sel)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", sel, err))
	}
	return errors.Join(errs...)
}

func clickStep(selectors ...string) func(context.Context, *run) error {
	return func(ctx context.Context, w *run) error {
		return firstOf(ctx, selectors, func(sel string) error { return w.page.Click(ctx, sel) })
	}
}

func login(ctx context.Context, w *run) error {
	if err := w.page.Navigate(ctx, w.creds.LoginURL); err != nil {
		return err
	}
	// The form is sometimes served inside an iframe; load the frame directly.
	if err := w.page.WaitVisible(ctx, `#loginid`); err != nil {
		src, attrErr := w.page.Attribute(ctx, `iframe`, "src")
		if attrErr != nil || src == "" {
			return fmt.Errorf("login form not found: %w", err)
		}
		if err := w.page.Navigate(ctx, src); err != nil {
			return err
		}
	}
	if err := w.page.Type(ctx, `#loginid`, w.creds.Username, false); err != nil {
		return err
	}
	if err := w.page.Type(ctx, `#password`, w.creds.Password, false); err != nil {
		return err
	}
	if err := firstOf(ctx, []string{`//button[contains(text(),"Sign In")]`, `button[type="submit"]`}, func(sel string) error {
		return w.page.Click(ctx, sel)
	}); err != nil {
		return err
	}
	// Optional interstitial.
	_ = w.page.Click(ctx, `#continueUseOld`)
	return nil
}

func searchTitle(ctx context.Context, w *run) error {
	return firstOf(ctx, []string{`input[type="search"][placeholder="Search..."]`, `input[type="search"]`}, func(sel string) error {
		return w.page.Type(ctx, sel, w.req.JobTitle, true)
	})
}

func selectFirstResult(ctx context.Context, w *run) error {
	if err := w.page.WaitVisible(ctx, `table tbody tr`); err != nil {
		return err
	}
	if err := w.page.Click(ctx, `table tbody tr label.sa-table-checkbox`); err != nil {
		return err
	}
	class, err := w.page.Attribute(ctx, `table tbody tr`, "class")
	if err != nil {
		return err
	}
	if !strings.Contains(class, "sa-table-row-selected") {
		return errors.New("first result row was not selected")
	}
	return nil
}

func geography(ctx context.Context, w *run) error {
	if err := firstOf(ctx, []string{
		`div[role="dialog"]`, `.modal-content`, `.modal`, `.sa-addscope-add`, `#addScopeModal`, `div[aria-modal="true"]`,
	}, func(sel string) error { return w.page.WaitVisible(ctx, sel) }); err != nil {
		return fmt.Errorf("scope dialog not shown: %w", err)
	}

	if w.page.WaitVisible(ctx, `#sa-addscope-geography`) != nil {
		_ = w.page.Click(ctx, `a[href="#sa-addscope-geography"]`)
	}

	if err := firstOf(ctx, []string{
		`input[placeholder="Search Metro, City, Zip..."]`,
		`#geography-search input`,
		`.sa-addscope-geography-container input[type="text"]`,
		`input.form-control[placeholder*="Metro"]`,
		`#geo_container input`,
	}, func(sel string) error { return w.page.Type(ctx, sel, w.req.City, false) }); err != nil {
		return fmt.Errorf("city search input not found: %w", err)
	}

	return firstOf(ctx, []string{
		`//div[@id="tab_searchResult"]//input[@type="checkbox"][1]`,
		`//ul[@class="ul-top1"]//input[@type="checkbox"]`,
	}, func(sel string) error { return w.page.Click(ctx, sel) })
}

// checkboxLabel builds selectors for a labeled checkbox inside a scope section.
func checkboxLabel(section, label string) []string {
	return []string{
		fmt.Sprintf(`//label[contains(.,%q)]/input[@type="checkbox"]`, label),
		fmt.Sprintf(`//input[@type="checkbox" and @value=%q]`, label),
		fmt.Sprintf(`//li[contains(.,%q)]//input[@type="checkbox"]`, label),
		fmt.Sprintf(`//div[@id=%q]//label[contains(.,%q)]//input[@type="checkbox"]`, section, label),
	}
}

// expandSection opens a collapsible scope section when it is not visible.
func expandSection(ctx context.Context, w *run, id string) {
	if w.page.WaitVisible(ctx, "#"+id) != nil {
		_ = w.page.Click(ctx, fmt.Sprintf(`a[href="#%s"]`, id))
	}
}

func industry(ctx context.Context, w *run) error {
	expandSection(ctx, w, "sa-addscope-industry")
	selectors := []string{`//li[@id="industry_I00"]//input[@type="checkbox"]`}
	selectors = append(selectors, checkboxLabel("sa-addscope-industry", allIndustries)...)
	if w.req.Industry != "" {
		selectors = append(checkboxLabel("sa-addscope-industry", w.req.Industry), selectors...)
	}
	return firstOf(ctx, selectors, func(sel string) error { return w.page.Click(ctx, sel) })
}

func companySize(ctx context.Context, w *run) error {
	expandSection(ctx, w, "sa-addscope-companysize")
	size := w.req.CompanySize
	if size == "" {
		size = DefaultCompanySize
	}
	return firstOf(ctx, checkboxLabel("sa-addscope-companysize", size), func(sel string) error {
		return w.page.Click(ctx, sel)
	})
}

func experience(ctx context.Context, w *run) error {
	_ = w.page.Click(ctx, `a.dropdown-toggle.text-black[data-toggle="dropdown"]`)
	_ = w.page.Click(ctx, `#UseSpecifyRange`)
	if err := w.page.SetValue(ctx, `#experience-slider-value`, strconv.Itoa(*w.req.ExperienceYears)); err != nil {
		return err
	}
	return firstOf(ctx, []string{
		`//button[contains(text(),"Apply") and @onclick="experienceApply();"]`,
		`//button[contains(@onclick,"experienceApply")]`,
	}, func(sel string) error { return w.page.Click(ctx, sel) })
}

func education(ctx context.Context, w *run) error {
	if err := w.page.Click(ctx, `a[data-toggle="dropdown"].educationlabel.PricingFactors`); err != nil {
		return err
	}
	return w.page.Click(ctx, fmt.Sprintf(
		`//ul[contains(@class,"dropdown-menu") and contains(@id,"EducationCodeBox")]//a[normalize-space()=%q]`,
		w.req.EducationLevel))
}

func extractTable(ctx context.Context, w *run) error {
	html, err := w.page.OuterHTML(ctx, `//table[contains(@class,"tablesaw")]`)
	if err != nil {
		return fmt.Errorf("data grid table not found: %w", err)
	}
	headers, rows, err := ParseTable(html)
	if err != nil {
		return err
	}
	w.table.Headers = headers
	w.table.Rows = rows
	w.table.TotalRows = len(rows)
	return nil
}
