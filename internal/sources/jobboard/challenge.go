package jobboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/comp-collector/internal/fetch"
)

const challengeFrame = "challenges.cloudflare.com/cdn-cgi/challenge-platform"

var siteKeyInSrc = regexp.MustCompile(`/(0x[a-zA-Z0-9]+)`)

// DetectChallenge reports whether the page shows a human-verification
// challenge.
func DetectChallenge(html string) bool {
	lower := strings.ToLower(html)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(lower))
	if err == nil {
		found := false
		doc.Find("iframe[src]").EachWithBreak(func(_ int, f *goquery.Selection) bool {
			src, _ := f.Attr("src")
			found = strings.Contains(src, challengeFrame)
			return !found
		})
		if found || doc.Find("div.cf-turnstile, div[data-sitekey]").Length() > 0 {
			return true
		}
	}
	for _, hint := range []string{"verify you are human", "cf-turnstile", "security check"} {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

// SiteKey finds the challenge site key in a data-sitekey attribute or in
// the challenge iframe URL.
func SiteKey(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	if key, ok := doc.Find("[data-sitekey]").First().Attr("data-sitekey"); ok && strings.HasPrefix(key, "0x") {
		return key
	}
	var key string
	doc.Find("iframe[src]").EachWithBreak(func(_ int, f *goquery.Selection) bool {
		src, _ := f.Attr("src")
		if !strings.Contains(src, "0x") {
			return true
		}
		if m := siteKeyInSrc.FindStringSubmatch(src); m != nil {
			key = m[1]
			return false
		}
		return true
	})
	return key
}

// injectTokenScript fills the challenge response inputs and submits.
func injectTokenScript(token string) string {
	return fmt.Sprintf(`(function(){
		const token = %s;
		for (const sel of ["input[name='cf-turnstile-response']", "input[name='cf_challenge_response']", "input[id$='_response']"]) {
			const el = document.querySelector(sel);
			if (el) { el.value = token; el.style.display = "block"; }
		}
		const form = document.querySelector("form");
		if (form) { form.submit(); return true; }
		const btn = document.querySelector("button[type='submit'],input[type='submit']");
		if (btn) { btn.click(); }
		return true;
	})()`, jsString(token))
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// Solver turns a challenge site key into a response token.
type Solver interface {
	Solve(ctx context.Context, siteKey, pageURL string) (string, error)
}

// ErrSolverTimeout is returned when no solution arrives in time.
var ErrSolverTimeout = errors.New("captcha not solved within allowed time")

// CaptchaError reports a failed exchange with the solving service.
type CaptchaError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *CaptchaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("captcha %s failed: %v", e.Stage, e.Cause)
	}
	return fmt.Sprintf("captcha %s rejected: %s", e.Stage, e.Message)
}

func (e *CaptchaError) Unwrap() error {
	return e.Cause
}

// TwoCaptcha is a client for a 2captcha-compatible solving API.
type TwoCaptcha struct {
	APIKey    string
	SubmitURL string
	ResultURL string
	// PollInterval defaults to 5s and MaxWait to 120s.
	PollInterval time.Duration
	MaxWait      time.Duration
	Fetch        *fetch.Options
}

type solverResponse struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
}

func (s *TwoCaptcha) get(ctx context.Context, endpoint string, params url.Values) (solverResponse, error) {
	var out solverResponse
	opts := s.Fetch
	if opts == nil {
		opts = fetch.DefaultOptions()
	}
	res, err := fetch.URL(ctx, endpoint+"?"+params.Encode(), opts)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(res.HTML), &out); err != nil {
		return out, fmt.Errorf("unexpected solver response: %w", err)
	}
	return out, nil
}

// Solve submits a turnstile task and polls for the token.
func (s *TwoCaptcha) Solve(ctx context.Context, siteKey, pageURL string) (string, error) {
	if s.APIKey == "" {
		return "", errors.New("captcha API key not configured")
	}
	interval := s.PollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	maxWait := s.MaxWait
	if maxWait <= 0 {
		maxWait = 120 * time.Second
	}

	submitted, err := s.get(ctx, s.SubmitURL, url.Values{
		"key":     {s.APIKey},
		"method":  {"turnstile"},
		"sitekey": {siteKey},
		"pageurl": {pageURL},
		"json":    {"1"},
	})
	if err != nil {
		return "", &CaptchaError{Stage: "submit", Cause: err}
	}
	if submitted.Status != 1 {
		return "", &CaptchaError{Stage: "submit", Message: submitted.Request}
	}

	poll := url.Values{"key": {s.APIKey}, "action": {"get"}, "id": {submitted.Request}, "json": {"1"}}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for waited := time.Duration(0); waited < maxWait; waited += interval {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
		res, err := s.get(ctx, s.ResultURL, poll)
		if err != nil {
			return "", &CaptchaError{Stage: "poll", Cause: err}
		}
		if res.Status == 1 {
			return res.Request, nil
		}
	}
	return "", ErrSolverTimeout
}
