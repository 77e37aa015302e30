// Package prompts holds the LLM prompt templates used by the query
// interpreter.
package prompts

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"
)

//go:embed *.tmpl
var templateFiles embed.FS

// Prompt names.
const (
	SkipIntent       = "skip-intent"
	FollowUpQuestion = "follow-up-question"
	FollowUpContext  = "follow-up-context"
)

var parsed = sync.OnceValues(func() (*template.Template, error) {
	return template.New("prompts").Option("missingkey=error").ParseFS(templateFiles, "*.tmpl")
})

// Render executes the named prompt with data. Every placeholder must be
// present in data.
func Render(name string, data map[string]string) (string, error) {
	set, err := parsed()
	if err != nil {
		return "", fmt.Errorf("parse prompts: %w", err)
	}
	tmpl := set.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("prompt %q not defined", name)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render prompt %q: %w", name, err)
	}
	return sb.String(), nil
}

// MustRender is Render for prompts whose data is fixed at the call site.
func MustRender(name string, data map[string]string) string {
	out, err := Render(name, data)
	if err != nil {
		panic(err)
	}
	return out
}

// Names lists the defined prompts, sorted.
func Names() []string {
	set, err := parsed()
	if err != nil {
		return nil
	}
	var names []string
	for _, t := range set.Templates() {
		if name := t.Name(); name != "prompts" && !strings.HasSuffix(name, ".tmpl") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
