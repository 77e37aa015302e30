package jobindex

import (
	_ "embed"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

// Tables drive query expansion and domain detection.
type Tables struct {
	Abbreviations []Abbreviation `yaml:"abbreviations"`
	Synonyms      []Synonym      `yaml:"synonyms"`
	Suffixes      []SuffixRule   `yaml:"suffixes"`
	Domains       []Domain       `yaml:"domains"`
	// FallbackGroups are probed when group discovery finds nothing.
	FallbackGroups []string `yaml:"fallback_groups"`

	abbrevPatterns  []*regexp.Regexp
	synonymPatterns []*regexp.Regexp
}

// Abbreviation expands a whole-word abbreviation.
type Abbreviation struct {
	Abbrev     string   `yaml:"abbrev"`
	Expansions []string `yaml:"expansions"`
}

// Synonym replaces a short word form with longer forms.
type Synonym struct {
	Short string   `yaml:"short"`
	Long  []string `yaml:"long"`
}

// SuffixRule augments queries that contain any trigger word.
type SuffixRule struct {
	Triggers []string `yaml:"triggers"`
	Append   []string `yaml:"append"`
	Prepend  []string `yaml:"prepend"`
}

// Domain is a named keyword set used for domain-aware matching.
type Domain struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// ParseTables decodes and compiles a tables document.
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse matching tables: %w", err)
	}
	t.abbrevPatterns = make([]*regexp.Regexp, len(t.Abbreviations))
	for i, a := range t.Abbreviations {
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(a.Abbrev) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("bad abbreviation %q: %w", a.Abbrev, err)
		}
		t.abbrevPatterns[i] = re
	}
	t.synonymPatterns = make([]*regexp.Regexp, len(t.Synonyms))
	for i, syn := range t.Synonyms {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(syn.Short) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("bad synonym %q: %w", syn.Short, err)
		}
		t.synonymPatterns[i] = re
	}
	return &t, nil
}

// DefaultTables returns the embedded tables.
func DefaultTables() *Tables {
	t, err := ParseTables(tablesYAML)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Tables) domain(name string) (Domain, bool) {
	for _, d := range t.Domains {
		if d.Name == name {
			return d, true
		}
	}
	return Domain{}, false
}
