package jobboard

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed board.yaml
var boardYAML []byte

// Selectors are prioritized CSS selector lists; the first match wins.
type Selectors struct {
	Cards        []string `yaml:"cards"`
	Title        []string `yaml:"title"`
	Company      []string `yaml:"company"`
	Location     []string `yaml:"location"`
	Posted       []string `yaml:"posted"`
	CardSalary   []string `yaml:"card_salary"`
	DetailSalary []string `yaml:"detail_salary"`
	Description  []string `yaml:"description"`
	SearchInput  []string `yaml:"search_input"`
}

// Board holds the title aliases and page selectors.
type Board struct {
	Aliases   map[string][]string `yaml:"aliases"`
	Selectors Selectors           `yaml:"selectors"`
}

// ParseBoard decodes a board document. Alias keys are matched
// case-insensitively.
func ParseBoard(data []byte) (*Board, error) {
	var b Board
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse board config: %w", err)
	}
	normalized := make(map[string][]string, len(b.Aliases))
	for k, v := range b.Aliases {
		normalized[strings.ToLower(strings.TrimSpace(k))] = v
	}
	b.Aliases = normalized
	return &b, nil
}

// DefaultBoard returns the embedded board config.
func DefaultBoard() *Board {
	b, err := ParseBoard(boardYAML)
	if err != nil {
		panic(err)
	}
	return b
}

// SearchTitles returns the phrasings to search for title. A title without
// an alias entry is searched as given.
func (b *Board) SearchTitles(title string) []string {
	if aliases, ok := b.Aliases[strings.ToLower(strings.TrimSpace(title))]; ok && len(aliases) > 0 {
		return aliases
	}
	return []string{title}
}

// AllowedTitles is the lowercased set of titles a posting may match: the
// alias group containing title (key included), or title alone.
func (b *Board) AllowedTitles(title string) []string {
	key := strings.ToLower(strings.TrimSpace(title))
	group, ok := b.Aliases[key]
	if !ok {
		for k, aliases := range b.Aliases {
			if containsFold(aliases, key) {
				key, group, ok = k, aliases, true
				break
			}
		}
	}
	if !ok {
		return []string{key}
	}

	out := []string{key}
	seen := map[string]bool{key: true}
	for _, a := range group {
		a = strings.ToLower(strings.TrimSpace(a))
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}
