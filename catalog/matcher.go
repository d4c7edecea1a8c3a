package catalog

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Keyword match modes.
const (
	// A keyword matches if it appears anywhere in the lemma field.
	MatchSubstring = "substring"

	// A keyword matches if it equals one of the lemma tokens.
	MatchWord = "word"
)

// Model ids in the catalogs carry a source prefix that is not part of the
// archive member paths.
const idPrefix = "3dw."

// Matcher selects catalog records whose lemma field matches any of a set of keywords.
type Matcher struct {
	keywords []string
	mode     string
	foldCase bool
}

// Create a new matcher.
func NewMatcher(keywords []string, mode string, foldCase bool) (*Matcher, error) {
	if mode != MatchSubstring && mode != MatchWord {
		return nil, errors.Errorf("catalog: unknown match mode %q", mode)
	}

	m := &Matcher{
		keywords: make([]string, 0, len(keywords)),
		mode:     mode,
		foldCase: foldCase,
	}
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if foldCase {
			keyword = strings.ToLower(keyword)
		}
		m.keywords = append(m.keywords, keyword)
	}
	return m, nil
}

// Returns true if the lemma field matches any keyword.
func (m *Matcher) Match(lemmas string) bool {
	if m.foldCase {
		lemmas = strings.ToLower(lemmas)
	}

	if m.mode == MatchSubstring {
		for _, keyword := range m.keywords {
			if strings.Contains(lemmas, keyword) {
				return true
			}
		}
		return false
	}

	for _, token := range splitLemmas(lemmas) {
		for _, keyword := range m.keywords {
			if token == keyword {
				return true
			}
		}
	}
	return false
}

// Select the ids of matching records. Ids are returned without their source
// prefix, de-duplicated and in catalog order.
func (m *Matcher) Select(records []Record) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, rec := range records {
		if !m.Match(rec.WNLemmas) {
			continue
		}

		id := ModelID(rec.FullID)
		if id == "" {
			continue
		}
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Get the model id for a catalog fullId. Only a leading source prefix is
// removed; any later occurrence is part of the id.
func ModelID(fullID string) string {
	return strings.TrimPrefix(strings.TrimSpace(fullID), idPrefix)
}

// Lemma fields are lists of words separated by semicolons, commas or whitespace.
func splitLemmas(lemmas string) []string {
	return strings.FieldsFunc(lemmas, func(r rune) bool {
		return r == ';' || r == ',' || unicode.IsSpace(r)
	})
}
