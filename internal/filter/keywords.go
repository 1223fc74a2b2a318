package filter

import (
	"strings"

	"github.com/jlrodriguez/jobsift/internal/schema"
)

type keywordExclusionStep struct {
	rules         []ExcludeRule
	caseSensitive bool
}

// newKeywordExclusion creates the step that drops a row when any
// configured keyword occurs as a substring in the row's value for that
// rule's column. Rules combine with logical OR, keywords within a rule
// with logical OR.
func newKeywordExclusion(rules []ExcludeRule, caseSensitive bool) Step {
	return &keywordExclusionStep{rules: rules, caseSensitive: caseSensitive}
}

func (s *keywordExclusionStep) Name() string { return "keyword_exclusion" }

func (s *keywordExclusionStep) Enabled() bool { return len(s.rules) > 0 }

func (s *keywordExclusionStep) Validate() error {
	for _, rule := range s.rules {
		if err := validateColumns(rule.Column); err != nil {
			return err
		}
	}
	return nil
}

func (s *keywordExclusionStep) Apply(rows []schema.Row) ([]schema.Row, Summary, error) {
	initial := len(rows)
	kept := make([]schema.Row, 0, initial)

	for _, row := range rows {
		if !s.excluded(row) {
			kept = append(kept, row)
		}
	}

	return kept, Summary{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

func (s *keywordExclusionStep) excluded(row schema.Row) bool {
	for _, rule := range s.rules {
		value, _ := row.Field(rule.Column)
		for _, keyword := range rule.Keywords {
			if keyword == "" {
				continue
			}
			if s.contains(value, keyword) {
				return true
			}
		}
	}
	return false
}

func (s *keywordExclusionStep) contains(value, keyword string) bool {
	if s.caseSensitive {
		return strings.Contains(value, keyword)
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(keyword))
}
