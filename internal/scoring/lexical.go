package scoring

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/fyrsmithlabs/outings/internal/store"
)

// PatternScorer is the stateless lexical rule engine. It is a pure
// function of message text plus the rule table.
type PatternScorer struct {
	rules []compiledRule
}

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

// NewPatternScorer compiles the given rules, or DefaultRules when nil,
// and orders them by priority descending.
func NewPatternScorer(rules []Rule) (*PatternScorer, error) {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.Regex)
		if err != nil {
			return nil, fmt.Errorf("scoring: rule %q: %w", r.Name, err)
		}
		compiled = append(compiled, compiledRule{Rule: r, re: re})
	}
	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].Priority > compiled[j].Priority
	})
	return &PatternScorer{rules: compiled}, nil
}

// Score returns the candidate for one message, if any. The exclusion
// check runs first and dominates: an excluded message yields nothing
// even when an inclusion rule would match. Otherwise the highest-
// priority matching rule wins, boosted when an activity keyword is
// also present.
func (p *PatternScorer) Score(m store.Message) (Candidate, bool) {
	if m.Content == "" || isExcluded(m.Content) {
		return Candidate{}, false
	}
	for _, r := range p.rules {
		if !r.re.MatchString(m.Content) {
			continue
		}
		confidence := r.Confidence
		if hasActivityKeyword(m.Content) {
			confidence = clamp(confidence + activityBoost)
		}
		return Candidate{
			MessageID:  m.ID,
			Source:     SourceLexical,
			Rule:       r.Name,
			Confidence: confidence,
			Priority:   r.Priority,
		}, true
	}
	return Candidate{}, false
}

// ScoreAll scores every message, emitting at most one candidate each.
func (p *PatternScorer) ScoreAll(msgs []store.Message) []Candidate {
	var out []Candidate
	for _, m := range msgs {
		if c, ok := p.Score(m); ok {
			out = append(out, c)
		}
	}
	return out
}
