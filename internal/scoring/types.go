// Package scoring contains the stateless candidate scorers: a lexical
// rule engine over message text and a link-type scorer over messages
// that carry classified URLs. Both emit at most one scored candidate
// per message; the merge engine reconciles them.
package scoring

import "fmt"

// Source identifies the strategy that produced a candidate.
type Source string

const (
	SourceLexical    Source = "regex"
	SourceURL        Source = "url"
	SourceClassifier Source = "llm"
)

// Candidate is a transient, strategy-scoped suggestion guess for one
// message. It is consumed immediately by the merge engine and never
// persisted as-is.
type Candidate struct {
	MessageID int64
	Source    Source
	// Rule is the matched rule name (lexical) or link type (url).
	Rule       string
	Confidence float64
	Activity   *string
	Location   *string
	// Priority breaks confidence ties between candidates for the same
	// message; higher wins.
	Priority int
}

// ProvenanceTag is the suggestion_type value recorded on the canonical
// row, e.g. "regex:we_should" or "url:tiktok".
func (c Candidate) ProvenanceTag() string {
	if c.Rule == "" {
		return string(c.Source)
	}
	return fmt.Sprintf("%s:%s", c.Source, c.Rule)
}

// clamp caps a confidence at 1.0.
func clamp(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}
