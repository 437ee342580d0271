package scoring

import (
	"regexp"
	"strings"

	"github.com/fyrsmithlabs/outings/internal/store"
)

// Link-type base confidences. Types missing from this table do not
// produce candidates.
var urlTypeConfidence = map[string]float64{
	"google_maps": 0.7,
	"airbnb":      0.8,
	"booking":     0.8,
	"tripadvisor": 0.75,
	"event":       0.85,
	"tiktok":      0.5,
	"youtube":     0.4,
}

// Social video links are only a signal when the sender wrote something
// beyond the bare link.
var socialVideoTypes = map[string]bool{"tiktok": true, "youtube": true}

const (
	suggestionPhraseBoost = 0.25
	urlActivityBoost      = 0.1
)

// Suggestion phrasing that strengthens a shared link.
var suggestionPhrases = []string{
	"let's go", "lets go", "we should", "wanna go", "want to go", "should we",
	"check this out", "look at this", "this looks", "bucket list",
}

var bareURLRe = regexp.MustCompile(`^\s*https?://\S+\s*$`)

// URLScorer scores messages that carry a classified outbound link.
type URLScorer struct{}

// NewURLScorer returns a URL-signal scorer.
func NewURLScorer() *URLScorer {
	return &URLScorer{}
}

// Score emits at most one candidate for a message with links: only the
// first link whose type has a base confidence is considered, even when
// several links are present.
func (u *URLScorer) Score(ml store.MessageLinks) (Candidate, bool) {
	for _, link := range ml.Links {
		base, ok := urlTypeConfidence[link.Type]
		if !ok {
			continue
		}
		if socialVideoTypes[link.Type] && isBareLink(ml.Message.Content, link.URL) {
			continue
		}

		confidence := base
		lower := strings.ToLower(ml.Message.Content)
		for _, phrase := range suggestionPhrases {
			if strings.Contains(lower, phrase) {
				confidence += suggestionPhraseBoost
				break
			}
		}
		if hasActivityKeyword(ml.Message.Content) {
			confidence += urlActivityBoost
		}

		return Candidate{
			MessageID:  ml.Message.ID,
			Source:     SourceURL,
			Rule:       link.Type,
			Confidence: clamp(confidence),
		}, true
	}
	return Candidate{}, false
}

// ScoreAll scores every message that carries links.
func (u *URLScorer) ScoreAll(links []store.MessageLinks) []Candidate {
	var out []Candidate
	for _, ml := range links {
		if c, ok := u.Score(ml); ok {
			out = append(out, c)
		}
	}
	return out
}

// isBareLink reports whether the message is nothing but the link itself.
func isBareLink(content, url string) bool {
	trimmed := strings.TrimSpace(content)
	return trimmed == url || bareURLRe.MatchString(trimmed)
}
