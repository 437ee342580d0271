package classifier

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Verdict is one judgment from the model. Activity and Location are
// nil when the model returned null or omitted the field.
type Verdict struct {
	MessageID    int64   `json:"message_id"`
	IsSuggestion bool    `json:"is_suggestion"`
	Activity     *string `json:"activity"`
	Location     *string `json:"location"`
	Confidence   float64 `json:"confidence"`
}

var (
	fencedJSONRe = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")
	bareArrayRe  = regexp.MustCompile(`\[[\s\S]*\]`)
)

// ParseVerdicts extracts the verdict array from a model reply. The
// model usually wraps the JSON in a fenced block but sometimes emits a
// bare array inside narrative text; both forms are accepted. An error
// here still counts as an interpreted reply: the batch is done, the
// verdicts are just unusable.
func ParseVerdicts(text string) ([]Verdict, error) {
	var jsonStr string
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		jsonStr = m[1]
	} else if m := bareArrayRe.FindString(text); m != "" {
		jsonStr = m
	} else {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var verdicts []Verdict
	if err := json.Unmarshal([]byte(jsonStr), &verdicts); err != nil {
		return nil, fmt.Errorf("failed to parse verdicts: %w", err)
	}
	// Models occasionally report confidence outside [0,1]; clamp rather
	// than reject, the verdict itself is still usable.
	for i, v := range verdicts {
		if v.Confidence > 1 {
			verdicts[i].Confidence = 1
		} else if v.Confidence < 0 {
			verdicts[i].Confidence = 0
		}
	}
	return verdicts, nil
}
