package scoring

import (
	"testing"

	"github.com/fyrsmithlabs/outings/internal/store"
)

func TestPatternScorer_Score(t *testing.T) {
	scorer, err := NewPatternScorer(DefaultRules())
	if err != nil {
		t.Fatalf("NewPatternScorer() error = %v", err)
	}

	tests := []struct {
		name           string
		content        string
		wantMatch      bool
		wantRule       string
		wantConfidence float64
	}{
		{
			name:           "we should with activity keyword boosted to cap",
			content:        "We should try that new hiking trail at Coromandel!",
			wantMatch:      true,
			wantRule:       "we_should",
			wantConfidence: 1.0, // 0.9 + 0.15 capped
		},
		{
			name:           "lets go without activity keyword",
			content:        "let's go to that place next month",
			wantMatch:      true,
			wantRule:       "lets_go",
			wantConfidence: 0.85,
		},
		{
			name:      "exclusion dominates inclusion",
			content:   "we should go get groceries on the way",
			wantMatch: false,
		},
		{
			name:      "work context excluded",
			content:   "we need to finish the report for work",
			wantMatch: false,
		},
		{
			name:      "negated let's go excluded",
			content:   "let's go home, I'm tired",
			wantMatch: false,
		},
		{
			name:      "no pattern",
			content:   "haha yeah that was so funny",
			wantMatch: false,
		},
		{
			name:      "empty content",
			content:   "",
			wantMatch: false,
		},
		{
			name:           "bucket list outranks co-occurring patterns",
			content:        "bucket list: we should visit Queenstown",
			wantMatch:      true,
			wantRule:       "bucket_list",
			wantConfidence: 1.0, // 0.95 + 0.15 capped
		},
		{
			name:           "activity boost below cap",
			content:        "it would be fun to go to the beach",
			wantMatch:      true,
			wantRule:       "would_be_fun",
			wantConfidence: 0.9, // 0.75 + 0.15
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := scorer.Score(store.Message{ID: 1, Content: tt.content})
			if ok != tt.wantMatch {
				t.Fatalf("Score() match = %v, want %v", ok, tt.wantMatch)
			}
			if !tt.wantMatch {
				return
			}
			if c.Rule != tt.wantRule {
				t.Errorf("Rule = %q, want %q", c.Rule, tt.wantRule)
			}
			if c.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %v, want %v", c.Confidence, tt.wantConfidence)
			}
			if c.Source != SourceLexical {
				t.Errorf("Source = %q, want %q", c.Source, SourceLexical)
			}
		})
	}
}

func TestPatternScorer_PriorityTiebreak(t *testing.T) {
	// Two rules with the same regex reach; the higher priority wins
	// regardless of declaration order.
	rules := []Rule{
		{Name: "low", Regex: `\bgo\b`, Confidence: 0.5, Priority: 1},
		{Name: "high", Regex: `\bgo\b`, Confidence: 0.5, Priority: 2},
	}
	scorer, err := NewPatternScorer(rules)
	if err != nil {
		t.Fatalf("NewPatternScorer() error = %v", err)
	}

	c, ok := scorer.Score(store.Message{ID: 1, Content: "go"})
	if !ok {
		t.Fatal("Score() did not match")
	}
	if c.Rule != "high" {
		t.Errorf("Rule = %q, want %q (priority order)", c.Rule, "high")
	}
}

func TestPatternScorer_ScoreAll(t *testing.T) {
	scorer, err := NewPatternScorer(DefaultRules())
	if err != nil {
		t.Fatalf("NewPatternScorer() error = %v", err)
	}

	msgs := []store.Message{
		{ID: 1, Content: "we should visit Hobbiton one day"},
		{ID: 2, Content: "ok sounds good"},
		{ID: 3, Content: "let's try kayaking at Raglan"},
	}
	got := scorer.ScoreAll(msgs)
	if len(got) != 2 {
		t.Fatalf("ScoreAll() got %d candidates, want 2", len(got))
	}
	if got[0].MessageID != 1 || got[1].MessageID != 3 {
		t.Errorf("ScoreAll() message ids = %d, %d, want 1, 3", got[0].MessageID, got[1].MessageID)
	}
}

func TestNewPatternScorer_InvalidRegex(t *testing.T) {
	_, err := NewPatternScorer([]Rule{{Name: "bad", Regex: "(", Confidence: 0.5}})
	if err == nil {
		t.Fatal("NewPatternScorer() expected error for invalid regex")
	}
}
