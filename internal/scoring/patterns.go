package scoring

import "regexp"

// Rule is one lexical suggestion-detection rule. Priority is explicit
// rather than implied by list position: rules are tried from highest
// to lowest priority and the first match wins, so the most specific
// phrasing must carry the highest priority.
type Rule struct {
	Name       string  `json:"name"`
	Regex      string  `json:"regex"`
	Confidence float64 `json:"confidence"`
	Priority   int     `json:"priority"`
}

// activityBoost is added to a rule's base confidence when the text
// also mentions an activity or place keyword, capped at 1.0.
const activityBoost = 0.15

// DefaultRules returns the built-in suggestion phrasing rules.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "bucket_list", Regex: `(?i)\bbucket ?list\b`, Confidence: 0.95, Priority: 170},
		{Name: "we_should", Regex: `(?i)\bwe should\b`, Confidence: 0.9, Priority: 160},
		{Name: "must_visit", Regex: `(?i)\bmust visit\b|\bmust go\b|\bhave to visit\b`, Confidence: 0.9, Priority: 150},
		{Name: "lets_go", Regex: `(?i)\blet'?s go\b`, Confidence: 0.85, Priority: 140},
		{Name: "lets_try", Regex: `(?i)\blet'?s try\b`, Confidence: 0.85, Priority: 130},
		{Name: "wanna_go", Regex: `(?i)\bwanna go\b|\bwant to go\b`, Confidence: 0.85, Priority: 120},
		{Name: "lets_do", Regex: `(?i)\blet'?s do\b`, Confidence: 0.8, Priority: 110},
		{Name: "should_we", Regex: `(?i)\bshould we\b`, Confidence: 0.8, Priority: 100},
		{Name: "would_be_fun", Regex: `(?i)\bwould be (fun|cool|nice)\b`, Confidence: 0.75, Priority: 90},
		{Name: "can_we", Regex: `(?i)\bcan we\b.*\b(go|try|do|visit|see)\b`, Confidence: 0.75, Priority: 80},
		{Name: "we_could", Regex: `(?i)\bwe could\b`, Confidence: 0.7, Priority: 70},
		{Name: "one_day", Regex: `(?i)\bone day\b.*\b(go|visit|try|do|see)\b`, Confidence: 0.7, Priority: 60},
		{Name: "next_time", Regex: `(?i)\bnext time\b.*\b(go|visit|try|do|see|should)\b`, Confidence: 0.7, Priority: 50},
		{Name: "come_back", Regex: `(?i)\bcome back\b.*\b(and|to)\b`, Confidence: 0.65, Priority: 40},
		{Name: "i_want_to", Regex: `(?i)\bi want to\b`, Confidence: 0.6, Priority: 30},
		{Name: "we_need_to", Regex: `(?i)\bwe need to\b`, Confidence: 0.6, Priority: 20},
		{Name: "looks_fun", Regex: `(?i)\blooks? (fun|amazing|awesome|incredible|beautiful)\b`, Confidence: 0.5, Priority: 10},
	}
}

// Activity and place keywords that boost a matched rule's confidence.
var activityKeywords = []string{
	`\b(restaurant|cafe|coffee|bar|pub|brewery|winery|vineyard)\b`,
	`\b(beach|lake|river|waterfall|hot springs?|pool)\b`,
	`\b(hike|hiking|walk|trail|track|trek)\b`,
	`\b(mountain|hill|volcano|summit|peak)\b`,
	`\b(park|garden|reserve|sanctuary|forest)\b`,
	`\b(museum|gallery|exhibition|art)\b`,
	`\b(market|farmers market|night market)\b`,
	`\b(concert|show|theatre|movie|cinema|festival|event)\b`,
	`\b(hotel|airbnb|bach|accommodation|camping|glamping)\b`,
	`\b(kayak|paddleboard|surf|dive|snorkel|swim)\b`,
	`\b(ski|snowboard|bungy|skydive|zipline)\b`,
	`\b(tour|cruise|trip|getaway|holiday|vacation|road trip)\b`,
	`\b(rotorua|queenstown|wellington|taupo|coromandel|bay of islands)\b`,
	`\b(auckland|waiheke|matakana|piha|muriwai|raglan)\b`,
	`\b(hobbiton|milford|waitomo|tongariro)\b`,
}

// Exclusion vocabulary: chores, appointments, commerce and negations.
// A message matching any of these yields no lexical candidate at all;
// exclusion dominates inclusion.
var exclusionPatterns = []string{
	`(?i)\b(work|job|meeting|email|call|pay|bill|tax)\b`,
	`(?i)\b(doctor|dentist|hospital|appointment)\b`,
	`(?i)\b(groceries|shopping|buy|sell|order)\b`,
	`(?i)\b(clean|laundry|dishes|vacuum)\b`,
	`(?i)\b(should not|shouldn't|can't|cannot)\b`,
	// Negated phrasings of the inclusion rules. RE2 has no lookahead,
	// so these live here and exclusion-dominates does the rest.
	`(?i)\bshould (stop|avoid)\b`,
	`(?i)\blet'?s go (home|back|now)\b`,
	`(?i)\bi want to (die|cry|leave)\b`,
	`(?i)\bwe (need to|should) (stop|avoid)\b`,
	`(?i)\bwe could (not|never)\b`,
}

var (
	activityRe  = regexp.MustCompile(`(?i)` + join(activityKeywords))
	exclusionRe = compileAll(exclusionPatterns)
)

func join(patterns []string) string {
	out := ""
	for i, p := range patterns {
		if i > 0 {
			out += "|"
		}
		out += p
	}
	return out
}

func compileAll(patterns []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// hasActivityKeyword reports whether text mentions an activity or
// place keyword.
func hasActivityKeyword(text string) bool {
	return activityRe.MatchString(text)
}

// isExcluded reports whether text matches any exclusion pattern.
func isExcluded(text string) bool {
	for _, re := range exclusionRe {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
