// Package geocode resolves place names mentioned in suggestions into
// coordinates through a Google-style geocoding API.
package geocode

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Regions and well-known attractions checked by substring. The list
// is NZ-centric because so is the transcript; the capitalized-phrase
// fallback below catches places not on it.
var knownPlaces = []string{
	"auckland", "wellington", "christchurch", "hamilton", "tauranga", "dunedin",
	"queenstown", "rotorua", "napier", "nelson", "palmerston north", "new plymouth",
	"whangarei", "invercargill", "gisborne", "timaru", "blenheim", "taupo",
	"hastings", "wanaka", "picton", "kaikoura", "franz josef", "milford",
	"coromandel", "waiheke", "matakana", "piha", "raglan", "mount maunganui",
	"bay of islands", "paihia", "russell", "kerikeri", "hokianga",
	"tongariro", "ruapehu", "taranaki", "abel tasman", "marlborough",
	"fiordland", "otago", "southland", "waikato", "northland", "hawke's bay",
	"hobbiton", "waitomo", "sky tower", "te papa", "milford sound",
	"mount cook", "tongariro crossing", "cathedral cove", "hot water beach",
	"wai-o-tapu", "redwoods", "luge", "zorb", "bungy", "jet boat",
}

// Runs of capitalized words, allowing lowercase connectives inside
// ("Bay of Islands", "Mount Eden").
var capPhraseRe = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s+(?:of|the|and|at|in|on)?\s*[A-Z][a-z]+)*)\b`)

var capStopwords = map[string]bool{
	"The": true, "And": true, "But": true, "For": true,
}

// ExtractPlaces returns candidate place names found in text: known
// places first, then capitalized phrases. Deduplicated, deterministic
// order.
func ExtractPlaces(text string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	lower := strings.ToLower(text)
	titler := cases.Title(language.English)
	var known []string
	for _, place := range knownPlaces {
		if strings.Contains(lower, place) {
			known = append(known, titler.String(place))
		}
	}
	sort.Strings(known)
	for _, p := range known {
		add(p)
	}

	for _, m := range capPhraseRe.FindAllString(text, -1) {
		if len(m) > 3 && !capStopwords[m] {
			add(m)
		}
	}
	return out
}
