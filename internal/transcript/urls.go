package transcript

import (
	"regexp"
	"strings"
)

var urlRe = regexp.MustCompile(`(?i)https?://[^\s<>"')\]]+`)

// ExtractURLs pulls every link out of content, dropping trailing
// sentence punctuation that the export glues onto them.
func ExtractURLs(content string) []string {
	var out []string
	for _, u := range urlRe.FindAllString(content, -1) {
		u = strings.TrimRight(u, ".,;:!?")
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

// urlTypes maps hostname fragments to link types, checked in order so
// the more specific fragments win.
var urlTypes = []struct {
	fragments []string
	kind      string
}{
	{[]string{"tiktok.com", "vt.tiktok"}, "tiktok"},
	{[]string{"youtube.com", "youtu.be", "music.youtube"}, "youtube"},
	{[]string{"instagram.com"}, "instagram"},
	{[]string{"maps.google", "goo.gl/maps", "maps.app.goo.gl"}, "google_maps"},
	{[]string{"trademe.co.nz"}, "trademe"},
	{[]string{"airbnb"}, "airbnb"},
	{[]string{"booking.com"}, "booking"},
	{[]string{"tripadvisor"}, "tripadvisor"},
	{[]string{"eventfinda", "ticketmaster", "eventbrite"}, "event"},
}

// ClassifyURL tags a link with its type; unknown hosts are "website".
func ClassifyURL(url string) string {
	lower := strings.ToLower(url)
	for _, ut := range urlTypes {
		for _, frag := range ut.fragments {
			if strings.Contains(lower, frag) {
				return ut.kind
			}
		}
	}
	return "website"
}
