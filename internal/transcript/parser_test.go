package transcript

import (
	"strings"
	"testing"
	"time"
)

const sampleExport = `[3/15/23, 7:42:11 PM] Anna Smith: we should try that new hiking trail
[3/15/23, 7:43:02 PM] Ben Jones: yes! this weekend?
maybe Sunday
[3/15/23, 7:45:30 PM] Anna Smith: ` + "‎" + `image omitted
[3/16/23, 9:01:00 AM] Ben Jones: check this out https://vt.tiktok.com/abc123/.
[3/16/23, 9:02:15 AM] Anna Smith: This message was deleted
[3/16/23, 9:05:00 AM] Ben Jones: booked! https://www.airbnb.co.nz/rooms/42
`

func TestParse(t *testing.T) {
	msgs, urls, stats, err := Parse(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(msgs) != 6 {
		t.Fatalf("Parse() got %d messages, want 6", len(msgs))
	}
	if stats.Messages != 6 {
		t.Errorf("stats.Messages = %d, want 6", stats.Messages)
	}

	// Dense ordinal ids in file order.
	for i, m := range msgs {
		if m.ID != int64(i) {
			t.Errorf("message %d has id %d, want %d", i, m.ID, i)
		}
	}

	// Multi-line continuation.
	if want := "yes! this weekend?\nmaybe Sunday"; msgs[1].Content != want {
		t.Errorf("continuation content = %q, want %q", msgs[1].Content, want)
	}

	// Media placeholder with invisible mark stripped.
	if !msgs[2].HasMedia || msgs[2].MediaType != "image" {
		t.Errorf("media message = %+v, want image placeholder", msgs[2])
	}

	// System notice kept but never flagged as media.
	if msgs[4].HasMedia {
		t.Error("deleted-message notice wrongly flagged as media")
	}
	if !IsSystemMessage(msgs[4].Content) {
		t.Errorf("IsSystemMessage(%q) = false, want true", msgs[4].Content)
	}

	// Timestamp parsing.
	want := time.Date(2023, 3, 15, 19, 42, 11, 0, time.UTC)
	if !msgs[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", msgs[0].Timestamp, want)
	}

	// URLs extracted, trailing punctuation dropped, types classified.
	if len(urls) != 2 {
		t.Fatalf("got %d urls, want 2", len(urls))
	}
	if urls[0].URL != "https://vt.tiktok.com/abc123/" || urls[0].Type != "tiktok" {
		t.Errorf("first url = %+v", urls[0])
	}
	if urls[1].Type != "airbnb" {
		t.Errorf("second url type = %q, want airbnb", urls[1].Type)
	}
	if stats.URLsByType["tiktok"] != 1 || stats.URLsByType["airbnb"] != 1 {
		t.Errorf("URLsByType = %v", stats.URLsByType)
	}
}

func TestParse_FourDigitYear(t *testing.T) {
	msgs, _, _, err := Parse(strings.NewReader(
		"[12/31/2023, 11:59:59 PM] Anna: happy new year\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)
	if !msgs[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", msgs[0].Timestamp, want)
	}
}

func TestParse_NarrowNoBreakSpace(t *testing.T) {
	// Newer iOS exports separate the time and AM/PM with U+202F.
	msgs, _, _, err := Parse(strings.NewReader(
		"[3/15/23, 7:42:11 PM] Anna: hello\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if msgs[0].Timestamp.Hour() != 19 {
		t.Errorf("hour = %d, want 19", msgs[0].Timestamp.Hour())
	}
}

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		content string
		want    []string
	}{
		{"go here https://example.com/x.", []string{"https://example.com/x"}},
		{"two https://a.nz and https://b.nz!", []string{"https://a.nz", "https://b.nz"}},
		{"no links here", nil},
	}
	for _, tt := range tests {
		got := ExtractURLs(tt.content)
		if len(got) != len(tt.want) {
			t.Errorf("ExtractURLs(%q) = %v, want %v", tt.content, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ExtractURLs(%q)[%d] = %q, want %q", tt.content, i, got[i], tt.want[i])
			}
		}
	}
}

func TestClassifyURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://vt.tiktok.com/ZS123/", "tiktok"},
		{"https://youtu.be/dQw4w9WgXcQ", "youtube"},
		{"https://www.instagram.com/p/abc/", "instagram"},
		{"https://maps.app.goo.gl/XYZ", "google_maps"},
		{"https://www.airbnb.co.nz/rooms/42", "airbnb"},
		{"https://www.booking.com/hotel/nz/x.html", "booking"},
		{"https://www.eventfinda.co.nz/2024/gig", "event"},
		{"https://www.ticketmaster.co.nz/e/1", "event"},
		{"https://www.trademe.co.nz/a/123", "trademe"},
		{"https://www.example.com/article", "website"},
	}
	for _, tt := range tests {
		if got := ClassifyURL(tt.url); got != tt.want {
			t.Errorf("ClassifyURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
