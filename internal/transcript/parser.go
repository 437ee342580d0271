// Package transcript parses WhatsApp iOS chat exports into messages
// and classified links ready for ingest.
package transcript

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/fyrsmithlabs/outings/internal/store"
)

// messageRe matches the first line of a message:
// [MM/DD/YY, H:MM:SS AM/PM] Sender: text
// Lines that do not match continue the previous message.
var messageRe = regexp.MustCompile(
	`^\[(\d{1,2}/\d{1,2}/\d{2,4}),\s*(\d{1,2}:\d{2}:\d{2}\s*[AP]M)\]\s*([^:]+):\s*(.*)$`)

// mediaPlaceholders maps export placeholder text to a media type.
// Comparison happens after invisible-mark stripping and lowercasing.
var mediaPlaceholders = map[string]string{
	"image omitted":        "image",
	"video omitted":        "video",
	"audio omitted":        "audio",
	"gif omitted":          "gif",
	"sticker omitted":      "sticker",
	"document omitted":     "document",
	"contact card omitted": "contact",
}

var systemPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^this message was deleted\.?$`),
	regexp.MustCompile(`(?i)^you deleted this message\.?$`),
	regexp.MustCompile(`(?i)^messages and calls are end-to-end encrypted`),
	regexp.MustCompile(`(?i)^missed (voice|video) call$`),
}

// cleaner normalizes to NFC and drops format characters. iOS exports
// sprinkle U+200E before placeholders and senders; stripping the whole
// Cf category handles that and its friends in one pass.
var cleaner = transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cf)))

// Stats counts what a parse produced.
type Stats struct {
	Messages   int
	WithMedia  int
	WithURLs   int
	URLsByType map[string]int
}

// ParseFile parses a WhatsApp export file.
func ParseFile(path string) ([]store.Message, []store.MessageURL, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, Stats{}, fmt.Errorf("transcript: open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a WhatsApp iOS export and returns messages with dense
// ordinal ids in file order, plus their classified links. Lines that
// do not open a new message are appended to the previous one.
func Parse(r io.Reader) ([]store.Message, []store.MessageURL, Stats, error) {
	stats := Stats{URLsByType: make(map[string]int)}
	var msgs []store.Message
	var urls []store.MessageURL

	var cur *store.Message
	flush := func() {
		if cur == nil {
			return
		}
		finalize(cur)
		if cur.HasMedia {
			stats.WithMedia++
		}
		links := ExtractURLs(cur.Content)
		if len(links) > 0 {
			stats.WithURLs++
		}
		for _, u := range links {
			t := ClassifyURL(u)
			urls = append(urls, store.MessageURL{MessageID: cur.ID, URL: u, Type: t})
			stats.URLsByType[t]++
		}
		msgs = append(msgs, *cur)
		stats.Messages++
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line, _, err := transform.String(cleaner, scanner.Text())
		if err != nil {
			return nil, nil, Stats{}, fmt.Errorf("transcript: normalize line: %w", err)
		}

		m := messageRe.FindStringSubmatch(line)
		if m == nil {
			if cur != nil {
				cur.Content += "\n" + line
			}
			continue
		}

		flush()
		ts, err := parseTimestamp(m[1], m[2])
		if err != nil {
			return nil, nil, Stats{}, err
		}
		cur = &store.Message{
			ID:        int64(len(msgs)),
			Timestamp: ts,
			Sender:    strings.TrimSpace(m[3]),
			Content:   m[4],
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, Stats{}, fmt.Errorf("transcript: read: %w", err)
	}
	flush()

	return msgs, urls, stats, nil
}

// finalize runs media and system detection on a completed message.
// System notices stay in the transcript (they keep ids dense) but are
// never flagged as media.
func finalize(m *store.Message) {
	content := strings.TrimSpace(m.Content)
	if IsSystemMessage(content) {
		return
	}
	if t, ok := mediaPlaceholders[strings.ToLower(content)]; ok {
		m.HasMedia = true
		m.MediaType = t
	}
}

// IsSystemMessage reports whether content is a WhatsApp system notice
// rather than something a person typed.
func IsSystemMessage(content string) bool {
	content = strings.TrimSpace(content)
	for _, re := range systemPatterns {
		if re.MatchString(content) {
			return true
		}
	}
	return false
}

// parseTimestamp handles both 2- and 4-digit years. Exports sometimes
// use a narrow no-break space before AM/PM; normalization maps it to
// a plain space before parsing.
func parseTimestamp(dateStr, timeStr string) (time.Time, error) {
	timeStr = strings.Join(strings.Fields(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return ' '
		}
		return r
	}, timeStr)), " ")

	layout := "1/2/06 3:04:05 PM"
	if parts := strings.Split(dateStr, "/"); len(parts) == 3 && len(parts[2]) == 4 {
		layout = "1/2/2006 3:04:05 PM"
	}
	ts, err := time.Parse(layout, dateStr+" "+timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("transcript: parse timestamp %q %q: %w", dateStr, timeStr, err)
	}
	return ts, nil
}
