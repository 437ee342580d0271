package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export suggestions as CSV",
	Long: `Export suggestions joined with their messages as CSV, confidence
descending. Geocoded rows get a derived Google Maps link.

Examples:
  outings export
  outings export -o suggestions.csv`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "suggestions.csv", "output file path")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ranked, err := a.store.TopSuggestions(cmd.Context(), 0, 0)
	if err != nil {
		return err
	}

	f, err := os.Create(exportOutput)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", exportOutput, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{
		"message_id", "date", "time", "sender", "original_message",
		"activity", "location", "latitude", "longitude", "confidence",
		"source", "source_url", "url_type", "google_maps_link", "status",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ranked {
		message := truncate(strings.ReplaceAll(r.Content, "\n", " "), 500)
		activity := truncate(message, 100)
		if r.Activity != nil {
			activity = *r.Activity
		}

		var lat, lng, mapsLink string
		if r.Latitude != nil && r.Longitude != nil {
			lat = strconv.FormatFloat(*r.Latitude, 'f', -1, 64)
			lng = strconv.FormatFloat(*r.Longitude, 'f', -1, 64)
			mapsLink = fmt.Sprintf("https://www.google.com/maps?q=%s,%s", lat, lng)
		}

		row := []string{
			strconv.FormatInt(r.MessageID, 10),
			r.Timestamp.Format("2006-01-02"),
			r.Timestamp.Format("15:04:05"),
			r.Sender,
			message,
			activity,
			strOrEmpty(r.Location),
			lat,
			lng,
			strconv.FormatFloat(r.Confidence, 'f', 2, 64),
			r.Type,
			strOrEmpty(r.URL),
			strOrEmpty(r.URLType),
			mapsLink,
			r.Status,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	fmt.Printf("Exported %d suggestions to %s\n", len(ranked), exportOutput)
	return nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// truncate caps s at max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
