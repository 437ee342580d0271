package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/outings/internal/config"
	"github.com/fyrsmithlabs/outings/internal/store"
)

func TestExtractPlaces(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "known place lowercase",
			text: "let's go to queenstown in winter",
			want: []string{"Queenstown"},
		},
		{
			name: "capitalized phrase with connective",
			text: "sailing around the Bay of Islands",
			want: []string{"Bay Of Islands", "Bay of Islands"},
		},
		{
			name: "capitalized phrase not in the known list",
			text: "brunch at Mount Eden sounds good",
			want: []string{"Mount Eden"},
		},
		{
			name: "stopwords and short words dropped",
			text: "The thing is worth doing",
			want: nil,
		},
		{
			name: "no places",
			text: "haha that's so true",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractPlaces(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractPlaces(%q) = %v, want %v", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ExtractPlaces(%q)[%d] = %q, want %q", tt.text, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func nzBounds() config.BoundsConfig {
	return config.BoundsConfig{MinLat: -47.5, MaxLat: -34.0, MinLng: 166.0, MaxLng: 179.0}
}

func geocodeServer(t *testing.T, results map[string][2]float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		address := r.URL.Query().Get("address")
		coords, ok := results[address]
		resp := map[string]any{"status": "ZERO_RESULTS", "results": []any{}}
		if ok {
			resp = map[string]any{
				"status": "OK",
				"results": []any{map[string]any{
					"formatted_address": address,
					"geometry": map[string]any{
						"location": map[string]any{"lat": coords[0], "lng": coords[1]},
					},
				}},
			}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestClient_Geocode(t *testing.T) {
	srv := geocodeServer(t, map[string][2]float64{
		"Piha, New Zealand":   {-36.9521, 174.4684},
		"London, New Zealand": {51.5, -0.12}, // outside bounds
	})
	defer srv.Close()

	client := NewClient(config.GeocodeConfig{
		BaseURL:    srv.URL,
		RegionBias: "New Zealand",
		Bounds:     nzBounds(),
	})

	res, err := client.Geocode(context.Background(), "Piha")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if res.Lat > -36.9 || res.Lng < 174.0 {
		t.Errorf("Geocode() = %+v", res)
	}
	if res.FormattedAddress != "Piha, New Zealand" {
		t.Errorf("FormattedAddress = %q", res.FormattedAddress)
	}

	// A hit outside the bounds is rejected.
	if _, err := client.Geocode(context.Background(), "London"); err != ErrNoResult {
		t.Errorf("Geocode(London) error = %v, want ErrNoResult", err)
	}

	// An unknown place yields ErrNoResult.
	if _, err := client.Geocode(context.Background(), "Nowhere"); err != ErrNoResult {
		t.Errorf("Geocode(Nowhere) error = %v, want ErrNoResult", err)
	}
}

// fakeRepo is an in-memory Repository.
type fakeRepo struct {
	pending []store.Suggestion
	msgs    map[int64]store.Message
	coords  map[int64][2]float64
}

func (f *fakeRepo) SuggestionsNeedingGeocode(ctx context.Context) ([]store.Suggestion, error) {
	return f.pending, nil
}

func (f *fakeRepo) MessageByID(ctx context.Context, id int64) (store.Message, error) {
	m, ok := f.msgs[id]
	if !ok {
		return store.Message{}, store.ErrNotFound
	}
	return m, nil
}

func (f *fakeRepo) SetCoordinates(ctx context.Context, messageID int64, lat, lng float64, location string) error {
	if f.coords == nil {
		f.coords = make(map[int64][2]float64)
	}
	f.coords[messageID] = [2]float64{lat, lng}
	return nil
}

type fakeGeocoder struct {
	known map[string][2]float64
}

func (f *fakeGeocoder) Geocode(ctx context.Context, place string) (Result, error) {
	c, ok := f.known[place]
	if !ok {
		return Result{}, ErrNoResult
	}
	return Result{Lat: c[0], Lng: c[1], FormattedAddress: place}, nil
}

func TestResolver_ResolveAll(t *testing.T) {
	loc := "Rotorua"
	repo := &fakeRepo{
		pending: []store.Suggestion{
			{MessageID: 1, Location: &loc},                  // resolves from location text
			{MessageID: 2, Activity: strp("zorb in Taupo")}, // resolves from activity
			{MessageID: 3},                                  // falls back to message content, no place
		},
		msgs: map[int64]store.Message{
			3: {ID: 3, Content: "we should do that thing sometime"},
		},
	}
	geocoder := &fakeGeocoder{known: map[string][2]float64{
		"Rotorua": {-38.14, 176.25},
		"Taupo":   {-38.69, 176.07},
	}}
	resolver := NewResolver(geocoder, repo, time.Duration(0), zap.NewNop())

	stats, err := resolver.ResolveAll(context.Background())
	if err != nil {
		t.Fatalf("ResolveAll() error = %v", err)
	}
	if stats.Processed != 3 || stats.Geocoded != 2 {
		t.Errorf("stats = %+v, want 3 processed, 2 geocoded", stats)
	}
	if _, ok := repo.coords[1]; !ok {
		t.Error("suggestion 1 not geocoded")
	}
	if _, ok := repo.coords[2]; !ok {
		t.Error("suggestion 2 not geocoded")
	}
	if _, ok := repo.coords[3]; ok {
		t.Error("suggestion 3 unexpectedly geocoded")
	}
}

func strp(s string) *string { return &s }
