package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"unicode/utf8"

	"github.com/fyrsmithlabs/outings/internal/config"
)

func embedServer(t *testing.T, wantAuth string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if wantAuth != "" && r.Header.Get("Authorization") != wantAuth {
			t.Errorf("Authorization = %q, want %q", r.Header.Get("Authorization"), wantAuth)
		}
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}

		// Answer out of order to exercise index mapping.
		type datum struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		data := make([]datum, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, datum{Index: i, Embedding: []float32{float32(i), 1}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
}

func TestService_EmbedMany(t *testing.T) {
	srv := embedServer(t, "Bearer k")
	defer srv.Close()

	svc, err := NewService(config.EmbeddingsConfig{BaseURL: srv.URL, Model: "m", APIKey: "k"})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	vectors, err := svc.EmbedMany(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedMany() error = %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vectors))
	}
	for i, v := range vectors {
		if v[0] != float32(i) {
			t.Errorf("vector %d = %v, want index-mapped order", i, v)
		}
	}
}

func TestService_EmbedManyEmpty(t *testing.T) {
	svc, err := NewService(config.EmbeddingsConfig{BaseURL: "http://localhost"})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if _, err := svc.EmbedMany(context.Background(), nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("EmbedMany(nil) error = %v, want ErrEmptyInput", err)
	}
	if _, err := svc.EmbedOne(context.Background(), ""); !errors.Is(err, ErrEmptyInput) {
		t.Errorf(`EmbedOne("") error = %v, want ErrEmptyInput`, err)
	}
}

func TestService_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc, err := NewService(config.EmbeddingsConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if _, err := svc.EmbedOne(context.Background(), "x"); !errors.Is(err, ErrEmbeddingFailed) {
		t.Errorf("EmbedOne() error = %v, want ErrEmbeddingFailed", err)
	}
}

func TestNewService_RequiresBaseURL(t *testing.T) {
	if _, err := NewService(config.EmbeddingsConfig{}); err == nil {
		t.Fatal("NewService() expected error without base URL")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		text string
		max  int
		want string
	}{
		{name: "shorter than cap", text: "hello", max: 10, want: "hello"},
		{name: "exact cap", text: "hello", max: 5, want: "hello"},
		{name: "ascii cut", text: "hello world", max: 5, want: "hello"},
		{name: "disabled", text: "hello", max: 0, want: "hello"},
		{name: "multibyte not split", text: "abécd", max: 3, want: "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.text, tt.max)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.text, tt.max, got, tt.want)
			}
			if !utf8.ValidString(got) {
				t.Errorf("Truncate() produced invalid UTF-8: %q", got)
			}
		})
	}
}
