package geocode

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/outings/internal/store"
)

// Geocoder resolves one place name.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (Result, error)
}

// Repository is the slice of the store the resolver needs.
type Repository interface {
	SuggestionsNeedingGeocode(ctx context.Context) ([]store.Suggestion, error)
	MessageByID(ctx context.Context, id int64) (store.Message, error)
	SetCoordinates(ctx context.Context, messageID int64, lat, lng float64, location string) error
}

// Resolver walks suggestions that have text but no coordinates and
// tries to pin each one to a point.
type Resolver struct {
	geocoder     Geocoder
	repo         Repository
	requestDelay time.Duration
	log          *zap.Logger
}

// NewResolver creates a resolver.
func NewResolver(geocoder Geocoder, repo Repository, requestDelay time.Duration, log *zap.Logger) *Resolver {
	return &Resolver{geocoder: geocoder, repo: repo, requestDelay: requestDelay, log: log}
}

// Stats summarizes a geocoding run.
type Stats struct {
	Processed int
	Geocoded  int
}

// ResolveAll geocodes every ungeocoded suggestion. Per suggestion it
// tries location text, then extracted activity, then the raw message
// content, extracting place candidates from each and stopping at the
// first hit. A failed request is logged and the suggestion skipped;
// the next run sees it again since its coordinates stay null.
func (r *Resolver) ResolveAll(ctx context.Context) (Stats, error) {
	pending, err := r.repo.SuggestionsNeedingGeocode(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{}
	r.log.Info("geocoding suggestions", zap.Int("pending", len(pending)))

	for _, sg := range pending {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		stats.Processed++

		var sources []string
		if sg.Location != nil {
			sources = append(sources, *sg.Location)
		}
		if sg.Activity != nil {
			sources = append(sources, *sg.Activity)
		}
		if msg, err := r.repo.MessageByID(ctx, sg.MessageID); err == nil {
			sources = append(sources, msg.Content)
		}

		if r.resolveOne(ctx, sg.MessageID, sources) {
			stats.Geocoded++
		}
	}

	r.log.Info("geocoding run done",
		zap.Int("processed", stats.Processed),
		zap.Int("geocoded", stats.Geocoded))
	return stats, nil
}

func (r *Resolver) resolveOne(ctx context.Context, messageID int64, sources []string) bool {
	for _, text := range sources {
		for _, place := range ExtractPlaces(text) {
			res, err := r.geocoder.Geocode(ctx, place)
			if err != nil {
				if !errors.Is(err, ErrNoResult) {
					r.log.Warn("geocode request failed",
						zap.String("place", place), zap.Error(err))
				}
				r.pause(ctx)
				continue
			}
			if err := r.repo.SetCoordinates(ctx, messageID, res.Lat, res.Lng, res.FormattedAddress); err != nil {
				r.log.Warn("failed to store coordinates",
					zap.Int64("message_id", messageID), zap.Error(err))
				return false
			}
			r.log.Debug("geocoded",
				zap.String("place", place),
				zap.Float64("lat", res.Lat),
				zap.Float64("lng", res.Lng))
			return true
		}
	}
	return false
}

func (r *Resolver) pause(ctx context.Context) {
	if r.requestDelay <= 0 {
		return
	}
	select {
	case <-time.After(r.requestDelay):
	case <-ctx.Done():
	}
}
