package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/outings/internal/geocode"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Resolve suggestion locations into coordinates",
	Long: `Geocode suggestions that have location or activity text but no
coordinates yet. Place names are resolved with the configured region
bias and results outside the configured bounds are skipped.

Examples:
  outings geocode
  OUTINGS_GEOCODE_API_KEY=... outings geocode`,
	RunE: runGeocode,
}

func runGeocode(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	client := geocode.NewClient(a.cfg.Geocode)
	resolver := geocode.NewResolver(client, a.store, a.cfg.Geocode.RequestDelay, a.log)

	stats, err := resolver.ResolveAll(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Geocoded %d of %d suggestions\n", stats.Geocoded, stats.Processed)
	return nil
}
