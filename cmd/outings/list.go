package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	listMinConfidence float64
	listLimit         int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ranked suggestions",
	Long: `List suggestions ordered by confidence, newest first within ties.

Examples:
  outings list
  outings list --min-confidence 0.8 --limit 20`,
	RunE: runList,
}

func init() {
	listCmd.Flags().Float64Var(&listMinConfidence, "min-confidence", 0, "only show suggestions at or above this confidence")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum rows to show (0 for all)")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ranked, err := a.store.TopSuggestions(cmd.Context(), listMinConfidence, listLimit)
	if err != nil {
		return err
	}
	if len(ranked) == 0 {
		fmt.Println("No suggestions. Run `outings run` first.")
		return nil
	}

	for _, r := range ranked {
		what := r.Content
		if r.Activity != nil {
			what = *r.Activity
		}
		if len(what) > 70 {
			what = truncate(what, 70) + "..."
		}
		fmt.Printf("[%.2f] %s  %-8s %s\n",
			r.Confidence, r.Timestamp.Format("2006-01-02"), r.Type, what)
		if r.Location != nil {
			fmt.Printf("        Location: %s\n", *r.Location)
		}
		if r.URL != nil {
			fmt.Printf("        Link: %s\n", *r.URL)
		}
	}

	breakdown, err := a.store.TypeBreakdown(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println()
	for _, tc := range breakdown {
		fmt.Printf("  %-10s %4d  (avg confidence %.2f)\n", tc.Type, tc.Count, tc.AvgConfidence)
	}
	return nil
}
