package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/outings/internal/transcript"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <chat-export.txt>",
	Short: "Parse a WhatsApp export into the database",
	Long: `Parse a WhatsApp iOS chat export and store its messages and links.

A fresh ingest replaces everything: messages, links, embeddings, the
classifier queue and suggestions are all rebuilt from the new file.

Examples:
  outings ingest _chat.txt
  outings --config outings.yaml ingest _chat.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run pattern and link scoring, rebuild suggestions",
	RunE:  runExtract,
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed messages that are not yet in the cache",
	RunE:  runEmbed,
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "Rebuild the classifier queue from semantic retrieval",
	RunE:  runCandidates,
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify pending candidates and merge the verdicts",
	RunE:  runClassify,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: extract, embed, candidates, classify",
	RunE:  runPipeline,
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	msgs, urls, stats, err := transcript.ParseFile(args[0])
	if err != nil {
		return err
	}
	if err := a.store.ReplaceMessages(cmd.Context(), msgs, urls); err != nil {
		return err
	}

	a.log.Info("ingest done",
		zap.String("file", args[0]),
		zap.Int("messages", stats.Messages),
		zap.Int("with_media", stats.WithMedia),
		zap.Int("with_urls", stats.WithURLs))
	for t, n := range stats.URLsByType {
		a.log.Info("links by type", zap.String("type", t), zap.Int("count", n))
	}
	fmt.Printf("Ingested %d messages (%d with links)\n", stats.Messages, stats.WithURLs)
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.pipeline(0)
	if err != nil {
		return err
	}
	n, err := p.Extract(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Extracted %d suggestions\n", n)
	return nil
}

func runEmbed(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.pipeline(needEmbeddings)
	if err != nil {
		return err
	}
	stats, err := p.Embed(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Embedded %d/%d messages (%d failed)\n", stats.Embedded, stats.Total, stats.Failed)
	return nil
}

func runCandidates(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.pipeline(needEmbeddings)
	if err != nil {
		return err
	}
	n, err := p.Candidates(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Queued %d candidates for classification\n", n)
	return nil
}

func runClassify(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.pipeline(needClassifier)
	if err != nil {
		return err
	}
	cstats, mstats, err := p.Classify(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Classified %d/%d candidates (%d suggestions, %d left pending)\n",
		cstats.Processed, cstats.Pending, cstats.Suggestions, cstats.Skipped)
	fmt.Printf("Merged %d verdicts: %d inserted, %d updated\n",
		mstats.Verdicts, mstats.Inserted, mstats.Updated)
	return nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.pipeline(needEmbeddings | needClassifier)
	if err != nil {
		return err
	}
	if err := p.Run(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("Pipeline complete")
	return nil
}
