package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/otto-edu/otto/internal/ingest"
	"github.com/otto-edu/otto/internal/loader"
)

var ingestConcurrency int

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index the study material in the data directory",
	Long: `Reads .txt and .md files from the configured data directory,
splits them into overlapping passages, embeds each passage and stores
the result in the knowledge index. Re-running replaces previously
ingested documents with their current content.`,
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runIngest())
	},
}

func init() {
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 4, "documents ingested in parallel")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	docs, err := loader.LoadDir(cfg.DataDir, cfg.Include, cfg.Exclude)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no documents found in %s", cfg.DataDir)
	}

	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return err
	}
	idx, err := openIndex(cfg, false)
	if err != nil {
		return err
	}
	pipeline, err := ingest.NewPipeline(embedder, idx, cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return err
	}

	bar := progressbar.Default(int64(len(docs)), "ingesting")
	ctx := context.Background()

	total, errs := pipeline.IngestAll(ctx, docs, ingestConcurrency, func(doc ingest.Document, passages int, err error) {
		bar.Add(1)
		if err != nil && verbose {
			fmt.Fprintf(os.Stderr, "\n%v\n", err)
		}
	})

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	if err := idx.Persist(ctx, cfg.StateDir); err != nil {
		return fmt.Errorf("persisting index: %w", err)
	}

	fmt.Printf("\nIngested %d documents (%d passages) into %s\n", len(docs)-len(errs), total, indexPath(cfg))
	if len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "%d documents failed:\n", len(errs))
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "  %v\n", err)
		}
		return fmt.Errorf("ingestion finished with %d failures", len(errs))
	}
	return nil
}
