package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otto-edu/otto/internal/retriever"
)

var queryTopK int

var queryCmd = &cobra.Command{
	Use:   "query <question>",
	Short: "Show the passages retrieval would feed the assistant",
	Long: `Runs semantic search against the knowledge index and prints the
matching passages with their similarity scores. Useful for checking
what material a chat answer would be grounded in.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runQuery(strings.Join(args, " ")))
	},
}

func init() {
	queryCmd.Flags().IntVar(&queryTopK, "top", 0, "number of passages (default from config)")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(question string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return err
	}
	idx, err := openIndex(cfg, true)
	if err != nil {
		return err
	}

	topK := queryTopK
	if topK < 1 {
		topK = cfg.Retrieval.TopK
	}

	retr := retriever.New(embedder, idx, float32(cfg.Retrieval.MinScore))
	results, err := retr.Retrieve(context.Background(), question, topK)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No passages matched.")
		return nil
	}
	for i, res := range results {
		fmt.Printf("%d. [%.3f] %s (passage %d)\n", i+1, res.Score, res.Passage.Source, res.Passage.Ordinal)
		fmt.Printf("   %s\n\n", snippet(res.Passage.Text, 200))
	}
	return nil
}

func snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
