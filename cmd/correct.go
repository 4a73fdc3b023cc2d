package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var correctCmd = &cobra.Command{
	Use:   "correct <essay-file>",
	Short: "Grade an essay against the ENEM rubric",
	Long: `Reads an essay from a text file and grades it against the five
ENEM competencies (200 points each). Prints per-criterion scores,
comments and the overall verdict.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runCorrect(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(correctCmd)
}

func runCorrect(path string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	essays, err := buildCorrector(cfg)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading essay: %w", err)
	}

	fb, err := essays.Correct(context.Background(), string(raw), nil)
	if err != nil {
		return err
	}

	for i, cf := range fb.Criteria {
		fmt.Printf("%d. %s: %d/%d\n", i+1, cf.Criterion, cf.Score, cf.MaxScore)
		if cf.Comments != "" {
			fmt.Printf("   %s\n", cf.Comments)
		}
	}
	fmt.Printf("\nTotal: %d\nVerdict: %s\n", fb.TotalScore, fb.Verdict)
	if fb.Summary != "" {
		fmt.Printf("\n%s\n", strings.TrimSpace(fb.Summary))
	}
	return nil
}
