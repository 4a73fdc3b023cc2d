package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the assistant in the terminal",
	Long: `Starts an interactive conversation. The session is remembered
across turns; pass --session to resume an earlier one.

Commands inside the chat:
  /clear   forget this session's history
  /exit    leave the chat`,
	Run: func(cmd *cobra.Command, args []string) {
		exitOnError(runChat())
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatSession, "session", "", "session ID to resume")
	rootCmd.AddCommand(chatCmd)
}

func runChat() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, store, err := buildAgent(cfg, true)
	if err != nil {
		return err
	}
	defer store.Close()

	sessionID := chatSession
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	fmt.Printf("Session %s. Type /exit to leave, /clear to forget history.\n\n", sessionID)

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/exit":
			return nil
		case "/clear":
			if err := store.ClearSession(ctx, sessionID); err != nil {
				fmt.Fprintf(os.Stderr, "clearing history: %v\n", err)
				continue
			}
			fmt.Println("History cleared.")
			continue
		}

		res, err := a.Respond(ctx, sessionID, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		fmt.Printf("\notto> %s\n", res.Answer)
		if verbose {
			fmt.Printf("      (%d passages used)\n", res.Passages)
		}
		if res.Warning != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", res.Warning)
		}
		fmt.Println()
	}
}
