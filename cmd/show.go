package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Benoitbolivard/Project-basket/internal/storage"
)

var showFocusTrack int

var showCmd = &cobra.Command{
	Use:   "show <id-prefix>",
	Short: "Show a stored analysis by id or source-hash prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().IntVar(&showFocusTrack, "player", 0, "highlight player track id")
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	return showByPrefix(db, args[0])
}

func showByPrefix(db *storage.DB, prefix string) error {
	summary, err := db.GetAnalysisByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query analysis: %w", err)
	}
	if summary == nil {
		fmt.Fprintf(os.Stderr, "No analysis found with prefix %q\n", prefix)
		return nil
	}

	res, err := db.GetResult(summary.ID)
	if err != nil {
		return fmt.Errorf("load result: %w", err)
	}
	if res == nil {
		return fmt.Errorf("analysis %s has no stored result", summary.ID)
	}

	printResult(os.Stdout, res, *summary, showFocusTrack)
	return nil
}
