package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Benoitbolivard/Project-basket/internal/report"
	"github.com/Benoitbolivard/Project-basket/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	list, err := db.ListAnalyses()
	if err != nil {
		return fmt.Errorf("list analyses: %w", err)
	}
	report.PrintAnalysisList(os.Stdout, list)
	return nil
}
