package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Benoitbolivard/Project-basket/internal/storage"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export <id-prefix>",
	Short: "Export a stored analysis as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	summary, err := db.GetAnalysisByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("query analysis: %w", err)
	}
	if summary == nil {
		return fmt.Errorf("no analysis found with prefix %q", args[0])
	}

	res, err := db.GetResult(summary.ID)
	if err != nil {
		return fmt.Errorf("load result: %w", err)
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	data = append(data, '\n')

	if exportOut == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(exportOut, data, 0644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Exported %s to %s\n", summary.ID[:8], exportOut)
	return nil
}
