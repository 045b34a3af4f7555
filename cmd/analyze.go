package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Benoitbolivard/Project-basket/internal/config"
	"github.com/Benoitbolivard/Project-basket/internal/ingest"
	"github.com/Benoitbolivard/Project-basket/internal/model"
	"github.com/Benoitbolivard/Project-basket/internal/report"
	"github.com/Benoitbolivard/Project-basket/internal/session"
	"github.com/Benoitbolivard/Project-basket/internal/storage"
)

var (
	analyzeFocusTrack int
	analyzeJSONOut    string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <frames.json>",
	Short: "Analyze a detector+tracker frames file and store the result",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().IntVar(&analyzeFocusTrack, "player", 0, "focus player track id")
	analyzeCmd.Flags().StringVar(&analyzeJSONOut, "json", "", "also write the full result JSON to this path")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	framesPath := args[0]

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	fmt.Fprintf(os.Stdout, "Loading %s...\n", framesPath)
	in, err := ingest.Load(framesPath)
	if err != nil {
		return err
	}

	exists, err := db.AnalysisExists(in.SourceHash)
	if err != nil {
		return fmt.Errorf("check analysis: %w", err)
	}
	if exists {
		fmt.Fprintf(os.Stdout, "Input %s already analyzed, showing stored results.\n\n", in.SourceHash[:12])
		return showByPrefix(db, in.SourceHash)
	}

	sess, err := session.New(cfg)
	if err != nil {
		return err
	}
	for _, frame := range in.Frames {
		if err := sess.IngestFrame(frame); err != nil {
			if errors.Is(err, session.ErrOutOfOrderFrame) {
				fmt.Fprintf(os.Stderr, "skipping %v\n", err)
				continue
			}
			return fmt.Errorf("ingest frame %d: %w", frame.FrameIndex, err)
		}
	}

	res := sess.Finalize()
	res.SourceHash = in.SourceHash
	res.VideoMetadata = in.VideoMetadata
	// Key the analysis id off the input hash so re-runs are idempotent.
	res.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("analysis:"+in.SourceHash)).String()

	createdAt := time.Now().UTC().Format(time.RFC3339)
	if err := db.InsertAnalysis(res, createdAt); err != nil {
		return fmt.Errorf("store analysis: %w", err)
	}

	if analyzeJSONOut != "" {
		if err := writeResultJSON(res, analyzeJSONOut); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Result written to %s\n", analyzeJSONOut)
	}

	printResult(os.Stdout, res, model.AnalysisSummary{
		ID:                res.ID,
		CreatedAt:         createdAt,
		FramesProcessed:   res.ProcessingSummary.FramesProcessed,
		GameDuration:      res.GameStatistics.GameDuration,
		TotalShots:        res.GameStatistics.TotalShots,
		TotalMade:         res.GameStatistics.TotalMade,
		PossessionChanges: res.GameStatistics.PossessionChanges,
	}, analyzeFocusTrack)
	return nil
}

func writeResultJSON(res *model.AnalysisResult, path string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

func printResult(w *os.File, res *model.AnalysisResult, summary model.AnalysisSummary, focus int) {
	report.PrintAnalysisSummary(w, summary)
	report.PrintPlayerTable(w, sortedPlayerStats(res.PlayerStats), focus)
	report.PrintShotTable(w, res.ShotAttempts)
	report.PrintZoneTable(w, res.GameStatistics.AttemptsByZone)
	report.PrintPossessionSummary(w, res.GameStatistics.Possessions)
}

func sortedPlayerStats(m map[int]*model.PlayerStats) []model.PlayerStats {
	out := make([]model.PlayerStats, 0, len(m))
	for _, s := range m {
		out = append(out, *s)
	}
	// Lowest track id first for stable output.
	sort.Slice(out, func(i, j int) bool { return out[i].TrackID < out[j].TrackID })
	return out
}
