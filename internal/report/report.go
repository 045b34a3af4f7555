package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/Benoitbolivard/Project-basket/internal/model"
)

// PrintAnalysisSummary prints a one-line summary header for an
// analysis.
func PrintAnalysisSummary(w io.Writer, s model.AnalysisSummary) {
	fmt.Fprintf(w, "\nAnalysis: %s  |  Date: %s  |  Frames: %d  |  Duration: %.1fs  |  Shots: %d/%d  |  Poss. changes: %d\n\n",
		shortID(s.ID), s.CreatedAt, s.FramesProcessed, s.GameDuration,
		s.TotalMade, s.TotalShots, s.PossessionChanges)
}

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintPlayerTable prints the per-player stats table. If focusTrackID
// is non-zero, that player's row is marked with ">".
func PrintPlayerTable(w io.Writer, stats []model.PlayerStats, focusTrackID int) {
	table := newTable(w)
	table.Header(
		" ", "TRACK", "SEEN", "TOUCHES", "POSS_FR", "DIST",
		"FGA", "FGM", "FG%", "3PA", "3PM", "3P%", "PTS",
	)

	for _, s := range stats {
		marker := " "
		if focusTrackID != 0 && s.TrackID == focusTrackID {
			marker = ">"
		}
		table.Append(
			marker,
			strconv.Itoa(s.TrackID),
			strconv.Itoa(s.FramesSeen),
			strconv.Itoa(s.Touches),
			strconv.Itoa(s.PossessionFrames),
			fmt.Sprintf("%.0f", s.DistanceCovered),
			strconv.Itoa(s.ShotAttempts),
			strconv.Itoa(s.ShotsMade),
			fmt.Sprintf("%.0f%%", s.FieldGoalPct()),
			strconv.Itoa(s.ThreePtAttempts),
			strconv.Itoa(s.ThreePtMade),
			fmt.Sprintf("%.0f%%", s.ThreePtPct()),
			strconv.Itoa(s.Points),
		)
	}
	table.Render()
}

// PrintShotTable prints every shot attempt in release order.
func PrintShotTable(w io.Writer, attempts []model.ShotAttempt) {
	if len(attempts) == 0 {
		fmt.Fprintln(w, "No shot attempts detected.")
		return
	}
	table := newTable(w)
	table.Header("ID", "SHOOTER", "START", "END", "ZONE", "VALUE", "RESULT")

	for _, att := range attempts {
		shooter := "-"
		if att.ShooterTrackID != nil {
			shooter = strconv.Itoa(*att.ShooterTrackID)
		}
		table.Append(
			shortID(att.ID),
			shooter,
			strconv.Itoa(att.StartFrame),
			strconv.Itoa(att.EndFrameValue()),
			string(att.ReleaseZone),
			strconv.Itoa(att.PointValue),
			string(att.Result),
		)
	}
	table.Render()
}

// PrintZoneTable prints the game-level shot chart: attempts and makes
// bucketed by release zone.
func PrintZoneTable(w io.Writer, byZone map[model.CourtZone]model.ZoneLine) {
	if len(byZone) == 0 {
		return
	}
	zones := make([]string, 0, len(byZone))
	for z := range byZone {
		zones = append(zones, string(z))
	}
	sort.Strings(zones)

	table := newTable(w)
	table.Header("ZONE", "FGA", "FGM", "FG%")
	for _, z := range zones {
		line := byZone[model.CourtZone(z)]
		pct := 0.0
		if line.Attempts > 0 {
			pct = float64(line.Made) / float64(line.Attempts) * 100
		}
		table.Append(z, strconv.Itoa(line.Attempts), strconv.Itoa(line.Made),
			fmt.Sprintf("%.0f%%", pct))
	}
	table.Render()
}

// PrintPossessionSummary prints the closed-possession duration rollup.
func PrintPossessionSummary(w io.Writer, s model.PossessionSummary) {
	if s.TotalPossessions == 0 {
		return
	}
	fmt.Fprintf(w, "\nPossessions: %d  |  avg %.2fs  |  longest %.2fs  |  shortest %.2fs\n",
		s.TotalPossessions, s.AvgDuration, s.LongestDuration, s.ShortestDuration)
}

// PrintAnalysisList prints the stored-analyses table for the list
// command.
func PrintAnalysisList(w io.Writer, list []model.AnalysisSummary) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No analyses stored.")
		return
	}
	table := newTable(w)
	table.Header("ID", "DATE", "FRAMES", "DURATION", "SHOTS", "MADE", "POSS_CHG", "PLAYERS")
	for _, s := range list {
		table.Append(
			shortID(s.ID),
			s.CreatedAt,
			strconv.Itoa(s.FramesProcessed),
			fmt.Sprintf("%.1fs", s.GameDuration),
			strconv.Itoa(s.TotalShots),
			strconv.Itoa(s.TotalMade),
			strconv.Itoa(s.PossessionChanges),
			strconv.Itoa(s.UniquePlayers),
		)
	}
	table.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
