package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Benoitbolivard/Project-basket/internal/model"
)

// AnalysisExists returns true if an analysis of the given source file
// hash is already stored.
func (db *DB) AnalysisExists(sourceHash string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM analyses WHERE source_hash = ?", sourceHash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertAnalysis stores a complete result in one transaction. Uses
// INSERT OR REPLACE throughout for idempotency.
func (db *DB) InsertAnalysis(res *model.AnalysisResult, createdAt string) error {
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	g := res.GameStatistics
	p := res.ProcessingSummary
	_, err = tx.Exec(`
		INSERT OR REPLACE INTO analyses(
			id, source_hash, created_at,
			frames_processed, frames_with_ball, ball_detection_rate,
			unique_players, total_events, frames_rejected,
			game_duration, total_shots, total_made, possession_changes,
			result_json
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		res.ID, res.SourceHash, createdAt,
		p.FramesProcessed, p.FramesWithBall, p.BallDetectionRate,
		p.UniquePlayersTracked, p.TotalEvents, p.FramesRejected,
		g.GameDuration, g.TotalShots, g.TotalMade, g.PossessionChanges,
		string(resultJSON),
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	evStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO possession_events(
			analysis_id, seq, frame_index, timestamp, prev_holder, new_holder, zone
		) VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer evStmt.Close()
	for i, ev := range res.PossessionEvents {
		_, err = evStmt.Exec(res.ID, i, ev.FrameIndex, ev.Timestamp,
			nullableInt(ev.PrevHolder), nullableInt(ev.NewHolder), string(ev.Zone))
		if err != nil {
			return fmt.Errorf("insert possession event %d: %w", i, err)
		}
	}

	shotStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO shot_attempts(
			analysis_id, id, shooter_id, start_frame, end_frame,
			release_zone, result, point_value, trajectory_len
		) VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer shotStmt.Close()
	for _, att := range res.ShotAttempts {
		_, err = shotStmt.Exec(res.ID, att.ID, nullableInt(att.ShooterTrackID),
			att.StartFrame, att.EndFrameValue(),
			string(att.ReleaseZone), string(att.Result), att.PointValue, len(att.Trajectory))
		if err != nil {
			return fmt.Errorf("insert shot attempt %s: %w", att.ID, err)
		}
	}

	psStmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO player_stats(
			analysis_id, track_id, frames_seen, touches, possession_frames,
			distance_covered, shot_attempts, shots_made,
			three_pt_attempts, three_pt_made, points
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer psStmt.Close()
	trackIDs := make([]int, 0, len(res.PlayerStats))
	for id := range res.PlayerStats {
		trackIDs = append(trackIDs, id)
	}
	sort.Ints(trackIDs)
	for _, id := range trackIDs {
		s := res.PlayerStats[id]
		_, err = psStmt.Exec(res.ID, s.TrackID, s.FramesSeen, s.Touches, s.PossessionFrames,
			s.DistanceCovered, s.ShotAttempts, s.ShotsMade,
			s.ThreePtAttempts, s.ThreePtMade, s.Points)
		if err != nil {
			return fmt.Errorf("insert player stats for %d: %w", id, err)
		}
	}

	return tx.Commit()
}

// ListAnalyses returns all stored analyses ordered by creation time,
// newest first.
func (db *DB) ListAnalyses() ([]model.AnalysisSummary, error) {
	rows, err := db.conn.Query(`
		SELECT id, source_hash, created_at, frames_processed, game_duration,
		       total_shots, total_made, possession_changes, unique_players
		FROM analyses ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AnalysisSummary
	for rows.Next() {
		var s model.AnalysisSummary
		if err := rows.Scan(&s.ID, &s.SourceHash, &s.CreatedAt, &s.FramesProcessed,
			&s.GameDuration, &s.TotalShots, &s.TotalMade, &s.PossessionChanges,
			&s.UniquePlayers); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetAnalysisByPrefix finds the first analysis whose id or source hash
// starts with the given prefix. Returns nil when nothing matches.
func (db *DB) GetAnalysisByPrefix(prefix string) (*model.AnalysisSummary, error) {
	var s model.AnalysisSummary
	err := db.conn.QueryRow(`
		SELECT id, source_hash, created_at, frames_processed, game_duration,
		       total_shots, total_made, possession_changes, unique_players
		FROM analyses
		WHERE id LIKE ? || '%' OR source_hash LIKE ? || '%'
		ORDER BY created_at DESC LIMIT 1`, prefix, prefix).
		Scan(&s.ID, &s.SourceHash, &s.CreatedAt, &s.FramesProcessed,
			&s.GameDuration, &s.TotalShots, &s.TotalMade, &s.PossessionChanges,
			&s.UniquePlayers)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetResult loads the full stored AnalysisResult for one analysis.
func (db *DB) GetResult(analysisID string) (*model.AnalysisResult, error) {
	var raw string
	err := db.conn.QueryRow("SELECT result_json FROM analyses WHERE id = ?", analysisID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var res model.AnalysisResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("unmarshal stored result: %w", err)
	}
	return &res, nil
}

// GetPlayerStats returns the per-player rows of one analysis ordered
// by track id.
func (db *DB) GetPlayerStats(analysisID string) ([]model.PlayerStats, error) {
	rows, err := db.conn.Query(`
		SELECT track_id, frames_seen, touches, possession_frames, distance_covered,
		       shot_attempts, shots_made, three_pt_attempts, three_pt_made, points
		FROM player_stats WHERE analysis_id = ? ORDER BY track_id`, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.PlayerStats
	for rows.Next() {
		var s model.PlayerStats
		if err := rows.Scan(&s.TrackID, &s.FramesSeen, &s.Touches, &s.PossessionFrames,
			&s.DistanceCovered, &s.ShotAttempts, &s.ShotsMade,
			&s.ThreePtAttempts, &s.ThreePtMade, &s.Points); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetShotAttempts returns the shot attempt rows of one analysis in
// start-frame order. Trajectories are not stored row-wise; use
// GetResult for the full records.
func (db *DB) GetShotAttempts(analysisID string) ([]model.ShotAttempt, error) {
	rows, err := db.conn.Query(`
		SELECT id, shooter_id, start_frame, end_frame, release_zone, result, point_value
		FROM shot_attempts WHERE analysis_id = ? ORDER BY start_frame`, analysisID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ShotAttempt
	for rows.Next() {
		var (
			att     model.ShotAttempt
			shooter sql.NullInt64
			end     int
			zone    string
			result  string
		)
		if err := rows.Scan(&att.ID, &shooter, &att.StartFrame, &end, &zone, &result, &att.PointValue); err != nil {
			return nil, err
		}
		if shooter.Valid {
			att.ShooterTrackID = model.IntPtr(int(shooter.Int64))
		}
		att.EndFrame = model.IntPtr(end)
		att.ReleaseZone = model.CourtZone(zone)
		att.Result = model.ShotResult(result)
		att.State = model.ShotResolved
		out = append(out, att)
	}
	return out, rows.Err()
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
