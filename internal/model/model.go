package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// ObjectClass tags what kind of physical entity a track belongs to.
type ObjectClass int

const (
	ClassUnknown ObjectClass = 0
	ClassPlayer  ObjectClass = 1
	ClassBall    ObjectClass = 2
)

func (c ObjectClass) String() string {
	switch c {
	case ClassPlayer:
		return "player"
	case ClassBall:
		return "ball"
	default:
		return "?"
	}
}

// MarshalJSON renders the class as its wire name ("player", "ball").
func (c ObjectClass) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts the wire names used by the external
// detector+tracker output.
func (c *ObjectClass) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "player":
		*c = ClassPlayer
	case "ball":
		*c = ClassBall
	default:
		return fmt.Errorf("unknown object class %q", s)
	}
	return nil
}

// Position is a point on the court plane in calibration units.
// Y grows toward the baseline (image convention), so an upward ball
// movement has negative Y velocity.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the Euclidean distance to other.
func (p Position) DistanceTo(other Position) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// ---- Per-frame input from the external detector+tracker ----

// TrackedObject is one detection with a tracker-assigned identity.
// TrackID is stable per physical entity only as far as the external
// tracker guarantees it; identity loss is not corrected here.
type TrackedObject struct {
	TrackID    int         `json:"track_id"`
	Class      ObjectClass `json:"class"`
	Position   Position    `json:"position"`
	Confidence float64     `json:"confidence"`
}

// FrameRecord is one frame of detector+tracker output. FrameIndex and
// Timestamp must strictly increase across successive frames of a session.
type FrameRecord struct {
	FrameIndex int             `json:"frame_index"`
	Timestamp  float64         `json:"timestamp"`
	Objects    []TrackedObject `json:"objects"`
}

// ---- Court zones ----

// CourtZone is the name of a calibrated court region. ZoneUnknown is
// the reserved fallback for positions outside every declared boundary.
type CourtZone string

const ZoneUnknown CourtZone = "unknown"

// ---- Domain events ----

// PossessionEvent records a change of ball holder. A nil PrevHolder
// means the ball was previously loose; a nil NewHolder means possession
// was lost without a new holder.
type PossessionEvent struct {
	FrameIndex int       `json:"frame_index"`
	Timestamp  float64   `json:"timestamp"`
	PrevHolder *int      `json:"prev_holder"`
	NewHolder  *int      `json:"new_holder"`
	Zone       CourtZone `json:"zone"`
}

// ShotResult is the resolution of a shot attempt.
type ShotResult string

const (
	ShotMade    ShotResult = "made"
	ShotMissed  ShotResult = "missed"
	ShotUnknown ShotResult = "unknown"
)

// ShotState is the detector state an attempt is in.
type ShotState string

const (
	ShotWatching  ShotState = "watching"
	ShotCandidate ShotState = "candidate"
	ShotResolved  ShotState = "resolved"
)

// ShotAttempt is one release-to-resolution episode of ball trajectory.
// EndFrame is nil while the attempt is still open.
type ShotAttempt struct {
	ID             string     `json:"id"`
	ShooterTrackID *int       `json:"shooter_track_id"`
	StartFrame     int        `json:"start_frame"`
	EndFrame       *int       `json:"end_frame"`
	StartTimestamp float64    `json:"start_timestamp"`
	ReleaseZone    CourtZone  `json:"release_zone"`
	Trajectory     []Position `json:"trajectory"`
	Result         ShotResult `json:"result"`
	State          ShotState  `json:"state"`
	PointValue     int        `json:"point_value"`
}

// EndFrameValue returns the closing frame index, falling back to the
// release frame while the attempt is still open.
func (s *ShotAttempt) EndFrameValue() int {
	if s.EndFrame != nil {
		return *s.EndFrame
	}
	return s.StartFrame
}

// EventType discriminates EventLog entries.
type EventType string

const (
	EventPossession EventType = "possession_change"
	EventShot       EventType = "shot_attempt"
)

// Event is one immutable EventLog entry. Exactly one of Possession and
// Shot is set, according to Type.
type Event struct {
	Seq        int              `json:"seq"`
	Type       EventType        `json:"type"`
	FrameIndex int              `json:"frame_index"`
	Timestamp  float64          `json:"timestamp"`
	Possession *PossessionEvent `json:"possession,omitempty"`
	Shot       *ShotAttempt     `json:"shot,omitempty"`
}

// ---- Aggregated statistics ----

// ZoneLine is the per-zone shooting split.
type ZoneLine struct {
	Attempts int `json:"attempts"`
	Made     int `json:"made"`
}

// PlayerStats accumulates per-track statistics. Counts never decrease
// within a session.
type PlayerStats struct {
	TrackID          int                    `json:"track_id"`
	FramesSeen       int                    `json:"frames_seen"`
	Touches          int                    `json:"touches"`
	PossessionFrames int                    `json:"possession_frames"`
	DistanceCovered  float64                `json:"distance_covered"`
	ShotAttempts     int                    `json:"shot_attempts"`
	ShotsMade        int                    `json:"shots_made"`
	ThreePtAttempts  int                    `json:"three_pt_attempts"`
	ThreePtMade      int                    `json:"three_pt_made"`
	Points           int                    `json:"points"`
	Zones            map[CourtZone]ZoneLine `json:"zones"`
	ZoneFrames       map[CourtZone]int      `json:"zone_frames"`
}

// FieldGoalPct returns the shooting percentage, 0 when no attempts.
func (s *PlayerStats) FieldGoalPct() float64 {
	if s.ShotAttempts == 0 {
		return 0
	}
	return float64(s.ShotsMade) / float64(s.ShotAttempts) * 100
}

func (s *PlayerStats) ThreePtPct() float64 {
	if s.ThreePtAttempts == 0 {
		return 0
	}
	return float64(s.ThreePtMade) / float64(s.ThreePtAttempts) * 100
}

// PossessionSummary summarizes closed possessions over a session.
// Durations are in seconds.
type PossessionSummary struct {
	TotalPossessions int     `json:"total_possessions"`
	AvgDuration      float64 `json:"avg_duration"`
	LongestDuration  float64 `json:"longest_duration"`
	ShortestDuration float64 `json:"shortest_duration"`
}

// GameStats aggregates totals over all players for one session.
type GameStats struct {
	FramesProcessed   int                    `json:"frames_processed"`
	GameDuration      float64                `json:"game_duration"`
	TotalShots        int                    `json:"total_shots"`
	TotalMade         int                    `json:"total_made"`
	PossessionChanges int                    `json:"possession_changes"`
	AttemptsByZone    map[CourtZone]ZoneLine `json:"attempts_by_zone"`
	Possessions       PossessionSummary      `json:"possession_summary"`
}

// ---- Result boundary ----

// ProcessingSummary is coverage metadata about one analysis run.
type ProcessingSummary struct {
	FramesProcessed      int     `json:"frames_processed"`
	FramesWithBall       int     `json:"frames_with_ball"`
	BallDetectionRate    float64 `json:"ball_detection_rate"`
	UniquePlayersTracked int     `json:"unique_players_tracked"`
	TotalEvents          int     `json:"total_events"`
	FramesRejected       int     `json:"frames_rejected"`
}

// AnalysisResult is the JSON boundary handed to persistence/API layers.
type AnalysisResult struct {
	ID                string               `json:"id"`
	SourceHash        string               `json:"source_hash"`
	VideoMetadata     map[string]any       `json:"video_metadata,omitempty"`
	ShotAttempts      []ShotAttempt        `json:"shot_attempts"`
	PossessionEvents  []PossessionEvent    `json:"possession_events"`
	PlayerStats       map[int]*PlayerStats `json:"player_stats"`
	GameStatistics    GameStats            `json:"game_statistics"`
	ProcessingSummary ProcessingSummary    `json:"processing_summary"`
	EventLog          []Event              `json:"event_log"`
}

// AnalysisSummary is a lightweight record for list/show commands.
type AnalysisSummary struct {
	ID                string
	SourceHash        string
	CreatedAt         string
	FramesProcessed   int
	GameDuration      float64
	TotalShots        int
	TotalMade         int
	PossessionChanges int
	UniquePlayers     int
}

// IntPtr is a convenience for the nullable track ids in events.
func IntPtr(v int) *int { return &v }
