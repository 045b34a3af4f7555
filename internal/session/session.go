// Package session orchestrates one video analysis: it owns all mutable
// pipeline state and routes each frame through zone classification,
// possession tracking, shot detection, and stat aggregation in that
// fixed order.
package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Benoitbolivard/Project-basket/internal/config"
	"github.com/Benoitbolivard/Project-basket/internal/court"
	"github.com/Benoitbolivard/Project-basket/internal/model"
	"github.com/Benoitbolivard/Project-basket/internal/possession"
	"github.com/Benoitbolivard/Project-basket/internal/shot"
	"github.com/Benoitbolivard/Project-basket/internal/stats"
)

// ErrOutOfOrderFrame is returned when a frame's index or timestamp
// does not strictly increase relative to the last accepted frame. The
// frame is rejected and session state is left untouched.
var ErrOutOfOrderFrame = errors.New("frame out of order")

// ErrFinalized is returned when frames are ingested after Finalize.
var ErrFinalized = errors.New("session already finalized")

// Session is one analysis run. Sessions share no mutable state, so
// independent sessions may run concurrently; within a session all
// mutation is single-threaded.
type Session struct {
	cfg        *config.Config
	classifier *court.ZoneClassifier
	tracker    *possession.Tracker
	detector   *shot.Detector
	agg        *stats.Aggregator

	started     bool
	finalized   bool
	lastIndex   int
	lastTS      float64
	eventLog    []model.Event
	possessions []model.PossessionEvent
	attempts    []model.ShotAttempt

	framesWithBall int
	rejected       int
	playersSeen    map[int]struct{}
}

// New builds a session for the given calibration. Invalid
// configuration is fatal here, before any frame is accepted.
func New(cfg *config.Config) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	classifier := court.NewZoneClassifier(cfg.Zones)
	return &Session{
		cfg:         cfg,
		classifier:  classifier,
		tracker:     possession.NewTracker(cfg, classifier.Classify),
		detector:    shot.NewDetector(cfg, classifier.PointValue),
		agg:         stats.New(),
		playersSeen: make(map[int]struct{}),
	}, nil
}

// IngestFrame routes one frame through the pipeline. Rejected frames
// (out of order or after finalize) leave all state untouched;
// processing continues with the next valid frame.
func (s *Session) IngestFrame(frame model.FrameRecord) error {
	if s.finalized {
		return ErrFinalized
	}
	if s.started && (frame.FrameIndex <= s.lastIndex || frame.Timestamp <= s.lastTS) {
		s.rejected++
		return fmt.Errorf("frame %d (t=%.3f) after frame %d (t=%.3f): %w",
			frame.FrameIndex, frame.Timestamp, s.lastIndex, s.lastTS, ErrOutOfOrderFrame)
	}

	objects := s.filter(frame.Objects)
	frame.Objects = objects
	ball := authoritativeBall(objects)
	players := make([]model.TrackedObject, 0, len(objects))
	for _, o := range objects {
		if o.Class == model.ClassPlayer {
			players = append(players, o)
			s.playersSeen[o.TrackID] = struct{}{}
		}
	}

	// Zone annotation for every tracked object.
	zones := make(map[int]model.CourtZone, len(objects))
	for _, o := range objects {
		zones[o.TrackID] = s.classifier.Classify(o.Position)
	}

	// Possession must be resolved before shot attribution.
	var emitted []model.Event
	if ev := s.tracker.Update(frame, ball, players); ev != nil {
		s.possessions = append(s.possessions, *ev)
		emitted = append(emitted, s.append(model.Event{
			Type:       model.EventPossession,
			FrameIndex: ev.FrameIndex,
			Timestamp:  ev.Timestamp,
			Possession: ev,
		}))
	}

	holder := s.tracker.Holder()
	holderZone := model.ZoneUnknown
	if holder != nil {
		if z, ok := zones[*holder]; ok {
			holderZone = z
		}
	}
	if att := s.detector.Update(frame, ball, holder, holderZone); att != nil {
		s.attempts = append(s.attempts, *att)
		emitted = append(emitted, s.append(model.Event{
			Type:       model.EventShot,
			FrameIndex: att.EndFrameValue(),
			Timestamp:  frame.Timestamp,
			Shot:       att,
		}))
	}

	// Stats fold last: the frame's objects plus any emitted events.
	s.agg.OnFrame(stats.FrameObservation{Frame: frame, Zones: zones})
	for _, ev := range emitted {
		s.agg.OnEvent(ev)
	}

	s.started = true
	s.lastIndex = frame.FrameIndex
	s.lastTS = frame.Timestamp
	if ball != nil {
		s.framesWithBall++
	}
	return nil
}

// Finalize closes any still-open shot attempt via the timeout path and
// returns the complete event log plus final stats. The session accepts
// no frames afterwards. Stopping input early and finalizing is always
// valid and yields a coherent partial result.
func (s *Session) Finalize() *model.AnalysisResult {
	if !s.finalized {
		s.finalized = true
		if att := s.detector.CloseOpen(s.lastIndex); att != nil {
			s.attempts = append(s.attempts, *att)
			ev := s.append(model.Event{
				Type:       model.EventShot,
				FrameIndex: att.EndFrameValue(),
				Timestamp:  s.lastTS,
				Shot:       att,
			})
			s.agg.OnEvent(ev)
		}
	}

	game := s.agg.GameStats()
	summary := model.ProcessingSummary{
		FramesProcessed:      game.FramesProcessed,
		FramesWithBall:       s.framesWithBall,
		UniquePlayersTracked: len(s.playersSeen),
		TotalEvents:          len(s.eventLog),
		FramesRejected:       s.rejected,
	}
	if game.FramesProcessed > 0 {
		summary.BallDetectionRate = float64(s.framesWithBall) / float64(game.FramesProcessed)
	}

	return &model.AnalysisResult{
		ID:                resultID(s.eventLog, game.FramesProcessed),
		ShotAttempts:      s.attempts,
		PossessionEvents:  s.possessions,
		PlayerStats:       s.agg.PlayerStats(),
		GameStatistics:    game,
		ProcessingSummary: summary,
		EventLog:          s.eventLog,
	}
}

// EventLog returns the ordered, append-only event log.
func (s *Session) EventLog() []model.Event { return s.eventLog }

func (s *Session) append(ev model.Event) model.Event {
	ev.Seq = len(s.eventLog)
	s.eventLog = append(s.eventLog, ev)
	return ev
}

// filter drops detections below the configured confidence floor before
// they reach the pipeline.
func (s *Session) filter(objects []model.TrackedObject) []model.TrackedObject {
	out := make([]model.TrackedObject, 0, len(objects))
	for _, o := range objects {
		if o.Confidence >= s.cfg.MinConfidence {
			out = append(out, o)
		}
	}
	return out
}

// authoritativeBall picks the highest-confidence ball object of the
// frame; ties go to the lowest track id. Extra ball detections are
// ignored for possession/shot logic but stay in the frame record.
func authoritativeBall(objects []model.TrackedObject) *model.TrackedObject {
	var best *model.TrackedObject
	for i := range objects {
		o := &objects[i]
		if o.Class != model.ClassBall {
			continue
		}
		if best == nil || o.Confidence > best.Confidence ||
			(o.Confidence == best.Confidence && o.TrackID < best.TrackID) {
			best = o
		}
	}
	return best
}

// resultID derives a stable analysis id from the run's outcome so that
// identical inputs yield identical results byte for byte.
func resultID(log []model.Event, frames int) string {
	seed := fmt.Sprintf("analysis:%d:%d", frames, len(log))
	if len(log) > 0 {
		last := log[len(log)-1]
		seed = fmt.Sprintf("%s:%d:%s", seed, last.FrameIndex, last.Type)
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}
