// Package stats folds frames and domain events into running per-player
// and per-game statistics. The fold is pure: replaying the same ordered
// (frame, event) sequence always produces identical final stats.
package stats

import (
	"gonum.org/v1/gonum/stat"

	"github.com/Benoitbolivard/Project-basket/internal/model"
)

// FrameObservation is one frame with the zone annotation of every
// tracked object, keyed by track id.
type FrameObservation struct {
	Frame model.FrameRecord
	Zones map[int]model.CourtZone
}

// Aggregator accumulates statistics for one session. It never fails on
// missing data; unknown shooters and loose-ball frames simply do not
// contribute. Not safe for concurrent use.
type Aggregator struct {
	players map[int]*model.PlayerStats
	lastPos map[int]model.Position

	framesProcessed   int
	firstTS, lastTS   float64
	sawFrame          bool
	totalShots        int
	totalMade         int
	possessionChanges int
	attemptsByZone    map[model.CourtZone]model.ZoneLine

	holder           *int
	holderSinceTS    float64
	closedPossession []float64 // seconds
}

// New returns an empty aggregator.
func New() *Aggregator {
	return &Aggregator{
		players:        make(map[int]*model.PlayerStats),
		lastPos:        make(map[int]model.Position),
		attemptsByZone: make(map[model.CourtZone]model.ZoneLine),
	}
}

func (a *Aggregator) player(trackID int) *model.PlayerStats {
	p, ok := a.players[trackID]
	if !ok {
		p = &model.PlayerStats{
			TrackID:    trackID,
			Zones:      make(map[model.CourtZone]model.ZoneLine),
			ZoneFrames: make(map[model.CourtZone]int),
		}
		a.players[trackID] = p
	}
	return p
}

// OnFrame folds one frame of player presence into the stats.
func (a *Aggregator) OnFrame(obs FrameObservation) {
	a.framesProcessed++
	if !a.sawFrame {
		a.firstTS = obs.Frame.Timestamp
		a.sawFrame = true
	}
	a.lastTS = obs.Frame.Timestamp

	for _, obj := range obs.Frame.Objects {
		if obj.Class != model.ClassPlayer {
			continue
		}
		p := a.player(obj.TrackID)
		p.FramesSeen++
		if zone, ok := obs.Zones[obj.TrackID]; ok {
			p.ZoneFrames[zone]++
		}
		if last, ok := a.lastPos[obj.TrackID]; ok {
			p.DistanceCovered += obj.Position.DistanceTo(last)
		}
		a.lastPos[obj.TrackID] = obj.Position
	}

	if a.holder != nil {
		a.player(*a.holder).PossessionFrames++
	}
}

// OnEvent folds one domain event into the stats.
func (a *Aggregator) OnEvent(ev model.Event) {
	switch ev.Type {
	case model.EventPossession:
		if ev.Possession == nil {
			return
		}
		a.onPossession(ev.Possession)
	case model.EventShot:
		if ev.Shot == nil {
			return
		}
		a.onShot(ev.Shot)
	}
}

func (a *Aggregator) onPossession(ev *model.PossessionEvent) {
	a.possessionChanges++
	if a.holder != nil {
		a.closedPossession = append(a.closedPossession, ev.Timestamp-a.holderSinceTS)
	}
	a.holder = ev.NewHolder
	a.holderSinceTS = ev.Timestamp
	if ev.NewHolder != nil {
		a.player(*ev.NewHolder).Touches++
	}
}

func (a *Aggregator) onShot(att *model.ShotAttempt) {
	if att.State != model.ShotResolved {
		return
	}
	a.totalShots++
	made := att.Result == model.ShotMade
	if made {
		a.totalMade++
	}

	line := a.attemptsByZone[att.ReleaseZone]
	line.Attempts++
	if made {
		line.Made++
	}
	a.attemptsByZone[att.ReleaseZone] = line

	if att.ShooterTrackID == nil {
		return
	}
	p := a.player(*att.ShooterTrackID)
	p.ShotAttempts++
	zl := p.Zones[att.ReleaseZone]
	zl.Attempts++
	if att.PointValue == 3 {
		p.ThreePtAttempts++
	}
	if made {
		p.ShotsMade++
		p.Points += att.PointValue
		zl.Made++
		if att.PointValue == 3 {
			p.ThreePtMade++
		}
	}
	p.Zones[att.ReleaseZone] = zl
}

// PlayerStats returns the per-player accumulators. The returned map is
// the aggregator's own state; callers must not mutate it mid-session.
func (a *Aggregator) PlayerStats() map[int]*model.PlayerStats { return a.players }

// GameStats snapshots the game-level totals.
func (a *Aggregator) GameStats() model.GameStats {
	byZone := make(map[model.CourtZone]model.ZoneLine, len(a.attemptsByZone))
	for z, l := range a.attemptsByZone {
		byZone[z] = l
	}
	return model.GameStats{
		FramesProcessed:   a.framesProcessed,
		GameDuration:      a.lastTS - a.firstTS,
		TotalShots:        a.totalShots,
		TotalMade:         a.totalMade,
		PossessionChanges: a.possessionChanges,
		AttemptsByZone:    byZone,
		Possessions:       a.possessionSummary(),
	}
}

func (a *Aggregator) possessionSummary() model.PossessionSummary {
	durations := make([]float64, 0, len(a.closedPossession))
	for _, d := range a.closedPossession {
		if d > 0 {
			durations = append(durations, d)
		}
	}
	s := model.PossessionSummary{TotalPossessions: len(a.closedPossession)}
	if len(durations) == 0 {
		return s
	}
	s.AvgDuration = stat.Mean(durations, nil)
	s.LongestDuration = durations[0]
	s.ShortestDuration = durations[0]
	for _, d := range durations[1:] {
		if d > s.LongestDuration {
			s.LongestDuration = d
		}
		if d < s.ShortestDuration {
			s.ShortestDuration = d
		}
	}
	return s
}

// Replay folds an already-produced event log and frame history through
// a fresh aggregator, reproducing the original stats exactly. Events
// are applied after the frame they were emitted on, matching the
// session's ingest order.
func Replay(observations []FrameObservation, events []model.Event) *Aggregator {
	a := New()
	cursor := 0
	for _, obs := range observations {
		a.OnFrame(obs)
		for cursor < len(events) && events[cursor].FrameIndex <= obs.Frame.FrameIndex {
			a.OnEvent(events[cursor])
			cursor++
		}
	}
	for ; cursor < len(events); cursor++ {
		a.OnEvent(events[cursor])
	}
	return a
}
