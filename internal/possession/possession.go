// Package possession decides which player controls the ball, using
// proximity with hysteresis to suppress per-frame jitter.
package possession

import (
	"github.com/Benoitbolivard/Project-basket/internal/config"
	"github.com/Benoitbolivard/Project-basket/internal/model"
)

// ZoneFunc maps a court position to a zone name for event labeling.
type ZoneFunc func(model.Position) model.CourtZone

// Tracker maintains the current ball-holder state for one session.
// All mutation happens in Update; instances are not safe for
// concurrent use.
type Tracker struct {
	radius      float64
	hysteresis  int
	lossTimeout int
	zoneOf      ZoneFunc

	holder       *int
	sinceFrame   int
	candidate    *int
	candidateRun int
	missRun      int
	lastBallPos  *model.Position
}

// NewTracker builds a tracker from validated calibration. zoneOf may
// be nil, in which case events carry model.ZoneUnknown.
func NewTracker(cfg *config.Config, zoneOf ZoneFunc) *Tracker {
	return &Tracker{
		radius:      cfg.PossessionRadius,
		hysteresis:  cfg.HysteresisFrames,
		lossTimeout: cfg.LossTimeoutFrames,
		zoneOf:      zoneOf,
	}
}

// Holder returns the current holder track id, or nil when the ball is
// loose.
func (t *Tracker) Holder() *int { return t.holder }

// SinceFrame returns the frame index at which the current holder took
// possession. Meaningful only while Holder is non-nil.
func (t *Tracker) SinceFrame() int { return t.sinceFrame }

// Update advances holder state for one frame. ball is the
// authoritative ball object of the frame, or nil when the ball was not
// detected; players holds every player object of the frame. It returns
// a PossessionEvent when and only when the holder changed.
func (t *Tracker) Update(frame model.FrameRecord, ball *model.TrackedObject, players []model.TrackedObject) *model.PossessionEvent {
	if ball == nil {
		// Occlusion: holder and candidate survive, but a holder that
		// stays unconfirmed for lossTimeout consecutive frames is lost.
		t.candidate, t.candidateRun = nil, 0
		return t.tickLoss(frame)
	}
	t.lastBallPos = &ball.Position

	nearest, dist, ok := nearestPlayer(ball.Position, players)
	if !ok || dist > t.radius {
		// No one qualifies this frame. An existing holder is kept; only
		// a new candidate run is prevented from starting.
		t.candidate, t.candidateRun = nil, 0
		return t.tickLoss(frame)
	}

	if t.holder != nil && nearest == *t.holder {
		t.missRun = 0
		t.candidate, t.candidateRun = nil, 0
		return nil
	}

	// A different player is the qualifying nearest.
	if t.candidate != nil && *t.candidate == nearest {
		t.candidateRun++
	} else {
		t.candidate, t.candidateRun = model.IntPtr(nearest), 1
	}
	if t.candidateRun >= t.hysteresis {
		prev := t.holder
		t.holder = model.IntPtr(nearest)
		t.sinceFrame = frame.FrameIndex
		t.candidate, t.candidateRun = nil, 0
		t.missRun = 0
		return t.event(frame, prev, t.holder)
	}
	return t.tickLoss(frame)
}

// tickLoss counts a frame on which the holder was not the qualifying
// nearest player and reverts to no-holder once the timeout is reached.
func (t *Tracker) tickLoss(frame model.FrameRecord) *model.PossessionEvent {
	if t.holder == nil {
		return nil
	}
	t.missRun++
	if t.missRun < t.lossTimeout {
		return nil
	}
	prev := t.holder
	t.holder = nil
	t.missRun = 0
	return t.event(frame, prev, nil)
}

func (t *Tracker) event(frame model.FrameRecord, prev, next *int) *model.PossessionEvent {
	zone := model.ZoneUnknown
	if t.zoneOf != nil && t.lastBallPos != nil {
		zone = t.zoneOf(*t.lastBallPos)
	}
	return &model.PossessionEvent{
		FrameIndex: frame.FrameIndex,
		Timestamp:  frame.Timestamp,
		PrevHolder: prev,
		NewHolder:  next,
		Zone:       zone,
	}
}

// nearestPlayer returns the player closest to the ball, ties broken by
// lowest track id.
func nearestPlayer(ball model.Position, players []model.TrackedObject) (trackID int, dist float64, ok bool) {
	for _, p := range players {
		if p.Class != model.ClassPlayer {
			continue
		}
		d := ball.DistanceTo(p.Position)
		if !ok || d < dist || (d == dist && p.TrackID < trackID) {
			trackID, dist, ok = p.TrackID, d, true
		}
	}
	return trackID, dist, ok
}
