// Package shot detects shot attempts from ball trajectory and
// possession context and resolves them against the hoop geometry.
package shot

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Benoitbolivard/Project-basket/internal/config"
	"github.com/Benoitbolivard/Project-basket/internal/model"
)

// PointFunc returns the scoring value of the zone a shot was released
// from.
type PointFunc func(model.CourtZone) int

// ballSample is one observed ball position with its timestamp.
type ballSample struct {
	pos model.Position
	ts  float64
}

// Detector runs the WATCHING → CANDIDATE → RESOLVED state machine.
// At most one attempt is open at a time; every opened attempt is
// eventually closed with a non-empty result (timeout and finalize
// close as unknown). Not safe for concurrent use.
type Detector struct {
	hoop        config.HoopSpec
	minSpeed    float64
	timeout     int
	pointOf     PointFunc

	prevBall   *ballSample
	open       *model.ShotAttempt
	framesOpen int
}

// NewDetector builds a detector from validated calibration. pointOf
// may be nil, in which case every attempt is worth 2 points.
func NewDetector(cfg *config.Config, pointOf PointFunc) *Detector {
	return &Detector{
		hoop:     cfg.Hoop,
		minSpeed: cfg.MinReleaseSpeed,
		timeout:  cfg.ShotTimeoutFrames,
		pointOf:  pointOf,
	}
}

// Open returns the currently open attempt, or nil while WATCHING.
func (d *Detector) Open() *model.ShotAttempt { return d.open }

// Update advances the state machine for one frame. holder is the
// current possession holder (nil when the ball is loose) and
// holderZone the holder's court zone this frame. It returns a resolved
// ShotAttempt when an attempt closed on this frame, else nil.
func (d *Detector) Update(frame model.FrameRecord, ball *model.TrackedObject, holder *int, holderZone model.CourtZone) *model.ShotAttempt {
	vy, speed, hasVel := d.velocity(ball, frame.Timestamp)

	if d.open == nil {
		// WATCHING: a fast upward ball movement while someone holds the
		// ball is a release.
		if ball != nil && hasVel && holder != nil && speed >= d.minSpeed && vy < 0 {
			d.open = &model.ShotAttempt{
				ID:             attemptID(frame.FrameIndex),
				ShooterTrackID: model.IntPtr(*holder),
				StartFrame:     frame.FrameIndex,
				StartTimestamp: frame.Timestamp,
				ReleaseZone:    holderZone,
				Trajectory:     []model.Position{ball.Position},
				Result:         ShotPending,
				State:          model.ShotCandidate,
				PointValue:     d.pointValue(holderZone),
			}
			d.framesOpen = 1
		}
		d.observe(ball, frame.Timestamp)
		return nil
	}

	// CANDIDATE: collect trajectory and test resolution.
	d.framesOpen++
	if ball != nil {
		d.open.Trajectory = append(d.open.Trajectory, ball.Position)

		if d.hoop.Region.Contains(ball.Position) {
			result := model.ShotMissed
			if hasVel && vy > 0 && d.hoop.Success.Contains(ball.Position) {
				result = model.ShotMade
			}
			d.observe(ball, frame.Timestamp)
			return d.resolve(frame.FrameIndex, result)
		}
	}
	d.observe(ball, frame.Timestamp)

	if d.framesOpen >= d.timeout {
		return d.resolve(frame.FrameIndex, model.ShotUnknown)
	}
	return nil
}

// CloseOpen force-closes a still-open attempt via the timeout path.
// Called at session finalize so partial runs yield a coherent result.
func (d *Detector) CloseOpen(lastFrame int) *model.ShotAttempt {
	if d.open == nil {
		return nil
	}
	return d.resolve(lastFrame, model.ShotUnknown)
}

// ShotPending marks an attempt whose result is not yet decided.
const ShotPending = model.ShotResult("")

// attemptID derives a stable UUID from the release frame so that two
// runs over the same frame sequence produce byte-identical event logs.
// Release frames strictly increase within a session, so ids are unique.
func attemptID(startFrame int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "shot-attempt:%d", startFrame)).String()
}

func (d *Detector) resolve(frameIndex int, result model.ShotResult) *model.ShotAttempt {
	att := d.open
	att.EndFrame = model.IntPtr(frameIndex)
	att.Result = result
	att.State = model.ShotResolved
	d.open = nil
	d.framesOpen = 0
	return att
}

// velocity derives the ball velocity from the previous observation.
// Returns hasVel=false on the first observation or when the ball is
// missing this frame.
func (d *Detector) velocity(ball *model.TrackedObject, ts float64) (vy, speed float64, hasVel bool) {
	if ball == nil || d.prevBall == nil {
		return 0, 0, false
	}
	dt := ts - d.prevBall.ts
	if dt <= 0 {
		return 0, 0, false
	}
	vy = (ball.Position.Y - d.prevBall.pos.Y) / dt
	speed = ball.Position.DistanceTo(d.prevBall.pos) / dt
	return vy, speed, true
}

func (d *Detector) observe(ball *model.TrackedObject, ts float64) {
	if ball != nil {
		d.prevBall = &ballSample{pos: ball.Position, ts: ts}
	}
}

func (d *Detector) pointValue(zone model.CourtZone) int {
	if d.pointOf == nil {
		return 2
	}
	return d.pointOf(zone)
}
