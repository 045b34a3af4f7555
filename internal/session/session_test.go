package session

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benoitbolivard/Project-basket/internal/config"
	"github.com/Benoitbolivard/Project-basket/internal/model"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.HysteresisFrames = 3
	cfg.LossTimeoutFrames = 5
	cfg.MinReleaseSpeed = 200
	return cfg
}

func frameAt(idx int, objects ...model.TrackedObject) model.FrameRecord {
	return model.FrameRecord{
		FrameIndex: idx,
		Timestamp:  float64(idx) / 30.0,
		Objects:    objects,
	}
}

func player(id int, x, y float64) model.TrackedObject {
	return model.TrackedObject{TrackID: id, Class: model.ClassPlayer, Position: model.Position{X: x, Y: y}, Confidence: 0.9}
}

func ball(x, y float64) model.TrackedObject {
	return model.TrackedObject{TrackID: 99, Class: model.ClassBall, Position: model.Position{X: x, Y: y}, Confidence: 0.9}
}

// madeShotFrames is a 10-frame sequence: player 1 holds the ball for
// frames 0-3 in midrange, releases upward at frame 4, and the ball
// drops through the hoop success region at frame 7.
func madeShotFrames() []model.FrameRecord {
	shooter := func(idx int, b model.TrackedObject) model.FrameRecord {
		return frameAt(idx, player(1, 500, 800), player(2, 100, 200), b)
	}
	return []model.FrameRecord{
		shooter(0, ball(505, 805)),
		shooter(1, ball(505, 805)),
		shooter(2, ball(505, 805)),
		shooter(3, ball(505, 805)),
		shooter(4, ball(505, 740)), // upward release
		shooter(5, ball(505, 680)),
		shooter(6, ball(502, 760)), // apex passed, descending
		shooter(7, ball(500, 900)), // through the success sub-region
		shooter(8, ball(500, 980)),
		shooter(9, ball(500, 985)),
	}
}

func runFrames(t *testing.T, frames []model.FrameRecord) *model.AnalysisResult {
	t.Helper()
	sess, err := New(testConfig())
	require.NoError(t, err)
	for _, f := range frames {
		require.NoError(t, sess.IngestFrame(f))
	}
	return sess.Finalize()
}

func TestMadeShotScenario(t *testing.T) {
	res := runFrames(t, madeShotFrames())

	require.Len(t, res.PossessionEvents, 1)
	pe := res.PossessionEvents[0]
	assert.Nil(t, pe.PrevHolder)
	require.NotNil(t, pe.NewHolder)
	assert.Equal(t, 1, *pe.NewHolder)
	assert.LessOrEqual(t, pe.FrameIndex, 3, "holder must be confirmed within the hold window")

	require.Len(t, res.ShotAttempts, 1)
	att := res.ShotAttempts[0]
	require.NotNil(t, att.ShooterTrackID)
	assert.Equal(t, 1, *att.ShooterTrackID)
	assert.Equal(t, model.CourtZone("midrange"), att.ReleaseZone)
	assert.Equal(t, model.ShotMade, att.Result)

	p1 := res.PlayerStats[1]
	require.NotNil(t, p1)
	assert.Equal(t, 1, p1.ShotAttempts)
	assert.Equal(t, 1, p1.ShotsMade)
	assert.Equal(t, 2, p1.Points)

	assert.Equal(t, 1, res.GameStatistics.TotalShots)
	assert.Equal(t, 1, res.GameStatistics.TotalMade)
	if line := res.GameStatistics.AttemptsByZone["midrange"]; line.Attempts != 1 || line.Made != 1 {
		t.Errorf("zone chart line = %+v, want 1/1", line)
	}
}

func TestDeterminism(t *testing.T) {
	frames := madeShotFrames()

	first := runFrames(t, frames)
	second := runFrames(t, frames)

	firstLog, err := json.Marshal(first.EventLog)
	require.NoError(t, err)
	secondLog, err := json.Marshal(second.EventLog)
	require.NoError(t, err)
	assert.Equal(t, firstLog, secondLog, "event logs must be byte-identical across runs")

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("results differ between runs (-first +second):\n%s", diff)
	}
}

func TestOutOfOrderFrameRejectedWithoutStateChange(t *testing.T) {
	sess, err := New(testConfig())
	require.NoError(t, err)

	require.NoError(t, sess.IngestFrame(frameAt(0, player(1, 500, 800))))
	require.NoError(t, sess.IngestFrame(frameAt(1, player(1, 500, 800))))

	// Duplicate index.
	err = sess.IngestFrame(frameAt(1, player(1, 500, 800)))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfOrderFrame))

	// Regressing index.
	err = sess.IngestFrame(frameAt(0, player(1, 500, 800)))
	assert.True(t, errors.Is(err, ErrOutOfOrderFrame))

	// Non-increasing timestamp with an increasing index is also invalid.
	err = sess.IngestFrame(model.FrameRecord{FrameIndex: 2, Timestamp: 0})
	assert.True(t, errors.Is(err, ErrOutOfOrderFrame))

	// Processing continues with the next valid frame.
	require.NoError(t, sess.IngestFrame(frameAt(2, player(1, 500, 800))))

	res := sess.Finalize()
	assert.Equal(t, 3, res.ProcessingSummary.FramesProcessed)
	assert.Equal(t, 3, res.ProcessingSummary.FramesRejected)
}

func TestFinalizeClosesOpenAttempt(t *testing.T) {
	frames := madeShotFrames()[:6] // stop right after the release
	res := runFrames(t, frames)

	require.Len(t, res.ShotAttempts, 1)
	att := res.ShotAttempts[0]
	assert.Equal(t, model.ShotUnknown, att.Result)
	require.NotNil(t, att.EndFrame)
	assert.Equal(t, 5, *att.EndFrame)
	assert.Equal(t, model.ShotResolved, att.State)

	// The forced closure still lands in the event log.
	last := res.EventLog[len(res.EventLog)-1]
	assert.Equal(t, model.EventShot, last.Type)
}

func TestIngestAfterFinalizeFails(t *testing.T) {
	sess, err := New(testConfig())
	require.NoError(t, err)
	require.NoError(t, sess.IngestFrame(frameAt(0, player(1, 500, 800))))
	sess.Finalize()

	err = sess.IngestFrame(frameAt(1, player(1, 500, 800)))
	assert.True(t, errors.Is(err, ErrFinalized))
}

func TestLowConfidenceObjectsAreDropped(t *testing.T) {
	sess, err := New(testConfig())
	require.NoError(t, err)

	weakBall := ball(505, 805)
	weakBall.Confidence = 0.1 // below the 0.25 floor
	for i := 0; i < 5; i++ {
		f := frameAt(i, player(1, 500, 800), weakBall)
		require.NoError(t, sess.IngestFrame(f))
	}
	res := sess.Finalize()

	assert.Empty(t, res.PossessionEvents, "a dropped ball cannot establish possession")
	assert.Equal(t, 0, res.ProcessingSummary.FramesWithBall)
}

func TestHighestConfidenceBallIsAuthoritative(t *testing.T) {
	sess, err := New(testConfig())
	require.NoError(t, err)

	// Ghost ball hovers near player 2; real ball sits with player 1.
	ghost := model.TrackedObject{TrackID: 98, Class: model.ClassBall, Position: model.Position{X: 100, Y: 205}, Confidence: 0.4}
	gameBall := ball(505, 805)
	for i := 0; i < 4; i++ {
		f := frameAt(i, player(1, 500, 800), player(2, 100, 200), ghost, gameBall)
		require.NoError(t, sess.IngestFrame(f))
	}
	res := sess.Finalize()

	require.Len(t, res.PossessionEvents, 1)
	require.NotNil(t, res.PossessionEvents[0].NewHolder)
	assert.Equal(t, 1, *res.PossessionEvents[0].NewHolder)
}

func TestPossessionLostOnOcclusionTimeout(t *testing.T) {
	sess, err := New(testConfig())
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, sess.IngestFrame(frameAt(i, player(1, 500, 800), ball(505, 805))))
	}
	// Ball missing for exactly loss_timeout_frames frames.
	for i := 3; i < 8; i++ {
		require.NoError(t, sess.IngestFrame(frameAt(i, player(1, 500, 800))))
	}
	res := sess.Finalize()

	require.Len(t, res.PossessionEvents, 2)
	loss := res.PossessionEvents[1]
	assert.Equal(t, 7, loss.FrameIndex, "loss fires exactly at the 5th missing frame")
	assert.Nil(t, loss.NewHolder)
}

func TestInvalidConfigRejectedAtConstruction(t *testing.T) {
	cfg := config.Default()
	cfg.Zones = nil
	_, err := New(cfg)
	require.Error(t, err)

	cfg = config.Default()
	cfg.HysteresisFrames = 0
	_, err = New(cfg)
	require.Error(t, err)

	_, err = New(nil)
	require.Error(t, err)
}

func TestEventLogSequenceIsOrdered(t *testing.T) {
	res := runFrames(t, madeShotFrames())
	for i, ev := range res.EventLog {
		assert.Equal(t, i, ev.Seq)
		if i > 0 {
			assert.GreaterOrEqual(t, ev.FrameIndex, res.EventLog[i-1].FrameIndex)
		}
	}
}
