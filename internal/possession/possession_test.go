package possession

import (
	"testing"

	"github.com/Benoitbolivard/Project-basket/internal/config"
	"github.com/Benoitbolivard/Project-basket/internal/model"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.PossessionRadius = 80
	cfg.HysteresisFrames = 3
	cfg.LossTimeoutFrames = 5
	return cfg
}

type playerPos struct {
	id  int
	pos model.Position
}

// makeFrame builds a FrameRecord with an optional ball and the given
// players. A nil ball simulates occlusion.
func makeFrame(idx int, ball *model.Position, players ...playerPos) (model.FrameRecord, *model.TrackedObject, []model.TrackedObject) {
	frame := model.FrameRecord{FrameIndex: idx, Timestamp: float64(idx) / 30.0}
	var ballObj *model.TrackedObject
	if ball != nil {
		ballObj = &model.TrackedObject{TrackID: 99, Class: model.ClassBall, Position: *ball, Confidence: 0.9}
		frame.Objects = append(frame.Objects, *ballObj)
	}
	objs := make([]model.TrackedObject, 0, len(players))
	for _, p := range players {
		obj := model.TrackedObject{TrackID: p.id, Class: model.ClassPlayer, Position: p.pos, Confidence: 0.9}
		objs = append(objs, obj)
		frame.Objects = append(frame.Objects, obj)
	}
	return frame, ballObj, objs
}

func update(t *Tracker, idx int, ball *model.Position, players ...playerPos) *model.PossessionEvent {
	frame, ballObj, objs := makeFrame(idx, ball, players...)
	return t.Update(frame, ballObj, objs)
}

func TestHysteresis_TwoFramesNeverHolder(t *testing.T) {
	tr := NewTracker(testConfig(), nil)
	ball := model.Position{X: 100, Y: 100}
	near := playerPos{1, model.Position{X: 110, Y: 100}}

	for i := 0; i < 2; i++ {
		if ev := update(tr, i, &ball, near); ev != nil {
			t.Fatalf("unexpected event at frame %d: %+v", i, ev)
		}
	}
	// Break the run: ball moves away from everyone.
	far := model.Position{X: 900, Y: 900}
	if ev := update(tr, 2, &far, near); ev != nil {
		t.Fatalf("unexpected event on non-qualifying frame: %+v", ev)
	}
	if tr.Holder() != nil {
		t.Errorf("player nearest for only 2 consecutive frames must never become holder, got %v", *tr.Holder())
	}
}

func TestHysteresis_ThreeFramesBecomesHolder(t *testing.T) {
	tr := NewTracker(testConfig(), nil)
	ball := model.Position{X: 100, Y: 100}
	near := playerPos{1, model.Position{X: 110, Y: 100}}

	var events []*model.PossessionEvent
	for i := 0; i < 4; i++ {
		if ev := update(tr, i, &ball, near); ev != nil {
			events = append(events, ev)
		}
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(events))
	}
	ev := events[0]
	if ev.FrameIndex != 2 {
		t.Errorf("expected transition at frame 2 (third qualifying frame), got %d", ev.FrameIndex)
	}
	if ev.PrevHolder != nil {
		t.Errorf("expected nil prev holder, got %v", *ev.PrevHolder)
	}
	if ev.NewHolder == nil || *ev.NewHolder != 1 {
		t.Errorf("expected new holder 1, got %v", ev.NewHolder)
	}
	if tr.Holder() == nil || *tr.Holder() != 1 {
		t.Errorf("expected holder 1 after event")
	}
}

func TestNearestTieBreaksByLowestTrackID(t *testing.T) {
	tr := NewTracker(testConfig(), nil)
	ball := model.Position{X: 100, Y: 100}
	// Both players exactly 10 units from the ball.
	left := playerPos{7, model.Position{X: 90, Y: 100}}
	right := playerPos{3, model.Position{X: 110, Y: 100}}

	for i := 0; i < 3; i++ {
		update(tr, i, &ball, left, right)
	}
	if tr.Holder() == nil || *tr.Holder() != 3 {
		t.Fatalf("expected tie broken to track 3, got %v", tr.Holder())
	}
}

func TestBriefGapDoesNotClearHolder(t *testing.T) {
	tr := NewTracker(testConfig(), nil)
	ball := model.Position{X: 100, Y: 100}
	near := playerPos{1, model.Position{X: 110, Y: 100}}

	for i := 0; i < 3; i++ {
		update(tr, i, &ball, near)
	}
	// Ball drifts out of possession radius for fewer frames than the
	// loss timeout.
	far := model.Position{X: 400, Y: 400}
	for i := 3; i < 6; i++ {
		if ev := update(tr, i, &far, near); ev != nil {
			t.Fatalf("holder cleared too early at frame %d", i)
		}
	}
	if tr.Holder() == nil || *tr.Holder() != 1 {
		t.Errorf("brief gap must not clear holder, got %v", tr.Holder())
	}
}

func TestLossTimeoutOnMissingBall(t *testing.T) {
	tr := NewTracker(testConfig(), nil)
	ball := model.Position{X: 100, Y: 100}
	near := playerPos{1, model.Position{X: 110, Y: 100}}

	for i := 0; i < 3; i++ {
		update(tr, i, &ball, near)
	}

	// Ball missing for 5 consecutive frames with loss_timeout_frames=5:
	// the loss event fires exactly at the 5th missing frame, not earlier.
	for i := 3; i < 7; i++ {
		if ev := update(tr, i, nil, near); ev != nil {
			t.Fatalf("loss event fired early at missing frame %d", i-2)
		}
	}
	ev := update(tr, 7, nil, near)
	if ev == nil {
		t.Fatal("expected loss event at the 5th missing frame")
	}
	if ev.PrevHolder == nil || *ev.PrevHolder != 1 || ev.NewHolder != nil {
		t.Errorf("expected event (1 -> none), got (%v -> %v)", ev.PrevHolder, ev.NewHolder)
	}
	if tr.Holder() != nil {
		t.Errorf("holder must be cleared after loss timeout")
	}
}

func TestHolderTakeoverEmitsSingleEvent(t *testing.T) {
	tr := NewTracker(testConfig(), nil)
	ballAt1 := model.Position{X: 100, Y: 100}
	p1 := playerPos{1, model.Position{X: 110, Y: 100}}
	p2 := playerPos{2, model.Position{X: 400, Y: 400}}

	for i := 0; i < 3; i++ {
		update(tr, i, &ballAt1, p1, p2)
	}

	// Ball moves to player 2; needs the full hysteresis run again.
	ballAt2 := model.Position{X: 405, Y: 400}
	var events []*model.PossessionEvent
	for i := 3; i < 6; i++ {
		if ev := update(tr, i, &ballAt2, p1, p2); ev != nil {
			events = append(events, ev)
		}
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly one takeover event, got %d", len(events))
	}
	ev := events[0]
	if ev.PrevHolder == nil || *ev.PrevHolder != 1 || ev.NewHolder == nil || *ev.NewHolder != 2 {
		t.Errorf("expected event (1 -> 2), got (%v -> %v)", ev.PrevHolder, ev.NewHolder)
	}
}

func TestNoBallNoPlayersIsNoEvidence(t *testing.T) {
	tr := NewTracker(testConfig(), nil)
	if ev := update(tr, 0, nil); ev != nil {
		t.Fatalf("empty frame must not emit events, got %+v", ev)
	}
	ball := model.Position{X: 100, Y: 100}
	if ev := update(tr, 1, &ball); ev != nil {
		t.Fatalf("ball-only frame must not emit events, got %+v", ev)
	}
	if tr.Holder() != nil {
		t.Error("no holder expected")
	}
}
