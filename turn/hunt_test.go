package turn

import (
	"context"
	"math"
	"testing"

	"github.com/wfunc/survivalserver/activity"
	"github.com/wfunc/survivalserver/apperr"
	"github.com/wfunc/survivalserver/dice"
	"github.com/wfunc/survivalserver/session"
	"github.com/wfunc/survivalserver/state"
	"github.com/wfunc/survivalserver/world"
)

func beginHunt(t *testing.T, sess *session.Session, w *world.World, distance, alertness float64) {
	t.Helper()
	herd, ok := w.Herd("meadow")
	if !ok {
		t.Fatal("expected a meadow herd")
	}
	p := sess.Begin(state.PhaseHuntActive)
	p.Hunt = &activity.HuntState{
		Snapshot: activity.HuntSnapshot{
			AnimalID:  "deer-1",
			Species:   "deer",
			MeatKg:    30,
			Distance:  distance,
			Alertness: alertness,
			Patience:  huntPatience,
		},
		Animal: activity.Some(&world.Animal{ID: "deer-1", Species: "deer", MeatKg: 30}),
		Herd:   activity.Some(herd),
	}
	sess.TakeTrail()
}

func TestHuntApproachFromTwentyFive(t *testing.T) {
	d, w := newTestDispatcher(t)
	sess := newTestSession("meadow")
	beginHunt(t, sess, w, 25, huntIdleAlertness)

	// Each approach draws the spook roll, then the step.
	r := rolls(0.99, 0.99, 0.5, 0.99, 0.5, 0.99, 0.5)
	prev := 25.0
	for i := 0; i < 3 && sess.Phase() == state.PhaseHuntActive; i++ {
		mustDispatch(t, d, sess, r, "approach")
		if sess.Phase() != state.PhaseHuntActive {
			break
		}
		dist := sess.Pending.Hunt.Snapshot.Distance
		if dist > prev {
			t.Fatalf("distance grew from %.1f to %.1f", prev, dist)
		}
		if step := prev - dist; dist > 0 && (step < 8 || step > 16) {
			t.Fatalf("expected a step of 8-16 m, got %.1f", step)
		}
		prev = dist
	}
	if sess.Phase() == state.PhaseHuntActive && prev > 0 {
		t.Fatalf("expected distance 0 or a finished hunt, got %.1f", prev)
	}
	if got := sess.Pending.Hunt.Snapshot.Patience; got != huntPatience-3 {
		t.Fatalf("expected patience %d, got %d", huntPatience-3, got)
	}
}

func TestHuntWaitCalmsAlertedTarget(t *testing.T) {
	d, w := newTestDispatcher(t)

	alerted := func(distance float64) *session.Session {
		sess := newTestSession("meadow")
		beginHunt(t, sess, w, distance, 0.7)
		sess.Pending.Hunt.Snapshot.Alerted = true
		return sess
	}

	// calm roll lands, no drift
	sess := alerted(10)
	mustDispatch(t, d, sess, rolls(0.5, 0.1, 0.5), "wait")
	s := sess.Pending.Hunt.Snapshot
	if math.Abs(s.Alertness-0.4) > 1e-9 || s.Alerted {
		t.Fatalf("expected the target to calm to 0.4, got %.2f alerted=%v", s.Alertness, s.Alerted)
	}
	if s.Distance != 10 {
		t.Fatalf("expected no drift, got %.2f", s.Distance)
	}
	if s.Patience != huntPatience-1 {
		t.Fatalf("expected patience %d, got %d", huntPatience-1, s.Patience)
	}

	// calm roll fails, full drift towards the hunter
	sess = alerted(10)
	mustDispatch(t, d, sess, rolls(0.5, 0.9, 0), "wait")
	s = sess.Pending.Hunt.Snapshot
	if s.Alertness != 0.7 || !s.Alerted {
		t.Fatalf("expected alertness to stay 0.7, got %.2f alerted=%v", s.Alertness, s.Alerted)
	}
	if s.Distance != 7 {
		t.Fatalf("expected distance 7, got %.2f", s.Distance)
	}
	if s.Patience != huntPatience-1 {
		t.Fatalf("expected patience %d, got %d", huntPatience-1, s.Patience)
	}

	// an unalerted target draws only the drift
	sess = newTestSession("meadow")
	beginHunt(t, sess, w, 10, huntIdleAlertness)
	mustDispatch(t, d, sess, rolls(0.5, 0.99), "wait")
	s = sess.Pending.Hunt.Snapshot
	if s.Distance < 7 || s.Distance > 13 {
		t.Fatalf("expected drift within 3 m, got %.2f", s.Distance)
	}
	if s.Distance <= 12 {
		t.Fatalf("expected the first draw to drive the drift, got %.2f", s.Distance)
	}
	if s.Alertness != huntIdleAlertness {
		t.Fatalf("expected alertness %.2f, got %.2f", huntIdleAlertness, s.Alertness)
	}

	// drift never takes distance below zero
	sess = newTestSession("meadow")
	beginHunt(t, sess, w, 1, huntIdleAlertness)
	mustDispatch(t, d, sess, rolls(0.5, 0), "wait")
	if got := sess.Pending.Hunt.Snapshot.Distance; got != 0 {
		t.Fatalf("expected distance clamped to 0, got %.2f", got)
	}
}

func TestHuntSpookEndsInEscape(t *testing.T) {
	d, w := newTestDispatcher(t)
	sess := newTestSession("meadow")
	beginHunt(t, sess, w, 25, huntIdleAlertness)

	res := mustDispatch(t, d, sess, rolls(0.5, 0.0), "approach")
	if res.Phase != state.PhaseHuntResult {
		t.Fatalf("expected hunt.result, got %s", res.Phase)
	}
	if res.View.Hunt.Outcome != activity.HuntEscaped {
		t.Fatalf("expected escaped, got %s", res.View.Hunt.Outcome)
	}
	res = mustDispatch(t, d, sess, rolls(0.5), DismissToken)
	if res.Phase != state.PhaseNone || sess.Pending != nil {
		t.Fatalf("expected idle after dismiss, got %s", res.Phase)
	}
}

func TestHuntPatienceRunsOut(t *testing.T) {
	d, w := newTestDispatcher(t)
	sess := newTestSession("meadow")
	beginHunt(t, sess, w, 30, huntIdleAlertness)

	for i := 1; i <= huntPatience; i++ {
		mustDispatch(t, d, sess, rolls(0.5), "assess")
		if i < huntPatience && sess.Phase() != state.PhaseHuntActive {
			t.Fatalf("hunt ended early after %d actions", i)
		}
	}
	if sess.Phase() != state.PhaseHuntResult {
		t.Fatalf("expected hunt.result once patience ran out, got %s", sess.Phase())
	}
}

func TestHuntAlwaysTerminates(t *testing.T) {
	for seed := uint64(1); seed <= 50; seed++ {
		d, _ := newTestDispatcher(t)
		sess := newTestSession("meadow")
		sess.AddItem("spear", 1)
		r := dice.New(seed, 99)

		res := mustDispatch(t, d, sess, r, "work:hunt")
		steps := 0
		for res.Phase != state.PhaseHuntResult {
			if steps > huntPatience+1 {
				t.Fatalf("seed %d: hunt still running after %d actions", seed, steps)
			}
			opt := res.Options[int(r.Float64()*float64(len(res.Options)))]
			res = mustDispatch(t, d, sess, r, opt.ID)
			steps++
		}
		if res.View.Hunt.Distance < 0 {
			t.Fatalf("seed %d: negative distance", seed)
		}
	}
}

func TestHuntKillLeavesCarcass(t *testing.T) {
	d, w := newTestDispatcher(t)
	sess := newTestSession("meadow")
	herd, _ := w.Herd("meadow")
	before := herd.Remaining()
	beginHunt(t, sess, w, 2, huntIdleAlertness)

	opts := d.Render(context.Background(), sess).Options
	if !hasOption(opts, "3-strike") {
		t.Fatalf("expected strike offered, got %+v", opts)
	}
	res := mustDispatch(t, d, sess, rolls(0.5, 0.0), "3-strike")
	if res.View.Hunt.Outcome != activity.HuntKilled {
		t.Fatalf("expected killed, got %s", res.View.Hunt.Outcome)
	}
	if herd.Remaining() != before-1 {
		t.Fatalf("expected the herd to shrink to %d, got %d", before-1, herd.Remaining())
	}
	if res.Summary.Carcasses != 1 {
		t.Fatalf("expected a carcass, got %d", res.Summary.Carcasses)
	}
}

func TestHuntThrowNeedsSpear(t *testing.T) {
	d, w := newTestDispatcher(t)
	sess := newTestSession("meadow")
	beginHunt(t, sess, w, 10, huntIdleAlertness)
	expectRejected(t, d, sess, rolls(0), "throw", apperr.CodePreconditionNotMet)

	sess.AddItem("spear", 1)
	// 0.85 - 0.025*10 = 0.6
	res := mustDispatch(t, d, sess, rolls(0.5, 0.59), "throw")
	if res.View.Hunt.Outcome != activity.HuntKilled {
		t.Fatalf("expected killed, got %s", res.View.Hunt.Outcome)
	}
}

func TestHuntSightingToActive(t *testing.T) {
	d, _ := newTestDispatcher(t)
	sess := newTestSession("meadow")
	res := mustDispatch(t, d, sess, rolls(0.99), "work:hunt")
	if res.Phase != state.PhaseHuntSighting {
		t.Fatalf("expected hunt.sighting, got %s", res.Phase)
	}
	if res.View.Hunt.Distance < 20 || res.View.Hunt.Distance > 40 {
		t.Fatalf("expected a sighting at 20-40 m, got %.1f", res.View.Hunt.Distance)
	}
	res = mustDispatch(t, d, sess, rolls(0.99), "0-stalk-it")
	if res.Phase != state.PhaseHuntActive {
		t.Fatalf("expected hunt.active, got %s", res.Phase)
	}
	if len(res.Path) != 2 || res.Path[0] != state.PhaseHuntSighting {
		t.Fatalf("unexpected path %v", res.Path)
	}
}

func TestHuntNeedsAHerd(t *testing.T) {
	d, _ := newTestDispatcher(t)
	sess := newTestSession("camp")
	expectRejected(t, d, sess, rolls(0.5), "work:hunt", apperr.CodePreconditionNotMet)
}
