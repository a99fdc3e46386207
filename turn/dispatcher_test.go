package turn

import (
	"context"
	"testing"

	"github.com/wfunc/survivalserver/apperr"
	"github.com/wfunc/survivalserver/session"
	"github.com/wfunc/survivalserver/state"
)

func TestSlugAndChoiceID(t *testing.T) {
	cases := map[string]string{
		"Give them a wide berth": "give-them-a-wide-berth",
		"  Hurry -- across!  ":   "hurry-across",
		"Drop your meat":         "drop-your-meat",
	}
	for in, want := range cases {
		if got := slug(in); got != want {
			t.Errorf("slug(%q): expected %q, got %q", in, want, got)
		}
	}
	if ChoiceID(2, "Wait") != "2-wait" {
		t.Fatalf("unexpected id %s", ChoiceID(2, "Wait"))
	}
}

func TestIdleRejectsPhaseTokens(t *testing.T) {
	d, _ := newTestDispatcher(t)
	sess := newTestSession("camp")
	for _, token := range []string{"approach", DismissToken, "0-continue", "thrust"} {
		expectRejected(t, d, sess, rolls(0), token, apperr.CodePreconditionNotMet)
	}
	expectRejected(t, d, sess, rolls(0), "fish:pond", apperr.CodeUnknownActionCategory)
	expectRejected(t, d, sess, rolls(0), "camp:dance", apperr.CodeUnresolvableChoice)
	expectRejected(t, d, sess, rolls(0), "", apperr.CodeUnresolvableChoice)
}

func TestIdleCategorySelection(t *testing.T) {
	d, _ := newTestDispatcher(t)
	sess := newTestSession("camp")

	res := d.Render(context.Background(), sess)
	if !hasOption(res.Options, "move") || !hasOption(res.Options, "work") {
		t.Fatalf("expected category options, got %+v", res.Options)
	}
	res = mustDispatch(t, d, sess, rolls(0), "move")
	if sess.UI.Category != CategoryMove || res.Summary.Category != CategoryMove {
		t.Fatalf("expected move selected, got %q", sess.UI.Category)
	}
	if !hasOption(res.Options, "move:meadow") || !hasOption(res.Options, "move:pine_forest") {
		t.Fatalf("expected routes, got %+v", res.Options)
	}
	if res.Phase != state.PhaseNone {
		t.Fatalf("selecting a category must not start anything, got %s", res.Phase)
	}
}

func TestActivePhaseOwnsEveryToken(t *testing.T) {
	d, w := newTestDispatcher(t)
	sess := newTestSession("meadow")
	beginHunt(t, sess, w, 20, huntIdleAlertness)

	expectRejected(t, d, sess, rolls(0), "move:camp", apperr.CodeUnresolvableChoice)
	expectRejected(t, d, sess, rolls(0), "camp", apperr.CodeUnresolvableChoice)
	expectRejected(t, d, sess, rolls(0), DismissToken, apperr.CodeInvalidPhaseForAction)
	if sess.Phase() != state.PhaseHuntActive {
		t.Fatalf("expected hunt.active, got %s", sess.Phase())
	}
}

func TestMissingLiveStateAfterRestore(t *testing.T) {
	d, w := newTestDispatcher(t)
	sess := newTestSession("meadow")
	beginHunt(t, sess, w, 20, huntIdleAlertness)

	restored, err := session.Decode(encoded(t, sess))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	expectRejected(t, d, restored, rolls(0), "approach", apperr.CodeMissingLiveState)

	// the view still renders from snapshots
	res := d.Render(context.Background(), restored)
	if res.View.Hunt == nil || res.View.Hunt.Distance != 20 {
		t.Fatalf("expected the hunt to render, got %+v", res.View)
	}
}

func TestTerminalDismissWorksAfterRestore(t *testing.T) {
	d, w := newTestDispatcher(t)
	sess := newTestSession("meadow")
	beginHunt(t, sess, w, 20, huntIdleAlertness)
	mustDispatch(t, d, sess, rolls(0.5), "abandon")

	restored, err := session.Decode(encoded(t, sess))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	res := mustDispatch(t, d, restored, rolls(0), DismissToken)
	if res.Phase != state.PhaseNone {
		t.Fatalf("expected idle, got %s", res.Phase)
	}
}

func TestSinglePhaseAlwaysValid(t *testing.T) {
	d, _ := newTestDispatcher(t)
	sess := newTestSession("camp")
	sess.AddItem("spear", 1)
	r := rolls(0.3)
	tokens := []string{"work:explore", "move:meadow", "work:hunt", "stalk", "approach", "approach", "abandon", DismissToken, "camp:butcher", "camp:sleep"}
	for _, tok := range tokens {
		res, err := d.Dispatch(context.Background(), sess, r, tok)
		if err != nil {
			continue
		}
		if !res.Phase.Valid() {
			t.Fatalf("invalid phase after %q", tok)
		}
		if sess.Pending != nil {
			if err := sess.Pending.Validate(); err != nil {
				t.Fatalf("container invalid after %q: %v", tok, err)
			}
		}
	}
}
