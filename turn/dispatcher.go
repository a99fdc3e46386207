// Package turn turns one action token into one full transition of a
// session: the dispatcher routes the token to the family that owns the
// active phase, or to the idle commands when nothing is in progress.
package turn

import (
	"context"
	"strings"

	"github.com/wfunc/survivalserver/activity"
	"github.com/wfunc/survivalserver/apperr"
	"github.com/wfunc/survivalserver/dice"
	"github.com/wfunc/survivalserver/logger"
	"github.com/wfunc/survivalserver/session"
	"github.com/wfunc/survivalserver/state"
	"github.com/wfunc/survivalserver/world"
)

// Result is the response to one action.
type Result struct {
	Phase   state.Phase     `json:"phase"`
	Path    []state.Phase   `json:"path"`
	Message string          `json:"message,omitempty"`
	View    activity.View   `json:"view"`
	Options []Option        `json:"options"`
	Summary session.Summary `json:"summary"`
}

type Dispatcher struct {
	world    world.Provider
	graph    *state.Graph
	families map[state.Family]Family
	idle     Idle

	// OnViolation is called when a transition walked an edge that is not
	// in the phase graph. The transition itself is kept.
	OnViolation func(sess *session.Session, err error)
}

func NewDispatcher(w world.Provider) *Dispatcher {
	d := &Dispatcher{
		world:    w,
		graph:    state.Default,
		families: make(map[state.Family]Family),
	}
	for _, f := range []Family{EventFamily{}, HuntFamily{}, EncounterFamily{}, CombatFamily{}, TravelFamily{}} {
		d.families[f.Name()] = f
	}
	return d
}

// Dispatch applies token to sess. An active phase always owns the token; a
// failed transition returns an *apperr.Error and leaves sess unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *session.Session, r dice.Roller, token string) (*Result, error) {
	token = strings.TrimSpace(token)
	if sess.Dead {
		return nil, apperr.New(apperr.CodePreconditionNotMet, "You are dead.")
	}
	if token == "" {
		return nil, apperr.New(apperr.CodeUnresolvableChoice, "No action given.")
	}
	tc := &Context{Ctx: ctx, Session: sess, World: d.world, Rand: r}
	before := sess.Phase()
	sess.TakeTrail()

	var (
		msg string
		err error
	)
	if before.Active() {
		if token == DismissToken && !before.IsTerminal() {
			return nil, wrongPhase(before, token)
		}
		family, ok := d.families[before.Family()]
		if !ok {
			return nil, apperr.New(apperr.CodeInternal, "No handler for %s.", before)
		}
		msg, err = family.Handle(tc, token)
	} else {
		msg, err = d.idle.Handle(tc, token)
	}
	if err != nil {
		logger.Log.Debugw("action rejected", "session", sess.ID, "phase", before, "token", token, "error", err)
		return nil, err
	}

	trail := append([]state.Phase{before}, sess.TakeTrail()...)
	if !sess.Dead {
		if verr := d.graph.Check(trail); verr != nil {
			logger.Log.Errorw("phase graph violation", "session", sess.ID, "path", trail, "error", verr)
			if d.OnViolation != nil {
				d.OnViolation(sess, verr)
			}
		}
	}
	logger.Log.Debugw("action applied", "session", sess.ID, "token", token, "path", trail)
	return d.render(tc, trail, msg), nil
}

// Render describes the session as it stands, without acting.
func (d *Dispatcher) Render(ctx context.Context, sess *session.Session) *Result {
	tc := &Context{Ctx: ctx, Session: sess, World: d.world}
	return d.render(tc, []state.Phase{sess.Phase()}, "")
}

func (d *Dispatcher) render(tc *Context, trail []state.Phase, msg string) *Result {
	sess := tc.Session
	res := &Result{
		Phase:   sess.Phase(),
		Path:    trail,
		Message: msg,
		View:    sess.Pending.View(),
		Options: []Option{},
		Summary: sess.Summary(),
	}
	switch {
	case sess.Dead:
	case sess.Phase().Active():
		if f, ok := d.families[sess.Phase().Family()]; ok {
			res.Options = f.Options(tc)
		}
	default:
		res.Options = d.idle.Options(tc)
	}
	return res
}
