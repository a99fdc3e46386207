package turn

import (
	"context"

	"github.com/wfunc/survivalserver/apperr"
	"github.com/wfunc/survivalserver/dice"
	"github.com/wfunc/survivalserver/session"
	"github.com/wfunc/survivalserver/state"
	"github.com/wfunc/survivalserver/world"
)

// Context is everything one transition may touch.
type Context struct {
	Ctx     context.Context
	Session *session.Session
	World   world.Provider
	Rand    dice.Roller
}

// Family handles every phase of one interaction kind.
type Family interface {
	Name() state.Family
	// Handle applies one token to the active phase and returns the message
	// to show. On error the session is left untouched.
	Handle(tc *Context, token string) (string, error)
	// Options lists what the active phase offers, from snapshots alone.
	Options(tc *Context) []Option
}

func missingLive(phase state.Phase) error {
	return apperr.New(apperr.CodeMissingLiveState,
		"This %s can no longer continue; it was interrupted.", phase.Family()).With("phase", phase.String())
}

func wrongPhase(phase state.Phase, token string) error {
	return apperr.New(apperr.CodeInvalidPhaseForAction,
		"%q can't be used during %s.", token, phase).With("phase", phase.String())
}

// requireLive fails fast when the container lost its live references.
func requireLive(tc *Context) error {
	p := tc.Session.Pending
	if p.LiveMissing() {
		return missingLive(p.Phase())
	}
	return nil
}
