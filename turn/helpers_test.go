package turn

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/wfunc/survivalserver/apperr"
	"github.com/wfunc/survivalserver/dice"
	"github.com/wfunc/survivalserver/session"
	"github.com/wfunc/survivalserver/world"
)

// script replays fixed draws, then repeats rest.
type script struct {
	vals []float64
	rest float64
}

func rolls(rest float64, vals ...float64) *script {
	return &script{vals: vals, rest: rest}
}

func (s *script) Float64() float64 {
	if len(s.vals) == 0 {
		return s.rest
	}
	v := s.vals[0]
	s.vals = s.vals[1:]
	return v
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *world.World) {
	t.Helper()
	w, err := world.Default()
	if err != nil {
		t.Fatalf("load world: %v", err)
	}
	d := NewDispatcher(w)
	d.OnViolation = func(sess *session.Session, err error) {
		t.Errorf("unexpected graph violation: %v", err)
	}
	return d, w
}

func newTestSession(location string) *session.Session {
	s := session.NewSession("test", 1, 1, "Tester", location)
	s.Player.Body = session.Body{Health: 1, Energy: 1, Hunger: 0}
	return s
}

func testContext(sess *session.Session, w world.Provider, r dice.Roller) *Context {
	return &Context{Ctx: context.Background(), Session: sess, World: w, Rand: r}
}

func mustDispatch(t *testing.T, d *Dispatcher, sess *session.Session, r dice.Roller, token string) *Result {
	t.Helper()
	res, err := d.Dispatch(context.Background(), sess, r, token)
	if err != nil {
		t.Fatalf("dispatch %q: %v", token, err)
	}
	return res
}

func codeOf(err error) apperr.Code {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e.Code
	}
	return apperr.CodeUnknown
}

func encoded(t *testing.T, sess *session.Session) []byte {
	t.Helper()
	data, err := session.Encode(sess)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return data
}

// expectRejected dispatches token, expects code, and checks the session was
// not modified.
func expectRejected(t *testing.T, d *Dispatcher, sess *session.Session, r dice.Roller, token string, code apperr.Code) {
	t.Helper()
	before := encoded(t, sess)
	_, err := d.Dispatch(context.Background(), sess, r, token)
	if got := codeOf(err); got != code {
		t.Fatalf("%q: expected %s, got %s (%v)", token, code, got, err)
	}
	if after := encoded(t, sess); !bytes.Equal(before, after) {
		t.Fatalf("%q: session modified by a rejected action", token)
	}
}

func hasOption(opts []Option, id string) bool {
	for _, o := range opts {
		if o.ID == id {
			return true
		}
	}
	return false
}
