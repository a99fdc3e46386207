package turn

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/wfunc/survivalserver/apperr"
)

// DismissToken closes a terminal phase.
const DismissToken = "dismiss"

// Option is one choice offered to the player. ID is the token to send back.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// action is a verb of the current phase, available or not.
type action struct {
	verb   string
	label  string
	ok     bool
	reason string
}

func available(verb, label string) action {
	return action{verb: verb, label: label, ok: true}
}

func unavailable(verb, label, reason string) action {
	return action{verb: verb, label: label, reason: reason}
}

// ChoiceID is the positional id of an option among the available ones.
func ChoiceID(index int, label string) string {
	return fmt.Sprintf("%d-%s", index, slug(label))
}

func slug(label string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func listOptions(actions []action) []Option {
	out := make([]Option, 0, len(actions))
	for _, a := range actions {
		if a.ok {
			out = append(out, Option{ID: ChoiceID(len(out), a.label), Label: a.label})
		}
	}
	return out
}

// choose maps a token onto a verb. Ids are only valid against the list the
// actions render to right now; a bare verb names an action directly.
func choose(token string, actions []action) (string, error) {
	i := 0
	for _, a := range actions {
		if !a.ok {
			continue
		}
		if token == ChoiceID(i, a.label) {
			return a.verb, nil
		}
		i++
	}
	for _, a := range actions {
		if token != a.verb {
			continue
		}
		if !a.ok {
			return "", apperr.New(apperr.CodePreconditionNotMet, "You can't %s: %s.", a.label, a.reason).With("action", a.verb)
		}
		return a.verb, nil
	}
	return "", apperr.New(apperr.CodeUnresolvableChoice, "%q is not one of the current choices.", token).With("token", token)
}

var continueActions = []action{available(DismissToken, "Continue")}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
