package turn

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/wfunc/survivalserver/apperr"
	"github.com/wfunc/survivalserver/dice"
)

// Idle categories.
const (
	CategoryMove = "move"
	CategoryCamp = "camp"
	CategoryWork = "work"
)

var categoryLabels = map[string]string{
	CategoryMove: "Travel",
	CategoryCamp: "Make camp",
	CategoryWork: "Work",
}

var categoryOrder = []string{CategoryMove, CategoryCamp, CategoryWork}

// phaseVerbs are tokens that only mean something inside an activity.
var phaseVerbs = map[string]bool{
	DismissToken: true,
	"stalk":      true, "approach": true, "wait": true, "assess": true,
	"throw": true, "strike": true, "abandon": true,
	"stand": true, "back": true, "attack": true, "run": true, "drop-meat": true,
	"begin": true, "thrust": true, "back-away": true, "hold": true,
	"proceed": true, "cancel": true, "quick": true, "careful": true,
	"continue": true, "stay": true,
}

var choiceIDPattern = regexp.MustCompile(`^\d+-`)

const (
	restMinutes    = 60
	sleepMinutes   = 480
	butcherMinutes = 45
	forageMinutes  = 60
	exploreMinutes = 90
	meatPortionKg  = 5.0
)

// Idle handles category-prefixed commands when nothing is in progress.
type Idle struct{}

func (i Idle) Handle(tc *Context, token string) (string, error) {
	if phaseVerbs[token] || choiceIDPattern.MatchString(token) {
		return "", apperr.New(apperr.CodePreconditionNotMet, "Nothing is in progress.").With("token", token)
	}
	category, arg, hasArg := strings.Cut(token, ":")
	if _, ok := categoryLabels[category]; !ok {
		return "", apperr.New(apperr.CodeUnknownActionCategory, "Unknown action %q.", category).With("category", category)
	}
	if !hasArg {
		tc.Session.UI.Category = category
		return categoryLabels[category] + ":", nil
	}

	switch category {
	case CategoryMove:
		return startTravel(tc, arg)
	case CategoryCamp:
		return i.camp(tc, arg)
	default:
		return i.work(tc, arg)
	}
}

func (Idle) camp(tc *Context, arg string) (string, error) {
	sess := tc.Session
	switch arg {
	case "rest":
		sess.AdvanceTime(restMinutes)
		sess.AdjustBody(0, 0.15, 0)
		return "You rest for an hour.", nil
	case "sleep":
		sess.AdvanceTime(sleepMinutes)
		sess.AdjustBody(0.1, 0.5, 0)
		return "You sleep through the night.", nil
	case "eat":
		switch {
		case sess.ItemCount("meat") > 0:
			sess.AddItem("meat", -1)
			sess.AdjustBody(0, 0.05, -0.3)
			return "You cook and eat a portion of meat.", nil
		case sess.ItemCount("berries") > 0:
			sess.AddItem("berries", -1)
			sess.AdjustBody(0, 0, -0.1)
			return "You eat a handful of berries.", nil
		}
		return "", apperr.New(apperr.CodePreconditionNotMet, "You have nothing to eat.")
	case "butcher":
		c, ok := sess.TakeCarcass()
		if !ok {
			return "", apperr.New(apperr.CodePreconditionNotMet, "There is no carcass here.")
		}
		portions := int(math.Max(1, math.Round(c.MeatKg/meatPortionKg)))
		sess.AdvanceTime(butcherMinutes)
		sess.AddItem("meat", portions)
		msg := fmt.Sprintf("You butcher the %s into %d portions of meat.", c.Species, portions)
		sess.Narrate("%s", msg)
		return msg, nil
	}
	return "", apperr.New(apperr.CodeUnresolvableChoice, "Unknown camp action %q.", arg).With("token", arg)
}

func (Idle) work(tc *Context, arg string) (string, error) {
	sess := tc.Session
	switch arg {
	case "hunt":
		return startHunt(tc)
	case "forage":
		sess.AdvanceTime(forageMinutes)
		msg := "You find nothing worth eating."
		if dice.Chance(tc.Rand, 0.5) {
			n := 1 + int(tc.Rand.Float64()*2)
			sess.AddItem("berries", n)
			msg = fmt.Sprintf("You gather %d handfuls of berries.", n)
		}
		if ev, ok := tc.World.Ambient(forageMinutes, tc.Rand); ok {
			return msg + " " + openEvent(tc, ev), nil
		}
		return msg, nil
	case "explore":
		sess.AdvanceTime(exploreMinutes)
		if ev, ok := tc.World.Ambient(exploreMinutes, tc.Rand); ok {
			return openEvent(tc, ev), nil
		}
		return "You explore the area but find nothing of note.", nil
	}
	return "", apperr.New(apperr.CodeUnresolvableChoice, "Unknown work action %q.", arg).With("token", arg)
}

func (Idle) Options(tc *Context) []Option {
	sess := tc.Session
	switch sess.UI.Category {
	case CategoryMove:
		var out []Option
		for _, e := range tc.World.Neighbours(sess.Player.Location) {
			name := e.To
			if loc, ok := tc.World.Location(e.To); ok {
				name = loc.Name
			}
			out = append(out, Option{ID: CategoryMove + ":" + e.To, Label: fmt.Sprintf("Go to %s (%d min)", name, e.Minutes)})
		}
		return out
	case CategoryCamp:
		return []Option{
			{ID: "camp:rest", Label: "Rest"},
			{ID: "camp:sleep", Label: "Sleep"},
			{ID: "camp:eat", Label: "Eat"},
			{ID: "camp:butcher", Label: "Butcher a carcass"},
		}
	case CategoryWork:
		out := []Option{}
		if h, ok := tc.World.Herd(sess.Player.Location); ok && h.Remaining() > 0 {
			out = append(out, Option{ID: "work:hunt", Label: "Hunt " + h.Species()})
		}
		return append(out,
			Option{ID: "work:forage", Label: "Forage"},
			Option{ID: "work:explore", Label: "Explore"},
		)
	}
	out := make([]Option, 0, len(categoryOrder))
	for _, c := range categoryOrder {
		out = append(out, Option{ID: c, Label: categoryLabels[c]})
	}
	return out
}
