package turn

import (
	"fmt"
	"math"

	"github.com/wfunc/survivalserver/activity"
	"github.com/wfunc/survivalserver/apperr"
	"github.com/wfunc/survivalserver/dice"
	"github.com/wfunc/survivalserver/logger"
	"github.com/wfunc/survivalserver/state"
)

const (
	huntPatience      = 10
	huntIdleAlertness = 0.1
	huntWaryAlertness = 0.5
	huntAlertedAt     = 0.5
	huntStrikeRange   = 3.0
	huntActionMinutes = 5
)

// HuntFamily runs a stalk against one animal from a herd.
type HuntFamily struct{}

func (HuntFamily) Name() state.Family {
	return state.FamilyHunt
}

// startHunt spots an animal at the player's location.
func startHunt(tc *Context) (string, error) {
	sess := tc.Session
	herd, ok := tc.World.Herd(sess.Player.Location)
	if !ok || herd.Remaining() == 0 {
		return "", apperr.New(apperr.CodePreconditionNotMet, "There is nothing to hunt here.")
	}
	animal, ok := herd.Spot(tc.Rand)
	if !ok {
		return "", apperr.New(apperr.CodePreconditionNotMet, "There is nothing to hunt here.")
	}
	alertness := huntIdleAlertness
	if animal.Wary {
		alertness = huntWaryAlertness
	}
	snap := activity.HuntSnapshot{
		AnimalID:  animal.ID,
		Species:   animal.Species,
		MeatKg:    animal.MeatKg,
		Distance:  math.Round(dice.Between(tc.Rand, 20, 40)),
		Alertness: alertness,
		Alerted:   alertness >= huntAlertedAt,
		Patience:  huntPatience,
	}
	p := sess.Begin(state.PhaseHuntSighting)
	p.Hunt = &activity.HuntState{
		Snapshot: snap,
		Animal:   activity.Some(animal),
		Herd:     activity.Some(herd),
	}
	logger.Log.Debugw("hunt started", "session", sess.ID, "animal", animal.ID)
	return fmt.Sprintf("You spot a %s about %.0f m away.", animal.Species, snap.Distance), nil
}

func (HuntFamily) actions(tc *Context) []action {
	p := tc.Session.Pending
	switch p.Phase() {
	case state.PhaseHuntSighting:
		return []action{available("stalk", "Stalk it"), available("abandon", "Let it go")}
	case state.PhaseHuntActive:
		s := p.Hunt.Snapshot
		throw := available("throw", "Throw spear")
		if tc.Session.ItemCount("spear") == 0 {
			throw = unavailable("throw", "Throw spear", "you have no spear")
		}
		strike := available("strike", "Strike")
		if s.Distance >= huntStrikeRange {
			strike = unavailable("strike", "Strike", "it is out of reach")
		}
		return []action{
			available("approach", "Creep closer"),
			available("wait", "Wait"),
			available("assess", "Assess"),
			throw,
			strike,
			available("abandon", "Give up"),
		}
	case state.PhaseHuntResult:
		return continueActions
	}
	return nil
}

func (f HuntFamily) Options(tc *Context) []Option {
	return listOptions(f.actions(tc))
}

func (f HuntFamily) Handle(tc *Context, token string) (string, error) {
	sess := tc.Session
	phase := sess.Phase()
	verb, err := choose(token, f.actions(tc))
	if err != nil {
		return "", err
	}
	if phase == state.PhaseHuntResult {
		sess.ClearPending()
		return "", nil
	}
	if err := requireLive(tc); err != nil {
		return "", err
	}
	h := sess.Pending.Hunt

	if phase == state.PhaseHuntSighting {
		if verb == "abandon" {
			return f.finish(tc, activity.HuntAbandoned, "You let it go."), nil
		}
		sess.Pending.Enter(state.PhaseHuntActive)
		return "You drop low and begin to stalk.", nil
	}

	sess.AdvanceTime(huntActionMinutes)
	h.Snapshot.Actions++
	s := &h.Snapshot
	var msg string
	switch verb {
	case "approach":
		if dice.Chance(tc.Rand, 0.05+0.4*s.Alertness) {
			return f.finish(tc, activity.HuntEscaped, "A twig snaps. The "+s.Species+" bolts."), nil
		}
		step := dice.Between(tc.Rand, 8, 16)
		s.Distance = math.Max(0, s.Distance-step)
		s.Alertness = math.Min(1, s.Alertness+0.05)
		msg = fmt.Sprintf("You creep to within %.0f m.", s.Distance)
	case "wait":
		if s.Alerted && dice.Chance(tc.Rand, 0.6) {
			s.Alertness = math.Max(0, s.Alertness-0.3)
			msg = "It settles and goes back to grazing."
		} else {
			msg = "You hold still."
		}
		s.Distance = math.Max(0, s.Distance+dice.Between(tc.Rand, -3, 3))
	case "assess":
		msg = fmt.Sprintf("The %s is %.0f m away and %s.", s.Species, s.Distance, alertLabel(s.Alertness))
	case "throw":
		p := clamp(0.85-0.025*s.Distance, 0.05, 0.85)
		if dice.Chance(tc.Rand, p) {
			return f.kill(tc, "Your spear flies true."), nil
		}
		return f.finish(tc, activity.HuntEscaped, "The spear falls short and the "+s.Species+" is gone."), nil
	case "strike":
		if dice.Chance(tc.Rand, 0.75-0.3*s.Alertness) {
			return f.kill(tc, "You lunge and strike home."), nil
		}
		return f.finish(tc, activity.HuntEscaped, "It twists away from your blade and flees."), nil
	case "abandon":
		return f.finish(tc, activity.HuntAbandoned, "You give up the stalk."), nil
	}
	s.Alerted = s.Alertness >= huntAlertedAt

	s.Patience--
	if s.Patience <= 0 {
		return f.finish(tc, activity.HuntEscaped, "The "+s.Species+" wanders off out of sight."), nil
	}
	s.Message = msg
	return msg, nil
}

func (f HuntFamily) kill(tc *Context, msg string) string {
	sess := tc.Session
	h := sess.Pending.Hunt
	animal, _ := h.Animal.Get()
	herd, _ := h.Herd.Get()
	herd.Remove(animal)
	sess.AddCarcass(h.Snapshot.Species, h.Snapshot.MeatKg)
	msg += fmt.Sprintf(" The %s is down.", h.Snapshot.Species)
	return f.finish(tc, activity.HuntKilled, msg)
}

func (HuntFamily) finish(tc *Context, outcome activity.HuntOutcome, msg string) string {
	sess := tc.Session
	h := sess.Pending.Hunt
	h.Snapshot.Outcome = outcome
	h.Snapshot.Message = msg
	sess.Pending.Enter(state.PhaseHuntResult)
	sess.Narrate("%s", msg)
	return msg
}

func alertLabel(a float64) string {
	switch {
	case a >= 0.7:
		return "on edge"
	case a >= huntAlertedAt:
		return "alert"
	default:
		return "unaware of you"
	}
}
