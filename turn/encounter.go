package turn

import (
	"fmt"
	"math"

	"github.com/wfunc/survivalserver/activity"
	"github.com/wfunc/survivalserver/apperr"
	"github.com/wfunc/survivalserver/dice"
	"github.com/wfunc/survivalserver/logger"
	"github.com/wfunc/survivalserver/state"
	"github.com/wfunc/survivalserver/world"
)

const (
	encounterDisengageBelow = 0.2
	encounterChargeAbove    = 0.7
	encounterChargeWithin   = 10.0
	encounterEscapeAt       = 30.0
)

// EncounterFamily runs a stand-off with a predator.
type EncounterFamily struct{}

func (EncounterFamily) Name() state.Family {
	return state.FamilyEncounter
}

func startEncounter(tc *Context, pred world.Predator) string {
	sess := tc.Session
	sess.QueuedEncounter = ""
	p := sess.Begin(state.PhaseEncounterActive)
	p.Encounter = &activity.EncounterState{
		Snapshot: activity.EncounterSnapshot{
			Species:  pred.Species,
			Name:     pred.Name,
			Boldness: clamp(pred.Boldness, 0, 1),
			Distance: pred.Distance,
		},
		Predator: activity.Some(&pred),
	}
	logger.Log.Debugw("encounter started", "session", sess.ID, "predator", pred.Species)
	return fmt.Sprintf("%s watches you from %.0f m away.", capitalise(pred.Name), pred.Distance)
}

// enterCombat is the only way into the combat family. The scenario is built
// first; if that fails the container is not touched.
func enterCombat(tc *Context, pred world.Predator, distance float64) (string, error) {
	scenario, err := activity.NewScenario(pred, activity.ZoneForDistance(distance))
	if err != nil {
		return "", apperr.Wrap(apperr.CodeInternal, err, "The fight could not be set up.")
	}
	sess := tc.Session
	health := sess.Health()
	p := sess.Begin(state.PhaseCombatIntro)
	p.Combat = &activity.CombatState{
		Snapshot: activity.CombatSnapshot{
			Opponent:      pred.Name,
			Species:       pred.Species,
			MeatKg:        pred.MeatKg,
			PlayerHealth:  health,
			PlayerInitial: health,
			AnimalHealth:  pred.Health,
			AnimalInitial: pred.Health,
			Zone:          scenario.Zone(),
		},
		Scenario: activity.Some(scenario),
	}
	logger.Log.Debugw("combat entered", "session", sess.ID, "predator", pred.Species, "zone", scenario.Zone())
	return fmt.Sprintf("%s charges!", capitalise(pred.Name)), nil
}

func (EncounterFamily) actions(tc *Context) []action {
	switch tc.Session.Phase() {
	case state.PhaseEncounterActive:
		drop := available("drop-meat", "Drop your meat")
		if tc.Session.ItemCount("meat") == 0 {
			drop = unavailable("drop-meat", "Drop your meat", "you carry no meat")
		}
		return []action{
			available("stand", "Stand your ground"),
			available("back", "Back away slowly"),
			available("attack", "Attack"),
			available("run", "Run"),
			drop,
		}
	case state.PhaseEncounterOutcome:
		return continueActions
	}
	return nil
}

func (f EncounterFamily) Options(tc *Context) []Option {
	return listOptions(f.actions(tc))
}

func (f EncounterFamily) Handle(tc *Context, token string) (string, error) {
	sess := tc.Session
	verb, err := choose(token, f.actions(tc))
	if err != nil {
		return "", err
	}
	if sess.Phase() == state.PhaseEncounterOutcome {
		sess.ClearPending()
		return "", nil
	}
	if err := requireLive(tc); err != nil {
		return "", err
	}
	e := sess.Pending.Encounter
	pred, _ := e.Predator.Get()
	s := &e.Snapshot

	switch verb {
	case "stand":
		s.Boldness = math.Max(0, s.Boldness-dice.Between(tc.Rand, 0.1, 0.2))
		s.Turns++
		if s.Boldness < encounterDisengageBelow {
			return f.finish(tc, activity.EncounterDisengaged, capitalise(s.Name)+" loses interest and slinks away."), nil
		}
		s.Message = "You stand tall. It hesitates."
		return s.Message, nil
	case "back":
		distance := s.Distance + dice.Between(tc.Rand, 3, 6)
		boldness := math.Min(1, s.Boldness+0.05)
		// A retreat reads as prey: a bold animal close by charges.
		if boldness > encounterChargeAbove && distance < encounterChargeWithin {
			return enterCombat(tc, *pred, distance)
		}
		s.Distance, s.Boldness = distance, boldness
		s.Turns++
		if s.Distance >= encounterEscapeAt {
			return f.finish(tc, activity.EncounterEscaped, "You put enough ground between you and slip away."), nil
		}
		s.Message = fmt.Sprintf("You back off to %.0f m. It follows your every move.", s.Distance)
		return s.Message, nil
	case "attack":
		return enterCombat(tc, *pred, s.Distance)
	case "run":
		p := clamp(0.3+0.4*sess.Player.Speed-0.3*s.Boldness, 0.05, 0.95)
		if dice.Chance(tc.Rand, p) {
			return f.finish(tc, activity.EncounterEscaped, "You run and don't look back. It doesn't follow."), nil
		}
		return enterCombat(tc, *pred, s.Distance)
	case "drop-meat":
		n := sess.ItemCount("meat")
		sess.AddItem("meat", -n)
		return f.finish(tc, activity.EncounterAppeased, fmt.Sprintf("You toss down %d portions of meat. %s takes them and goes.", n, capitalise(s.Name))), nil
	}
	return "", wrongPhase(sess.Phase(), token)
}

func (EncounterFamily) finish(tc *Context, outcome activity.EncounterOutcome, msg string) string {
	sess := tc.Session
	e := sess.Pending.Encounter
	e.Snapshot.Outcome = outcome
	e.Snapshot.Message = msg
	sess.Pending.Enter(state.PhaseEncounterOutcome)
	sess.Narrate("%s", msg)
	return msg
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
