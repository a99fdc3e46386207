package turn

import (
	"fmt"

	"github.com/wfunc/survivalserver/activity"
	"github.com/wfunc/survivalserver/dice"
	"github.com/wfunc/survivalserver/state"
)

type strike struct {
	hit    float64
	damage float64
}

// thrustTable is indexed by zone.
var thrustTable = [...]strike{
	activity.ZoneMelee: {0.90, 0.35},
	activity.ZoneClose: {0.75, 0.30},
	activity.ZoneMid:   {0.60, 0.25},
	activity.ZoneFar:   {0.30, 0.15},
}

// healthEpsilon absorbs float drift so damage summing to the full pool
// always lands on exactly zero.
const healthEpsilon = 1e-9

// wound subtracts damage from health, clamped at zero.
func wound(health, damage float64) float64 {
	h := health - damage
	if h < healthEpsilon {
		return 0
	}
	return h
}

// opponentHit is the chance the animal lands an attack, by zone.
var opponentHit = map[int]float64{
	activity.ZoneMelee: 0.8,
	activity.ZoneClose: 0.6,
}

// CombatFamily runs turn-based melee. Each request resolves one player
// action and at most one opposing action.
type CombatFamily struct{}

func (CombatFamily) Name() state.Family {
	return state.FamilyCombat
}

func (CombatFamily) actions(tc *Context) []action {
	switch tc.Session.Phase() {
	case state.PhaseCombatIntro:
		return []action{available("begin", "Fight")}
	case state.PhaseCombatPlayerTurn:
		return []action{
			available("thrust", "Thrust"),
			available("back-away", "Back away"),
			available("hold", "Hold your ground"),
		}
	case state.PhaseCombatResult:
		return continueActions
	}
	return nil
}

func (f CombatFamily) Options(tc *Context) []Option {
	return listOptions(f.actions(tc))
}

func (f CombatFamily) Handle(tc *Context, token string) (string, error) {
	sess := tc.Session
	phase := sess.Phase()
	if phase == state.PhaseCombatPlayerAction || phase == state.PhaseCombatAnimalTurn {
		return "", wrongPhase(phase, token)
	}
	verb, err := choose(token, f.actions(tc))
	if err != nil {
		return "", err
	}
	if phase == state.PhaseCombatResult {
		return f.dismiss(tc), nil
	}
	if err := requireLive(tc); err != nil {
		return "", err
	}
	p := sess.Pending
	c := p.Combat
	scenario, _ := c.Scenario.Get()
	s := &c.Snapshot

	if verb == "begin" {
		p.Enter(state.PhaseCombatPlayerTurn)
		return fmt.Sprintf("You face %s at %s range.", s.Opponent, activity.ZoneName(s.Zone)), nil
	}

	s.Round++
	p.Enter(state.PhaseCombatPlayerAction)
	var msg string
	switch verb {
	case "thrust":
		t := thrustTable[scenario.Zone()]
		if dice.Chance(tc.Rand, t.hit) {
			s.AnimalHealth = wound(s.AnimalHealth, t.damage)
			msg = "Your thrust lands."
		} else {
			msg = "Your thrust misses."
		}
	case "back-away":
		scenario.Retreat()
		msg = "You give ground."
	case "hold":
		msg = "You hold your ground."
	}
	s.Zone = scenario.Zone()
	s.LastPlayer = msg
	if s.AnimalHealth == 0 {
		s.Outcome = activity.CombatVictory
		s.CarcassPending = true
		p.Enter(state.PhaseCombatResult)
		msg += fmt.Sprintf(" %s falls and does not get up.", capitalise(s.Opponent))
		sess.Narrate("%s", msg)
		return msg, nil
	}

	p.Enter(state.PhaseCombatAnimalTurn)
	var reply string
	if hit, attacks := opponentHit[scenario.Zone()]; attacks {
		if dice.Chance(tc.Rand, hit) {
			s.PlayerHealth = wound(s.PlayerHealth, scenario.Opponent.Damage)
			sess.Player.Body.Health = s.PlayerHealth
			reply = capitalise(s.Opponent) + " mauls you."
		} else {
			reply = capitalise(s.Opponent) + " lunges and misses."
		}
	} else {
		scenario.Close()
		reply = capitalise(s.Opponent) + " closes in."
	}
	s.Zone = scenario.Zone()
	s.LastAnimal = reply
	msg += " " + reply
	if s.PlayerHealth == 0 {
		s.Outcome = activity.CombatDefeat
		p.Enter(state.PhaseCombatResult)
		sess.Narrate("%s", msg)
		return msg, nil
	}
	p.Enter(state.PhaseCombatPlayerTurn)
	return msg, nil
}

// dismiss applies the result: the carcass appears on victory, the player
// dies on defeat.
func (CombatFamily) dismiss(tc *Context) string {
	sess := tc.Session
	s := sess.Pending.Combat.Snapshot
	if s.Outcome == activity.CombatDefeat {
		sess.Kill("killed by " + s.Opponent)
		return "You have been killed by " + s.Opponent + "."
	}
	if s.CarcassPending {
		sess.AddCarcass(s.Species, s.MeatKg)
	}
	sess.ClearPending()
	return fmt.Sprintf("You stand over the body of %s.", s.Opponent)
}
