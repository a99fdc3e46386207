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
	// capacityFloor refuses any move.
	capacityFloor = 0.15
	// capacityImpaired asks for confirmation first.
	capacityImpaired = 0.45
	// hazardThreshold offers the quick-vs-careful choice.
	hazardThreshold = 0.5
	// minTravelCapacity bounds how slow a move can get.
	minTravelCapacity = 0.25
	travelInjury      = 0.15
)

// TravelFamily moves the player along a map edge through its gates.
type TravelFamily struct{}

func (TravelFamily) Name() state.Family {
	return state.FamilyTravel
}

// TravelPlan computes the travel snapshot for an edge. QuickTime and
// CarefulTime are in minutes; InjuryRisk is the quick-travel chance of
// getting hurt, careful travel rolls at a quarter of it.
func TravelPlan(from, to world.Location, edge world.Edge, capacity float64) activity.TravelSnapshot {
	hazard := math.Max(from.Hazard, to.Hazard)
	base := float64(edge.Minutes) / math.Max(capacity, minTravelCapacity)
	return activity.TravelSnapshot{
		From:        from.ID,
		To:          to.ID,
		FromName:    from.Name,
		ToName:      to.Name,
		Capacity:    capacity,
		Hazard:      hazard,
		BaseMinutes: edge.Minutes,
		QuickTime:   int(math.Round(base)),
		CarefulTime: int(math.Round(base * (1 + hazard))),
		InjuryRisk:  clamp(hazard*0.5*(2-capacity), 0, 1),
		Mode:        activity.TravelNormal,
		Minutes:     int(math.Round(base)),
		Next:        activity.GateCapacity,
	}
}

// startTravel runs the gates for a fresh move from the idle state.
func startTravel(tc *Context, dest string) (string, error) {
	sess := tc.Session
	from, ok := tc.World.Location(sess.Player.Location)
	if !ok {
		return "", apperr.New(apperr.CodeInternal, "Unknown location %q.", sess.Player.Location)
	}
	edge, ok := tc.World.Edge(from.ID, dest)
	if !ok {
		return "", apperr.New(apperr.CodeUnresolvableChoice, "There is no route to %q from here.", dest).With("destination", dest)
	}
	to, ok := tc.World.Location(dest)
	if !ok {
		return "", apperr.New(apperr.CodeInternal, "Unknown location %q.", dest)
	}
	return runGates(tc, TravelPlan(from, to, edge, sess.Capacity()), false)
}

// resumeTravel continues a move after a gate was answered. Capacity is read
// again because the interlude may have changed it.
func resumeTravel(tc *Context, plan activity.TravelSnapshot) (string, error) {
	from, ok := tc.World.Location(plan.From)
	if !ok {
		return "", apperr.New(apperr.CodeInternal, "Unknown location %q.", plan.From)
	}
	to, ok := tc.World.Location(plan.To)
	if !ok {
		return "", apperr.New(apperr.CodeInternal, "Unknown location %q.", plan.To)
	}
	edge, ok := tc.World.Edge(plan.From, plan.To)
	if !ok {
		return "", apperr.New(apperr.CodeInternal, "Route %s->%s vanished.", plan.From, plan.To)
	}
	next, mode := plan.Next, plan.Mode
	plan = TravelPlan(from, to, edge, tc.Session.Capacity())
	plan.Next, plan.Mode = next, mode
	if mode != activity.TravelNormal {
		plan.Minutes = travelMinutes(plan)
	}
	return runGates(tc, plan, true)
}

// runGates evaluates the gates from plan.Next on. resumed is set when a
// travel state already exists, in which case refusals enter Blocked instead
// of failing the request.
func runGates(tc *Context, plan activity.TravelSnapshot, resumed bool) (string, error) {
	sess := tc.Session
	edge, _ := tc.World.Edge(plan.From, plan.To)

	if plan.Capacity < capacityFloor {
		msg := "You are too weak to travel."
		if !resumed {
			return "", apperr.New(apperr.CodePreconditionNotMet, "%s", msg).With("capacity", fmt.Sprintf("%.2f", plan.Capacity))
		}
		return block(tc, plan, msg), nil
	}

	if plan.Next <= activity.GateImpairment && plan.Capacity < capacityImpaired {
		plan.Next = activity.GateSeason
		plan.Message = fmt.Sprintf("You are in poor shape. The trip to %s will take about %d minutes.", plan.ToName, plan.Minutes)
		enterTravel(tc, state.PhaseTravelImpairmentWarning, plan)
		return plan.Message, nil
	}

	if plan.Next <= activity.GateSeason && edge.BlockedDuring(sess.Season()) {
		msg := fmt.Sprintf("The way to %s is impassable in %s.", plan.ToName, sess.Season())
		if !resumed {
			return "", apperr.New(apperr.CodePreconditionNotMet, "%s", msg).With("season", string(sess.Season()))
		}
		return block(tc, plan, msg), nil
	}

	if plan.Next <= activity.GateEdgeEvent && edge.Event != "" && dice.Chance(tc.Rand, edge.EventChance) {
		ev, ok := tc.World.Event(edge.Event)
		if !ok {
			return "", apperr.New(apperr.CodeInternal, "Edge event %q is missing.", edge.Event)
		}
		plan.Next = activity.GateHazard
		msg := openEvent(tc, ev)
		tc.Session.Pending.ResumeTravel = &plan
		return msg, nil
	}

	if plan.Next <= activity.GateHazard && plan.Hazard > hazardThreshold {
		plan.Next = activity.GateExecute
		plan.Message = fmt.Sprintf("The ground toward %s is treacherous. Hurry (%d min, %.0f%% injury risk) or go carefully (%d min)?",
			plan.ToName, plan.QuickTime, plan.InjuryRisk*100, plan.CarefulTime)
		enterTravel(tc, state.PhaseTravelHazardPending, plan)
		return plan.Message, nil
	}

	return execute(tc, plan)
}

func enterTravel(tc *Context, phase state.Phase, plan activity.TravelSnapshot) {
	p := tc.Session.Begin(phase)
	if p.Travel == nil {
		p.Travel = &activity.TravelState{}
	}
	p.Travel.Snapshot = plan
}

func block(tc *Context, plan activity.TravelSnapshot, msg string) string {
	plan.Message = msg
	enterTravel(tc, state.PhaseTravelBlocked, plan)
	return msg
}

func travelMinutes(plan activity.TravelSnapshot) int {
	if plan.Mode == activity.TravelCareful {
		return plan.CarefulTime
	}
	return plan.QuickTime
}

// execute spends the travel time. An ambient event firing during the trip
// suspends the move before arrival.
func execute(tc *Context, plan activity.TravelSnapshot) (string, error) {
	sess := tc.Session
	sess.AdvanceTime(plan.Minutes)
	if ev, ok := tc.World.Ambient(plan.Minutes, tc.Rand); ok {
		plan.Interruption = ev.Title()
		plan.Message = fmt.Sprintf("Partway to %s: %s", plan.ToName, ev.Text())
		enterTravel(tc, state.PhaseTravelInterrupted, plan)
		sess.Pending.Travel.Interrupt = activity.Some(ev)
		return plan.Message, nil
	}
	return arrive(tc, plan), nil
}

// arrive applies the mode's injury roll and completes the move. The
// discovery hook runs only here.
func arrive(tc *Context, plan activity.TravelSnapshot) string {
	sess := tc.Session
	msg := fmt.Sprintf("You reach %s.", plan.ToName)
	risk := 0.0
	switch plan.Mode {
	case activity.TravelQuick:
		risk = plan.InjuryRisk
	case activity.TravelCareful:
		risk = plan.InjuryRisk / 4
	}
	if risk > 0 && dice.Chance(tc.Rand, risk) {
		msg += " You turn an ankle on the way."
		sess.AdjustBody(-travelInjury, 0, 0)
		if sess.Dead {
			return msg
		}
	}

	first := sess.Visit(plan.To)
	sess.Narrate("%s", msg)
	logger.Log.Debugw("arrived", "session", sess.ID, "location", plan.To, "first", first)
	if first {
		loc, _ := tc.World.Location(plan.To)
		if loc.Discovery != "" {
			msg += " " + loc.Discovery
		}
		if loc.DiscoveryEvent != "" {
			if ev, ok := tc.World.Event(loc.DiscoveryEvent); ok {
				return msg + " " + openEvent(tc, ev)
			}
		}
	}
	sess.ClearPending()
	return msg
}

func (TravelFamily) actions(tc *Context) []action {
	switch tc.Session.Phase() {
	case state.PhaseTravelImpairmentWarning:
		return []action{available("proceed", "Go anyway"), available("cancel", "Stay put")}
	case state.PhaseTravelHazardPending:
		return []action{
			available("quick", "Hurry across"),
			available("careful", "Pick your way carefully"),
			available("cancel", "Turn back"),
		}
	case state.PhaseTravelBlocked:
		return continueActions
	case state.PhaseTravelInterrupted:
		return []action{available("continue", "Keep going"), available("stay", "Deal with it")}
	}
	return nil
}

func (f TravelFamily) Options(tc *Context) []Option {
	return listOptions(f.actions(tc))
}

func (f TravelFamily) Handle(tc *Context, token string) (string, error) {
	sess := tc.Session
	phase := sess.Phase()
	if phase == state.PhaseTravelInterrupted && token == DismissToken {
		token = "stay"
	}
	verb, err := choose(token, f.actions(tc))
	if err != nil {
		return "", err
	}
	t := sess.Pending.Travel
	plan := t.Snapshot

	switch verb {
	case DismissToken:
		sess.ClearPending()
		return "", nil
	case "cancel":
		sess.ClearPending()
		return "You stay where you are.", nil
	case "proceed":
		return resumeTravel(tc, plan)
	case "quick", "careful":
		plan.Mode = activity.TravelQuick
		if verb == "careful" {
			plan.Mode = activity.TravelCareful
		}
		plan.Minutes = travelMinutes(plan)
		return execute(tc, plan)
	case "continue":
		return arrive(tc, plan), nil
	case "stay":
		ev, ok := t.Interrupt.Get()
		if !ok {
			return "", missingLive(phase)
		}
		sess.Narrate("You abandon the trip to %s.", plan.ToName)
		return openEvent(tc, ev), nil
	}
	return "", wrongPhase(phase, token)
}
