package state

import (
	"errors"
	"fmt"
	"sync"
)

// ErrTransitionNotAllowed is returned when a phase change is not an edge of
// the graph.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// Graph is the table of legal phase changes. Handlers move the phase tag
// themselves; the graph is used to audit the path a request walked.
type Graph struct {
	transitions map[Phase]map[Phase]struct{} // from -> to
	mutex       sync.RWMutex
}

func NewGraph() *Graph {
	return &Graph{
		transitions: make(map[Phase]map[Phase]struct{}),
	}
}

// AddTransition registers from -> to for every target.
func (g *Graph) AddTransition(from Phase, to ...Phase) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, exists := g.transitions[from]; !exists {
		g.transitions[from] = make(map[Phase]struct{})
	}
	for _, t := range to {
		g.transitions[from][t] = struct{}{}
	}
}

// Allowed reports whether from -> to is legal. Staying in place always is.
func (g *Graph) Allowed(from, to Phase) bool {
	if from == to {
		return true
	}
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	targets, exists := g.transitions[from]
	if !exists {
		return false
	}
	_, ok := targets[to]
	return ok
}

// Check validates every consecutive pair of a trail.
func (g *Graph) Check(trail []Phase) error {
	for i := 1; i < len(trail); i++ {
		if !g.Allowed(trail[i-1], trail[i]) {
			return fmt.Errorf("%w: %s -> %s", ErrTransitionNotAllowed, trail[i-1], trail[i])
		}
	}
	return nil
}

// Default is the transition graph of every handler family.
var Default = buildDefault()

func buildDefault() *Graph {
	g := NewGraph()

	// Idle entry points.
	g.AddTransition(PhaseNone,
		PhaseEventPending,
		PhaseHuntSighting,
		PhaseEncounterActive,
		PhaseTravelImpairmentWarning,
		PhaseTravelHazardPending,
		PhaseTravelInterrupted,
	)

	g.AddTransition(PhaseEventPending, PhaseEventOutcomeShown)
	g.AddTransition(PhaseEventOutcomeShown,
		PhaseNone,
		PhaseEventPending,
		PhaseEncounterActive,
		// travel resuming after an edge event
		PhaseTravelHazardPending,
		PhaseTravelBlocked,
		PhaseTravelInterrupted,
	)

	g.AddTransition(PhaseHuntSighting, PhaseHuntActive, PhaseHuntResult)
	g.AddTransition(PhaseHuntActive, PhaseHuntResult)
	g.AddTransition(PhaseHuntResult, PhaseNone)

	g.AddTransition(PhaseEncounterActive, PhaseEncounterOutcome, PhaseCombatIntro)
	g.AddTransition(PhaseEncounterOutcome, PhaseNone)

	g.AddTransition(PhaseCombatIntro, PhaseCombatPlayerTurn)
	g.AddTransition(PhaseCombatPlayerTurn, PhaseCombatPlayerAction)
	g.AddTransition(PhaseCombatPlayerAction, PhaseCombatAnimalTurn, PhaseCombatResult)
	g.AddTransition(PhaseCombatAnimalTurn, PhaseCombatPlayerTurn, PhaseCombatResult)
	g.AddTransition(PhaseCombatResult, PhaseNone)

	g.AddTransition(PhaseTravelImpairmentWarning,
		PhaseNone,
		PhaseEventPending,
		PhaseTravelHazardPending,
		PhaseTravelBlocked,
		PhaseTravelInterrupted,
	)
	g.AddTransition(PhaseTravelHazardPending,
		PhaseNone,
		PhaseEventPending,
		PhaseTravelInterrupted,
	)
	g.AddTransition(PhaseTravelInterrupted, PhaseNone, PhaseEventPending)
	g.AddTransition(PhaseTravelBlocked, PhaseNone)

	return g
}
