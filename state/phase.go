// state/phase.go
package state

import (
	"fmt"
)

// Phase is the single active tag of a resumable interaction. Exactly one
// value is active per session; PhaseNone means no interaction is pending.
type Phase int

const (
	PhaseNone Phase = iota

	PhaseEventPending
	PhaseEventOutcomeShown

	PhaseHuntSighting
	PhaseHuntActive
	PhaseHuntResult

	PhaseEncounterActive
	PhaseEncounterOutcome

	PhaseCombatIntro
	PhaseCombatPlayerTurn
	PhaseCombatPlayerAction
	PhaseCombatAnimalTurn
	PhaseCombatResult

	PhaseTravelHazardPending
	PhaseTravelImpairmentWarning
	PhaseTravelBlocked
	PhaseTravelInterrupted

	phaseCount
)

// Family identifies the handler family that owns a phase.
type Family string

const (
	FamilyNone      Family = ""
	FamilyEvent     Family = "event"
	FamilyHunt      Family = "hunt"
	FamilyEncounter Family = "encounter"
	FamilyCombat    Family = "combat"
	FamilyTravel    Family = "travel"
)

var phaseNames = [phaseCount]string{
	PhaseNone:                    "none",
	PhaseEventPending:            "event.pending",
	PhaseEventOutcomeShown:       "event.outcome_shown",
	PhaseHuntSighting:            "hunt.sighting",
	PhaseHuntActive:              "hunt.active",
	PhaseHuntResult:              "hunt.result",
	PhaseEncounterActive:         "encounter.active",
	PhaseEncounterOutcome:        "encounter.outcome",
	PhaseCombatIntro:             "combat.intro",
	PhaseCombatPlayerTurn:        "combat.player_turn",
	PhaseCombatPlayerAction:      "combat.player_action",
	PhaseCombatAnimalTurn:        "combat.animal_turn",
	PhaseCombatResult:            "combat.result",
	PhaseTravelHazardPending:     "travel.hazard_pending",
	PhaseTravelImpairmentWarning: "travel.impairment_warning",
	PhaseTravelBlocked:           "travel.blocked",
	PhaseTravelInterrupted:       "travel.interrupted",
}

// Phases returns every member of the enumeration, PhaseNone first.
func Phases() []Phase {
	out := make([]Phase, 0, phaseCount)
	for p := PhaseNone; p < phaseCount; p++ {
		out = append(out, p)
	}
	return out
}

// Valid reports whether p is a member of the closed enumeration.
func (p Phase) Valid() bool {
	return p >= PhaseNone && p < phaseCount
}

// String returns the stable wire name of the phase.
func (p Phase) String() string {
	if !p.Valid() {
		return "unknown"
	}
	return phaseNames[p]
}

// Family returns the owner of the phase, FamilyNone for PhaseNone.
func (p Phase) Family() Family {
	switch p {
	case PhaseEventPending, PhaseEventOutcomeShown:
		return FamilyEvent
	case PhaseHuntSighting, PhaseHuntActive, PhaseHuntResult:
		return FamilyHunt
	case PhaseEncounterActive, PhaseEncounterOutcome:
		return FamilyEncounter
	case PhaseCombatIntro, PhaseCombatPlayerTurn, PhaseCombatPlayerAction,
		PhaseCombatAnimalTurn, PhaseCombatResult:
		return FamilyCombat
	case PhaseTravelHazardPending, PhaseTravelImpairmentWarning,
		PhaseTravelBlocked, PhaseTravelInterrupted:
		return FamilyTravel
	default:
		return FamilyNone
	}
}

// IsTerminal reports whether the phase accepts the generic dismiss action.
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseEventOutcomeShown, PhaseHuntResult, PhaseEncounterOutcome,
		PhaseCombatResult, PhaseTravelBlocked, PhaseTravelInterrupted:
		return true
	default:
		return false
	}
}

// Active reports whether an interaction is in progress.
func (p Phase) Active() bool {
	return p != PhaseNone
}

// MarshalText encodes the phase by name so saved state survives reordering
// of the constants.
func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid phase %d", int(p))
	}
	return []byte(phaseNames[p]), nil
}

// UnmarshalText rejects anything outside the enumeration.
func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// ParsePhase looks a phase up by wire name.
func ParsePhase(name string) (Phase, error) {
	for i, n := range phaseNames {
		if n == name {
			return Phase(i), nil
		}
	}
	return PhaseNone, fmt.Errorf("unknown phase %q", name)
}
