package state

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestPhaseFamiliesCoverEnumeration(t *testing.T) {
	for _, p := range Phases() {
		if !p.Valid() {
			t.Fatalf("Phases returned invalid phase %d", p)
		}
		if p == PhaseNone {
			if p.Family() != FamilyNone {
				t.Errorf("PhaseNone should have no family, got %q", p.Family())
			}
			continue
		}
		if p.Family() == FamilyNone {
			t.Errorf("phase %s has no owning family", p)
		}
	}
	if Phase(-1).Valid() || phaseCount.Valid() {
		t.Error("values outside the enumeration should be invalid")
	}
}

func TestTerminalPhases(t *testing.T) {
	terminal := map[Phase]bool{
		PhaseEventOutcomeShown: true,
		PhaseHuntResult:        true,
		PhaseEncounterOutcome:  true,
		PhaseCombatResult:      true,
		PhaseTravelBlocked:     true,
		PhaseTravelInterrupted: true,
	}
	for _, p := range Phases() {
		if p.IsTerminal() != terminal[p] {
			t.Errorf("phase %s: expected terminal=%v", p, terminal[p])
		}
	}
}

func TestPhaseJSONRoundTrip(t *testing.T) {
	for _, p := range Phases() {
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatalf("marshal %s: %v", p, err)
		}
		var back Phase
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != p {
			t.Fatalf("expected %s, got %s", p, back)
		}
	}

	var p Phase
	if err := json.Unmarshal([]byte(`"hunt.sleeping"`), &p); err == nil {
		t.Fatal("expected unknown phase names to be rejected")
	}
}

func TestGraphAllowed(t *testing.T) {
	g := NewGraph()
	g.AddTransition(PhaseHuntSighting, PhaseHuntActive)

	if !g.Allowed(PhaseHuntSighting, PhaseHuntActive) {
		t.Error("registered edge should be allowed")
	}
	if g.Allowed(PhaseHuntActive, PhaseHuntSighting) {
		t.Error("reverse edge should not be allowed")
	}
	if !g.Allowed(PhaseHuntActive, PhaseHuntActive) {
		t.Error("staying in place should always be allowed")
	}
}

func TestDefaultGraphCheck(t *testing.T) {
	combatRound := []Phase{
		PhaseCombatPlayerTurn,
		PhaseCombatPlayerAction,
		PhaseCombatAnimalTurn,
		PhaseCombatPlayerTurn,
	}
	if err := Default.Check(combatRound); err != nil {
		t.Fatalf("combat round should be legal: %v", err)
	}

	jump := []Phase{PhaseHuntActive, PhaseCombatPlayerTurn}
	err := Default.Check(jump)
	if !errors.Is(err, ErrTransitionNotAllowed) {
		t.Fatalf("expected ErrTransitionNotAllowed, got %v", err)
	}
}

func TestDefaultGraphTerminalPhasesReachNone(t *testing.T) {
	for _, p := range Phases() {
		if !p.IsTerminal() {
			continue
		}
		if !Default.Allowed(p, PhaseNone) {
			t.Errorf("terminal phase %s cannot be dismissed to none", p)
		}
	}
}
