package activity

import (
	"encoding/json"
	"fmt"

	"github.com/wfunc/survivalserver/state"
	"github.com/wfunc/survivalserver/world"
)

type EventState struct {
	Snapshot EventSnapshot    `json:"snapshot"`
	Source   Ref[world.Event] `json:"-"`
}

type HuntState struct {
	Snapshot HuntSnapshot       `json:"snapshot"`
	Animal   Ref[*world.Animal] `json:"-"`
	Herd     Ref[world.Herd]    `json:"-"`
}

type EncounterState struct {
	Snapshot EncounterSnapshot    `json:"snapshot"`
	Predator Ref[*world.Predator] `json:"-"`
}

type CombatState struct {
	Snapshot CombatSnapshot `json:"snapshot"`
	Scenario Ref[*Scenario] `json:"-"`
}

type TravelState struct {
	Snapshot  TravelSnapshot   `json:"snapshot"`
	Interrupt Ref[world.Event] `json:"-"`
}

// Pending holds the one in-progress multi-step activity of a session. Only
// the slot belonging to the family of the current phase is non-nil.
type Pending struct {
	phase state.Phase

	Event     *EventState
	Hunt      *HuntState
	Encounter *EncounterState
	Combat    *CombatState
	Travel    *TravelState

	// LastChoiceID is the id of the most recently accepted choice.
	LastChoiceID string
	// ResumeTravel is a move suspended behind an edge event.
	ResumeTravel *TravelSnapshot

	trail []state.Phase
}

func NewPending() *Pending {
	return &Pending{}
}

func (p *Pending) Phase() state.Phase {
	return p.phase
}

// Enter sets the phase tag. Crossing into another family drops the slots
// of every other family; the caller fills the new slot afterwards.
func (p *Pending) Enter(phase state.Phase) {
	if phase == p.phase {
		return
	}
	if phase.Family() != p.phase.Family() {
		p.clearSlots(phase.Family())
	}
	p.phase = phase
	p.trail = append(p.trail, phase)
}

func (p *Pending) clearSlots(keep state.Family) {
	if keep != state.FamilyEvent {
		p.Event = nil
	}
	if keep != state.FamilyHunt {
		p.Hunt = nil
	}
	if keep != state.FamilyEncounter {
		p.Encounter = nil
	}
	if keep != state.FamilyCombat {
		p.Combat = nil
	}
	if keep != state.FamilyTravel {
		p.Travel = nil
	}
}

// Trail returns the phases entered since the last ResetTrail.
func (p *Pending) Trail() []state.Phase {
	out := make([]state.Phase, len(p.trail))
	copy(out, p.trail)
	return out
}

func (p *Pending) ResetTrail() {
	p.trail = p.trail[:0]
}

// LiveMissing reports whether the live reference the current phase needs
// is absent, which is always the case after a restore.
func (p *Pending) LiveMissing() bool {
	switch p.phase.Family() {
	case state.FamilyEvent:
		return p.Event == nil || !p.Event.Source.Present()
	case state.FamilyHunt:
		return p.Hunt == nil || !p.Hunt.Animal.Present() || !p.Hunt.Herd.Present()
	case state.FamilyEncounter:
		return p.Encounter == nil || !p.Encounter.Predator.Present()
	case state.FamilyCombat:
		return p.Combat == nil || !p.Combat.Scenario.Present()
	case state.FamilyTravel:
		if p.phase == state.PhaseTravelInterrupted {
			return p.Travel == nil || !p.Travel.Interrupt.Present()
		}
		return p.Travel == nil
	}
	return false
}

// Validate checks the tag, slot occupancy and snapshot invariants.
func (p *Pending) Validate() error {
	if !p.phase.Valid() {
		return fmt.Errorf("invalid phase %d", int(p.phase))
	}
	fam := p.phase.Family()
	slots := []struct {
		family  state.Family
		present bool
	}{
		{state.FamilyEvent, p.Event != nil},
		{state.FamilyHunt, p.Hunt != nil},
		{state.FamilyEncounter, p.Encounter != nil},
		{state.FamilyCombat, p.Combat != nil},
		{state.FamilyTravel, p.Travel != nil},
	}
	for _, s := range slots {
		if s.present && s.family != fam {
			return fmt.Errorf("phase %s carries %s state", p.phase, s.family)
		}
		if !s.present && s.family == fam {
			return fmt.Errorf("phase %s is missing its %s state", p.phase, fam)
		}
	}
	if h := p.Hunt; h != nil {
		if h.Snapshot.Distance < 0 {
			return fmt.Errorf("hunt distance %.2f is negative", h.Snapshot.Distance)
		}
		if h.Snapshot.Alertness < 0 || h.Snapshot.Alertness > 1 {
			return fmt.Errorf("hunt alertness %.2f out of range", h.Snapshot.Alertness)
		}
	}
	if e := p.Encounter; e != nil {
		if e.Snapshot.Boldness < 0 || e.Snapshot.Boldness > 1 {
			return fmt.Errorf("encounter boldness %.2f out of range", e.Snapshot.Boldness)
		}
		if e.Snapshot.Distance < 0 {
			return fmt.Errorf("encounter distance %.2f is negative", e.Snapshot.Distance)
		}
	}
	if c := p.Combat; c != nil {
		s := c.Snapshot
		if s.Zone < ZoneMelee || s.Zone > ZoneFar {
			return fmt.Errorf("combat zone %d out of range", s.Zone)
		}
		if s.PlayerHealth < 0 || s.PlayerHealth > s.PlayerInitial {
			return fmt.Errorf("player health %.2f outside [0,%.2f]", s.PlayerHealth, s.PlayerInitial)
		}
		if s.AnimalHealth < 0 || s.AnimalHealth > s.AnimalInitial {
			return fmt.Errorf("opponent health %.2f outside [0,%.2f]", s.AnimalHealth, s.AnimalInitial)
		}
	}
	if t := p.Travel; t != nil && (t.Snapshot.Capacity < 0 || t.Snapshot.Capacity > 1) {
		return fmt.Errorf("travel capacity %.2f out of range", t.Snapshot.Capacity)
	}
	if p.ResumeTravel != nil && fam != state.FamilyEvent {
		return fmt.Errorf("travel resume held outside an event")
	}
	return nil
}

type pendingWire struct {
	Phase        state.Phase     `json:"phase"`
	Event        *EventState     `json:"event,omitempty"`
	Hunt         *HuntState      `json:"hunt,omitempty"`
	Encounter    *EncounterState `json:"encounter,omitempty"`
	Combat       *CombatState    `json:"combat,omitempty"`
	Travel       *TravelState    `json:"travel,omitempty"`
	LastChoiceID string          `json:"last_choice_id,omitempty"`
	ResumeTravel *TravelSnapshot `json:"resume_travel,omitempty"`
}

func (p *Pending) MarshalJSON() ([]byte, error) {
	return json.Marshal(pendingWire{
		Phase:        p.phase,
		Event:        p.Event,
		Hunt:         p.Hunt,
		Encounter:    p.Encounter,
		Combat:       p.Combat,
		Travel:       p.Travel,
		LastChoiceID: p.LastChoiceID,
		ResumeTravel: p.ResumeTravel,
	})
}

// UnmarshalJSON restores a container. Live references come back absent and
// a blob that breaks any container invariant is rejected.
func (p *Pending) UnmarshalJSON(data []byte) error {
	var w pendingWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	restored := Pending{
		phase:        w.Phase,
		Event:        w.Event,
		Hunt:         w.Hunt,
		Encounter:    w.Encounter,
		Combat:       w.Combat,
		Travel:       w.Travel,
		LastChoiceID: w.LastChoiceID,
		ResumeTravel: w.ResumeTravel,
	}
	if err := restored.Validate(); err != nil {
		return err
	}
	*p = restored
	return nil
}
