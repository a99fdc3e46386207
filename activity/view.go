package activity

import "github.com/wfunc/survivalserver/state"

// View is the phase-tagged render of a container. It is built from
// snapshots alone, so a restored container renders without live objects.
type View struct {
	Phase     state.Phase        `json:"phase"`
	Event     *EventSnapshot     `json:"event,omitempty"`
	Hunt      *HuntSnapshot      `json:"hunt,omitempty"`
	Encounter *EncounterSnapshot `json:"encounter,omitempty"`
	Combat    *CombatSnapshot    `json:"combat,omitempty"`
	Travel    *TravelSnapshot    `json:"travel,omitempty"`
}

func (p *Pending) View() View {
	if p == nil {
		return View{Phase: state.PhaseNone}
	}
	v := View{Phase: p.phase}
	if p.Event != nil {
		s := p.Event.Snapshot
		v.Event = &s
	}
	if p.Hunt != nil {
		s := p.Hunt.Snapshot
		v.Hunt = &s
	}
	if p.Encounter != nil {
		s := p.Encounter.Snapshot
		v.Encounter = &s
	}
	if p.Combat != nil {
		s := p.Combat.Snapshot
		v.Combat = &s
	}
	if p.Travel != nil {
		s := p.Travel.Snapshot
		v.Travel = &s
	}
	return v
}
