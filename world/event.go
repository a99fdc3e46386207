package world

import (
	"fmt"

	"github.com/wfunc/survivalserver/dice"
)

// Event is a branching-choice narrative source.
type Event interface {
	ID() string
	Title() string
	Text() string
	// Choices lists every choice with its availability for the actor.
	Choices(a Actor) []Choice
	// Resolve draws the outcome of the choice at index (into Choices).
	Resolve(index int, r dice.Roller) (Outcome, error)
}

// Choice is one option of an event as presented right now.
type Choice struct {
	Label     string
	Available bool
	Reason    string
}

// Effects are applied to the session when an outcome resolves.
type Effects struct {
	Health  float64        `yaml:"health"`
	Energy  float64        `yaml:"energy"`
	Hunger  float64        `yaml:"hunger"`
	Items   map[string]int `yaml:"items"`
	Minutes int            `yaml:"minutes"`
	// Encounter queues a predator stand-off by species.
	Encounter string `yaml:"encounter"`
	// Chain names a follow-up event.
	Chain string `yaml:"chain"`
}

// Outcome is the resolved result of a choice.
type Outcome struct {
	Text    string
	Effects Effects
}

// Requirement gates a choice.
type Requirement struct {
	Item      string  `yaml:"item"`
	MinEnergy float64 `yaml:"min_energy"`
}

type outcomeDef struct {
	Weight  float64 `yaml:"weight"`
	Text    string  `yaml:"text"`
	Effects Effects `yaml:"effects"`
}

type choiceDef struct {
	Label    string       `yaml:"label"`
	Requires Requirement  `yaml:"requires"`
	Outcomes []outcomeDef `yaml:"outcomes"`
}

// ScriptedEvent is an Event loaded from the world definition.
type ScriptedEvent struct {
	EventID   string      `yaml:"id"`
	EventName string      `yaml:"title"`
	Body      string      `yaml:"text"`
	IsAmbient bool        `yaml:"ambient"`
	Options   []choiceDef `yaml:"choices"`
}

func (e *ScriptedEvent) ID() string    { return e.EventID }
func (e *ScriptedEvent) Title() string { return e.EventName }
func (e *ScriptedEvent) Text() string  { return e.Body }

func (e *ScriptedEvent) Choices(a Actor) []Choice {
	out := make([]Choice, len(e.Options))
	for i, c := range e.Options {
		ok, reason := c.Requires.met(a)
		out[i] = Choice{Label: c.Label, Available: ok, Reason: reason}
	}
	return out
}

func (e *ScriptedEvent) Resolve(index int, r dice.Roller) (Outcome, error) {
	if index < 0 || index >= len(e.Options) {
		return Outcome{}, fmt.Errorf("event %s has no choice %d", e.EventID, index)
	}
	outcomes := e.Options[index].Outcomes
	weights := make([]float64, len(outcomes))
	for i, o := range outcomes {
		weights[i] = o.Weight
	}
	picked := dice.Pick(r, weights)
	if picked < 0 {
		return Outcome{}, fmt.Errorf("event %s choice %d has no weighted outcome", e.EventID, index)
	}
	o := outcomes[picked]
	return Outcome{Text: o.Text, Effects: o.Effects}, nil
}

func (req Requirement) met(a Actor) (bool, string) {
	if req.Item != "" && a.ItemCount(req.Item) <= 0 {
		return false, "requires " + req.Item
	}
	if req.MinEnergy > 0 && a.Energy() < req.MinEnergy {
		return false, "too tired"
	}
	return true, ""
}
