package world

import (
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wfunc/survivalserver/dice"
)

//go:embed world.yaml
var defaultWorld []byte

type locationDef struct {
	ID             string  `yaml:"id"`
	Name           string  `yaml:"name"`
	Hazard         float64 `yaml:"hazard"`
	Discovery      string  `yaml:"discovery"`
	DiscoveryEvent string  `yaml:"discovery_event"`
	Herd           *struct {
		Species  string  `yaml:"species"`
		Size     int     `yaml:"size"`
		MeatKg   float64 `yaml:"meat_kg"`
		Wariness float64 `yaml:"wariness"`
	} `yaml:"herd"`
}

type edgeDef struct {
	From        string   `yaml:"from"`
	To          string   `yaml:"to"`
	Minutes     int      `yaml:"minutes"`
	EventChance float64  `yaml:"event_chance"`
	Event       string   `yaml:"event"`
	BlockedIn   []Season `yaml:"blocked_in"`
	OneWay      bool     `yaml:"one_way"`
}

type predatorDef struct {
	Species  string  `yaml:"species"`
	Name     string  `yaml:"name"`
	Boldness float64 `yaml:"boldness"`
	Distance float64 `yaml:"distance"`
	Damage   float64 `yaml:"damage"`
	Health   float64 `yaml:"health"`
	MeatKg   float64 `yaml:"meat_kg"`
}

type definition struct {
	Start     string           `yaml:"start"`
	Locations []locationDef    `yaml:"locations"`
	Edges     []edgeDef        `yaml:"edges"`
	Predators []predatorDef    `yaml:"predators"`
	Events    []*ScriptedEvent `yaml:"events"`
}

// World is the default Provider built from a YAML definition.
type World struct {
	start     string
	locations map[string]Location
	edges     map[string]map[string]Edge
	herds     map[string]*herd
	predators map[string]Predator
	events    map[string]*ScriptedEvent
	ambient   []*ScriptedEvent
}

// Default loads the embedded world.
func Default() (*World, error) {
	return Load(defaultWorld)
}

// LoadFile loads a world definition from disk.
func LoadFile(path string) (*World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world file: %w", err)
	}
	return Load(data)
}

// Load parses and validates a world definition.
func Load(data []byte) (*World, error) {
	var def definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse world: %w", err)
	}

	w := &World{
		start:     def.Start,
		locations: make(map[string]Location),
		edges:     make(map[string]map[string]Edge),
		herds:     make(map[string]*herd),
		predators: make(map[string]Predator),
		events:    make(map[string]*ScriptedEvent),
	}

	for _, l := range def.Locations {
		if l.ID == "" {
			return nil, fmt.Errorf("location without id")
		}
		if l.Hazard < 0 || l.Hazard > 1 {
			return nil, fmt.Errorf("location %s: hazard %.2f outside [0,1]", l.ID, l.Hazard)
		}
		loc := Location{
			ID:             l.ID,
			Name:           l.Name,
			Hazard:         l.Hazard,
			Discovery:      l.Discovery,
			DiscoveryEvent: l.DiscoveryEvent,
		}
		if l.Herd != nil {
			loc.Herd = l.Herd.Species
			w.herds[l.ID] = newHerd(l.Herd.Species, l.Herd.Size, l.Herd.MeatKg, l.Herd.Wariness)
		}
		w.locations[l.ID] = loc
	}
	if _, ok := w.locations[w.start]; !ok {
		return nil, fmt.Errorf("start location %q is not defined", w.start)
	}

	for _, e := range def.Edges {
		if _, ok := w.locations[e.From]; !ok {
			return nil, fmt.Errorf("edge from unknown location %q", e.From)
		}
		if _, ok := w.locations[e.To]; !ok {
			return nil, fmt.Errorf("edge to unknown location %q", e.To)
		}
		edge := Edge{From: e.From, To: e.To, Minutes: e.Minutes, EventChance: e.EventChance, Event: e.Event, BlockedIn: e.BlockedIn}
		w.addEdge(edge)
		if !e.OneWay {
			edge.From, edge.To = e.To, e.From
			w.addEdge(edge)
		}
	}

	for _, p := range def.Predators {
		if p.Species == "" {
			return nil, fmt.Errorf("predator without species")
		}
		if p.Health <= 0 || p.Damage < 0 {
			return nil, fmt.Errorf("predator %s: health must be positive and damage non-negative", p.Species)
		}
		w.predators[p.Species] = Predator{
			Species:  p.Species,
			Name:     p.Name,
			Boldness: p.Boldness,
			Distance: p.Distance,
			Damage:   p.Damage,
			Health:   p.Health,
			MeatKg:   p.MeatKg,
		}
	}

	for _, ev := range def.Events {
		if ev.EventID == "" {
			return nil, fmt.Errorf("event without id")
		}
		if err := checkChoices(ev); err != nil {
			return nil, err
		}
		w.events[ev.EventID] = ev
		if ev.IsAmbient {
			w.ambient = append(w.ambient, ev)
		}
	}
	return w, w.validateReferences()
}

// checkChoices makes sure an opened event can always be answered: at least
// one choice has no requirement, and every choice can resolve.
func checkChoices(ev *ScriptedEvent) error {
	open := false
	for i, c := range ev.Options {
		if c.Requires == (Requirement{}) {
			open = true
		}
		weighted := false
		for _, o := range c.Outcomes {
			if o.Weight > 0 {
				weighted = true
			}
		}
		if !weighted {
			return fmt.Errorf("event %s choice %d has no outcome with positive weight", ev.EventID, i)
		}
	}
	if !open {
		return fmt.Errorf("event %s has no choice without a requirement", ev.EventID)
	}
	return nil
}

func (w *World) addEdge(e Edge) {
	if _, ok := w.edges[e.From]; !ok {
		w.edges[e.From] = make(map[string]Edge)
	}
	w.edges[e.From][e.To] = e
}

func (w *World) validateReferences() error {
	for _, ev := range w.events {
		for _, c := range ev.Options {
			for _, o := range c.Outcomes {
				if o.Effects.Chain != "" {
					if _, ok := w.events[o.Effects.Chain]; !ok {
						return fmt.Errorf("event %s chains to unknown event %q", ev.EventID, o.Effects.Chain)
					}
				}
				if o.Effects.Encounter != "" {
					if _, ok := w.predators[o.Effects.Encounter]; !ok {
						return fmt.Errorf("event %s queues unknown predator %q", ev.EventID, o.Effects.Encounter)
					}
				}
			}
		}
	}
	for _, l := range w.locations {
		if l.DiscoveryEvent != "" {
			if _, ok := w.events[l.DiscoveryEvent]; !ok {
				return fmt.Errorf("location %s discovers unknown event %q", l.ID, l.DiscoveryEvent)
			}
		}
	}
	for _, targets := range w.edges {
		for _, e := range targets {
			if e.Event != "" {
				if _, ok := w.events[e.Event]; !ok {
					return fmt.Errorf("edge %s->%s names unknown event %q", e.From, e.To, e.Event)
				}
			}
		}
	}
	return nil
}

func (w *World) Start() string {
	return w.start
}

func (w *World) Location(id string) (Location, bool) {
	l, ok := w.locations[id]
	return l, ok
}

func (w *World) Edge(from, to string) (Edge, bool) {
	e, ok := w.edges[from][to]
	return e, ok
}

func (w *World) Neighbours(id string) []Edge {
	out := make([]Edge, 0, len(w.edges[id]))
	for _, e := range w.edges[id] {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Edge) int {
		return strings.Compare(a.To, b.To)
	})
	return out
}

func (w *World) Herd(location string) (Herd, bool) {
	h, ok := w.herds[location]
	if !ok {
		return nil, false
	}
	return h, true
}

func (w *World) Predator(species string) (Predator, bool) {
	p, ok := w.predators[species]
	return p, ok
}

func (w *World) Event(id string) (Event, bool) {
	ev, ok := w.events[id]
	if !ok {
		return nil, false
	}
	return ev, true
}

// Ambient rolls whether elapsed time surfaces an ambient event, then picks one.
func (w *World) Ambient(minutes int, r dice.Roller) (Event, bool) {
	if len(w.ambient) == 0 || !dice.Chance(r, ambientChance(minutes)) {
		return nil, false
	}
	idx := int(r.Float64() * float64(len(w.ambient)))
	if idx >= len(w.ambient) {
		idx = len(w.ambient) - 1
	}
	return w.ambient[idx], true
}
