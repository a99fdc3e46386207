package world

import (
	"strings"
	"testing"
)

type script []float64

func (s *script) Float64() float64 {
	if len(*s) == 0 {
		return 0.5
	}
	v := (*s)[0]
	*s = (*s)[1:]
	return v
}

type actor struct {
	items  map[string]int
	energy float64
}

func (a actor) ItemCount(name string) int { return a.items[name] }
func (a actor) Energy() float64           { return a.energy }
func (a actor) Health() float64           { return 1 }

func TestDefaultWorldLoads(t *testing.T) {
	w, err := Default()
	if err != nil {
		t.Fatalf("load default world: %v", err)
	}
	if w.Start() != "camp" {
		t.Fatalf("expected start camp, got %s", w.Start())
	}
	if _, ok := w.Edge("meadow", "camp"); !ok {
		t.Fatal("expected edges to be two-way")
	}
	ford, _ := w.Location("river_ford")
	if ford.Hazard <= 0.5 {
		t.Fatalf("expected hazardous ford, got %.2f", ford.Hazard)
	}
	n := w.Neighbours("pine_forest")
	if len(n) != 3 || n[0].To != "camp" || n[1].To != "marsh" || n[2].To != "ridge" {
		t.Fatalf("unexpected neighbours %+v", n)
	}
	if _, ok := w.Herd("meadow"); !ok {
		t.Fatal("expected a herd in the meadow")
	}
	if _, ok := w.Herd("camp"); ok {
		t.Fatal("expected no herd at camp")
	}
}

func TestLoadRejectsDanglingReferences(t *testing.T) {
	cases := map[string]string{
		"start":    "start: nowhere\nlocations: [{id: camp}]",
		"edge":     "start: camp\nlocations: [{id: camp}]\nedges: [{from: camp, to: moon, minutes: 5}]",
		"hazard":   "start: camp\nlocations: [{id: camp, hazard: 2}]",
		"chain":    "start: camp\nlocations: [{id: camp}]\nevents: [{id: a, choices: [{label: x, outcomes: [{weight: 1, effects: {chain: b}}]}]}]",
		"predator": "start: camp\nlocations: [{id: camp}]\nevents: [{id: a, choices: [{label: x, outcomes: [{weight: 1, effects: {encounter: dragon}}]}]}]",
	}
	for name, doc := range cases {
		if _, err := Load([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadRejectsUnanswerableContent(t *testing.T) {
	cases := map[string]string{
		"all choices gated": "start: camp\nlocations: [{id: camp}]\nevents: [{id: a, choices: [{label: x, requires: {item: rope}, outcomes: [{weight: 1}]}]}]",
		"no choices":        "start: camp\nlocations: [{id: camp}]\nevents: [{id: a}]",
		"no weight":         "start: camp\nlocations: [{id: camp}]\nevents: [{id: a, choices: [{label: x, outcomes: [{weight: 0}]}]}]",
		"no outcomes":       "start: camp\nlocations: [{id: camp}]\nevents: [{id: a, choices: [{label: x}]}]",
		"dead predator":     "start: camp\nlocations: [{id: camp}]\npredators: [{species: wolf, health: 0, damage: 0.1}]",
		"negative damage":   "start: camp\nlocations: [{id: camp}]\npredators: [{species: wolf, health: 1, damage: -0.1}]",
	}
	for name, doc := range cases {
		if _, err := Load([]byte(doc)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	ok := "start: camp\nlocations: [{id: camp}]\npredators: [{species: wolf, health: 1, damage: 0.1}]\n" +
		"events: [{id: a, choices: [{label: x, requires: {item: rope}, outcomes: [{weight: 1}]}, {label: y, outcomes: [{weight: 0}, {weight: 1}]}]}]"
	if _, err := Load([]byte(ok)); err != nil {
		t.Errorf("expected a gated event with an open choice to load, got %v", err)
	}
}

func TestScriptedEventChoicesAndResolve(t *testing.T) {
	w, err := Default()
	if err != nil {
		t.Fatalf("load default world: %v", err)
	}
	ev, ok := w.Event("cold_snap")
	if !ok {
		t.Fatal("expected cold_snap")
	}
	choices := ev.Choices(actor{energy: 0.1})
	if choices[0].Available || choices[1].Available || !choices[2].Available {
		t.Fatalf("unexpected availability %+v", choices)
	}
	if !strings.Contains(choices[0].Reason, "cordage") {
		t.Fatalf("expected cordage reason, got %q", choices[0].Reason)
	}

	r := &script{0.9}
	out, err := ev.Resolve(1, r)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if out.Effects.Health != -0.1 {
		t.Fatalf("expected the stumble outcome, got %+v", out)
	}
	if _, err := ev.Resolve(7, r); err == nil {
		t.Fatal("expected error for unknown choice")
	}
}

func TestHerdSpotAndRemove(t *testing.T) {
	h := NewHerd("deer", 1, 30, 0)
	a, ok := h.Spot(&script{0.5})
	if !ok || a.Species != "deer" || a.Wary {
		t.Fatalf("unexpected animal %+v", a)
	}
	if !h.Remove(a) {
		t.Fatal("expected remove to succeed")
	}
	if h.Remaining() != 0 {
		t.Fatalf("expected empty herd, got %d", h.Remaining())
	}
	if _, ok := h.Spot(&script{0.5}); ok {
		t.Fatal("expected nothing to spot")
	}
}

func TestSeasonOfDay(t *testing.T) {
	if SeasonOfDay(0) != SeasonSpring || SeasonOfDay(95) != SeasonWinter || SeasonOfDay(120) != SeasonSpring {
		t.Fatal("unexpected season cycle")
	}
}

func TestAmbientChanceGrowsWithTime(t *testing.T) {
	if ambientChance(0) != 0 {
		t.Fatal("expected no chance for no time")
	}
	if ambientChance(30) >= ambientChance(120) {
		t.Fatal("expected longer trips to be riskier")
	}
	w, _ := Default()
	if _, ok := w.Ambient(60, &script{0.99}); ok {
		t.Fatal("expected no ambient event on a high draw")
	}
	if ev, ok := w.Ambient(60, &script{0, 0}); !ok || ev.ID() != "strange_tracks" {
		t.Fatalf("expected the first ambient event, got %v", ev)
	}
}
