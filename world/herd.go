package world

import (
	"fmt"
	"sync"

	"github.com/wfunc/survivalserver/dice"
)

// Animal is one huntable creature spotted from a herd.
type Animal struct {
	ID      string
	Species string
	MeatKg  float64
	// Wary animals start alert.
	Wary bool
}

// Herd is the population an Animal is drawn from.
type Herd interface {
	Species() string
	Remaining() int
	Spot(r dice.Roller) (*Animal, bool)
	Remove(a *Animal) bool
}

// herd is a counted in-memory population.
type herd struct {
	species   string
	meatKg    float64
	wariness  float64
	remaining int
	spotted   int
	mutex     sync.Mutex
}

// NewHerd returns an in-memory herd of size animals.
func NewHerd(species string, size int, meatKg, wariness float64) Herd {
	return newHerd(species, size, meatKg, wariness)
}

func newHerd(species string, size int, meatKg, wariness float64) *herd {
	return &herd{species: species, remaining: size, meatKg: meatKg, wariness: wariness}
}

func (h *herd) Species() string {
	return h.species
}

func (h *herd) Remaining() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.remaining
}

// Spot returns a new animal if any are left.
func (h *herd) Spot(r dice.Roller) (*Animal, bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.remaining <= 0 {
		return nil, false
	}
	h.spotted++
	return &Animal{
		ID:      fmt.Sprintf("%s-%d", h.species, h.spotted),
		Species: h.species,
		MeatKg:  h.meatKg,
		Wary:    dice.Chance(r, h.wariness),
	}, true
}

// Remove takes a killed animal out of the population.
func (h *herd) Remove(a *Animal) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if a == nil || a.Species != h.species || h.remaining <= 0 {
		return false
	}
	h.remaining--
	return true
}
