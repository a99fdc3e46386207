// Package world holds the collaborators the turn handlers consult but do not
// own: the map, herds, predators, scripted events and the ambient event
// director. Its state is process-local; nothing here is persisted with a
// session.
package world

import (
	"math"

	"github.com/wfunc/survivalserver/dice"
)

// Actor is the read-only view of the player used to evaluate availability.
type Actor interface {
	ItemCount(name string) int
	Energy() float64
	Health() float64
}

// Provider is everything the turn handlers need from the world.
type Provider interface {
	Location(id string) (Location, bool)
	Edge(from, to string) (Edge, bool)
	Neighbours(id string) []Edge
	Herd(location string) (Herd, bool)
	Predator(species string) (Predator, bool)
	Event(id string) (Event, bool)
	// Ambient decides whether elapsed time surfaces an unrelated event.
	Ambient(minutes int, r dice.Roller) (Event, bool)
	Start() string
}

// Location is one node of the travel map.
type Location struct {
	ID   string
	Name string
	// Hazard in [0,1]; terrain above the travel threshold asks for a
	// quick-vs-careful decision.
	Hazard float64
	// Discovery is narrated on the first full arrival.
	Discovery string
	// DiscoveryEvent optionally opens an event on the first full arrival.
	DiscoveryEvent string
	// Herd is the species grazing here, if any.
	Herd string
}

// Edge is a directed route between two locations.
type Edge struct {
	From        string
	To          string
	Minutes     int
	EventChance float64
	Event       string
	BlockedIn   []Season
}

// BlockedDuring reports whether the route is closed in the season.
func (e Edge) BlockedDuring(s Season) bool {
	for _, b := range e.BlockedIn {
		if b == s {
			return true
		}
	}
	return false
}

// Season of the year.
type Season string

const (
	SeasonSpring Season = "spring"
	SeasonSummer Season = "summer"
	SeasonAutumn Season = "autumn"
	SeasonWinter Season = "winter"
)

// DaysPerSeason is the length of every season.
const DaysPerSeason = 30

// SeasonOfDay maps a zero-based day count onto the season cycle.
func SeasonOfDay(day int) Season {
	seasons := [...]Season{SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter}
	if day < 0 {
		day = 0
	}
	return seasons[(day/DaysPerSeason)%len(seasons)]
}

// Predator is a creature that can stand off against, and fight, the player.
type Predator struct {
	Species string
	Name    string
	// Boldness in [0,1] at the start of an encounter.
	Boldness float64
	// Distance in metres at which the encounter opens.
	Distance float64
	// Damage dealt by a landed attack, in player health units.
	Damage float64
	Health float64
	MeatKg float64
}

// ambientChancePerHour is the probability an ambient event fires in one hour.
const ambientChancePerHour = 0.08

// ambientChance converts the hourly rate into a chance for the elapsed time.
func ambientChance(minutes int) float64 {
	if minutes <= 0 {
		return 0
	}
	return 1 - math.Pow(1-ambientChancePerHour, float64(minutes)/60)
}
