package activity

import (
	"errors"

	"github.com/wfunc/survivalserver/world"
)

// Scenario is the live combat arena: the opponent's stat block and both
// combatants placed on a line of cells. The zone is the gap between them.
type Scenario struct {
	Opponent world.Predator
	Player   int
	Animal   int
}

var ErrIncompleteScenario = errors.New("activity: combat scenario is incomplete")

// NewScenario places the player at cell 0 and the opponent zone cells away.
func NewScenario(opponent world.Predator, zone int) (*Scenario, error) {
	if opponent.Species == "" || opponent.Health <= 0 || opponent.Damage < 0 {
		return nil, ErrIncompleteScenario
	}
	if zone < ZoneMelee || zone > ZoneFar {
		return nil, ErrIncompleteScenario
	}
	return &Scenario{Opponent: opponent, Player: 0, Animal: zone}, nil
}

// Zone returns the current gap, clamped to the zone range.
func (s *Scenario) Zone() int {
	z := s.Animal - s.Player
	if z < ZoneMelee {
		return ZoneMelee
	}
	if z > ZoneFar {
		return ZoneFar
	}
	return z
}

// Retreat moves the player one cell away, up to the far zone.
func (s *Scenario) Retreat() {
	if s.Zone() < ZoneFar {
		s.Player--
	}
}

// Close moves the opponent one cell toward the player.
func (s *Scenario) Close() {
	if s.Zone() > ZoneMelee {
		s.Animal--
	}
}

// ZoneForDistance maps an encounter distance in metres onto a combat zone.
func ZoneForDistance(d float64) int {
	switch {
	case d < 2:
		return ZoneMelee
	case d < 6:
		return ZoneClose
	case d < 15:
		return ZoneMid
	default:
		return ZoneFar
	}
}
