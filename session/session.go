// Package session owns the per-player game state that every transition
// reads and mutates: body, inventory, location, clock, narrative log and the
// single pending activity.
package session

import (
	"fmt"
	"math"
	"time"

	"github.com/wfunc/survivalserver/activity"
	"github.com/wfunc/survivalserver/state"
	"github.com/wfunc/survivalserver/world"
)

const (
	MinutesPerDay = 24 * 60
	// maxLog bounds the narrative log kept in the blob.
	maxLog = 50
	// dayStartMinute is 08:00 on the first day.
	dayStartMinute = 8 * 60
)

// Body stats are all in [0,1]. Hunger rises with time; the others fall.
type Body struct {
	Health float64 `json:"health"`
	Energy float64 `json:"energy"`
	Hunger float64 `json:"hunger"`
}

type Player struct {
	Name      string         `json:"name"`
	Body      Body           `json:"body"`
	Inventory map[string]int `json:"inventory"`
	Location  string         `json:"location"`
	// Speed in [0,1] weighs escape attempts.
	Speed float64 `json:"speed"`
}

// Carcass is a kill waiting to be butchered.
type Carcass struct {
	Species  string  `json:"species"`
	MeatKg   float64 `json:"meat_kg"`
	Location string  `json:"location"`
}

// UI is the idle-state scratch selected by a bare category token.
type UI struct {
	Category string `json:"category,omitempty"`
}

type Session struct {
	ID     string `json:"id"`
	UserID int64  `json:"user_id"`
	Seed   int64  `json:"seed"`

	Player    Player          `json:"player"`
	Minutes   int             `json:"minutes"`
	Visited   map[string]bool `json:"visited"`
	Carcasses []Carcass       `json:"carcasses,omitempty"`
	// QueuedEncounter is a predator species to face once the current
	// event is dismissed.
	QueuedEncounter string `json:"queued_encounter,omitempty"`

	Pending *activity.Pending `json:"pending,omitempty"`
	UI      UI                `json:"ui"`
	Log     []string          `json:"log,omitempty"`

	Dead       bool   `json:"dead,omitempty"`
	DeathCause string `json:"death_cause,omitempty"`

	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`

	endedTrail []state.Phase
}

func NewSession(id string, userID int64, seed int64, name, start string) *Session {
	now := time.Now()
	return &Session{
		ID:     id,
		UserID: userID,
		Seed:   seed,
		Player: Player{
			Name:      name,
			Body:      Body{Health: 1, Energy: 0.8, Hunger: 0.2},
			Inventory: map[string]int{"knife": 1, "cordage": 1},
			Location:  start,
			Speed:     0.5,
		},
		Minutes:    dayStartMinute,
		Visited:    map[string]bool{start: true},
		CreatedAt:  now,
		LastActive: now,
	}
}

func (s *Session) GetID() string {
	return s.ID
}

// Phase returns the active phase, PhaseNone when nothing is pending.
func (s *Session) Phase() state.Phase {
	if s.Pending == nil {
		return state.PhaseNone
	}
	return s.Pending.Phase()
}

// Begin enters phase, creating the container on the first step.
func (s *Session) Begin(phase state.Phase) *activity.Pending {
	if s.Pending == nil {
		s.Pending = activity.NewPending()
	}
	s.Pending.Enter(phase)
	return s.Pending
}

// ClearPending ends the activity. The phases entered before the clear stay
// available to TakeTrail for this request.
func (s *Session) ClearPending() {
	if s.Pending == nil {
		return
	}
	s.endedTrail = append(s.endedTrail, s.Pending.Trail()...)
	s.endedTrail = append(s.endedTrail, state.PhaseNone)
	s.Pending = nil
}

// TakeTrail returns every phase entered since the previous call.
func (s *Session) TakeTrail() []state.Phase {
	trail := s.endedTrail
	s.endedTrail = nil
	if s.Pending != nil {
		trail = append(trail, s.Pending.Trail()...)
		s.Pending.ResetTrail()
	}
	return trail
}

// Kill marks the player dead and drops any pending activity.
func (s *Session) Kill(cause string) {
	if s.Dead {
		return
	}
	s.Dead = true
	s.DeathCause = cause
	s.Player.Body.Health = 0
	s.ClearPending()
	s.Narrate("You died: %s", cause)
}

// Narrate appends to the bounded narrative log.
func (s *Session) Narrate(format string, args ...interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	s.Log = append(s.Log, msg)
	if len(s.Log) > maxLog {
		s.Log = s.Log[len(s.Log)-maxLog:]
	}
}

// AdvanceTime moves the clock and applies the passive drain of the elapsed
// minutes: hunger rises by a quarter per day, energy falls by a fifth.
func (s *Session) AdvanceTime(minutes int) {
	if minutes <= 0 {
		return
	}
	s.Minutes += minutes
	days := float64(minutes) / MinutesPerDay
	s.Player.Body.Hunger = clamp01(s.Player.Body.Hunger + 0.25*days)
	s.Player.Body.Energy = clamp01(s.Player.Body.Energy - 0.2*days)
}

// Day is the zero-based day count.
func (s *Session) Day() int {
	return s.Minutes / MinutesPerDay
}

func (s *Session) Season() world.Season {
	return world.SeasonOfDay(s.Day())
}

// ClockText renders the time of day as HH:MM.
func (s *Session) ClockText() string {
	m := s.Minutes % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// AdjustBody applies deltas and clamps every stat to [0,1]. Health reaching
// zero kills the player.
func (s *Session) AdjustBody(health, energy, hunger float64) {
	b := &s.Player.Body
	b.Health = clamp01(b.Health + health)
	b.Energy = clamp01(b.Energy + energy)
	b.Hunger = clamp01(b.Hunger + hunger)
	if b.Health <= 0 {
		s.Kill("your wounds")
	}
}

// AddItem adds n of an item; a negative n removes, never below zero.
func (s *Session) AddItem(name string, n int) {
	if s.Player.Inventory == nil {
		s.Player.Inventory = make(map[string]int)
	}
	left := s.Player.Inventory[name] + n
	if left <= 0 {
		delete(s.Player.Inventory, name)
		return
	}
	s.Player.Inventory[name] = left
}

func (s *Session) ItemCount(name string) int {
	return s.Player.Inventory[name]
}

func (s *Session) Energy() float64 {
	return s.Player.Body.Energy
}

func (s *Session) Health() float64 {
	return s.Player.Body.Health
}

// Capacity is the movement capacity in [0,1]: the weaker of health and
// energy, reduced by up to half when starving.
func (s *Session) Capacity() float64 {
	b := s.Player.Body
	return clamp01(math.Min(b.Health, b.Energy) * (1 - b.Hunger/2))
}

// Visit records an arrival and reports whether it was the first.
func (s *Session) Visit(location string) bool {
	if s.Visited == nil {
		s.Visited = make(map[string]bool)
	}
	first := !s.Visited[location]
	s.Visited[location] = true
	s.Player.Location = location
	return first
}

func (s *Session) AddCarcass(species string, meatKg float64) {
	s.Carcasses = append(s.Carcasses, Carcass{Species: species, MeatKg: meatKg, Location: s.Player.Location})
}

// TakeCarcass removes and returns the first carcass at the player's location.
func (s *Session) TakeCarcass() (Carcass, bool) {
	for i, c := range s.Carcasses {
		if c.Location == s.Player.Location {
			s.Carcasses = append(s.Carcasses[:i], s.Carcasses[i+1:]...)
			return c, true
		}
	}
	return Carcass{}, false
}

// Touch records activity for idle eviction.
func (s *Session) Touch() {
	s.LastActive = time.Now()
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
