package session

import (
	"github.com/wfunc/survivalserver/state"
	"github.com/wfunc/survivalserver/world"
)

// Summary is the player-facing status line returned with every result.
type Summary struct {
	Name       string         `json:"name"`
	Health     float64        `json:"health"`
	Energy     float64        `json:"energy"`
	Hunger     float64        `json:"hunger"`
	Capacity   float64        `json:"capacity"`
	Location   string         `json:"location"`
	Day        int            `json:"day"`
	Clock      string         `json:"clock"`
	Season     world.Season   `json:"season"`
	Inventory  map[string]int `json:"inventory"`
	Carcasses  int            `json:"carcasses"`
	Phase      state.Phase    `json:"phase"`
	Category   string         `json:"category,omitempty"`
	Dead       bool           `json:"dead,omitempty"`
	DeathCause string         `json:"death_cause,omitempty"`
	Version    int64          `json:"version"`
}

func (s *Session) Summary() Summary {
	inv := make(map[string]int, len(s.Player.Inventory))
	for k, v := range s.Player.Inventory {
		inv[k] = v
	}
	here := 0
	for _, c := range s.Carcasses {
		if c.Location == s.Player.Location {
			here++
		}
	}
	return Summary{
		Name:       s.Player.Name,
		Health:     s.Player.Body.Health,
		Energy:     s.Player.Body.Energy,
		Hunger:     s.Player.Body.Hunger,
		Capacity:   s.Capacity(),
		Location:   s.Player.Location,
		Day:        s.Day() + 1,
		Clock:      s.ClockText(),
		Season:     s.Season(),
		Inventory:  inv,
		Carcasses:  here,
		Phase:      s.Phase(),
		Category:   s.UI.Category,
		Dead:       s.Dead,
		DeathCause: s.DeathCause,
		Version:    s.Version,
	}
}
