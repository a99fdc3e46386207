package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrCorrupt = errors.New("session: corrupt state")

// Encode serialises the whole session. Live references are never written.
func Encode(s *Session) ([]byte, error) {
	return json.Marshal(s)
}

// Decode restores a session and checks the invariants a transition relies
// on. Any violation wraps ErrCorrupt.
func Decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrCorrupt)
	}
	b := s.Player.Body
	for name, v := range map[string]float64{"health": b.Health, "energy": b.Energy, "hunger": b.Hunger} {
		if v < 0 || v > 1 {
			return nil, fmt.Errorf("%w: %s %.2f outside [0,1]", ErrCorrupt, name, v)
		}
	}
	if s.Dead && s.Pending != nil {
		return nil, fmt.Errorf("%w: dead player with pending activity", ErrCorrupt)
	}
	if s.Player.Inventory == nil {
		s.Player.Inventory = make(map[string]int)
	}
	if s.Visited == nil {
		s.Visited = make(map[string]bool)
	}
	return &s, nil
}
