package activity

// ChoiceView is one option of an event as presented when the snapshot was
// taken. ID is empty for unavailable choices.
type ChoiceView struct {
	ID        string `json:"id,omitempty"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

// OutcomeView is the applied result of an event choice.
type OutcomeView struct {
	Choice    string         `json:"choice"`
	Text      string         `json:"text"`
	Health    float64        `json:"health,omitempty"`
	Energy    float64        `json:"energy,omitempty"`
	Hunger    float64        `json:"hunger,omitempty"`
	Items     map[string]int `json:"items,omitempty"`
	Minutes   int            `json:"minutes,omitempty"`
	Encounter string         `json:"encounter,omitempty"`
}

type EventSnapshot struct {
	EventID string       `json:"event_id"`
	Title   string       `json:"title"`
	Text    string       `json:"text"`
	Choices []ChoiceView `json:"choices"`
	Outcome *OutcomeView `json:"outcome,omitempty"`
	// ChainedTitle names the follow-up that opens after dismissal.
	ChainedTitle string `json:"chained_title,omitempty"`
}

type HuntOutcome string

const (
	HuntKilled    HuntOutcome = "killed"
	HuntEscaped   HuntOutcome = "escaped"
	HuntAbandoned HuntOutcome = "abandoned"
)

type HuntSnapshot struct {
	AnimalID  string  `json:"animal_id"`
	Species   string  `json:"species"`
	MeatKg    float64 `json:"meat_kg"`
	Distance  float64 `json:"distance"`
	Alertness float64 `json:"alertness"`
	Alerted   bool    `json:"alerted"`
	// Patience is the number of actions before the animal wanders off.
	Patience int         `json:"patience"`
	Actions  int         `json:"actions"`
	Outcome  HuntOutcome `json:"outcome,omitempty"`
	Message  string      `json:"message,omitempty"`
}

type EncounterOutcome string

const (
	EncounterDisengaged EncounterOutcome = "disengaged"
	EncounterEscaped    EncounterOutcome = "escaped"
	EncounterAppeased   EncounterOutcome = "appeased"
)

type EncounterSnapshot struct {
	Species  string           `json:"species"`
	Name     string           `json:"name"`
	Boldness float64          `json:"boldness"`
	Distance float64          `json:"distance"`
	Turns    int              `json:"turns"`
	Outcome  EncounterOutcome `json:"outcome,omitempty"`
	Message  string           `json:"message,omitempty"`
}

type CombatOutcome string

const (
	CombatVictory CombatOutcome = "victory"
	CombatDefeat  CombatOutcome = "defeat"
)

// Zones quantise combat distance.
const (
	ZoneMelee = 0
	ZoneClose = 1
	ZoneMid   = 2
	ZoneFar   = 3
)

var zoneNames = [...]string{"melee", "close", "mid", "far"}

// ZoneName returns the label of a zone, or "unknown".
func ZoneName(zone int) string {
	if zone < ZoneMelee || zone > ZoneFar {
		return "unknown"
	}
	return zoneNames[zone]
}

type CombatSnapshot struct {
	Opponent      string        `json:"opponent"`
	Species       string        `json:"species"`
	MeatKg        float64       `json:"meat_kg"`
	PlayerHealth  float64       `json:"player_health"`
	PlayerInitial float64       `json:"player_initial"`
	AnimalHealth  float64       `json:"animal_health"`
	AnimalInitial float64       `json:"animal_initial"`
	Zone          int           `json:"zone"`
	Round         int           `json:"round"`
	Outcome       CombatOutcome `json:"outcome,omitempty"`
	LastPlayer    string        `json:"last_player,omitempty"`
	LastAnimal    string        `json:"last_animal,omitempty"`
	// CarcassPending is set on victory; the carcass is created on dismissal.
	CarcassPending bool `json:"carcass_pending,omitempty"`
}

type TravelMode string

const (
	TravelNormal  TravelMode = "normal"
	TravelQuick   TravelMode = "quick"
	TravelCareful TravelMode = "careful"
)

// Gate is the next travel check still to be evaluated.
type Gate int

const (
	GateCapacity Gate = iota
	GateImpairment
	GateSeason
	GateEdgeEvent
	GateHazard
	GateExecute
)

type TravelSnapshot struct {
	From        string     `json:"from"`
	To          string     `json:"to"`
	FromName    string     `json:"from_name"`
	ToName      string     `json:"to_name"`
	Capacity    float64    `json:"capacity"`
	Hazard      float64    `json:"hazard"`
	BaseMinutes int        `json:"base_minutes"`
	QuickTime   int        `json:"quick_time"`
	CarefulTime int        `json:"careful_time"`
	InjuryRisk  float64    `json:"injury_risk"`
	Mode        TravelMode `json:"mode"`
	Minutes     int        `json:"minutes"`
	Next        Gate       `json:"next"`
	Message     string     `json:"message,omitempty"`
	// Interruption is the title of the event that stopped the move.
	Interruption string `json:"interruption,omitempty"`
}
