package session

import (
	"errors"
	"testing"
	"time"

	"github.com/wfunc/survivalserver/activity"
	"github.com/wfunc/survivalserver/state"
	"github.com/wfunc/survivalserver/world"
)

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, 1, 7, "Ada", "camp")

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}
	if _, exists = manager.Get(sessionID); exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_GetByUserID(t *testing.T) {
	manager := NewManager()
	manager.Add(NewSession("session1", 100, 1, "a", "camp"))
	manager.Add(NewSession("session2", 200, 1, "b", "camp"))
	manager.Add(NewSession("session3", 100, 1, "c", "camp"))

	if got := len(manager.GetByUserID(100)); got != 2 {
		t.Errorf("Expected 2 sessions for UserID 100, got %d", got)
	}
	if got := len(manager.GetByUserID(200)); got != 1 {
		t.Errorf("Expected 1 session for UserID 200, got %d", got)
	}
	if got := len(manager.GetByUserID(300)); got != 0 {
		t.Errorf("Expected 0 sessions for UserID 300, got %d", got)
	}
}

func TestManager_EvictIdleSkipsLockedSessions(t *testing.T) {
	manager := NewManager()
	now := time.Now()
	idle := NewSession("idle", 1, 1, "a", "camp")
	idle.LastActive = now.Add(-time.Hour)
	busy := NewSession("busy", 1, 1, "b", "camp")
	busy.LastActive = now.Add(-time.Hour)
	fresh := NewSession("fresh", 1, 1, "c", "camp")
	manager.Add(idle)
	manager.Add(busy)
	manager.Add(fresh)

	unlock := manager.Lock("busy")
	evicted := manager.EvictIdle(10*time.Minute, now)
	unlock()

	if len(evicted) != 1 || evicted[0] != "idle" {
		t.Fatalf("Expected only idle evicted, got %v", evicted)
	}
	if _, ok := manager.Get("busy"); !ok {
		t.Fatal("locked session should stay cached")
	}
}

func TestSession_PendingLifecycleAndTrail(t *testing.T) {
	sess := NewSession("s", 1, 1, "Ada", "meadow")
	if sess.Phase() != state.PhaseNone {
		t.Fatalf("Expected none, got %s", sess.Phase())
	}
	p := sess.Begin(state.PhaseHuntSighting)
	p.Hunt = &activity.HuntState{Snapshot: activity.HuntSnapshot{Species: "deer", Distance: 30}}
	sess.Begin(state.PhaseHuntActive)
	sess.ClearPending()

	trail := sess.TakeTrail()
	want := []state.Phase{state.PhaseHuntSighting, state.PhaseHuntActive, state.PhaseNone}
	if len(trail) != len(want) {
		t.Fatalf("Expected trail %v, got %v", want, trail)
	}
	for i := range want {
		if trail[i] != want[i] {
			t.Fatalf("Expected trail %v, got %v", want, trail)
		}
	}
	if len(sess.TakeTrail()) != 0 {
		t.Fatal("Expected trail drained")
	}
}

func TestSession_KillClearsPending(t *testing.T) {
	sess := NewSession("s", 1, 1, "Ada", "camp")
	sess.Begin(state.PhaseEncounterActive).Encounter = &activity.EncounterState{}
	sess.AdjustBody(-2, 0, 0)
	if !sess.Dead || sess.Pending != nil {
		t.Fatalf("Expected dead with no pending, got dead=%v pending=%v", sess.Dead, sess.Pending)
	}
	if sess.Player.Body.Health != 0 {
		t.Fatalf("Expected health 0, got %f", sess.Player.Body.Health)
	}
}

func TestSession_AdvanceTimeAndSeason(t *testing.T) {
	sess := NewSession("s", 1, 1, "Ada", "camp")
	if sess.ClockText() != "08:00" {
		t.Fatalf("Expected 08:00, got %s", sess.ClockText())
	}
	sess.AdvanceTime(90)
	if sess.ClockText() != "09:30" {
		t.Fatalf("Expected 09:30, got %s", sess.ClockText())
	}
	sess.AdvanceTime(world.DaysPerSeason * MinutesPerDay)
	if sess.Season() != world.SeasonSummer {
		t.Fatalf("Expected summer, got %s", sess.Season())
	}
	if sess.Player.Body.Hunger != 1 || sess.Player.Body.Energy != 0 {
		t.Fatalf("Expected clamped drain, got %+v", sess.Player.Body)
	}
}

func TestSession_Inventory(t *testing.T) {
	sess := NewSession("s", 1, 1, "Ada", "camp")
	sess.AddItem("meat", 3)
	sess.AddItem("meat", -5)
	if sess.ItemCount("meat") != 0 {
		t.Fatalf("Expected no meat, got %d", sess.ItemCount("meat"))
	}
	if _, ok := sess.Player.Inventory["meat"]; ok {
		t.Fatal("Expected empty entries removed")
	}
}

func TestSession_CarcassAtLocation(t *testing.T) {
	sess := NewSession("s", 1, 1, "Ada", "meadow")
	sess.AddCarcass("deer", 30)
	sess.Visit("camp")
	if _, ok := sess.TakeCarcass(); ok {
		t.Fatal("Expected no carcass at camp")
	}
	sess.Visit("meadow")
	c, ok := sess.TakeCarcass()
	if !ok || c.Species != "deer" {
		t.Fatalf("Expected deer carcass, got %+v", c)
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	sess := NewSession("s", 1, 9, "Ada", "camp")
	p := sess.Begin(state.PhaseEncounterActive)
	p.Encounter = &activity.EncounterState{
		Snapshot: activity.EncounterSnapshot{Species: "wolf", Boldness: 0.5, Distance: 15},
		Predator: activity.Some(&world.Predator{Species: "wolf"}),
	}
	data, err := Encode(sess)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	restored, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if restored.Phase() != state.PhaseEncounterActive {
		t.Fatalf("Expected encounter.active, got %s", restored.Phase())
	}
	if restored.Pending.Encounter.Predator.Present() {
		t.Fatal("Expected predator reference absent after restore")
	}
	if restored.Pending.Encounter.Snapshot.Boldness != 0.5 {
		t.Fatalf("Expected boldness preserved, got %f", restored.Pending.Encounter.Snapshot.Boldness)
	}
}

func TestCodec_RejectsCorruptState(t *testing.T) {
	cases := []string{
		`not json`,
		`{"player":{"body":{"health":1}}}`,
		`{"id":"s","player":{"body":{"health":1.5}}}`,
		`{"id":"s","dead":true,"pending":{"phase":"encounter.active","encounter":{"snapshot":{"boldness":0.5}}}}`,
		`{"id":"s","pending":{"phase":"combat.intro"}}`,
	}
	for _, c := range cases {
		if _, err := Decode([]byte(c)); !errors.Is(err, ErrCorrupt) {
			t.Errorf("Expected ErrCorrupt for %s, got %v", c, err)
		}
	}
}
