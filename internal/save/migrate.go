package save

import (
	"encoding/json"
	"fmt"

	"storyloom/internal/state"
)

// decodeEnvelope parses raw slot bytes and migrates the contained state
// to the current format. Unknown fields inside the state are ignored so
// older saves with extra data still load.
func decodeEnvelope(data []byte) (state.GameState, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return state.GameState{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	switch env.Version {
	case FormatVersion:
		var s state.GameState
		if err := json.Unmarshal(env.State, &s); err != nil {
			return state.GameState{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		s.Normalize()
		return s, nil
	case 1:
		return migrateV1(env.State)
	case 0:
		return state.GameState{}, fmt.Errorf("%w: missing format version", ErrCorrupt)
	default:
		return state.GameState{}, fmt.Errorf("%w: version %d is newer than supported %d",
			ErrCorrupt, env.Version, FormatVersion)
	}
}

// stateV1 is the version 1 state layout: a flat quest list, no
// completed-quest split, no reputation, and no world counters.
type stateV1 struct {
	Player struct {
		Name      string         `json:"name"`
		Level     int            `json:"level"`
		Health    int            `json:"health"`
		MaxHealth int            `json:"max_health"`
		Location  string         `json:"location"`
		Inventory map[string]int `json:"inventory"`
		Quests    []string       `json:"quests"`
	} `json:"player"`
	Flags map[string]bool `json:"flags"`
	Scene string          `json:"scene"`
}

// migrateV1 lifts a version 1 state into the current layout. Every v1
// quest is treated as still active.
func migrateV1(raw json.RawMessage) (state.GameState, error) {
	var old stateV1
	if err := json.Unmarshal(raw, &old); err != nil {
		return state.GameState{}, fmt.Errorf("%w: v1 state: %v", ErrCorrupt, err)
	}
	if old.Player.Name == "" {
		return state.GameState{}, fmt.Errorf("%w: v1 state has no player", ErrCorrupt)
	}

	s := state.New(old.Player.Name)
	s.Player.Level = max(old.Player.Level, 1)
	if old.Player.MaxHealth > 0 {
		s.Player.MaxHealth = old.Player.MaxHealth
	}
	if old.Player.Health > 0 {
		s.Player.Health = min(old.Player.Health, s.Player.MaxHealth)
	}
	if old.Player.Location != "" {
		s.Player.Location = old.Player.Location
	}
	for item, count := range old.Player.Inventory {
		s.Player.Inventory[item] = count
	}
	s.Player.ActiveQuests = append(s.Player.ActiveQuests, old.Player.Quests...)
	for name, v := range old.Flags {
		s.World.Flags[name] = v
	}
	s.Scene = old.Scene
	return s, nil
}
