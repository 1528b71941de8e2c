// Package state holds the authoritative in-memory record of a play
// session. A GameState is owned by the frame loop; scenes change it only
// through Apply, and the renderer sees value copies via Snapshot.
package state

import "time"

// StartingLocation is where every new character begins.
const StartingLocation = "crossroads"

const (
	startingHealth = 100
	xpPerLevel     = 100
	levelUpHP      = 10
)

// Player is the player character's record.
type Player struct {
	Name            string         `json:"name"`
	Level           int            `json:"level"`
	Experience      int            `json:"experience"`
	Health          int            `json:"health"`
	MaxHealth       int            `json:"max_health"`
	Location        string         `json:"location"`
	Inventory       map[string]int `json:"inventory"`
	ActiveQuests    []string       `json:"active_quests"`
	CompletedQuests []string       `json:"completed_quests"`
	Reputation      map[string]int `json:"reputation"`
}

// World carries story bookkeeping that belongs to no single entity.
type World struct {
	Flags    map[string]bool `json:"flags"`
	Counters map[string]int  `json:"counters"`
}

// Settings are the player-tunable session options.
type Settings struct {
	Difficulty string `json:"difficulty"`
	TextSpeed  string `json:"text_speed"`
}

// StoryEvent is a story event currently in play.
type StoryEvent struct {
	EventID    string `json:"event_id"`
	TemplateID string `json:"template_id"`
	Title      string `json:"title"`
	Location   string `json:"location"`
	Status     string `json:"status"`
}

// GameState aggregates everything a session needs to resume.
type GameState struct {
	Player       Player       `json:"player"`
	World        World        `json:"world"`
	ActiveEvents []StoryEvent `json:"active_events"`
	Scene        string       `json:"scene"`
	Settings     Settings     `json:"settings"`
	StartedAt    time.Time    `json:"started_at"`
}

// New returns a fresh GameState for the named character. The caller is
// responsible for setting Scene before handing the state to the scene
// manager.
func New(playerName string) GameState {
	return GameState{
		Player: Player{
			Name:            playerName,
			Level:           1,
			Health:          startingHealth,
			MaxHealth:       startingHealth,
			Location:        StartingLocation,
			Inventory:       map[string]int{},
			ActiveQuests:    []string{},
			CompletedQuests: []string{},
			Reputation:      map[string]int{},
		},
		World: World{
			Flags:    map[string]bool{},
			Counters: map[string]int{},
		},
		ActiveEvents: []StoryEvent{},
		Settings: Settings{
			Difficulty: "normal",
			TextSpeed:  "medium",
		},
		StartedAt: time.Now().UTC(),
	}
}

// Snapshot returns a deep copy suitable for a read-only render pass.
func (s GameState) Snapshot() GameState {
	return s.clone()
}

// Normalize replaces nil maps and slices left behind by JSON decoding of
// older saves, so the rest of the code never checks for them.
func (s *GameState) Normalize() {
	if s.Player.Inventory == nil {
		s.Player.Inventory = map[string]int{}
	}
	if s.Player.ActiveQuests == nil {
		s.Player.ActiveQuests = []string{}
	}
	if s.Player.CompletedQuests == nil {
		s.Player.CompletedQuests = []string{}
	}
	if s.Player.Reputation == nil {
		s.Player.Reputation = map[string]int{}
	}
	if s.World.Flags == nil {
		s.World.Flags = map[string]bool{}
	}
	if s.World.Counters == nil {
		s.World.Counters = map[string]int{}
	}
	if s.ActiveEvents == nil {
		s.ActiveEvents = []StoryEvent{}
	}
	if s.Settings.Difficulty == "" {
		s.Settings.Difficulty = "normal"
	}
	if s.Settings.TextSpeed == "" {
		s.Settings.TextSpeed = "medium"
	}
}

// clone deep-copies the state so Apply can stay pure.
func (s GameState) clone() GameState {
	out := s
	out.Player.Inventory = copyMap(s.Player.Inventory)
	out.Player.Reputation = copyMap(s.Player.Reputation)
	out.Player.ActiveQuests = append([]string(nil), s.Player.ActiveQuests...)
	out.Player.CompletedQuests = append([]string(nil), s.Player.CompletedQuests...)
	out.World.Flags = copyMap(s.World.Flags)
	out.World.Counters = copyMap(s.World.Counters)
	out.ActiveEvents = append([]StoryEvent(nil), s.ActiveEvents...)
	return out
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
