package state

import (
	"errors"
	"fmt"
	"slices"
)

// ErrValidation is returned when a mutation would violate a state
// invariant. The prior state is left untouched.
var ErrValidation = errors.New("invalid mutation")

// Mutation is one element of the closed set of state transformations.
// The apply method is unexported so the set cannot grow outside this
// package.
type Mutation interface {
	apply(s *GameState) error
}

// Apply returns a new state with the mutation applied. The receiver is
// never modified; on error the returned state equals the receiver.
func (s GameState) Apply(m Mutation) (GameState, error) {
	next := s.clone()
	if err := m.apply(&next); err != nil {
		return s, err
	}
	return next, nil
}

// SetLocation moves the player to a named location.
type SetLocation struct {
	Location string
}

func (m SetLocation) apply(s *GameState) error {
	if m.Location == "" {
		return fmt.Errorf("%w: empty location", ErrValidation)
	}
	s.Player.Location = m.Location
	return nil
}

// AdjustHealth changes the player's health by Delta, clamped to
// [0, MaxHealth]. Reaching zero is a valid state (death), not an error.
type AdjustHealth struct {
	Delta int
}

func (m AdjustHealth) apply(s *GameState) error {
	hp := s.Player.Health + m.Delta
	if hp < 0 {
		hp = 0
	}
	if hp > s.Player.MaxHealth {
		hp = s.Player.MaxHealth
	}
	s.Player.Health = hp
	return nil
}

// AddExperience grants experience points, levelling up at each
// threshold. A level up raises max health and heals to full.
type AddExperience struct {
	Points int
}

func (m AddExperience) apply(s *GameState) error {
	if m.Points < 0 {
		return fmt.Errorf("%w: negative experience %d", ErrValidation, m.Points)
	}
	s.Player.Experience += m.Points
	for s.Player.Experience >= s.Player.Level*xpPerLevel {
		s.Player.Experience -= s.Player.Level * xpPerLevel
		s.Player.Level++
		s.Player.MaxHealth += levelUpHP
		s.Player.Health = s.Player.MaxHealth
	}
	return nil
}

// AddItem puts Count of an item into the inventory.
type AddItem struct {
	Item  string
	Count int
}

func (m AddItem) apply(s *GameState) error {
	if m.Item == "" || m.Count <= 0 {
		return fmt.Errorf("%w: add item %q count %d", ErrValidation, m.Item, m.Count)
	}
	s.Player.Inventory[m.Item] += m.Count
	return nil
}

// RemoveItem takes Count of an item out of the inventory. Removing more
// than held is rejected.
type RemoveItem struct {
	Item  string
	Count int
}

func (m RemoveItem) apply(s *GameState) error {
	if m.Count <= 0 {
		return fmt.Errorf("%w: remove item %q count %d", ErrValidation, m.Item, m.Count)
	}
	held := s.Player.Inventory[m.Item]
	if held < m.Count {
		return fmt.Errorf("%w: remove %d %q but only %d held", ErrValidation, m.Count, m.Item, held)
	}
	if held == m.Count {
		delete(s.Player.Inventory, m.Item)
	} else {
		s.Player.Inventory[m.Item] = held - m.Count
	}
	return nil
}

// AcceptQuest adds a quest to the active list.
type AcceptQuest struct {
	QuestID string
}

func (m AcceptQuest) apply(s *GameState) error {
	if m.QuestID == "" {
		return fmt.Errorf("%w: empty quest id", ErrValidation)
	}
	if slices.Contains(s.Player.ActiveQuests, m.QuestID) ||
		slices.Contains(s.Player.CompletedQuests, m.QuestID) {
		return fmt.Errorf("%w: quest %q already accepted", ErrValidation, m.QuestID)
	}
	s.Player.ActiveQuests = append(s.Player.ActiveQuests, m.QuestID)
	return nil
}

// CompleteQuest moves a quest from active to completed.
type CompleteQuest struct {
	QuestID string
}

func (m CompleteQuest) apply(s *GameState) error {
	i := slices.Index(s.Player.ActiveQuests, m.QuestID)
	if i < 0 {
		return fmt.Errorf("%w: quest %q is not active", ErrValidation, m.QuestID)
	}
	s.Player.ActiveQuests = slices.Delete(s.Player.ActiveQuests, i, i+1)
	s.Player.CompletedQuests = append(s.Player.CompletedQuests, m.QuestID)
	return nil
}

// AdjustReputation shifts standing with a faction.
type AdjustReputation struct {
	Faction string
	Delta   int
}

func (m AdjustReputation) apply(s *GameState) error {
	if m.Faction == "" {
		return fmt.Errorf("%w: empty faction", ErrValidation)
	}
	s.Player.Reputation[m.Faction] += m.Delta
	return nil
}

// SetFlag records a boolean story flag.
type SetFlag struct {
	Name  string
	Value bool
}

func (m SetFlag) apply(s *GameState) error {
	if m.Name == "" {
		return fmt.Errorf("%w: empty flag name", ErrValidation)
	}
	s.World.Flags[m.Name] = m.Value
	return nil
}

// IncrCounter adjusts a named story counter.
type IncrCounter struct {
	Name  string
	Delta int
}

func (m IncrCounter) apply(s *GameState) error {
	if m.Name == "" {
		return fmt.Errorf("%w: empty counter name", ErrValidation)
	}
	s.World.Counters[m.Name] += m.Delta
	return nil
}

// SetScene records the active scene identifier. Only the scene manager
// issues this mutation.
type SetScene struct {
	Scene string
}

func (m SetScene) apply(s *GameState) error {
	if m.Scene == "" {
		return fmt.Errorf("%w: empty scene", ErrValidation)
	}
	s.Scene = m.Scene
	return nil
}

// PushEvent adds a story event to the active set.
type PushEvent struct {
	Event StoryEvent
}

func (m PushEvent) apply(s *GameState) error {
	if m.Event.EventID == "" {
		return fmt.Errorf("%w: event without id", ErrValidation)
	}
	for _, ev := range s.ActiveEvents {
		if ev.EventID == m.Event.EventID {
			return fmt.Errorf("%w: event %q already active", ErrValidation, m.Event.EventID)
		}
	}
	s.ActiveEvents = append(s.ActiveEvents, m.Event)
	return nil
}

// ResolveEvent removes a story event from the active set.
type ResolveEvent struct {
	EventID string
}

func (m ResolveEvent) apply(s *GameState) error {
	for i, ev := range s.ActiveEvents {
		if ev.EventID == m.EventID {
			s.ActiveEvents = slices.Delete(s.ActiveEvents, i, i+1)
			return nil
		}
	}
	return fmt.Errorf("%w: event %q is not active", ErrValidation, m.EventID)
}

// EventsAt returns the active events located at the given place.
func (s GameState) EventsAt(location string) []StoryEvent {
	var out []StoryEvent
	for _, ev := range s.ActiveEvents {
		if ev.Location == location {
			out = append(out, ev)
		}
	}
	return out
}
