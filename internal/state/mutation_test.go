package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyIsPure(t *testing.T) {
	s := New("Rowan")
	s.Player.Inventory["rope"] = 1

	next, err := s.Apply(AddItem{Item: "rope", Count: 2})
	require.NoError(t, err)

	assert.Equal(t, 1, s.Player.Inventory["rope"], "prior state must be untouched")
	assert.Equal(t, 3, next.Player.Inventory["rope"])
}

func TestApplyDeterministic(t *testing.T) {
	s := New("Rowan")
	a, err := s.Apply(AdjustReputation{Faction: "guild", Delta: 5})
	require.NoError(t, err)
	b, err := s.Apply(AdjustReputation{Faction: "guild", Delta: 5})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestApplyErrorKeepsPriorState(t *testing.T) {
	s := New("Rowan")
	next, err := s.Apply(RemoveItem{Item: "rope", Count: 1})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, s, next)
}

func TestAdjustHealthClamps(t *testing.T) {
	s := New("Rowan")

	hurt, err := s.Apply(AdjustHealth{Delta: -9999})
	require.NoError(t, err)
	assert.Equal(t, 0, hurt.Player.Health, "death is a state, not an error")

	healed, err := s.Apply(AdjustHealth{Delta: 9999})
	require.NoError(t, err)
	assert.Equal(t, s.Player.MaxHealth, healed.Player.Health)
}

func TestAddExperienceLevelsUp(t *testing.T) {
	s := New("Rowan")
	next, err := s.Apply(AddExperience{Points: 130})
	require.NoError(t, err)

	assert.Equal(t, 2, next.Player.Level)
	assert.Equal(t, 30, next.Player.Experience)
	assert.Equal(t, 110, next.Player.MaxHealth)
	assert.Equal(t, 110, next.Player.Health, "level up heals to full")

	_, err = s.Apply(AddExperience{Points: -1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestQuestLifecycle(t *testing.T) {
	s := New("Rowan")

	s, err := s.Apply(AcceptQuest{QuestID: "gather-materials"})
	require.NoError(t, err)
	assert.Equal(t, []string{"gather-materials"}, s.Player.ActiveQuests)

	_, err = s.Apply(AcceptQuest{QuestID: "gather-materials"})
	assert.ErrorIs(t, err, ErrValidation, "duplicate accept rejected")

	s, err = s.Apply(CompleteQuest{QuestID: "gather-materials"})
	require.NoError(t, err)
	assert.Empty(t, s.Player.ActiveQuests)
	assert.Equal(t, []string{"gather-materials"}, s.Player.CompletedQuests)

	_, err = s.Apply(CompleteQuest{QuestID: "gather-materials"})
	assert.ErrorIs(t, err, ErrValidation, "completing a non-active quest rejected")

	_, err = s.Apply(AcceptQuest{QuestID: "gather-materials"})
	assert.ErrorIs(t, err, ErrValidation, "re-accepting a completed quest rejected")
}

func TestRemoveItemBeyondHeld(t *testing.T) {
	s := New("Rowan")
	s, err := s.Apply(AddItem{Item: "torch", Count: 2})
	require.NoError(t, err)

	_, err = s.Apply(RemoveItem{Item: "torch", Count: 3})
	assert.ErrorIs(t, err, ErrValidation)

	s, err = s.Apply(RemoveItem{Item: "torch", Count: 2})
	require.NoError(t, err)
	_, held := s.Player.Inventory["torch"]
	assert.False(t, held, "emptied items drop out of the inventory map")
}

func TestEventLifecycle(t *testing.T) {
	s := New("Rowan")
	ev := StoryEvent{EventID: "e1", TemplateID: "merchant-request", Title: "A Plea", Location: StartingLocation, Status: "active"}

	s, err := s.Apply(PushEvent{Event: ev})
	require.NoError(t, err)

	_, err = s.Apply(PushEvent{Event: ev})
	assert.ErrorIs(t, err, ErrValidation, "duplicate event rejected")

	assert.Len(t, s.EventsAt(StartingLocation), 1)
	assert.Empty(t, s.EventsAt("elsewhere"))

	s, err = s.Apply(ResolveEvent{EventID: "e1"})
	require.NoError(t, err)
	assert.Empty(t, s.ActiveEvents)

	_, err = s.Apply(ResolveEvent{EventID: "e1"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := New("Rowan")
	snap := s.Snapshot()
	snap.Player.Inventory["rope"] = 5
	snap.World.Flags["met_merchant"] = true

	assert.Empty(t, s.Player.Inventory)
	assert.Empty(t, s.World.Flags)
}

func TestNewStateIsAlreadyNormal(t *testing.T) {
	s := New("Rowan")
	assert.NotNil(t, s.ActiveEvents)

	// A freshly created state must survive the decode-side Normalize
	// unchanged, or a save/load round trip would not be identity.
	n := s.Snapshot()
	n.Normalize()
	assert.Equal(t, s, n)
}

func TestNormalizeFillsNils(t *testing.T) {
	var s GameState
	s.Normalize()

	assert.NotNil(t, s.Player.Inventory)
	assert.NotNil(t, s.Player.ActiveQuests)
	assert.NotNil(t, s.Player.CompletedQuests)
	assert.NotNil(t, s.Player.Reputation)
	assert.NotNil(t, s.World.Flags)
	assert.NotNil(t, s.World.Counters)
	assert.NotNil(t, s.ActiveEvents)
	assert.Equal(t, "normal", s.Settings.Difficulty)
}
