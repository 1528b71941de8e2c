package save

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyloom/internal/state"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)
	return st
}

func sampleState() state.GameState {
	s := state.New("Rowan")
	s.Scene = "gameplay"
	s.Player.Inventory["rope"] = 2
	s.Player.ActiveQuests = []string{"gather-materials"}
	s.World.Flags["met_merchant"] = true
	s.StartedAt = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	st := newTestStore(t)
	want := sampleState()

	require.NoError(t, st.Save(want, "slot-a"))

	got, err := st.Load("slot-a")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, []string{"gather-materials"}, got.Player.ActiveQuests)
}

func TestLoadMissingSlot(t *testing.T) {
	st := newTestStore(t)
	_, err := st.Load("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadCorruptSlot(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(st.dir, "bad.json"), []byte("{not json"), 0o644))

	_, err := st.Load("bad")
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.NotErrorIs(t, err, ErrNotFound, "corrupt and missing must stay distinguishable")
}

func TestCrashBeforeRenameKeepsPreviousSave(t *testing.T) {
	st := newTestStore(t)
	want := sampleState()
	require.NoError(t, st.Save(want, "slot-a"))

	// Simulate a crash after the temp write but before the rename: a
	// stray temp file next to the committed record.
	stray := filepath.Join(st.dir, "slot-a.json.tmp-crash")
	require.NoError(t, os.WriteFile(stray, []byte("partial garbage"), 0o644))

	got, err := st.Load("slot-a")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	infos, err := st.List()
	require.NoError(t, err)
	require.Len(t, infos, 1, "temp files must not appear as slots")
	assert.Equal(t, "slot-a", infos[0].Slot)
}

func TestSaveRetriesAfterTransientWriteFailure(t *testing.T) {
	st := newTestStore(t)

	// A directory squatting on the slot path makes the commit rename
	// fail. Clearing it before the backoff expires lets the retry land.
	path := filepath.Join(st.dir, "slot-a.json")
	require.NoError(t, os.Mkdir(path, 0o755))
	go func() {
		time.Sleep(retryInterval / 5)
		_ = os.Remove(path)
	}()

	start := time.Now()
	require.NoError(t, st.Save(sampleState(), "slot-a"))
	assert.GreaterOrEqual(t, time.Since(start), retryInterval,
		"success must come from the second attempt, after the backoff")

	got, err := st.Load("slot-a")
	require.NoError(t, err)
	assert.Equal(t, sampleState(), got)
}

func TestSaveSurfacesErrorAfterRetry(t *testing.T) {
	st := newTestStore(t)

	path := filepath.Join(st.dir, "slot-a.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	start := time.Now()
	err := st.Save(sampleState(), "slot-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slot")
	assert.GreaterOrEqual(t, time.Since(start), retryInterval,
		"the error must surface only after the retry also failed")
}

func TestSaveOverwriteIsAtomicReplace(t *testing.T) {
	st := newTestStore(t)
	first := sampleState()
	require.NoError(t, st.Save(first, "slot-a"))

	second := first
	second.Player.Location = "old-mill"
	require.NoError(t, st.Save(second, "slot-a"))

	got, err := st.Load("slot-a")
	require.NoError(t, err)
	assert.Equal(t, "old-mill", got.Player.Location)
}

func TestListOrderAndMetadata(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Save(sampleState(), "older"))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, st.Save(sampleState(), "newer"))

	infos, err := st.List()
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "newer", infos[0].Slot, "newest first")
	assert.Equal(t, FormatVersion, infos[0].Version)
	assert.Equal(t, "Rowan", infos[0].PlayerName)
}

func TestDelete(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Save(sampleState(), "slot-a"))
	require.NoError(t, st.Delete("slot-a"))
	require.NoError(t, st.Delete("slot-a"), "deleting a missing slot is fine")

	_, err := st.Load("slot-a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInvalidSlotNames(t *testing.T) {
	st := newTestStore(t)
	for _, slot := range []string{"", ".", "..", "a/b", `a\b`} {
		assert.Error(t, st.Save(sampleState(), slot), "slot %q", slot)
	}
}

func TestLoadV1Migrates(t *testing.T) {
	st := newTestStore(t)

	v1 := map[string]any{
		"version":  1,
		"saved_at": "2025-01-02T10:00:00Z",
		"state": map[string]any{
			"player": map[string]any{
				"name":       "Wren",
				"level":      3,
				"health":     40,
				"max_health": 120,
				"location":   "old-mill",
				"inventory":  map[string]int{"torch": 1},
				"quests":     []string{"gather-materials"},
			},
			"flags": map[string]bool{"met_merchant": true},
			"scene": "gameplay",
		},
	}
	data, err := json.Marshal(v1)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(st.dir, "legacy.json"), data, 0o644))

	got, err := st.Load("legacy")
	require.NoError(t, err)
	assert.Equal(t, "Wren", got.Player.Name)
	assert.Equal(t, 3, got.Player.Level)
	assert.Equal(t, 40, got.Player.Health)
	assert.Equal(t, 120, got.Player.MaxHealth)
	assert.Equal(t, "old-mill", got.Player.Location)
	assert.Equal(t, []string{"gather-materials"}, got.Player.ActiveQuests)
	assert.Empty(t, got.Player.CompletedQuests)
	assert.True(t, got.World.Flags["met_merchant"])
	assert.Equal(t, "gameplay", got.Scene)
	assert.NotNil(t, got.Player.Reputation, "migrated state gains current-version fields")
}

func TestLoadFutureVersionRejected(t *testing.T) {
	st := newTestStore(t)
	env := Envelope{Version: FormatVersion + 1, SavedAt: time.Now(), State: json.RawMessage(`{}`)}
	data, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(st.dir, "future.json"), data, 0o644))

	_, err = st.Load("future")
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestLoadIgnoresUnknownStateFields(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Save(sampleState(), "slot-a"))

	// Splice an unknown field into the committed state, as an older
	// build of the game might have written.
	path := filepath.Join(st.dir, "slot-a.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &env))
	var stateObj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env["state"], &stateObj))
	stateObj["forgotten_field"] = json.RawMessage(`{"a":1}`)
	env["state"], err = json.Marshal(stateObj)
	require.NoError(t, err)
	data, err = json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = st.Load("slot-a")
	assert.NoError(t, err)
}
