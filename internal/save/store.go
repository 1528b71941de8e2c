// Package save persists GameState snapshots to named slots. Each slot is
// one JSON file holding a versioned envelope; writes go through a
// temp-file-then-rename discipline so a crash mid-write never clobbers
// the previously committed record.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"storyloom/internal/state"
)

// FormatVersion is the current save envelope version.
const FormatVersion = 2

var (
	// ErrNotFound means the slot has no committed save.
	ErrNotFound = errors.New("save slot not found")
	// ErrCorrupt means the slot exists but cannot be interpreted as a
	// valid save of any supported version.
	ErrCorrupt = errors.New("save data corrupt")
)

// retryInterval is the pause before the single rewrite attempt after an
// IO failure.
const retryInterval = 250 * time.Millisecond

// Envelope is the on-disk form of one save record.
type Envelope struct {
	Version int             `json:"version"`
	SavedAt time.Time       `json:"saved_at"`
	State   json.RawMessage `json:"state"`
}

// SlotInfo describes one committed save for slot listings.
type SlotInfo struct {
	Slot       string
	SavedAt    time.Time
	Version    int
	PlayerName string
}

// Store reads and writes save slots under a single directory.
type Store struct {
	dir string
	log zerolog.Logger
}

// NewStore creates the slot directory if needed and returns a Store.
func NewStore(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create save dir: %w", err)
	}
	return &Store{dir: dir, log: log.With().Str("component", "save").Logger()}, nil
}

// Save serializes the state into the slot. A failed write is retried
// once after a short backoff before the error surfaces.
func (st *Store) Save(s state.GameState, slot string) error {
	if err := validSlot(slot); err != nil {
		return err
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	env := Envelope{Version: FormatVersion, SavedAt: time.Now().UTC(), State: raw}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	path := st.slotPath(slot)
	attempt := 0
	op := func() error {
		attempt++
		if err := WriteFileAtomic(path, data); err != nil {
			st.log.Warn().Err(err).Str("slot", slot).Int("attempt", attempt).Msg("save write failed")
			return err
		}
		return nil
	}
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(retryInterval), 1)
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("write slot %q: %w", slot, err)
	}
	st.log.Info().Str("slot", slot).Msg("game saved")
	return nil
}

// Load reads and migrates the slot into a current-version GameState.
func (st *Store) Load(slot string) (state.GameState, error) {
	if err := validSlot(slot); err != nil {
		return state.GameState{}, err
	}
	data, err := os.ReadFile(st.slotPath(slot))
	if errors.Is(err, os.ErrNotExist) {
		return state.GameState{}, fmt.Errorf("slot %q: %w", slot, ErrNotFound)
	}
	if err != nil {
		return state.GameState{}, fmt.Errorf("read slot %q: %w", slot, err)
	}
	s, err := decodeEnvelope(data)
	if err != nil {
		return state.GameState{}, fmt.Errorf("slot %q: %w", slot, err)
	}
	return s, nil
}

// List enumerates committed slots, newest first. Temp files and
// undecodable entries are skipped (the latter with a warning) so one bad
// slot never hides the rest.
func (st *Store) List() ([]SlotInfo, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return nil, fmt.Errorf("read save dir: %w", err)
	}
	var out []SlotInfo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		slot := strings.TrimSuffix(name, ".json")
		data, err := os.ReadFile(filepath.Join(st.dir, name))
		if err != nil {
			st.log.Warn().Err(err).Str("slot", slot).Msg("skipping unreadable slot")
			continue
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Version == 0 {
			st.log.Warn().Str("slot", slot).Msg("skipping undecodable slot")
			continue
		}
		info := SlotInfo{Slot: slot, SavedAt: env.SavedAt, Version: env.Version}
		if s, err := decodeEnvelope(data); err == nil {
			info.PlayerName = s.Player.Name
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SavedAt.After(out[j].SavedAt) })
	return out, nil
}

// Delete removes a slot. Deleting a missing slot is not an error.
func (st *Store) Delete(slot string) error {
	if err := validSlot(slot); err != nil {
		return err
	}
	if err := os.Remove(st.slotPath(slot)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete slot %q: %w", slot, err)
	}
	return nil
}

func (st *Store) slotPath(slot string) string {
	return filepath.Join(st.dir, slot+".json")
}

func validSlot(slot string) error {
	if slot == "" || strings.ContainsAny(slot, `/\`) || slot == "." || slot == ".." {
		return fmt.Errorf("invalid slot name %q", slot)
	}
	return nil
}

// WriteFileAtomic writes data to path via a temp file in the same
// directory followed by a rename, fsyncing before the swap. Readers see
// either the old content or the new, never a partial write.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("commit %s: %w", filepath.Base(path), err)
	}
	return nil
}
