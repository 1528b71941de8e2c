// Package document persists the living story records that sit outside
// the save-slot snapshot: NPC instances, quest instances, and the
// narration history. One JSON file per record; writes use the same
// atomic-replace discipline as the save store.
package document

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"storyloom/internal/save"
	"storyloom/internal/template"
)

// ErrNotFound means no document carries the requested identifier.
var ErrNotFound = errors.New("document not found")

// Layout under the base directory.
const (
	dirNPCActive      = "npcs/active"
	dirNPCHistory     = "npcs/history"
	dirQuestActive    = "quests/active"
	dirQuestCompleted = "quests/completed"
	dirStory          = "story"
)

// StoryEntry is one line of the narration history.
type StoryEntry struct {
	At       time.Time `json:"at"`
	Location string    `json:"location"`
	Text     string    `json:"text"`
}

// Store reads and writes documents under one base directory.
type Store struct {
	base string
	log  zerolog.Logger
}

// NewStore creates the directory layout if needed.
func NewStore(base string, log zerolog.Logger) (*Store, error) {
	for _, d := range []string{dirNPCActive, dirNPCHistory, dirQuestActive, dirQuestCompleted, dirStory} {
		if err := os.MkdirAll(filepath.Join(base, d), 0o755); err != nil {
			return nil, fmt.Errorf("create document dir: %w", err)
		}
	}
	return &Store{base: base, log: log.With().Str("component", "document").Logger()}, nil
}

// SaveNPC writes an NPC instance into the active set.
func (s *Store) SaveNPC(n template.NPCInstance) error {
	n.LastUpdated = time.Now().UTC()
	return s.writeJSON(filepath.Join(dirNPCActive, n.InstanceID+".json"), n)
}

// NPC reads an active NPC instance.
func (s *Store) NPC(instanceID string) (template.NPCInstance, error) {
	var n template.NPCInstance
	if err := s.readJSON(filepath.Join(dirNPCActive, instanceID+".json"), &n); err != nil {
		return template.NPCInstance{}, fmt.Errorf("npc %q: %w", instanceID, err)
	}
	return n, nil
}

// ActiveNPCs returns all active NPC instances, optionally filtered by
// location ("" means everywhere).
func (s *Store) ActiveNPCs(location string) ([]template.NPCInstance, error) {
	files, err := filepath.Glob(filepath.Join(s.base, dirNPCActive, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list npcs: %w", err)
	}
	var out []template.NPCInstance
	for _, f := range files {
		var n template.NPCInstance
		if err := readFileJSON(f, &n); err != nil {
			s.log.Warn().Err(err).Str("file", f).Msg("skipping unreadable npc document")
			continue
		}
		if location == "" || n.Location == location {
			out = append(out, n)
		}
	}
	return out, nil
}

// ArchiveNPC moves an NPC from the active set into history.
func (s *Store) ArchiveNPC(instanceID string) error {
	n, err := s.NPC(instanceID)
	if err != nil {
		return err
	}
	n.LastUpdated = time.Now().UTC()
	if err := s.writeJSON(filepath.Join(dirNPCHistory, instanceID+".json"), n); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.base, dirNPCActive, instanceID+".json")); err != nil {
		return fmt.Errorf("remove active npc %q: %w", instanceID, err)
	}
	return nil
}

// SaveQuest writes a quest instance, filing it under active or
// completed by its status. A quest that just completed is removed from
// the active directory.
func (s *Store) SaveQuest(q template.QuestInstance) error {
	q.LastUpdated = time.Now().UTC()
	dir := dirQuestActive
	if q.Status == template.QuestCompleted {
		dir = dirQuestCompleted
	}
	if err := s.writeJSON(filepath.Join(dir, q.QuestID+".json"), q); err != nil {
		return err
	}
	if q.Status == template.QuestCompleted {
		stale := filepath.Join(s.base, dirQuestActive, q.QuestID+".json")
		if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("retire quest %q: %w", q.QuestID, err)
		}
	}
	return nil
}

// Quest reads a quest instance, checking the active set first.
func (s *Store) Quest(questID string) (template.QuestInstance, error) {
	var q template.QuestInstance
	err := s.readJSON(filepath.Join(dirQuestActive, questID+".json"), &q)
	if errors.Is(err, ErrNotFound) {
		err = s.readJSON(filepath.Join(dirQuestCompleted, questID+".json"), &q)
	}
	if err != nil {
		return template.QuestInstance{}, fmt.Errorf("quest %q: %w", questID, err)
	}
	return q, nil
}

// AppendStory records one narration entry: the current story state is
// replaced atomically and the entry is appended to the history log, one
// JSON object per line.
func (s *Store) AppendStory(entry StoryEntry) error {
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	if err := s.writeJSON(filepath.Join(dirStory, "current.json"), entry); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(s.base, dirStory, "history.jsonl"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open story history: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode story entry: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append story history: %w", err)
	}
	return nil
}

// CurrentStory returns the most recent narration entry.
func (s *Store) CurrentStory() (StoryEntry, error) {
	var e StoryEntry
	if err := s.readJSON(filepath.Join(dirStory, "current.json"), &e); err != nil {
		return StoryEntry{}, err
	}
	return e, nil
}

func (s *Store) writeJSON(rel string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", rel, err)
	}
	if err := save.WriteFileAtomic(filepath.Join(s.base, rel), data); err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

func (s *Store) readJSON(rel string, v any) error {
	return readFileJSON(filepath.Join(s.base, rel), v)
}

func readFileJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}
