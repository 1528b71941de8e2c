package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storyloom/internal/state"
)

// ErrTemplateNotFound is returned when no template carries the
// requested identifier.
var ErrTemplateNotFound = errors.New("template not found")

// Manager holds the registered templates and generates instances from
// them. The registry is built once at startup.
type Manager struct {
	npcs   map[string]NPCTemplate
	quests map[string]QuestTemplate
	events map[string]EventTemplate
	log    zerolog.Logger
}

// NewManager registers the compiled-in defaults and then overlays any
// JSON templates found under dir/{npcs,quests,events}. A missing dir is
// fine; a malformed template file is skipped with a warning so one bad
// file never takes down startup.
func NewManager(dir string, defaults Defaults, log zerolog.Logger) (*Manager, error) {
	m := &Manager{
		npcs:   make(map[string]NPCTemplate),
		quests: make(map[string]QuestTemplate),
		events: make(map[string]EventTemplate),
		log:    log.With().Str("component", "template").Logger(),
	}
	for _, t := range defaults.NPCs {
		m.npcs[t.ID] = t
	}
	for _, t := range defaults.Quests {
		m.quests[t.ID] = t
	}
	for _, t := range defaults.Events {
		m.events[t.ID] = t
	}
	if dir != "" {
		if err := m.loadDir(dir); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Manager) loadDir(dir string) error {
	load := func(sub string, register func(name string, data []byte) error) error {
		pattern := filepath.Join(dir, sub, "*.json")
		files, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("glob %s: %w", pattern, err)
		}
		for _, f := range files {
			data, err := os.ReadFile(f)
			if err != nil {
				m.log.Warn().Err(err).Str("file", f).Msg("skipping unreadable template")
				continue
			}
			name := strings.TrimSuffix(filepath.Base(f), ".json")
			if err := register(name, data); err != nil {
				m.log.Warn().Err(err).Str("file", f).Msg("skipping malformed template")
			}
		}
		return nil
	}

	if err := load("npcs", func(name string, data []byte) error {
		var t NPCTemplate
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		if t.ID == "" {
			t.ID = name
		}
		m.npcs[t.ID] = t
		return nil
	}); err != nil {
		return err
	}
	if err := load("quests", func(name string, data []byte) error {
		var t QuestTemplate
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		if t.ID == "" {
			t.ID = name
		}
		m.quests[t.ID] = t
		return nil
	}); err != nil {
		return err
	}
	return load("events", func(name string, data []byte) error {
		var t EventTemplate
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		if t.ID == "" {
			t.ID = name
		}
		m.events[t.ID] = t
		return nil
	})
}

// GenerateNPC creates a live NPC at the given location.
func (m *Manager) GenerateNPC(templateID, location string) (NPCInstance, error) {
	t, ok := m.npcs[templateID]
	if !ok {
		return NPCInstance{}, fmt.Errorf("npc %q: %w", templateID, ErrTemplateNotFound)
	}
	return NPCInstance{
		InstanceID:   uuid.NewString(),
		TemplateID:   t.ID,
		Name:         t.Name,
		Role:         t.Role,
		Personality:  append([]string(nil), t.Personality...),
		Greeting:     t.Greeting,
		DialogueSeed: t.DialogueSeed,
		Location:     location,
		Interactions: []Interaction{},
		LastUpdated:  time.Now().UTC(),
	}, nil
}

// GenerateQuest creates a live quest with zeroed objective progress.
func (m *Manager) GenerateQuest(templateID string) (QuestInstance, error) {
	t, ok := m.quests[templateID]
	if !ok {
		return QuestInstance{}, fmt.Errorf("quest %q: %w", templateID, ErrTemplateNotFound)
	}
	objectives := make([]Objective, len(t.Objectives))
	for i, o := range t.Objectives {
		objectives[i] = Objective{Description: o.Description, Item: o.Item, Required: o.Required}
	}
	return QuestInstance{
		QuestID:     uuid.NewString(),
		TemplateID:  t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      QuestActive,
		Objectives:  objectives,
		Reward:      t.Reward,
		LastUpdated: time.Now().UTC(),
	}, nil
}

// GenerateEvent creates a pending story event.
func (m *Manager) GenerateEvent(templateID string) (EventInstance, error) {
	t, ok := m.events[templateID]
	if !ok {
		return EventInstance{}, fmt.Errorf("event %q: %w", templateID, ErrTemplateNotFound)
	}
	return EventInstance{
		EventID:     uuid.NewString(),
		TemplateID:  t.ID,
		Title:       t.Title,
		Text:        t.Text,
		Location:    t.Location,
		Status:      EventPending,
		Choices:     append([]ChoiceTemplate(nil), t.Choices...),
		LastUpdated: time.Now().UTC(),
	}, nil
}

// RenderContent renders the named template's text body with the given
// context. Event templates render their Text, NPC templates their
// Greeting, quest templates their Description. Substitution is strict:
// a key referenced by the template but absent from ctx is an error.
func (m *Manager) RenderContent(templateID string, ctx map[string]any) (string, error) {
	var body string
	switch {
	case m.hasEvent(templateID):
		body = m.events[templateID].Text
	case m.hasNPC(templateID):
		body = m.npcs[templateID].Greeting
	case m.hasQuest(templateID):
		body = m.quests[templateID].Description
	default:
		return "", fmt.Errorf("content %q: %w", templateID, ErrTemplateNotFound)
	}

	tmpl, err := template.New(templateID).Option("missingkey=error").Parse(body)
	if err != nil {
		return "", fmt.Errorf("parse content %q: %w", templateID, err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, ctx); err != nil {
		return "", fmt.Errorf("render content %q: %w", templateID, err)
	}
	return sb.String(), nil
}

func (m *Manager) hasEvent(id string) bool { _, ok := m.events[id]; return ok }
func (m *Manager) hasNPC(id string) bool   { _, ok := m.npcs[id]; return ok }
func (m *Manager) hasQuest(id string) bool { _, ok := m.quests[id]; return ok }

// UpdateQuestProgress returns a copy of the quest with the named
// objective set to progress (clamped to its requirement). When every
// objective is met the quest flips to completed.
func (m *Manager) UpdateQuestProgress(q QuestInstance, objective string, progress int) (QuestInstance, error) {
	if progress < 0 {
		return q, fmt.Errorf("negative progress %d", progress)
	}
	out := q
	out.Objectives = append([]Objective(nil), q.Objectives...)

	found := false
	done := true
	for i := range out.Objectives {
		o := &out.Objectives[i]
		if o.Description == objective {
			found = true
			o.Progress = min(progress, o.Required)
		}
		if o.Progress < o.Required {
			done = false
		}
	}
	if !found {
		return q, fmt.Errorf("quest %q has no objective %q", q.QuestID, objective)
	}
	if done {
		out.Status = QuestCompleted
	}
	out.LastUpdated = time.Now().UTC()
	return out, nil
}

// RecordInteraction returns a copy of the NPC with the exchange
// appended to its history.
func (m *Manager) RecordInteraction(n NPCInstance, note string) NPCInstance {
	out := n
	out.Interactions = append(append([]Interaction(nil), n.Interactions...),
		Interaction{At: time.Now().UTC(), Note: note})
	out.LastUpdated = time.Now().UTC()
	return out
}

// ResolveChoice marks the event resolved with the chosen option and
// returns the state mutations the choice causes.
func (m *Manager) ResolveChoice(e EventInstance, choice int) (EventInstance, []state.Mutation, error) {
	if choice < 0 || choice >= len(e.Choices) {
		return e, nil, fmt.Errorf("event %q has no choice %d", e.EventID, choice)
	}
	picked := e.Choices[choice]

	out := e
	out.Status = EventResolved
	out.ChoiceMade = picked.Text
	out.LastUpdated = time.Now().UTC()

	var muts []state.Mutation
	muts = append(muts, state.ResolveEvent{EventID: e.EventID})
	if picked.SetsFlag != "" {
		muts = append(muts, state.SetFlag{Name: picked.SetsFlag, Value: true})
	}
	if picked.Counter != "" {
		muts = append(muts, state.IncrCounter{Name: picked.Counter, Delta: picked.Delta})
	}
	if picked.GivesItem != "" {
		count := picked.ItemCount
		if count <= 0 {
			count = 1
		}
		muts = append(muts, state.AddItem{Item: picked.GivesItem, Count: count})
	}
	if picked.Faction != "" {
		muts = append(muts, state.AdjustReputation{Faction: picked.Faction, Delta: picked.Standing})
	}
	return out, muts, nil
}
