package game

import (
	"sort"
	"time"

	"storyloom/assets"
	"storyloom/internal/ai"
	"storyloom/internal/document"
	"storyloom/internal/scene"
	"storyloom/internal/state"
	"storyloom/internal/template"
	"storyloom/internal/ui"
)

type entryKind uint8

const (
	entryTalk entryKind = iota
	entryEvent
	entryTravel
	entryQuestLog
	entryRest
)

// gameplayEntry is one selectable line on the location screen.
type gameplayEntry struct {
	kind  entryKind
	label string
	npcID string
	event state.StoryEvent
	dest  string
}

// gameplayScene is the hub: it shows the current location, its people
// and events, and the travel options. Narration arrives asynchronously;
// the authored description fills in until it does, or forever when the
// story agent is off.
type gameplayScene struct {
	g         *Game
	entries   []gameplayEntry
	selected  int
	narration string
	requestID string
}

func (s *gameplayScene) Enter(st *state.GameState, _ any) {
	loc := s.g.location()
	s.populate(st, loc)
	s.rebuildEntries(st, loc)
	s.selected = 0
	s.requestNarration(st, loc)
}

func (s *gameplayScene) Exit(_ *state.GameState) {
	if s.requestID != "" {
		s.g.broker.Cancel(s.requestID)
		s.requestID = ""
	}
}

// populate makes sure the location's NPCs exist as documents and its
// events are in play. Each event template fires once per session.
func (s *gameplayScene) populate(st *state.GameState, loc assets.LocationDef) {
	present, err := s.g.docs.ActiveNPCs(loc.ID)
	if err != nil {
		s.g.log.Error().Err(err).Str("location", loc.ID).Msg("listing npcs failed")
	}
	byTemplate := make(map[string]bool, len(present))
	for _, n := range present {
		byTemplate[n.TemplateID] = true
	}
	for _, tplID := range loc.NPCs {
		if byTemplate[tplID] {
			continue
		}
		n, err := s.g.templates.GenerateNPC(tplID, loc.ID)
		if err != nil {
			s.g.log.Warn().Err(err).Str("template", tplID).Msg("npc generation failed")
			continue
		}
		if err := s.g.docs.SaveNPC(n); err != nil {
			s.g.log.Error().Err(err).Str("npc", n.InstanceID).Msg("persisting npc failed")
		}
	}

	for _, tplID := range loc.Events {
		if st.World.Flags["event-seen:"+tplID] {
			continue
		}
		e, err := s.g.templates.GenerateEvent(tplID)
		if err != nil {
			s.g.log.Warn().Err(err).Str("template", tplID).Msg("event generation failed")
			continue
		}
		ok := s.g.applyMutation(state.PushEvent{Event: state.StoryEvent{
			EventID:    e.EventID,
			TemplateID: e.TemplateID,
			Title:      e.Title,
			Location:   loc.ID,
			Status:     template.EventPending,
		}})
		if ok {
			s.g.applyMutation(state.SetFlag{Name: "event-seen:" + tplID, Value: true})
		}
	}
}

func (s *gameplayScene) rebuildEntries(st *state.GameState, loc assets.LocationDef) {
	s.entries = nil
	npcs, err := s.g.docs.ActiveNPCs(loc.ID)
	if err != nil {
		s.g.log.Error().Err(err).Str("location", loc.ID).Msg("listing npcs failed")
	}
	for _, n := range npcs {
		s.entries = append(s.entries, gameplayEntry{
			kind:  entryTalk,
			label: "Talk to " + n.Name,
			npcID: n.InstanceID,
		})
	}
	for _, ev := range st.EventsAt(loc.ID) {
		s.entries = append(s.entries, gameplayEntry{
			kind:  entryEvent,
			label: "! " + ev.Title,
			event: ev,
		})
	}
	for _, dest := range loc.Connections {
		name := dest
		if def, ok := assets.Locations[dest]; ok {
			name = def.Name
		}
		s.entries = append(s.entries, gameplayEntry{
			kind:  entryTravel,
			label: "Travel to " + name,
			dest:  dest,
		})
	}
	s.entries = append(s.entries,
		gameplayEntry{kind: entryQuestLog, label: "Quest Log"},
		gameplayEntry{kind: entryRest, label: "Rest a while"},
	)
}

// requestNarration asks the story agent for arrival prose, with the
// authored description (plus a lore line) standing in meanwhile.
func (s *gameplayScene) requestNarration(st *state.GameState, loc assets.LocationDef) {
	s.narration = loc.Description
	if lore := assets.LocationLore[loc.ID]; len(lore) > 0 {
		s.narration += "\n\n" + lore[s.g.rng.Intn(len(lore))]
	}
	if !s.g.broker.Enabled() {
		return
	}
	s.requestID = "narrate:" + loc.ID
	s.g.broker.Request(s.requestID, assets.LocationPrompt(loc.Name, st.Player.Name, setFlags(st.World.Flags)))
}

func (s *gameplayScene) deliverNarration(res ai.Result) {
	if res.ID != s.requestID {
		return
	}
	s.requestID = ""
	if res.Err != nil {
		s.g.log.Warn().Err(res.Err).Str("id", res.ID).Msg("narration failed, keeping authored text")
		return
	}
	s.narration = res.Text
	entry := document.StoryEntry{
		At:       time.Now().UTC(),
		Location: s.g.st.Player.Location,
		Text:     res.Text,
	}
	if err := s.g.docs.AppendStory(entry); err != nil {
		s.g.log.Error().Err(err).Msg("recording story entry failed")
	}
}

func (s *gameplayScene) Update(st *state.GameState, in ui.Input) *scene.Request {
	switch in.Action {
	case ui.ActionUp:
		if len(s.entries) > 0 {
			s.selected = (s.selected - 1 + len(s.entries)) % len(s.entries)
		}
	case ui.ActionDown:
		if len(s.entries) > 0 {
			s.selected = (s.selected + 1) % len(s.entries)
		}
	case ui.ActionCancel:
		return &scene.Request{Target: ScenePause}
	case ui.ActionConfirm:
		if len(s.entries) == 0 {
			return nil
		}
		e := s.entries[s.selected]
		switch e.kind {
		case entryTalk:
			return &scene.Request{Target: SceneDialogue, Payload: e.npcID}
		case entryEvent:
			return &scene.Request{Target: SceneEvent, Payload: e.event}
		case entryTravel:
			if s.g.applyMutation(state.SetLocation{Location: e.dest}) {
				return &scene.Request{Target: SceneGameplay}
			}
		case entryQuestLog:
			return &scene.Request{Target: SceneQuestLog}
		case entryRest:
			if st.Player.Health >= st.Player.MaxHealth {
				s.g.addMessage("You feel fine already.")
				return nil
			}
			if s.g.applyMutation(state.AdjustHealth{Delta: 10}) {
				s.g.addMessage("You rest and recover a little.")
			}
		}
	}
	return nil
}

func (s *gameplayScene) Render(view state.GameState, r *ui.Renderer) {
	loc := s.g.location()
	w, _ := r.Size()
	r.DrawText(2, 1, loc.Name, ui.StyleTitle)
	if s.requestID != "" {
		r.DrawText(2+len(loc.Name)+2, 1, "…", ui.StyleDim)
	}
	y := r.DrawParagraph(2, 3, w-4, r.ViewHeight()-1, s.narration, ui.StyleNormal)

	labels := make([]string, len(s.entries))
	for i, e := range s.entries {
		labels[i] = e.label
	}
	r.DrawMenu(y+1, labels, s.selected)
	r.DrawHUD(view, s.g.messages)
}

// setFlags returns the names of all set world flags, sorted.
func setFlags(flags map[string]bool) []string {
	var out []string
	for name, set := range flags {
		if set {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
