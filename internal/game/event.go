package game

import (
	"storyloom/internal/scene"
	"storyloom/internal/state"
	"storyloom/internal/template"
	"storyloom/internal/ui"
)

// eventScene presents one pending story event and its choices. Backing
// out leaves the event in play; picking a choice resolves it and
// applies the choice's effects.
type eventScene struct {
	g        *Game
	inst     template.EventInstance
	loaded   bool
	text     string
	selected int
}

func (s *eventScene) Enter(st *state.GameState, payload any) {
	s.loaded = false
	s.selected = 0

	ev, ok := payload.(state.StoryEvent)
	if !ok {
		s.g.log.Error().Msg("event scene opened without an event")
		return
	}
	inst, err := s.g.templates.GenerateEvent(ev.TemplateID)
	if err != nil {
		s.g.log.Error().Err(err).Str("template", ev.TemplateID).Msg("rebuilding event failed")
		s.g.addMessage("The moment passes.")
		return
	}
	// The live event keeps the id already recorded in the active set,
	// so resolving it removes the right entry.
	inst.EventID = ev.EventID
	s.inst = inst
	s.loaded = true

	ctx := map[string]any{"player": st.Player.Name, "npc": s.localNPCName(ev.Location)}
	text, err := s.g.templates.RenderContent(ev.TemplateID, ctx)
	if err != nil {
		s.g.log.Warn().Err(err).Str("template", ev.TemplateID).Msg("rendering event text failed")
		text = inst.Text
	}
	s.text = text
}

func (s *eventScene) Exit(_ *state.GameState) {}

// layToRest archives every NPC of the template at the event's location,
// retiring them into history.
func (s *eventScene) layToRest(templateID string) {
	npcs, err := s.g.docs.ActiveNPCs(s.inst.Location)
	if err != nil {
		s.g.log.Error().Err(err).Str("location", s.inst.Location).Msg("listing npcs failed")
		return
	}
	for _, n := range npcs {
		if n.TemplateID != templateID {
			continue
		}
		if err := s.g.docs.ArchiveNPC(n.InstanceID); err != nil {
			s.g.log.Error().Err(err).Str("npc", n.InstanceID).Msg("archiving npc failed")
			continue
		}
		s.g.addMessage(n.Name + " is at rest.")
	}
}

// localNPCName names the event's interlocutor: the first NPC standing
// at the event's location.
func (s *eventScene) localNPCName(location string) string {
	npcs, err := s.g.docs.ActiveNPCs(location)
	if err != nil || len(npcs) == 0 {
		return "A stranger"
	}
	return npcs[0].Name
}

func (s *eventScene) Update(_ *state.GameState, in ui.Input) *scene.Request {
	if !s.loaded {
		return &scene.Request{Target: SceneGameplay}
	}
	switch in.Action {
	case ui.ActionUp:
		if len(s.inst.Choices) > 0 {
			s.selected = (s.selected - 1 + len(s.inst.Choices)) % len(s.inst.Choices)
		}
	case ui.ActionDown:
		if len(s.inst.Choices) > 0 {
			s.selected = (s.selected + 1) % len(s.inst.Choices)
		}
	case ui.ActionCancel:
		return &scene.Request{Target: SceneGameplay}
	case ui.ActionConfirm:
		resolved, muts, err := s.g.templates.ResolveChoice(s.inst, s.selected)
		if err != nil {
			s.g.log.Error().Err(err).Str("event", s.inst.EventID).Msg("resolving choice failed")
			return nil
		}
		choice := s.inst.Choices[s.selected]
		for _, m := range muts {
			s.g.applyMutation(m)
		}
		s.g.addMessage(resolved.ChoiceMade)
		if choice.PutsToRest != "" {
			s.layToRest(choice.PutsToRest)
		}
		s.g.syncQuests()
		return &scene.Request{Target: SceneGameplay}
	}
	return nil
}

func (s *eventScene) Render(view state.GameState, r *ui.Renderer) {
	if !s.loaded {
		return
	}
	w, _ := r.Size()
	r.DrawText(2, 1, s.inst.Title, ui.StyleTitle)
	y := r.DrawParagraph(2, 3, w-4, r.ViewHeight()-1, s.text, ui.StyleNormal)

	labels := make([]string, len(s.inst.Choices))
	for i, c := range s.inst.Choices {
		labels[i] = c.Text
	}
	r.DrawMenu(y+1, labels, s.selected)
	r.DrawHUD(view, s.g.messages)
}
