package game

import (
	"fmt"

	"storyloom/assets"
	"storyloom/internal/ai"
	"storyloom/internal/scene"
	"storyloom/internal/state"
	"storyloom/internal/template"
	"storyloom/internal/ui"
)

// dialogueScene is a conversation with one NPC. The greeting comes from
// the NPC's template; further lines come from the story agent when it
// is enabled.
type dialogueScene struct {
	g         *Game
	npc       template.NPCInstance
	loaded    bool
	greeting  string
	line      string
	requestID string
}

func (s *dialogueScene) Enter(st *state.GameState, payload any) {
	s.loaded = false
	s.greeting = ""
	s.line = ""
	s.requestID = ""

	npcID, ok := payload.(string)
	if !ok {
		s.g.log.Error().Msg("dialogue opened without an npc")
		return
	}
	npc, err := s.g.docs.NPC(npcID)
	if err != nil {
		s.g.log.Error().Err(err).Str("npc", npcID).Msg("loading npc failed")
		s.g.addMessage("They seem to have wandered off.")
		return
	}
	s.npc = npc
	s.loaded = true

	ctx := map[string]any{"player": st.Player.Name, "npc": npc.Name}
	greeting, err := s.g.templates.RenderContent(npc.TemplateID, ctx)
	if err != nil {
		s.g.log.Warn().Err(err).Str("template", npc.TemplateID).Msg("rendering greeting failed")
		greeting = npc.Greeting
	}
	s.greeting = greeting
	s.askForLine(st)
}

func (s *dialogueScene) Exit(st *state.GameState) {
	if s.requestID != "" {
		s.g.broker.Cancel(s.requestID)
		s.requestID = ""
	}
	if !s.loaded {
		return
	}
	updated := s.g.templates.RecordInteraction(s.npc, fmt.Sprintf("spoke with %s", st.Player.Name))
	if err := s.g.docs.SaveNPC(updated); err != nil {
		s.g.log.Error().Err(err).Str("npc", updated.InstanceID).Msg("recording interaction failed")
	}
}

// askForLine requests the NPC's next spoken line from the story agent.
func (s *dialogueScene) askForLine(st *state.GameState) {
	if !s.g.broker.Enabled() {
		return
	}
	s.requestID = "dialogue:" + s.npc.InstanceID
	s.g.broker.Request(s.requestID, assets.DialoguePrompt(s.npc.Name, s.npc.DialogueSeed, st.Player.Name))
}

func (s *dialogueScene) deliverNarration(res ai.Result) {
	if res.ID != s.requestID {
		return
	}
	s.requestID = ""
	if res.Err != nil {
		s.g.log.Warn().Err(res.Err).Str("id", res.ID).Msg("dialogue line failed")
		return
	}
	s.line = res.Text
}

func (s *dialogueScene) Update(st *state.GameState, in ui.Input) *scene.Request {
	if !s.loaded {
		return &scene.Request{Target: SceneGameplay}
	}
	switch in.Action {
	case ui.ActionCancel:
		return &scene.Request{Target: SceneGameplay}
	case ui.ActionConfirm:
		// Ask for another line; the previous one stays visible until
		// the new one arrives.
		if s.requestID == "" {
			s.askForLine(st)
		}
	}
	return nil
}

func (s *dialogueScene) Render(view state.GameState, r *ui.Renderer) {
	if !s.loaded {
		return
	}
	w, _ := r.Size()
	r.DrawText(2, 1, s.npc.Name, ui.StyleTitle)
	r.DrawText(2, 2, s.npc.Role, ui.StyleDim)
	y := r.DrawParagraph(2, 4, w-4, r.ViewHeight()-1, "“"+s.greeting+"”", ui.StyleAccent)
	switch {
	case s.line != "":
		y = r.DrawParagraph(2, y+1, w-4, r.ViewHeight()-1, "“"+s.line+"”", ui.StyleNormal)
	case s.requestID != "":
		y = r.DrawParagraph(2, y+1, w-4, r.ViewHeight()-1, "…", ui.StyleDim)
	}
	r.DrawText(2, y+1, "Enter to keep talking · Esc to leave", ui.StyleDim)
	r.DrawHUD(view, s.g.messages)
}
