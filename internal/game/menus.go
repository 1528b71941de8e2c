package game

import (
	"fmt"
	"strings"

	"storyloom/internal/scene"
	"storyloom/internal/state"
	"storyloom/internal/ui"
)

// mainMenuScene is the entry screen. With a live session a Continue
// entry appears first.
type mainMenuScene struct {
	g        *Game
	items    []string
	selected int
}

func (s *mainMenuScene) Enter(_ *state.GameState, _ any) {
	s.items = nil
	if s.g.hasSession {
		s.items = append(s.items, "Continue")
	}
	s.items = append(s.items, "New Game", "Load Game", "Quit")
	s.selected = 0
}

func (s *mainMenuScene) Exit(_ *state.GameState) {}

func (s *mainMenuScene) Update(_ *state.GameState, in ui.Input) *scene.Request {
	switch in.Action {
	case ui.ActionUp:
		s.selected = (s.selected - 1 + len(s.items)) % len(s.items)
	case ui.ActionDown:
		s.selected = (s.selected + 1) % len(s.items)
	case ui.ActionConfirm:
		switch s.items[s.selected] {
		case "Continue":
			return &scene.Request{Target: SceneGameplay}
		case "New Game":
			return &scene.Request{Target: SceneNewGame}
		case "Load Game":
			return &scene.Request{Target: SceneLoadMenu}
		case "Quit":
			return &scene.Request{Target: scene.Quit}
		}
	default:
		if in.Rune == 'q' || in.Rune == 'Q' {
			return &scene.Request{Target: scene.Quit}
		}
	}
	return nil
}

func (s *mainMenuScene) Render(_ state.GameState, r *ui.Renderer) {
	r.CenterText(4, "S T O R Y L O O M", ui.StyleTitle)
	r.CenterText(6, "an AI-woven adventure", ui.StyleDim)
	r.DrawMenu(10, s.items, s.selected)
	r.CenterText(10+len(s.items)+2, "↑/↓ select · Enter confirm · q quit", ui.StyleDim)
	for i, msg := range lastN(s.g.messages, 2) {
		r.CenterText(10+len(s.items)+4+i, msg, ui.StyleMessage)
	}
}

// newGameScene collects the character name.
type newGameScene struct {
	g    *Game
	name []rune
}

func (s *newGameScene) Enter(_ *state.GameState, _ any) { s.name = nil }
func (s *newGameScene) Exit(_ *state.GameState)         {}

func (s *newGameScene) Update(_ *state.GameState, in ui.Input) *scene.Request {
	// Printable runes are text first; menu actions only apply to keys
	// that carry no rune.
	if in.Rune != 0 && len(s.name) < 24 {
		s.name = append(s.name, in.Rune)
		return nil
	}
	switch in.Action {
	case ui.ActionBackspace:
		if len(s.name) > 0 {
			s.name = s.name[:len(s.name)-1]
		}
	case ui.ActionConfirm:
		name := strings.TrimSpace(string(s.name))
		if name == "" {
			return nil
		}
		s.g.beginSession(name)
		return &scene.Request{Target: SceneGameplay}
	case ui.ActionCancel:
		return &scene.Request{Target: SceneMainMenu}
	}
	return nil
}

func (s *newGameScene) Render(_ state.GameState, r *ui.Renderer) {
	r.CenterText(6, "Name your character", ui.StyleTitle)
	r.CenterText(9, string(s.name)+"▏", ui.StyleAccent)
	r.CenterText(12, "Enter to begin · Esc to go back", ui.StyleDim)
}

// loadMenuScene lists committed save slots.
type loadMenuScene struct {
	g        *Game
	slots    []string
	labels   []string
	selected int
}

func (s *loadMenuScene) Enter(_ *state.GameState, _ any) {
	s.slots = nil
	s.labels = nil
	s.selected = 0

	infos, err := s.g.store.List()
	if err != nil {
		s.g.log.Error().Err(err).Msg("listing saves failed")
		return
	}
	for _, info := range infos {
		s.slots = append(s.slots, info.Slot)
		label := fmt.Sprintf("%s — %s (%s)", info.Slot, info.PlayerName,
			info.SavedAt.Local().Format("Jan 2 15:04"))
		s.labels = append(s.labels, label)
	}
}

func (s *loadMenuScene) Exit(_ *state.GameState) {}

func (s *loadMenuScene) Update(_ *state.GameState, in ui.Input) *scene.Request {
	switch in.Action {
	case ui.ActionUp:
		if len(s.slots) > 0 {
			s.selected = (s.selected - 1 + len(s.slots)) % len(s.slots)
		}
	case ui.ActionDown:
		if len(s.slots) > 0 {
			s.selected = (s.selected + 1) % len(s.slots)
		}
	case ui.ActionConfirm:
		if len(s.slots) > 0 {
			s.g.requestLoad(s.slots[s.selected])
		}
	case ui.ActionCancel:
		return &scene.Request{Target: SceneMainMenu}
	}
	return nil
}

func (s *loadMenuScene) Render(_ state.GameState, r *ui.Renderer) {
	r.CenterText(4, "Load Game", ui.StyleTitle)
	if len(s.labels) == 0 {
		r.CenterText(8, "No saves yet.", ui.StyleDim)
	} else {
		r.DrawMenu(7, s.labels, s.selected)
	}
	r.CenterText(7+len(s.labels)+2, "Enter load · Esc back", ui.StyleDim)
	for i, msg := range lastN(s.g.messages, 2) {
		r.CenterText(7+len(s.labels)+4+i, msg, ui.StyleMessage)
	}
}

// pauseSlots are the quick-save slots offered from the pause menu.
var pauseSlots = []string{"slot-1", "slot-2", "slot-3"}

// pauseScene pauses gameplay and handles saving.
type pauseScene struct {
	g        *Game
	items    []string
	selected int
}

func (s *pauseScene) Enter(_ *state.GameState, _ any) {
	s.items = []string{"Resume"}
	for _, slot := range pauseSlots {
		s.items = append(s.items, "Save to "+slot)
	}
	s.items = append(s.items, "Main Menu", "Quit")
	s.selected = 0
}

func (s *pauseScene) Exit(_ *state.GameState) {}

func (s *pauseScene) Update(_ *state.GameState, in ui.Input) *scene.Request {
	switch in.Action {
	case ui.ActionUp:
		s.selected = (s.selected - 1 + len(s.items)) % len(s.items)
	case ui.ActionDown:
		s.selected = (s.selected + 1) % len(s.items)
	case ui.ActionCancel:
		return &scene.Request{Target: SceneGameplay}
	case ui.ActionConfirm:
		item := s.items[s.selected]
		switch {
		case item == "Resume":
			return &scene.Request{Target: SceneGameplay}
		case strings.HasPrefix(item, "Save to "):
			s.g.requestSave(strings.TrimPrefix(item, "Save to "))
		case item == "Main Menu":
			if s.g.cfg.AutosaveSlot != "" {
				s.g.requestSave(s.g.cfg.AutosaveSlot)
			}
			return &scene.Request{Target: SceneMainMenu}
		case item == "Quit":
			if s.g.cfg.AutosaveSlot != "" {
				s.g.requestSave(s.g.cfg.AutosaveSlot)
			}
			return &scene.Request{Target: scene.Quit}
		}
	}
	return nil
}

func (s *pauseScene) Render(view state.GameState, r *ui.Renderer) {
	r.CenterText(4, "Paused", ui.StyleTitle)
	r.DrawMenu(7, s.items, s.selected)
	r.DrawHUD(view, s.g.messages)
}

// questLogScene lists active and completed quests with objectives.
type questLogScene struct {
	g     *Game
	lines []questLine
}

type questLine struct {
	text  string
	style questLineStyle
}

type questLineStyle uint8

const (
	lineTitle questLineStyle = iota
	lineObjective
	lineDone
)

func (s *questLogScene) Enter(st *state.GameState, _ any) {
	s.lines = nil
	add := func(ids []string, done bool) {
		for _, id := range ids {
			q, err := s.g.docs.Quest(id)
			if err != nil {
				s.g.log.Warn().Err(err).Str("quest", id).Msg("quest document missing")
				continue
			}
			style := lineTitle
			if done {
				style = lineDone
			}
			s.lines = append(s.lines, questLine{text: q.Title, style: style})
			if !done {
				for _, o := range q.Objectives {
					s.lines = append(s.lines, questLine{
						text:  fmt.Sprintf("  %s (%d/%d)", o.Description, o.Progress, o.Required),
						style: lineObjective,
					})
				}
			}
		}
	}
	add(st.Player.ActiveQuests, false)
	add(st.Player.CompletedQuests, true)
}

func (s *questLogScene) Exit(_ *state.GameState) {}

func (s *questLogScene) Update(_ *state.GameState, in ui.Input) *scene.Request {
	if in.Action == ui.ActionCancel || in.Action == ui.ActionConfirm {
		return &scene.Request{Target: SceneGameplay}
	}
	return nil
}

func (s *questLogScene) Render(view state.GameState, r *ui.Renderer) {
	r.CenterText(2, "Quest Log", ui.StyleTitle)
	y := 5
	if len(s.lines) == 0 {
		r.CenterText(y, "No quests yet.", ui.StyleDim)
	}
	for _, line := range s.lines {
		if y >= r.ViewHeight() {
			break
		}
		switch line.style {
		case lineTitle:
			r.DrawText(4, y, "◆ "+line.text, ui.StyleAccent)
		case lineDone:
			r.DrawText(4, y, "✓ "+line.text, ui.StyleDim)
		default:
			r.DrawText(4, y, line.text, ui.StyleNormal)
		}
		y++
	}
	r.DrawHUD(view, s.g.messages)
}

// lastN returns the trailing n entries of msgs.
func lastN(msgs []string, n int) []string {
	if len(msgs) <= n {
		return msgs
	}
	return msgs[len(msgs)-n:]
}
