// Package game owns the frame loop and the concrete scenes. Each frame
// runs in a fixed order: input, scene update, render, AI result
// delivery, pending save/load, then the tick-boundary scene transition.
// GameState is owned here; nothing outside this loop mutates it.
package game

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"storyloom/assets"
	"storyloom/internal/ai"
	"storyloom/internal/config"
	"storyloom/internal/document"
	"storyloom/internal/save"
	"storyloom/internal/scene"
	"storyloom/internal/state"
	"storyloom/internal/template"
	"storyloom/internal/ui"
)

// Scene identifiers. The set is fixed at startup.
const (
	SceneMainMenu scene.ID = "mainmenu"
	SceneNewGame  scene.ID = "newgame"
	SceneLoadMenu scene.ID = "loadmenu"
	SceneGameplay scene.ID = "gameplay"
	SceneDialogue scene.ID = "dialogue"
	SceneEvent    scene.ID = "event"
	SceneQuestLog scene.ID = "questlog"
	ScenePause    scene.ID = "pause"
)

// framePeriod drives idle ticks so async AI results get delivered even
// when the player is not typing.
const framePeriod = 100 * time.Millisecond

// startingQuest is seeded into every new game.
const startingQuest = "gather-materials"

// narrationReceiver is implemented by scenes that consume async story
// text. Results are only ever handed to the active scene; anything
// addressed to a scene that has since exited is discarded.
type narrationReceiver interface {
	deliverNarration(res ai.Result)
}

// Game is the top-level orchestrator.
type Game struct {
	screen    tcell.Screen
	r         *ui.Renderer
	cfg       *config.Config
	log       zerolog.Logger
	scenes    *scene.Manager
	store     *save.Store
	docs      *document.Store
	templates *template.Manager
	broker    *ai.Broker
	rng       *rand.Rand

	st         state.GameState
	hasSession bool
	messages   []string

	pendingSaveSlot string
	pendingLoadSlot string
}

// DataDir resolves the base data directory: the configured override, or
// $XDG_DATA_HOME/storyloom, defaulting to ~/.local/share/storyloom.
func DataDir(cfg *config.Config) (string, error) {
	if cfg.DataDir != "" {
		return cfg.DataDir, nil
	}
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "storyloom"), nil
}

// New wires the game together on an initialized screen. narrator may be
// nil, which disables AI narration in favor of template text. The main
// menu is active when New returns.
func New(screen tcell.Screen, cfg *config.Config, narrator ai.Narrator, log zerolog.Logger) (*Game, error) {
	base, err := DataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	store, err := save.NewStore(filepath.Join(base, "saves"), log)
	if err != nil {
		return nil, err
	}
	docs, err := document.NewStore(filepath.Join(base, "docs"), log)
	if err != nil {
		return nil, err
	}
	templates, err := template.NewManager(filepath.Join(base, "templates"), assets.DefaultTemplates(), log)
	if err != nil {
		return nil, err
	}

	g := &Game{
		screen:    screen,
		r:         ui.NewRenderer(screen),
		cfg:       cfg,
		log:       log.With().Str("component", "game").Logger(),
		scenes:    scene.NewManager(log),
		store:     store,
		docs:      docs,
		templates: templates,
		broker:    ai.NewBroker(narrator, log),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for id, s := range map[scene.ID]scene.Scene{
		SceneMainMenu: &mainMenuScene{g: g},
		SceneNewGame:  &newGameScene{g: g},
		SceneLoadMenu: &loadMenuScene{g: g},
		SceneGameplay: &gameplayScene{g: g},
		SceneDialogue: &dialogueScene{g: g},
		SceneEvent:    &eventScene{g: g},
		SceneQuestLog: &questLogScene{g: g},
		ScenePause:    &pauseScene{g: g},
	} {
		if err := g.scenes.Register(id, s); err != nil {
			return nil, err
		}
	}
	if err := g.scenes.Start(&g.st, SceneMainMenu, nil); err != nil {
		return nil, err
	}
	return g, nil
}

// Run drives the frame loop until the quit pseudo-scene is reached or
// the screen closes. Pending saves are flushed before returning.
func (g *Game) Run() error {
	eventCh := make(chan tcell.Event, 32)
	go func() {
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				close(eventCh)
				return
			}
			eventCh <- ev
		}
	}()

	ticker := time.NewTicker(framePeriod)
	defer ticker.Stop()
	defer g.broker.CancelAll()

	for !g.scenes.Quitting() {
		var in ui.Input
		select {
		case ev, ok := <-eventCh:
			if !ok {
				g.flushPendingSave()
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				g.screen.Sync()
				continue
			case *tcell.EventKey:
				in = ui.KeyToInput(ev)
			default:
				continue
			}
		case <-ticker.C:
			in = ui.Tick
		}
		g.tick(in)
	}
	g.flushPendingSave()
	return nil
}

// tick runs one frame in the fixed order. The active scene never
// changes until the final step, so update and render observe the same
// scene.
func (g *Game) tick(in ui.Input) {
	g.scenes.Update(&g.st, in)

	view := g.st.Snapshot()
	g.r.Clear()
	g.scenes.Render(view, g.r)
	g.r.Show()

	g.deliverNarration()
	g.applyPendingSaveLoad()

	if err := g.scenes.EndTick(&g.st); err != nil {
		g.log.Error().Err(err).Msg("scene transition failed")
		g.addMessage("Something blocks the way.")
	}
}

// deliverNarration hands finished AI results to the active scene.
func (g *Game) deliverNarration() {
	for {
		res, ok := g.broker.Poll()
		if !ok {
			return
		}
		if recv, ok := g.scenes.ActiveScene().(narrationReceiver); ok {
			recv.deliverNarration(res)
		} else {
			g.log.Debug().Str("id", res.ID).Msg("discarding narration for inactive scene")
		}
	}
}

// applyPendingSaveLoad performs at most one save and one load request.
// Requests are queued by scenes during Update and applied here so
// persistence never interleaves with a scene's own work.
func (g *Game) applyPendingSaveLoad() {
	if slot := g.pendingSaveSlot; slot != "" {
		g.pendingSaveSlot = ""
		if err := g.store.Save(g.st, slot); err != nil {
			g.log.Error().Err(err).Str("slot", slot).Msg("save failed")
			g.addMessage(fmt.Sprintf("Save to %q failed.", slot))
		} else {
			g.addMessage(fmt.Sprintf("Game saved to %q.", slot))
		}
	}

	if slot := g.pendingLoadSlot; slot != "" {
		g.pendingLoadSlot = ""
		g.loadSlot(slot)
	}
}

// loadSlot restores a session from the slot. Failures keep the current
// scene and state intact, with a message rather than a crash.
func (g *Game) loadSlot(slot string) {
	s, err := g.store.Load(slot)
	if err != nil {
		g.log.Error().Err(err).Str("slot", slot).Msg("load failed")
		switch {
		case errors.Is(err, save.ErrNotFound):
			g.addMessage("That slot is empty.")
		case errors.Is(err, save.ErrCorrupt):
			g.addMessage("That save is damaged and cannot be loaded.")
		default:
			g.addMessage("Loading failed.")
		}
		return
	}

	target := scene.ID(s.Scene)
	if !g.scenes.Registered(target) {
		g.log.Error().Str("slot", slot).Str("scene", s.Scene).Msg("save names unknown scene")
		g.addMessage("That save is damaged and cannot be loaded.")
		return
	}

	g.st = s
	g.hasSession = true
	if err := g.scenes.Start(&g.st, target, nil); err != nil {
		g.addMessage("Loading failed.")
		return
	}
	g.addMessage(fmt.Sprintf("Loaded %q. Welcome back, %s.", slot, s.Player.Name))
}

// beginSession starts a new game for the named character and seeds the
// starting quest.
func (g *Game) beginSession(name string) {
	g.st = state.New(name)
	g.hasSession = true
	g.messages = nil

	q, err := g.templates.GenerateQuest(startingQuest)
	if err != nil {
		g.log.Error().Err(err).Msg("seeding starting quest failed")
		return
	}
	if err := g.docs.SaveQuest(q); err != nil {
		g.log.Error().Err(err).Msg("persisting starting quest failed")
		return
	}
	g.applyMutation(state.AcceptQuest{QuestID: q.QuestID})
	g.addMessage(fmt.Sprintf("New quest: %s", q.Title))
}

// applyMutation applies one mutation to the owned state. Validation
// failures reject the mutation, keep prior state, and surface a
// message.
func (g *Game) applyMutation(m state.Mutation) bool {
	next, err := g.st.Apply(m)
	if err != nil {
		g.log.Warn().Err(err).Msg("mutation rejected")
		g.addMessage("That doesn't work.")
		return false
	}
	g.st = next
	return true
}

// syncQuests reconciles every active quest's item objectives against
// the inventory. A quest whose objectives are all met completes: the
// collected items are handed over and the reward granted.
func (g *Game) syncQuests() {
	for _, id := range append([]string(nil), g.st.Player.ActiveQuests...) {
		q, err := g.docs.Quest(id)
		if err != nil {
			g.log.Warn().Err(err).Str("quest", id).Msg("quest document missing")
			continue
		}
		changed := false
		for _, o := range q.Objectives {
			if o.Item == "" {
				continue
			}
			have := min(g.st.Player.Inventory[o.Item], o.Required)
			if have == o.Progress {
				continue
			}
			q, err = g.templates.UpdateQuestProgress(q, o.Description, have)
			if err != nil {
				g.log.Error().Err(err).Str("quest", id).Msg("updating quest progress failed")
				continue
			}
			changed = true
		}
		if !changed {
			continue
		}
		if q.Status == template.QuestCompleted {
			g.completeQuest(q)
		}
		if err := g.docs.SaveQuest(q); err != nil {
			g.log.Error().Err(err).Str("quest", id).Msg("persisting quest failed")
		}
	}
}

// completeQuest hands over the gathered items and grants the reward.
func (g *Game) completeQuest(q template.QuestInstance) {
	for _, o := range q.Objectives {
		if o.Item != "" {
			g.applyMutation(state.RemoveItem{Item: o.Item, Count: o.Required})
		}
	}
	g.applyMutation(state.CompleteQuest{QuestID: q.QuestID})
	if q.Reward.XP > 0 {
		g.applyMutation(state.AddExperience{Points: q.Reward.XP})
	}
	for _, item := range q.Reward.Items {
		g.applyMutation(state.AddItem{Item: item, Count: 1})
	}
	g.addMessage(fmt.Sprintf("Quest complete: %s", q.Title))
}

// requestSave queues a save for the end of the current frame.
func (g *Game) requestSave(slot string) {
	g.pendingSaveSlot = slot
}

// requestLoad queues a load for the end of the current frame.
func (g *Game) requestLoad(slot string) {
	g.pendingLoadSlot = slot
}

// flushPendingSave completes a queued save before shutdown so quitting
// never abandons a requested write.
func (g *Game) flushPendingSave() {
	if slot := g.pendingSaveSlot; slot != "" {
		g.pendingSaveSlot = ""
		if err := g.store.Save(g.st, slot); err != nil {
			g.log.Error().Err(err).Str("slot", slot).Msg("final save failed")
		}
	}
}

func (g *Game) addMessage(msg string) {
	g.messages = append(g.messages, msg)
	if len(g.messages) > 50 {
		g.messages = g.messages[len(g.messages)-50:]
	}
}

// location returns the player's current location definition, falling
// back to the starting location for unknown ids in old saves.
func (g *Game) location() assets.LocationDef {
	if def, ok := assets.Locations[g.st.Player.Location]; ok {
		return def
	}
	return assets.Locations[state.StartingLocation]
}
