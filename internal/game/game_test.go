package game

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyloom/internal/config"
	"storyloom/internal/save"
	"storyloom/internal/state"
	"storyloom/internal/template"
	"storyloom/internal/ui"
)

func newTestGame(t *testing.T, narrator narratorFunc) *Game {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)

	cfg := &config.Config{
		DataDir:      t.TempDir(),
		AutosaveSlot: "autosave",
	}
	var g *Game
	var err error
	if narrator == nil {
		g, err = New(screen, cfg, nil, zerolog.Nop())
	} else {
		g, err = New(screen, cfg, narrator, zerolog.Nop())
	}
	require.NoError(t, err)
	return g
}

type narratorFunc func(ctx context.Context, prompt string) (string, error)

func (f narratorFunc) Narrate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func press(g *Game, a ui.Action) { g.tick(ui.Input{Action: a}) }

func typeString(g *Game, s string) {
	for _, r := range s {
		g.tick(ui.Input{Rune: r})
	}
}

// startSession drives the UI from the main menu through name entry into
// gameplay.
func startSession(t *testing.T, g *Game, name string) {
	t.Helper()
	require.Equal(t, SceneMainMenu, g.scenes.Active())
	press(g, ui.ActionConfirm) // New Game is the first entry without a session
	require.Equal(t, SceneNewGame, g.scenes.Active())
	typeString(g, name)
	press(g, ui.ActionConfirm)
	require.Equal(t, SceneGameplay, g.scenes.Active())
}

func TestNewGameSeedsSession(t *testing.T) {
	g := newTestGame(t, nil)
	startSession(t, g, "Ada")

	assert.Equal(t, "Ada", g.st.Player.Name)
	assert.Equal(t, state.StartingLocation, g.st.Player.Location)
	require.Len(t, g.st.Player.ActiveQuests, 1)

	q, err := g.docs.Quest(g.st.Player.ActiveQuests[0])
	require.NoError(t, err)
	assert.Equal(t, startingQuest, q.TemplateID)

	// Arriving at the crossroads puts its event in play and spawns the
	// merchant.
	assert.NotEmpty(t, g.st.EventsAt(state.StartingLocation))
	npcs, err := g.docs.ActiveNPCs(state.StartingLocation)
	require.NoError(t, err)
	require.Len(t, npcs, 1)
	assert.Equal(t, "wandering-merchant", npcs[0].TemplateID)
}

func TestSaveAndLoadThroughPause(t *testing.T) {
	g := newTestGame(t, nil)
	startSession(t, g, "Brin")

	press(g, ui.ActionCancel) // pause
	require.Equal(t, ScenePause, g.scenes.Active())
	press(g, ui.ActionDown) // Save to slot-1
	press(g, ui.ActionConfirm)

	s, err := g.store.Load("slot-1")
	require.NoError(t, err)
	assert.Equal(t, "Brin", s.Player.Name)
	assert.Equal(t, string(ScenePause), s.Scene)

	// Back to the main menu (autosaves), then load the slot.
	for i := 0; i < 3; i++ {
		press(g, ui.ActionDown)
	}
	press(g, ui.ActionConfirm)
	require.Equal(t, SceneMainMenu, g.scenes.Active())
	_, err = g.store.Load("autosave")
	require.NoError(t, err)

	g.st = state.GameState{}
	g.hasSession = false
	g.requestLoad("slot-1")
	g.tick(ui.Tick)
	assert.Equal(t, ScenePause, g.scenes.Active())
	assert.Equal(t, "Brin", g.st.Player.Name)
	assert.True(t, g.hasSession)
}

func TestLoadFailureKeepsCurrentScene(t *testing.T) {
	g := newTestGame(t, nil)

	dir, err := DataDir(g.cfg)
	require.NoError(t, err)
	bad := filepath.Join(dir, "saves", "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o644))

	g.requestLoad("bad")
	g.tick(ui.Tick)
	assert.Equal(t, SceneMainMenu, g.scenes.Active())
	assert.False(t, g.hasSession)
	require.NotEmpty(t, g.messages)
	assert.Contains(t, g.messages[len(g.messages)-1], "damaged")

	g.requestLoad("missing")
	g.tick(ui.Tick)
	assert.Equal(t, SceneMainMenu, g.scenes.Active())
	assert.Contains(t, g.messages[len(g.messages)-1], "empty")
}

func TestLoadWithUnknownSceneRejected(t *testing.T) {
	g := newTestGame(t, nil)
	s := state.New("Cole")
	s.Scene = "somewhere-else"
	require.NoError(t, g.store.Save(s, "odd"))

	g.requestLoad("odd")
	g.tick(ui.Tick)
	assert.Equal(t, SceneMainMenu, g.scenes.Active())
	assert.False(t, g.hasSession)
	assert.Contains(t, g.messages[len(g.messages)-1], "damaged")
}

func TestQuitFromPauseAutosaves(t *testing.T) {
	g := newTestGame(t, nil)
	startSession(t, g, "Dara")

	press(g, ui.ActionCancel) // pause
	// Quit is the last entry.
	for i := 0; i < 5; i++ {
		press(g, ui.ActionDown)
	}
	press(g, ui.ActionConfirm)
	assert.True(t, g.scenes.Quitting())

	g.flushPendingSave()
	s, err := g.store.Load("autosave")
	require.NoError(t, err)
	assert.Equal(t, "Dara", s.Player.Name)
}

func TestNarrationDeliveredToGameplay(t *testing.T) {
	g := newTestGame(t, narratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "The signpost creaks in the wind.", nil
	}))
	startSession(t, g, "Eli")

	gp, ok := g.scenes.ActiveScene().(*gameplayScene)
	require.True(t, ok)

	deadline := time.After(2 * time.Second)
	for gp.requestID != "" {
		select {
		case <-deadline:
			t.Fatal("narration never arrived")
		default:
			g.tick(ui.Tick)
		}
	}
	assert.Equal(t, "The signpost creaks in the wind.", gp.narration)

	story, err := g.docs.CurrentStory()
	require.NoError(t, err)
	assert.Equal(t, "The signpost creaks in the wind.", story.Text)
}

func TestStaleNarrationDiscardedAfterSceneExit(t *testing.T) {
	block := make(chan struct{})
	returned := make(chan struct{})
	// The narrator ignores cancellation so a real text result comes back
	// after the requesting scene is gone.
	g := newTestGame(t, narratorFunc(func(_ context.Context, prompt string) (string, error) {
		defer close(returned)
		<-block
		return "stale arrival prose", nil
	}))
	startSession(t, g, "Juno")

	gp, ok := g.scenes.ActiveScene().(*gameplayScene)
	require.True(t, ok)
	require.NotEmpty(t, gp.requestID)
	authored := gp.narration

	// Pausing exits gameplay, which cancels its outstanding request.
	press(g, ui.ActionCancel)
	require.Equal(t, ScenePause, g.scenes.Active())

	close(block)
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("narrator never returned")
	}

	// Drain whatever the broker delivers; the pause scene is active, so
	// the result must go nowhere.
	for i := 0; i < 10; i++ {
		g.tick(ui.Tick)
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, ScenePause, g.scenes.Active())
	assert.Equal(t, authored, gp.narration)
	assert.NotEqual(t, "stale arrival prose", gp.narration)
}

func TestRejectedMutationKeepsState(t *testing.T) {
	g := newTestGame(t, nil)
	startSession(t, g, "Fen")

	before := g.st.Snapshot()
	ok := g.applyMutation(state.SetLocation{Location: ""})
	assert.False(t, ok)
	assert.Equal(t, before.Player, g.st.Player)
	assert.Contains(t, g.messages[len(g.messages)-1], "doesn't work")
}

func TestResolveEventThroughScene(t *testing.T) {
	g := newTestGame(t, nil)
	startSession(t, g, "Goss")

	events := g.st.EventsAt(state.StartingLocation)
	require.NotEmpty(t, events)

	gp := g.scenes.ActiveScene().(*gameplayScene)
	for i, e := range gp.entries {
		if e.kind == entryEvent {
			gp.selected = i
			break
		}
	}
	press(g, ui.ActionConfirm)
	require.Equal(t, SceneEvent, g.scenes.Active())

	press(g, ui.ActionConfirm) // first choice
	require.Equal(t, SceneGameplay, g.scenes.Active())
	assert.Empty(t, g.st.EventsAt(state.StartingLocation))

	// Leaving and coming back must not replay the event.
	gp = g.scenes.ActiveScene().(*gameplayScene)
	for i, e := range gp.entries {
		if e.kind == entryTravel {
			gp.selected = i
			break
		}
	}
	press(g, ui.ActionConfirm)
	require.Equal(t, SceneGameplay, g.scenes.Active())
	assert.NotEqual(t, state.StartingLocation, g.st.Player.Location)
	for i, e := range g.scenes.ActiveScene().(*gameplayScene).entries {
		if e.kind == entryTravel && e.dest == state.StartingLocation {
			g.scenes.ActiveScene().(*gameplayScene).selected = i
			break
		}
	}
	press(g, ui.ActionConfirm)
	assert.Equal(t, state.StartingLocation, g.st.Player.Location)
	assert.Empty(t, g.st.EventsAt(state.StartingLocation))
}

// selectEntry picks the first matching location-screen entry and
// confirms it.
func selectEntry(t *testing.T, g *Game, match func(gameplayEntry) bool) {
	t.Helper()
	gp, ok := g.scenes.ActiveScene().(*gameplayScene)
	require.True(t, ok)
	for i, e := range gp.entries {
		if match(e) {
			gp.selected = i
			press(g, ui.ActionConfirm)
			return
		}
	}
	t.Fatal("no matching entry on the location screen")
}

func travelTo(t *testing.T, g *Game, dest string) {
	t.Helper()
	selectEntry(t, g, func(e gameplayEntry) bool {
		return e.kind == entryTravel && e.dest == dest
	})
	require.Equal(t, dest, g.st.Player.Location)
}

func TestQuestCompletesThroughEventChoices(t *testing.T) {
	g := newTestGame(t, nil)
	startSession(t, g, "Kira")
	questID := g.st.Player.ActiveQuests[0]

	// The mill event's second choice yields the rope the quest needs.
	travelTo(t, g, "old-mill")
	selectEntry(t, g, func(e gameplayEntry) bool { return e.kind == entryEvent })
	require.Equal(t, SceneEvent, g.scenes.Active())
	g.scenes.ActiveScene().(*eventScene).selected = 1
	press(g, ui.ActionConfirm)

	assert.Equal(t, 2, g.st.Player.Inventory["rope"])
	q, err := g.docs.Quest(questID)
	require.NoError(t, err)
	assert.Equal(t, 2, q.Objectives[0].Progress)
	assert.Equal(t, template.QuestActive, q.Status)

	// The barrow event's second choice yields the salt; that meets every
	// objective, so the quest turns in and pays out.
	travelTo(t, g, "crossroads")
	travelTo(t, g, "barrow-downs")
	selectEntry(t, g, func(e gameplayEntry) bool { return e.kind == entryEvent })
	require.Equal(t, SceneEvent, g.scenes.Active())
	g.scenes.ActiveScene().(*eventScene).selected = 1
	press(g, ui.ActionConfirm)

	assert.Empty(t, g.st.Player.ActiveQuests)
	assert.Equal(t, []string{questID}, g.st.Player.CompletedQuests)
	assert.NotContains(t, g.st.Player.Inventory, "rope", "gathered goods are handed over")
	assert.NotContains(t, g.st.Player.Inventory, "salt")
	assert.Equal(t, 1, g.st.Player.Inventory["lantern"])
	assert.Equal(t, 60, g.st.Player.Experience)

	q, err = g.docs.Quest(questID)
	require.NoError(t, err)
	assert.Equal(t, template.QuestCompleted, q.Status)
	assert.Contains(t, g.messages, "Quest complete: Stock the Stall")
}

func TestEventChoiceRetiresNPC(t *testing.T) {
	g := newTestGame(t, nil)
	startSession(t, g, "Lor")

	travelTo(t, g, "old-mill")
	npcs, err := g.docs.ActiveNPCs("old-mill")
	require.NoError(t, err)
	require.Len(t, npcs, 1)

	selectEntry(t, g, func(e gameplayEntry) bool { return e.kind == entryEvent })
	require.Equal(t, SceneEvent, g.scenes.Active())
	press(g, ui.ActionConfirm) // first choice lays the miller to rest

	npcs, err = g.docs.ActiveNPCs("old-mill")
	require.NoError(t, err)
	assert.Empty(t, npcs, "the miller moves from active into history")
	assert.Contains(t, g.messages, "The Miller is at rest.")
}

func TestDialogueRecordsInteraction(t *testing.T) {
	g := newTestGame(t, nil)
	startSession(t, g, "Hale")

	gp := g.scenes.ActiveScene().(*gameplayScene)
	require.Equal(t, entryTalk, gp.entries[0].kind)
	npcID := gp.entries[0].npcID
	press(g, ui.ActionConfirm)
	require.Equal(t, SceneDialogue, g.scenes.Active())

	dlg := g.scenes.ActiveScene().(*dialogueScene)
	assert.Contains(t, dlg.greeting, "Hale")

	press(g, ui.ActionCancel)
	require.Equal(t, SceneGameplay, g.scenes.Active())

	n, err := g.docs.NPC(npcID)
	require.NoError(t, err)
	require.Len(t, n.Interactions, 1)
	assert.Contains(t, n.Interactions[0].Note, "Hale")
}

func TestLoadMenuListsCommittedSaves(t *testing.T) {
	g := newTestGame(t, nil)
	startSession(t, g, "Iris")
	press(g, ui.ActionCancel) // pause
	press(g, ui.ActionDown)
	press(g, ui.ActionConfirm) // save to slot-1

	infos, err := g.store.List()
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "slot-1", infos[0].Slot)
	assert.Equal(t, "Iris", infos[0].PlayerName)

	_, err = g.store.Load("nope")
	require.ErrorIs(t, err, save.ErrNotFound)
}
