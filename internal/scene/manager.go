package scene

import (
	"fmt"

	"github.com/rs/zerolog"

	"storyloom/internal/state"
	"storyloom/internal/ui"
)

// Manager selects the active scene and mediates transitions. Scenes are
// registered once at startup; the registry never changes afterwards.
type Manager struct {
	scenes  map[ID]Scene
	active  ID
	pending *Request
	quit    bool
	log     zerolog.Logger
}

// NewManager returns an empty Manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		scenes: make(map[ID]Scene),
		log:    log.With().Str("component", "scene").Logger(),
	}
}

// Register adds a scene under the given identifier. Registering the
// quit pseudo-scene or a duplicate identifier is a programming error.
func (m *Manager) Register(id ID, s Scene) error {
	if id == Quit {
		return fmt.Errorf("%q is a reserved pseudo-scene", Quit)
	}
	if _, dup := m.scenes[id]; dup {
		return fmt.Errorf("scene %q already registered", id)
	}
	m.scenes[id] = s
	return nil
}

// Registered reports whether id names a registered scene.
func (m *Manager) Registered(id ID) bool {
	_, ok := m.scenes[id]
	return ok
}

// Start activates the given scene immediately, outside the normal
// tick-boundary flow. It is used for the initial scene and when a
// loaded save dictates the active scene. The previous scene, if any,
// gets its Exit hook.
func (m *Manager) Start(st *state.GameState, id ID, payload any) error {
	target, ok := m.scenes[id]
	if !ok {
		return fmt.Errorf("start %q: %w", id, ErrUnknownScene)
	}
	if cur, ok := m.scenes[m.active]; ok {
		cur.Exit(st)
	}
	m.active = id
	m.pending = nil
	st.Scene = string(id)
	target.Enter(st, payload)
	m.log.Debug().Str("scene", string(id)).Msg("scene started")
	return nil
}

// Active returns the active scene identifier.
func (m *Manager) Active() ID { return m.active }

// ActiveScene returns the active scene itself, or nil before Start.
func (m *Manager) ActiveScene() Scene { return m.scenes[m.active] }

// Quitting reports whether the quit pseudo-scene has been reached.
func (m *Manager) Quitting() bool { return m.quit }

// Update ticks the active scene. A transition request emitted by the
// scene is captured for EndTick; the active scene does not change here.
func (m *Manager) Update(st *state.GameState, in ui.Input) {
	s, ok := m.scenes[m.active]
	if !ok {
		return
	}
	if req := s.Update(st, in); req != nil {
		m.pending = req
	}
}

// Render draws the active scene from the snapshot.
func (m *Manager) Render(view state.GameState, r *ui.Renderer) {
	if s, ok := m.scenes[m.active]; ok {
		s.Render(view, r)
	}
}

// EndTick applies the pending transition, if any. Unknown targets are
// rejected with ErrUnknownScene and the current scene stays active.
// Requesting Quit runs the current scene's Exit hook and marks the
// machine terminal.
func (m *Manager) EndTick(st *state.GameState) error {
	if m.pending == nil {
		return nil
	}
	req := *m.pending
	m.pending = nil

	cur := m.scenes[m.active]

	if req.Target == Quit {
		if cur != nil {
			cur.Exit(st)
		}
		m.quit = true
		m.log.Info().Msg("quit requested")
		return nil
	}

	target, ok := m.scenes[req.Target]
	if !ok {
		m.log.Warn().Str("target", string(req.Target)).Msg("transition rejected")
		return fmt.Errorf("transition to %q: %w", req.Target, ErrUnknownScene)
	}

	if cur != nil {
		cur.Exit(st)
	}
	from := m.active
	m.active = req.Target
	st.Scene = string(req.Target)
	target.Enter(st, req.Payload)
	m.log.Debug().Str("from", string(from)).Str("to", string(req.Target)).Msg("scene transition")
	return nil
}
