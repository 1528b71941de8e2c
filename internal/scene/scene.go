// Package scene implements the finite-state machine over the game's
// registered scenes. Transitions requested during a tick are applied
// only at the tick boundary, so every update and render within one tick
// observes the same active scene.
package scene

import (
	"errors"

	"storyloom/internal/state"
	"storyloom/internal/ui"
)

// ID names a registered scene.
type ID string

// Quit is the terminal pseudo-scene. Requesting it stops the frame loop
// instead of activating a scene.
const Quit ID = "quit"

// Request asks for a transition to another scene at the end of the
// current tick. Payload is handed to the target scene's Enter hook.
type Request struct {
	Target  ID
	Payload any
}

// Scene is one interactive mode of the game. Scenes keep no state of
// their own between activations beyond what lives in GameState; Enter
// resets any per-activation working data.
type Scene interface {
	// Enter is called when the scene becomes active. payload carries
	// optional data from the transition request.
	Enter(st *state.GameState, payload any)
	// Exit is called when the scene stops being active.
	Exit(st *state.GameState)
	// Update advances the scene one tick and may request a transition.
	Update(st *state.GameState, in ui.Input) *Request
	// Render draws the scene from a read-only snapshot. The snapshot
	// must not be retained across frames.
	Render(view state.GameState, r *ui.Renderer)
}

// ErrUnknownScene is returned when a transition names an unregistered
// target. The current scene stays active.
var ErrUnknownScene = errors.New("unknown scene")
