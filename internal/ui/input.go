package ui

import "github.com/gdamore/tcell/v2"

// Action is a scene-level interpretation of one key press.
type Action uint8

const (
	ActionNone Action = iota
	ActionUp
	ActionDown
	ActionConfirm
	ActionCancel
	ActionBackspace
	ActionTick // no key this frame; the loop is just ticking
)

// Input is what the active scene receives each tick. Rune carries the
// raw printable key so text-entry scenes can read names and letters.
type Input struct {
	Action Action
	Rune   rune
}

// Tick is the input delivered on frames driven by the timer rather than
// a key press.
var Tick = Input{Action: ActionTick}

// KeyToInput maps a tcell key event to a scene input.
func KeyToInput(ev *tcell.EventKey) Input {
	switch ev.Key() {
	case tcell.KeyUp:
		return Input{Action: ActionUp}
	case tcell.KeyDown:
		return Input{Action: ActionDown}
	case tcell.KeyEnter:
		return Input{Action: ActionConfirm}
	case tcell.KeyEscape:
		return Input{Action: ActionCancel}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return Input{Action: ActionBackspace}
	}
	if r := ev.Rune(); r != 0 {
		switch r {
		case 'k', 'K':
			return Input{Action: ActionUp, Rune: r}
		case 'j', 'J':
			return Input{Action: ActionDown, Rune: r}
		case ' ':
			return Input{Action: ActionConfirm, Rune: r}
		}
		return Input{Rune: r}
	}
	return Input{}
}
