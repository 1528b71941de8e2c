// Package ui renders scenes onto a tcell screen. It owns no game state:
// every draw call receives a read-only snapshot and must not retain it.
package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"storyloom/internal/state"
)

// hudRows is the number of rows reserved at the bottom of the screen
// for the status line and message log.
const hudRows = 5

// Shared styles.
var (
	StyleNormal    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	StyleDim       = tcell.StyleDefault.Foreground(tcell.ColorGray)
	StyleTitle     = tcell.StyleDefault.Foreground(tcell.NewRGBColor(180, 100, 255)).Bold(true)
	StyleHighlight = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.NewRGBColor(180, 100, 255))
	StyleAccent    = tcell.StyleDefault.Foreground(tcell.NewRGBColor(150, 220, 255))
	StyleMessage   = tcell.StyleDefault.Foreground(tcell.ColorLightYellow)
	StyleWarn      = tcell.StyleDefault.Foreground(tcell.ColorOrange)
)

// Renderer draws widgets onto a tcell screen.
type Renderer struct {
	screen tcell.Screen
}

// NewRenderer wraps an initialized screen.
func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{screen: screen}
}

// Size returns the screen dimensions.
func (r *Renderer) Size() (int, int) { return r.screen.Size() }

// ViewHeight returns the rows available above the HUD.
func (r *Renderer) ViewHeight() int {
	_, h := r.screen.Size()
	return h - hudRows
}

// Clear erases the screen.
func (r *Renderer) Clear() { r.screen.Clear() }

// Show flushes the frame to the terminal.
func (r *Renderer) Show() { r.screen.Show() }

// DrawText writes text starting at (x, y), advancing by display width so
// wide runes stay aligned.
func (r *Renderer) DrawText(x, y int, text string, style tcell.Style) {
	col := x
	for _, ch := range text {
		r.screen.SetContent(col, y, ch, nil, style)
		col += runewidth.RuneWidth(ch)
	}
}

// CenterText writes text horizontally centered on row y.
func (r *Renderer) CenterText(y int, text string, style tcell.Style) {
	w, _ := r.screen.Size()
	x := (w - runewidth.StringWidth(text)) / 2
	if x < 0 {
		x = 0
	}
	r.DrawText(x, y, text, style)
}

// DrawMenu renders a vertical menu with the selected item highlighted.
// Returns the row after the last item.
func (r *Renderer) DrawMenu(y int, items []string, selected int) int {
	for i, item := range items {
		style := StyleNormal
		if i == selected {
			style = StyleHighlight
			item = "▸ " + item + " "
		} else {
			item = "  " + item
		}
		r.CenterText(y+i, item, style)
	}
	return y + len(items)
}

// DrawParagraph word-wraps text into the given width starting at (x, y)
// and returns the row after the last line drawn. Drawing stops at maxY.
func (r *Renderer) DrawParagraph(x, y, width, maxY int, text string, style tcell.Style) int {
	for _, line := range WrapText(text, width) {
		if y >= maxY {
			break
		}
		r.DrawText(x, y, line, style)
		y++
	}
	return y
}

// DrawHLine draws a horizontal separator across the full width of row y.
func (r *Renderer) DrawHLine(y int, color tcell.Color) {
	w, _ := r.screen.Size()
	style := tcell.StyleDefault.Foreground(color)
	for x := 0; x < w; x++ {
		r.screen.SetContent(x, y, '─', nil, style)
	}
}

// DrawHUD renders the status bar and the last few messages at the
// bottom of the screen.
func (r *Renderer) DrawHUD(view state.GameState, messages []string) {
	_, h := r.screen.Size()
	hudY := h - hudRows

	r.DrawHLine(hudY, tcell.ColorGray)

	status := fmt.Sprintf("[%s]  HP: %d/%d  Lv %d (%d xp)  %s",
		view.Player.Name, view.Player.Health, view.Player.MaxHealth,
		view.Player.Level, view.Player.Experience, view.Player.Location)
	if n := len(view.Player.ActiveQuests); n > 0 {
		status += fmt.Sprintf("  Quests: %d", n)
	}
	r.DrawText(0, hudY+1, status, StyleNormal)

	start := len(messages) - 3
	if start < 0 {
		start = 0
	}
	for i, msg := range messages[start:] {
		r.DrawText(0, hudY+2+i, msg, StyleMessage)
	}
}
