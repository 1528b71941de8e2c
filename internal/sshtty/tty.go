// Package sshtty adapts a gliderlabs/ssh session into a tcell.Tty so a
// remote terminal can host a full-screen game session.
package sshtty

import (
	"sync"

	"github.com/gdamore/tcell/v2"
	gossh "github.com/gliderlabs/ssh"
)

// Tty bridges one SSH session to tcell. Reads come from the client's
// keyboard, writes go to the client's terminal, and window-change
// requests flow into tcell's resize callback.
type Tty struct {
	session gossh.Session

	mu     sync.Mutex
	window gossh.Window
	winCh  <-chan gossh.Window
	resize func()
	done   chan struct{}
}

// New wraps an SSH session. pty carries the initial window size and
// winCh delivers later resizes.
func New(s gossh.Session, pty gossh.Pty, winCh <-chan gossh.Window) *Tty {
	return &Tty{
		session: s,
		window:  pty.Window,
		winCh:   winCh,
		done:    make(chan struct{}),
	}
}

func (t *Tty) Read(b []byte) (int, error)  { return t.session.Read(b) }
func (t *Tty) Write(b []byte) (int, error) { return t.session.Write(b) }

// Close closes the SSH channel and stops the resize forwarder.
func (t *Tty) Close() error {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
	return t.session.Close()
}

// Start, Stop, and Drain are no-ops: the SSH channel is already open,
// is owned by the server handler, and flushes writes as they happen.
func (t *Tty) Start() error { return nil }
func (t *Tty) Stop() error  { return nil }
func (t *Tty) Drain() error { return nil }

// WindowSize reports the client terminal's current dimensions.
func (t *Tty) WindowSize() (tcell.WindowSize, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return tcell.WindowSize{Width: t.window.Width, Height: t.window.Height}, nil
}

// NotifyResize registers tcell's resize callback and starts forwarding
// window-change events to it until the tty closes.
func (t *Tty) NotifyResize(cb func()) {
	t.mu.Lock()
	t.resize = cb
	t.mu.Unlock()

	go func() {
		for {
			select {
			case <-t.done:
				return
			case win, ok := <-t.winCh:
				if !ok {
					return
				}
				t.mu.Lock()
				t.window = win
				cb := t.resize
				t.mu.Unlock()
				if cb != nil {
					cb()
				}
			}
		}
	}()
}
