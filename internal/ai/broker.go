package ai

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Narrator is what the broker needs from the AI client.
type Narrator interface {
	Narrate(ctx context.Context, prompt string) (string, error)
}

// Result is one finished narration request. Err is ctx.Canceled when
// the request was cancelled before completion.
type Result struct {
	ID   string
	Text string
	Err  error
}

// resultBuffer bounds how many undelivered results the broker holds.
const resultBuffer = 16

// Broker turns blocking narration calls into a request/poll handoff:
// scenes fire a request, keep rendering, and pick up the result on a
// later tick. A scene that exits cancels its outstanding requests so
// stale text never lands in a different scene.
type Broker struct {
	narrator Narrator
	results  chan Result
	log      zerolog.Logger

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

// NewBroker wraps a narrator. A nil narrator is allowed: requests then
// fail immediately with ErrDisabled-style results, which scenes treat
// as "use the canned fallback text".
func NewBroker(n Narrator, log zerolog.Logger) *Broker {
	return &Broker{
		narrator: n,
		results:  make(chan Result, resultBuffer),
		inflight: make(map[string]context.CancelFunc),
		log:      log.With().Str("component", "ai-broker").Logger(),
	}
}

// Enabled reports whether a narrator is configured.
func (b *Broker) Enabled() bool { return b.narrator != nil }

// Request starts a narration call identified by id. A second request
// with the same id while the first is in flight is ignored.
func (b *Broker) Request(id, prompt string) {
	if b.narrator == nil {
		return
	}
	b.mu.Lock()
	if _, dup := b.inflight[id]; dup {
		b.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	b.inflight[id] = cancel
	b.mu.Unlock()

	go func() {
		text, err := b.narrator.Narrate(ctx, prompt)
		b.mu.Lock()
		delete(b.inflight, id)
		b.mu.Unlock()
		cancel()

		select {
		case b.results <- Result{ID: id, Text: text, Err: err}:
		default:
			// The loop has stopped draining; drop rather than block.
			b.log.Warn().Str("id", id).Msg("dropping narration result")
		}
	}()
}

// Busy reports whether a request with this id is still in flight.
func (b *Broker) Busy(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.inflight[id]
	return ok
}

// Poll returns one finished result without blocking.
func (b *Broker) Poll() (Result, bool) {
	select {
	case r := <-b.results:
		return r, true
	default:
		return Result{}, false
	}
}

// Cancel aborts the in-flight request with this id, if any. The
// cancelled call still delivers a Result carrying the context error.
func (b *Broker) Cancel(id string) {
	b.mu.Lock()
	cancel, ok := b.inflight[id]
	b.mu.Unlock()
	if ok {
		cancel()
	}
}

// CancelAll aborts every in-flight request. Called on shutdown.
func (b *Broker) CancelAll() {
	b.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(b.inflight))
	for _, c := range b.inflight {
		cancels = append(cancels, c)
	}
	b.mu.Unlock()
	for _, c := range cancels {
		c()
	}
}
