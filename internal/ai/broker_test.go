package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNarrator blocks until released, or until its context is done.
type fakeNarrator struct {
	release chan struct{}
	text    string
	err     error
}

func (f *fakeNarrator) Narrate(ctx context.Context, _ string) (string, error) {
	select {
	case <-f.release:
		return f.text, f.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func pollUntil(t *testing.T, b *Broker, timeout time.Duration) Result {
	t.Helper()
	deadline := time.After(timeout)
	for {
		if r, ok := b.Poll(); ok {
			return r
		}
		select {
		case <-deadline:
			t.Fatal("no result before deadline")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestBrokerDeliversOnLaterPoll(t *testing.T) {
	fake := &fakeNarrator{release: make(chan struct{}), text: "The mill wheel creaks."}
	b := NewBroker(fake, zerolog.Nop())

	b.Request("narrate:old-mill", "describe the old mill")

	_, ok := b.Poll()
	assert.False(t, ok, "nothing to deliver while the call runs")
	assert.True(t, b.Busy("narrate:old-mill"))

	close(fake.release)
	r := pollUntil(t, b, time.Second)
	assert.Equal(t, "narrate:old-mill", r.ID)
	assert.Equal(t, "The mill wheel creaks.", r.Text)
	require.NoError(t, r.Err)
	assert.False(t, b.Busy("narrate:old-mill"))
}

func TestBrokerCancelDeliversContextError(t *testing.T) {
	fake := &fakeNarrator{release: make(chan struct{})}
	b := NewBroker(fake, zerolog.Nop())

	b.Request("narrate:town", "describe the town")
	b.Cancel("narrate:town")

	r := pollUntil(t, b, time.Second)
	assert.Equal(t, "narrate:town", r.ID)
	assert.ErrorIs(t, r.Err, context.Canceled)
}

func TestBrokerDedupesInflightIDs(t *testing.T) {
	fake := &fakeNarrator{release: make(chan struct{}), text: "once"}
	b := NewBroker(fake, zerolog.Nop())

	b.Request("same", "p1")
	b.Request("same", "p2")
	close(fake.release)

	pollUntil(t, b, time.Second)
	// Give a hypothetical duplicate a moment to complete, then confirm
	// there is nothing more to deliver.
	time.Sleep(10 * time.Millisecond)
	_, ok := b.Poll()
	assert.False(t, ok)
}

func TestBrokerDisabled(t *testing.T) {
	b := NewBroker(nil, zerolog.Nop())
	assert.False(t, b.Enabled())

	b.Request("x", "prompt")
	_, ok := b.Poll()
	assert.False(t, ok, "disabled broker produces nothing")
}

func TestBrokerPropagatesNarratorError(t *testing.T) {
	wantErr := errors.New("model unavailable")
	fake := &fakeNarrator{release: make(chan struct{}), err: wantErr}
	b := NewBroker(fake, zerolog.Nop())

	b.Request("id", "prompt")
	close(fake.release)

	r := pollUntil(t, b, time.Second)
	assert.ErrorIs(t, r.Err, wantErr)
}

func TestCancelAll(t *testing.T) {
	fake := &fakeNarrator{release: make(chan struct{})}
	b := NewBroker(fake, zerolog.Nop())

	b.Request("a", "p")
	b.Request("b", "p")
	b.CancelAll()

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		r := pollUntil(t, b, time.Second)
		assert.ErrorIs(t, r.Err, context.Canceled)
		seen[r.ID] = true
	}
	assert.True(t, seen["a"] && seen["b"])
}
