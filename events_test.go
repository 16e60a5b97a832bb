package lazy_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lazy "github.com/probablyarth/lazy-go"
)

type recorder struct {
	mu     sync.Mutex
	events []lazy.EventData
}

func (r *recorder) On(eventData lazy.EventData) {
	r.mu.Lock()
	r.events = append(r.events, eventData)
	r.mu.Unlock()
}

func (r *recorder) kinds() []lazy.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]lazy.Event, len(r.events))
	for i, e := range r.events {
		out[i] = e.Event
	}
	return out
}

func (r *recorder) count(event lazy.Event) int {
	n := 0
	for _, k := range r.kinds() {
		if k == event {
			n++
		}
	}
	return n
}

func TestEventsNoneLifecycle(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	c, err := lazy.New(lazy.FromFunc(func() string { return "v" }),
		lazy.WithMode(lazy.ModeNone), lazy.WithObserver(rec), lazy.WithName("head"))
	require.NoError(t, err)

	_, err = c.Value(context.Background())
	require.NoError(t, err)
	_, err = c.Value(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []lazy.Event{lazy.EventMiss, lazy.EventCreated, lazy.EventHit}, rec.kinds())
	for _, e := range rec.events {
		assert.Equal(t, "head", e.Cell)
		assert.Equal(t, c.ID(), e.ID)
		assert.Equal(t, lazy.ModeNone, e.Mode)
	}
}

func TestEventsFaultStickiness(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	tests := []struct {
		mode       lazy.Mode
		wantSticky bool
		want       []lazy.Event
	}{
		{lazy.ModeNone, true, []lazy.Event{lazy.EventMiss, lazy.EventFaulted, lazy.EventHit}},
		{lazy.ModeExecutionAndPublication, true, []lazy.Event{lazy.EventMiss, lazy.EventFaulted, lazy.EventHit}},
		{lazy.ModePublicationOnly, false, []lazy.Event{lazy.EventMiss, lazy.EventFaulted, lazy.EventMiss, lazy.EventFaulted}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			t.Parallel()

			rec := &recorder{}
			c, err := lazy.New(func(context.Context) (int, error) {
				return 0, errBoom
			}, lazy.WithMode(tt.mode), lazy.WithObserver(rec))
			require.NoError(t, err)

			_, err = c.Value(context.Background())
			require.ErrorIs(t, err, errBoom)
			_, err = c.Value(context.Background())
			require.ErrorIs(t, err, errBoom)

			assert.Equal(t, tt.want, rec.kinds())
			faulted := rec.events[1]
			assert.Equal(t, tt.wantSticky, faulted.Sticky)
			assert.Equal(t, errBoom, faulted.Err)
		})
	}
}

func TestEventsExclusiveDedup(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	c, err := lazy.New(func(context.Context) (int, error) {
		time.Sleep(5 * time.Millisecond)
		return 1, nil
	}, lazy.WithObserver(rec))
	require.NoError(t, err)

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for range n {
		go func() {
			defer wg.Done()
			_, _ = c.Value(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, rec.count(lazy.EventMiss))
	assert.Equal(t, 1, rec.count(lazy.EventCreated))
	assert.Equal(t, n-1, rec.count(lazy.EventHit)+rec.count(lazy.EventDedup))
}

func TestEventsPublicationOnlyDiscarded(t *testing.T) {
	t.Parallel()

	const n = 8
	var entered sync.WaitGroup
	entered.Add(n)
	rec := &recorder{}
	c, err := lazy.New(func(context.Context) (int, error) {
		entered.Done()
		entered.Wait()
		return 1, nil
	}, lazy.WithMode(lazy.ModePublicationOnly), lazy.WithObserver(rec))
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(n)
	for range n {
		go func() {
			defer wg.Done()
			_, _ = c.Value(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, n, rec.count(lazy.EventMiss))
	assert.Equal(t, 1, rec.count(lazy.EventCreated))
	assert.Equal(t, n-1, rec.count(lazy.EventDiscarded))
}

func TestEventsRecursive(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	var c *lazy.Cell[int]
	c, err := lazy.New(func(ctx context.Context) (int, error) {
		return c.Value(ctx)
	}, lazy.WithObserver(rec))
	require.NoError(t, err)

	_, err = c.Value(context.Background())
	require.ErrorIs(t, err, lazy.ErrRecursiveInitialization)
	assert.Equal(t, []lazy.Event{lazy.EventMiss, lazy.EventRecursive, lazy.EventFaulted}, rec.kinds())
}

func TestObserversFanOut(t *testing.T) {
	t.Parallel()

	a, b := &recorder{}, &recorder{}
	var fn []lazy.Event
	obs := lazy.Observers(a, nil, b, lazy.ObserverFunc(func(e lazy.EventData) {
		fn = append(fn, e.Event)
	}))

	c, err := lazy.New(lazy.FromFunc(func() int { return 1 }), lazy.WithObserver(obs))
	require.NoError(t, err)
	_, err = c.Value(context.Background())
	require.NoError(t, err)

	want := []lazy.Event{lazy.EventMiss, lazy.EventCreated}
	assert.Equal(t, want, a.kinds())
	assert.Equal(t, want, b.kinds())
	assert.Equal(t, want, fn)
}

func TestEventString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hit", lazy.EventHit.String())
	assert.Equal(t, "discarded", lazy.EventDiscarded.String())
	assert.Equal(t, "unknown", lazy.Event(99).String())
}

func TestEventsGroup(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	m, err := lazy.NewMap(func(_ context.Context, key string) (string, error) {
		return key, nil
	}, lazy.WithName("repo"), lazy.WithObserver(rec))
	require.NoError(t, err)
	_, err = m.Get(context.Background(), "a")
	require.NoError(t, err)

	single, err := lazy.New(lazy.FromFunc(func() int { return 1 }),
		lazy.WithName("head"), lazy.WithObserver(rec))
	require.NoError(t, err)
	_, err = single.Value(context.Background())
	require.NoError(t, err)

	require.Len(t, rec.events, 4)
	assert.Equal(t, "repo[a]", rec.events[0].Cell)
	assert.Equal(t, "repo", rec.events[0].Group)
	assert.Equal(t, "head", rec.events[2].Cell)
	assert.Equal(t, "head", rec.events[2].Group)
}
