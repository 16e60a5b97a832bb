package lazy

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// errAbandoned is published when a factory called runtime.Goexit instead of
// returning.
var errAbandoned = errors.New("lazy: factory exited without returning")

// Factory produces the value of a Cell. ctx is the context of the Value call
// that triggered initialization; pass it to any Value call made from inside
// the factory so that reentrant reads can be detected. Under
// ModeExecutionAndPublication a factory that reads its own cell with an
// unrelated context blocks forever.
type Factory[T any] func(ctx context.Context) (T, error)

// FromFunc adapts an infallible function to a Factory.
func FromFunc[T any](fn func() T) Factory[T] {
	if fn == nil {
		return nil
	}
	return func(context.Context) (T, error) {
		return fn(), nil
	}
}

// state is published once. A nil err means Computed, otherwise Faulted.
type state[T any] struct {
	value T
	err   error
}

type inFlightKey struct {
	cell any
}

// Cell is a value computed from a Factory on first read and cached for
// every later read, according to its Mode.
type Cell[T any] struct {
	state atomic.Pointer[state[T]]
	// factory is swapped to nil once claimed. An Empty cell with a nil
	// factory is already being initialized.
	factory atomic.Pointer[Factory[T]]
	flight  singleflight.Group

	mode         Mode
	stickyFaults bool
	name         string
	group        string
	id           string
	observer     Observer
}

// New returns a Cell that computes its value with factory. The mode defaults
// to ModeExecutionAndPublication.
func New[T any](factory Factory[T], opts ...Option) (*Cell[T], error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: nil factory", ErrInvalidArgument)
	}
	return newCell(factory, newConfig(opts))
}

// Must panics if err is non-nil. It is meant for package-level cells.
func Must[T any](c *Cell[T], err error) *Cell[T] {
	if err != nil {
		panic(err)
	}
	return c
}

func newCell[T any](factory Factory[T], cfg config) (*Cell[T], error) {
	if !cfg.mode.valid() {
		return nil, fmt.Errorf("%w: unknown mode %s", ErrInvalidArgument, cfg.mode)
	}
	c := &Cell[T]{
		mode:         cfg.mode,
		stickyFaults: cfg.stickyFaults,
		name:         cfg.name,
		group:        cfg.name,
		id:           uuid.NewString(),
		observer:     cfg.observer,
	}
	if cfg.keyed {
		c.group = cfg.group
	}
	c.factory.Store(&factory)
	return c, nil
}

// Value returns the cell's value, running the factory if nothing has been
// published yet. It may return an error on any call, not only the first:
// in ModeNone and ModeExecutionAndPublication a factory error is replayed
// forever, in ModePublicationOnly it is returned once and the next call
// tries again.
func (c *Cell[T]) Value(ctx context.Context) (T, error) {
	if st := c.state.Load(); st != nil {
		c.emit(EventData{Event: EventHit, Err: st.err})
		return st.value, st.err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Value(inFlightKey{c}) != nil {
		return c.recursive()
	}

	switch c.mode {
	case ModeNone:
		return c.valueNone(ctx)
	case ModePublicationOnly:
		return c.valuePublicationOnly(ctx)
	default:
		return c.valueExclusive(ctx)
	}
}

func (c *Cell[T]) valueNone(ctx context.Context) (T, error) {
	f := c.factory.Swap(nil)
	if f == nil {
		// Claimed but not published: the factory is further up this stack.
		return c.recursive()
	}

	published := false
	defer func() {
		if !published {
			// The factory called runtime.Goexit; it has been consumed.
			st := &state[T]{err: errAbandoned}
			c.state.Store(st)
			c.emitResult(st, 0, true)
		}
	}()
	st, dur := c.invoke(ctx, *f)
	c.state.Store(st)
	published = true
	c.emitResult(st, dur, true)
	return st.value, st.err
}

func (c *Cell[T]) valuePublicationOnly(ctx context.Context) (T, error) {
	for {
		f := c.factory.Load()
		if f == nil {
			// The winner publishes before it clears the factory.
			if st := c.state.Load(); st != nil {
				return st.value, st.err
			}
			runtime.Gosched()
			continue
		}

		st, dur := c.invoke(ctx, *f)
		if st.err != nil && !c.stickyFaults {
			c.emitResult(st, dur, false)
			return st.value, st.err
		}
		if c.state.CompareAndSwap(nil, st) {
			c.factory.Store(nil)
			c.emitResult(st, dur, true)
			return st.value, st.err
		}

		c.emit(EventData{Event: EventDiscarded, Duration: dur})
		won := c.state.Load()
		return won.value, won.err
	}
}

func (c *Cell[T]) valueExclusive(ctx context.Context) (T, error) {
	ran, hit := false, false
	v, _, _ := c.flight.Do("", func() (any, error) {
		// Double-check: the previous initializer may have published while
		// we were queued.
		if st := c.state.Load(); st != nil {
			hit = true
			return st, nil
		}
		ran = true

		st := &state[T]{err: errAbandoned}
		var dur time.Duration
		if f := c.factory.Swap(nil); f != nil {
			st, dur = c.invokeDetached(ctx, *f)
		}
		c.state.Store(st)
		c.emitResult(st, dur, true)
		return st, nil
	})

	st := v.(*state[T])
	switch {
	case hit:
		c.emit(EventData{Event: EventHit, Err: st.err})
	case !ran:
		c.emit(EventData{Event: EventDedup, Err: st.err})
	}
	return st.value, st.err
}

// invokeDetached runs the factory on its own goroutine. A factory that calls
// runtime.Goexit ends only that goroutine, so the singleflight call always
// returns and its waiters are not torn down with it.
func (c *Cell[T]) invokeDetached(ctx context.Context, f Factory[T]) (*state[T], time.Duration) {
	type result struct {
		st  *state[T]
		dur time.Duration
	}
	done := make(chan result, 1)
	go func() {
		normalReturn := false
		defer func() {
			if !normalReturn {
				done <- result{st: &state[T]{err: errAbandoned}}
			}
		}()
		st, dur := c.invoke(ctx, f)
		normalReturn = true
		done <- result{st: st, dur: dur}
	}()
	r := <-done
	return r.st, r.dur
}

func (c *Cell[T]) invoke(ctx context.Context, f Factory[T]) (st *state[T], dur time.Duration) {
	c.emit(EventData{Event: EventMiss})
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			st = &state[T]{err: newPanicError(r)}
		}
		dur = time.Since(start)
	}()

	v, err := f(context.WithValue(ctx, inFlightKey{c}, struct{}{}))
	if err != nil {
		return &state[T]{err: err}, 0
	}
	return &state[T]{value: v}, 0
}

func (c *Cell[T]) recursive() (T, error) {
	var zero T
	c.emit(EventData{Event: EventRecursive, Err: ErrRecursiveInitialization})
	return zero, fmt.Errorf("%w of %s", ErrRecursiveInitialization, c.label())
}

// IsValueCreated reports whether a value has been published. It is never
// true for a faulted cell.
func (c *Cell[T]) IsValueCreated() bool {
	st := c.state.Load()
	return st != nil && st.err == nil
}

// IsFaulted reports whether the cell has cached a factory error.
func (c *Cell[T]) IsFaulted() bool {
	st := c.state.Load()
	return st != nil && st.err != nil
}

// Err returns the cached fault, or nil.
func (c *Cell[T]) Err() error {
	if st := c.state.Load(); st != nil {
		return st.err
	}
	return nil
}

// DebugValue returns the published value, or the zero value if there is
// none. It never runs the factory.
func (c *Cell[T]) DebugValue() T {
	st := c.state.Load()
	if st == nil || st.err != nil {
		var zero T
		return zero
	}
	return st.value
}

func (c *Cell[T]) Mode() Mode {
	return c.mode
}

func (c *Cell[T]) Name() string {
	return c.name
}

// ID is a random identifier assigned at construction and reported in
// events.
func (c *Cell[T]) ID() string {
	return c.id
}

func (c *Cell[T]) String() string {
	return fmt.Sprintf("ThreadSafetyMode=%s, IsValueCreated=%t, IsValueFaulted=%t, Value=%v",
		c.mode, c.IsValueCreated(), c.IsFaulted(), c.DebugValue())
}

func (c *Cell[T]) label() string {
	if c.name != "" {
		return c.name
	}
	return "cell " + c.id
}

func (c *Cell[T]) emit(data EventData) {
	if c.observer == nil {
		return
	}
	data.Cell = c.name
	data.Group = c.group
	data.ID = c.id
	data.Mode = c.mode
	c.observer.On(data)
}

func (c *Cell[T]) emitResult(st *state[T], dur time.Duration, sticky bool) {
	if st.err != nil {
		c.emit(EventData{Event: EventFaulted, Err: st.err, Sticky: sticky, Duration: dur})
		return
	}
	c.emit(EventData{Event: EventCreated, Duration: dur})
}
