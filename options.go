package lazy

// Option configures a Cell or a Map at construction time.
type Option func(*config)

type config struct {
	mode     Mode
	observer Observer
	name     string
	// group is the owning Map's name, set when keyed.
	group string
	keyed bool
	// stickyFaults caches faults in ModePublicationOnly too.
	stickyFaults bool
}

func newConfig(opts []Option) config {
	cfg := config{mode: ModeExecutionAndPublication}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithMode sets the thread-safety mode. The default is
// ModeExecutionAndPublication.
func WithMode(m Mode) Option {
	return func(cfg *config) {
		cfg.mode = m
	}
}

// WithThreadSafe is shorthand for WithMode(ModeFor(threadSafe)).
func WithThreadSafe(threadSafe bool) Option {
	return WithMode(ModeFor(threadSafe))
}

// WithObserver attaches an Observer that receives lifecycle events for the
// cell.
func WithObserver(o Observer) Option {
	return func(cfg *config) {
		cfg.observer = o
	}
}

// WithName labels the cell in events and debug output.
func WithName(name string) Option {
	return func(cfg *config) {
		cfg.name = name
	}
}
