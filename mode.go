package lazy

import "fmt"

// Mode selects how a Cell arbitrates concurrent initialization.
// It is fixed when the cell is constructed.
type Mode int

const (
	// ModeNone performs no synchronization. The factory runs on first read
	// and its result, or its error, is replayed on every later read.
	// Concurrent use is the caller's responsibility.
	ModeNone Mode = iota
	// ModePublicationOnly lets any number of goroutines run the factory at
	// once. The first successful result to be published wins and every
	// reader converges on it. Errors are not cached.
	ModePublicationOnly
	// ModeExecutionAndPublication runs the factory at most once. Goroutines
	// that arrive while it is running block until the result, or the error,
	// is published. Errors are cached.
	ModeExecutionAndPublication
)

// ModeFor maps the boolean thread-safety shorthand onto a Mode.
func ModeFor(threadSafe bool) Mode {
	if threadSafe {
		return ModeExecutionAndPublication
	}
	return ModeNone
}

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "None"
	case ModePublicationOnly:
		return "PublicationOnly"
	case ModeExecutionAndPublication:
		return "ExecutionAndPublication"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) valid() bool {
	return m >= ModeNone && m <= ModeExecutionAndPublication
}
