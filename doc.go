// Package lazy provides a memoized value cell that is computed at most once,
// on first read, and cached for every later read.
//
// A Cell is built from a Factory and a Mode that decides how concurrent
// first reads are arbitrated:
//
//	var repo = lazy.Must(lazy.New(func(ctx context.Context) (*Repository, error) {
//		return openRepository(ctx, path)
//	}))
//
//	r, err := repo.Value(ctx)
//
// With ModeExecutionAndPublication (the default) the factory runs exactly
// once. Goroutines arriving while it runs wait for the result, and a factory
// error is cached and returned on every later read. ModePublicationOnly lets
// racing goroutines each run the factory; the first successful result is
// published and the others are discarded, while errors are not cached so the
// next read tries again. ModeNone does no synchronization at all and caches
// errors like ModeExecutionAndPublication.
//
// A factory that reads its own cell with the ctx it was given gets
// ErrRecursiveInitialization instead of deadlocking. Go has no goroutine
// identity to detect reentry otherwise, so this holds only when the factory
// passes its ctx through: under ModeExecutionAndPublication a factory that
// reads its own cell with an unrelated context blocks forever. ModeNone also
// detects reentry without the ctx.
//
// A factory that calls runtime.Goexit never produces a value. The cell then
// caches an error in ModeNone and ModeExecutionAndPublication instead of
// leaving its readers stuck or torn down.
//
// [NewDefault] and [NewZero] build cells that construct T themselves, and
// [Map] keeps one cell per key. Lifecycle events can be observed with
// [WithObserver]; see the observe/zaplog and observe/otelmetrics packages.
package lazy
