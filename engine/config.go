package engine

import "time"

// CleanupConfig controls an optional background cleanup loop, mirroring
// coreengine/kernel.CleanupConfig's "interval + stop function" shape. Unlike
// the kernel's time-based retention windows, an Engine's Cleanup pass is
// purely structural (see cleanup.go's mark-sweep) — CleanupConfig only
// governs how often StartCleanupLoop invokes it, not which messages a given
// pass prunes.
type CleanupConfig struct {
	// Interval is how often the background loop calls Cleanup.
	Interval time.Duration
}

// DefaultCleanupConfig returns the default cleanup loop configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{Interval: 5 * time.Minute}
}

// WithCleanupConfig overrides the interval StartCleanupLoop uses.
func WithCleanupConfig[T any](cfg CleanupConfig) Option[T] {
	return func(e *Engine[T]) { e.cleanupCfg = cfg }
}

// StartCleanupLoop starts a background goroutine that periodically calls
// Cleanup, returning a stop function. Since Engine is not safe for
// concurrent use, a caller driving Complete from its own goroutine or queue
// must make sure no Complete call overlaps a tick from this loop — e.g. by
// routing both through the same single-writer loop, the way
// coreengine/kernel.Kernel serializes its own background cleanup against
// foreground calls through a shared lock.
func (e *Engine[T]) StartCleanupLoop() func() {
	cfg := e.cleanupCfg
	if cfg.Interval == 0 {
		cfg = DefaultCleanupConfig()
	}

	ticker := time.NewTicker(cfg.Interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				pruned := e.Cleanup()
				e.logger.Debug("engine_cleanup_loop_tick", "pruned", len(pruned))
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}
