package relaylog

import (
	"context"
	"sync"
)

// The package-level logger is opt-in and explicit: Init wires it once,
// later Init calls are no-ops, and log calls before Init do nothing
// instead of panicking or buffering into the void.

var (
	globalMu sync.RWMutex
	global   *Logger
)

// Init configures the package-level logger. The first successful call
// wins; subsequent calls are ignored.
func Init(opts Options) error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global != nil {
		return nil
	}
	l, err := New(opts)
	if err != nil {
		return err
	}
	global = l
	return nil
}

// L returns the package-level logger, nil before Init.
func L() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// Log enqueues on the package-level logger; no-op before Init.
func Log(e Entry) {
	if l := L(); l != nil {
		l.Log(e)
	}
}

// Flush flushes the package-level logger; no-op before Init.
func Flush(ctx context.Context) error {
	if l := L(); l != nil {
		return l.Flush(ctx)
	}
	return nil
}

// Close stops the package-level logger and forgets it, so tests can
// Init again.
func Close() {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global != nil {
		global.Close()
		global = nil
	}
}
