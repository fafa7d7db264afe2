//go:build !unix

package shutdown

import "os"

// Signals returns the termination signals watchable on this platform.
// Only the interrupt notification exists here; the watcher runs in
// degraded, interrupt-only mode.
func Signals() []os.Signal {
	return []os.Signal{os.Interrupt}
}
