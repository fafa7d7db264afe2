//go:build unix

package shutdown

import (
	"os"
	"syscall"
)

// Signals returns the termination signals watchable on this platform:
// interactive interrupt (SIGINT) and polite terminate (SIGTERM).
func Signals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}
