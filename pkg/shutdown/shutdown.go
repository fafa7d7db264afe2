// Package shutdown unifies the platform's termination notifications into a
// single resolve-once wait. The set of watchable signals is a platform
// capability decided at build time (see signals_unix.go); on hosts without
// a terminate signal the watcher degrades to interrupt-only and says so,
// rather than failing.
package shutdown

import (
	"context"
	"os"
	"os/signal"

	"github.com/pingboard/pingboard/pkg/logger"
)

// Wait blocks until a termination signal arrives or ctx is cancelled,
// whichever comes first. It returns exactly once; after the winner of the
// race resolves, interest in the other sources is dropped.
func Wait(ctx context.Context, log logger.Logger) {
	sigs := Signals()
	if log != nil && len(sigs) < 2 {
		log.Warn("terminate signal unavailable on this platform, watching interrupt only")
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	defer signal.Stop(ch)

	select {
	case sig := <-ch:
		if log != nil {
			log.Info("termination signal received", "signal", sig.String())
		}
	case <-ctx.Done():
	}
}
