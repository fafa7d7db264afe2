//go:build unix

package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"
)

// trapSignals keeps the test process's signal dispositions trapped for the
// duration of a test, so a late delivery after Wait stops watching cannot
// kill the test binary.
func trapSignals(t *testing.T) {
	t.Helper()
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	t.Cleanup(func() { signal.Stop(ch) })
}

func TestWait_ReturnsOnTerminateSignal(t *testing.T) {
	trapSignals(t)

	done := make(chan struct{})
	go func() {
		Wait(context.Background(), nil)
		close(done)
	}()

	// Let Wait register its signal handler before delivering.
	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("failed to deliver SIGTERM: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not resolve on SIGTERM")
	}
}

func TestWait_ResolvesOnceOnNearSimultaneousSignals(t *testing.T) {
	trapSignals(t)

	resolved := make(chan struct{})
	go func() {
		Wait(context.Background(), nil)
		resolved <- struct{}{}
	}()

	time.Sleep(50 * time.Millisecond)
	_ = syscall.Kill(syscall.Getpid(), syscall.SIGTERM)
	_ = syscall.Kill(syscall.Getpid(), syscall.SIGINT)

	select {
	case <-resolved:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not resolve")
	}

	// Only one resolution; a second signal after Stop must not fire again.
	select {
	case <-resolved:
		t.Fatal("Wait resolved more than once")
	case <-time.After(100 * time.Millisecond):
	}
}
