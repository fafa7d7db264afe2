package pinger

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingboard/pingboard/pkg/logger"
)

func testLogger() logger.Logger {
	return logger.New(&logger.Config{
		Level:  logger.ErrorLevel,
		Format: "json",
		Output: "stdout",
	})
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("http://bad url with spaces", time.Second, testLogger())
	require.Error(t, err)
}

func TestSend_PostsUniqueJSONID(t *testing.T) {
	seen := make(chan string, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		var body struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(data, &body))
		seen <- body.ID

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	p, err := New(server.URL, time.Second, testLogger())
	require.NoError(t, err)

	require.NoError(t, p.Send(context.Background()))
	require.NoError(t, p.Send(context.Background()))

	first, second := <-seen, <-seen
	_, err = uuid.Parse(first)
	assert.NoError(t, err, "ping ID is not a valid UUID")
	assert.NotEqual(t, first, second, "ping IDs must be unique")
}

func TestSend_NonSuccessStatusIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	p, err := New(server.URL, time.Second, testLogger())
	require.NoError(t, err)

	err = p.Send(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestRun_PingsPeriodicallyUntilCancelled(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	p, err := New(server.URL, time.Second, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, 10*time.Millisecond)
	}()

	require.Eventually(t, func() bool {
		return calls.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancellation")
	}
}

func TestRun_RequiresPositiveInterval(t *testing.T) {
	p, err := New("http://localhost:1", time.Second, testLogger())
	require.NoError(t, err)
	require.Error(t, p.Run(context.Background(), 0))
}
