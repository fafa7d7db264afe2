// Package pinger issues ping requests to the receiver's update endpoint.
package pinger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/pingboard/pingboard/pkg/logger"
)

const defaultRequestTimeout = 10 * time.Second

// pingRequest is the JSON body sent with every ping.
type pingRequest struct {
	ID uuid.UUID `json:"id"`
}

// Pinger posts pings to a receiver.
type Pinger struct {
	target *url.URL
	client *http.Client
	log    logger.Logger
}

// New creates a pinger for the given receiver URL.
func New(receiverURL string, requestTimeout time.Duration, log logger.Logger) (*Pinger, error) {
	target, err := url.Parse(receiverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid receiver URL %q: %w", receiverURL, err)
	}
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	return &Pinger{
		target: target,
		client: &http.Client{Timeout: requestTimeout},
		log:    log,
	}, nil
}

// Send issues one ping carrying a fresh unique ID. Any non-success HTTP
// status is an error.
func (p *Pinger) Send(ctx context.Context) error {
	body, err := json.Marshal(pingRequest{ID: uuid.New()})
	if err != nil {
		return fmt.Errorf("failed to encode ping body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.target.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build ping request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("ping rejected: receiver answered %s", resp.Status)
	}

	return nil
}

// Run issues pings on a fixed interval until ctx is cancelled. Individual
// failures are logged and do not stop the loop.
func (p *Pinger) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("ping interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Send(ctx); err != nil {
				p.log.Warn("periodic ping failed", "error", err)
			}
		}
	}
}
