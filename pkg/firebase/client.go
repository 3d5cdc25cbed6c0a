package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// Client talks to a Firebase Realtime Database over its REST interface.
// Writes go through a circuit breaker so a dead database does not pile up
// blocked stop requests.
type Client struct {
	base    string
	auth    string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
}

type Config struct {
	// BaseURL is the database root, e.g. https://greengrain-default-rtdb.firebaseio.com
	BaseURL string
	// Auth is an optional database secret or ID token appended as ?auth=.
	Auth    string
	Timeout time.Duration

	BreakerFailures int
	BreakerOpenFor  time.Duration
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.BreakerFailures < 1 {
		cfg.BreakerFailures = 3
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = 10 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "firebase",
		Timeout: cfg.BreakerOpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= uint32(cfg.BreakerFailures)
		},
	})

	return &Client{
		base:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		auth:    cfg.Auth,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: cb,
	}
}

// Put writes doc at path (e.g. users/u1/monitoring/<id>), replacing any
// existing value, RTDB REST semantics: PUT {base}/{path}.json.
func (c *Client) Put(ctx context.Context, path string, doc any) error {
	if c.base == "" {
		return fmt.Errorf("firebase: base URL not configured")
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("firebase: marshal document: %w", err)
	}

	_, err = c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url(path), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			return nil, fmt.Errorf("firebase status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("firebase put %s: %w", path, err)
	}
	return nil
}

func (c *Client) url(path string) string {
	u := c.base + "/" + strings.TrimLeft(path, "/") + ".json"
	if c.auth != "" {
		u += "?auth=" + c.auth
	}
	return u
}
