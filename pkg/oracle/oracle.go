// Package oracle asks a remote language model to score a batch of tasks and
// turns its free-text reply into score records.
//
// The client never retries and never mutates local state. Every failure is
// reported as ErrUnavailable (transport, status, missing credential, timeout)
// or ErrMalformedOutput (the reply could not be read as score records).
package oracle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"taskpilot/pkg/task"
)

var (
	// ErrUnavailable means the oracle could not be reached or refused the request.
	ErrUnavailable = errors.New("oracle unavailable")
	// ErrMalformedOutput means the oracle replied with something other than score records.
	ErrMalformedOutput = errors.New("oracle output malformed")
)

// DefaultTimeout bounds a single oracle call.
const DefaultTimeout = 20 * time.Second

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-flash-latest"

// Config carries everything the client needs. An empty APIKey disables the
// oracle; the client still works and reports ErrUnavailable on every call.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Generator sends one prompt and returns the model's text reply.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client scores task batches through a Generator.
type Client struct {
	gen     Generator
	timeout time.Duration
}

// New creates a Client. gen may be nil, which means no credential was configured.
func New(gen Generator, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{gen: gen, timeout: timeout}
}

// Enabled reports whether a generator is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.gen != nil
}

// Score sends the whole batch in one request and parses the reply.
func (c *Client) Score(ctx context.Context, tasks []task.Task) ([]task.ScoreRecord, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("%w: no credential configured", ErrUnavailable)
	}
	if len(tasks) == 0 {
		return nil, errors.New("oracle: empty batch")
	}

	prompt, err := BuildPrompt(tasks)
	if err != nil {
		return nil, fmt.Errorf("build prompt: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.gen.Generate(callCtx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	log.Printf("oracle: reply for %d tasks in %s (%d bytes)", len(tasks), time.Since(start).Round(time.Millisecond), len(text))

	return Parse(text)
}
