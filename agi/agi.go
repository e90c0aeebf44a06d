// Package agi asks a chat-completion model for a trip plan, falling back across an ordered model list.
package agi

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"wanderplan/metrics"
)

var (
	ErrMissingCredential = errors.New("generation credential is not configured")
	ErrNoModels          = errors.New("no generation models are configured")
)

// Completer sends one system+user prompt pair to one model and returns the reply text.
type Completer interface {
	Complete(ctx context.Context, model, system, prompt string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, model, system, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, model, system, prompt string) (string, error) {
	return f(ctx, model, system, prompt)
}

type TripRequest struct {
	Destination string
	Days        int
	Budget      string
	Interests   []string
}

type Result struct {
	Text  string
	Model string
}

type Options struct {
	APIKey  string
	BaseURL string
	Models  []string
	Timeout time.Duration // per attempt; zero means no extra deadline
	Metrics metrics.Recorder
}

type Client struct {
	completer Completer
	models    []string
	timeout   time.Duration
	metrics   metrics.Recorder
}

// New builds a client backed by the OpenAI chat API. With an empty key the client is still
// usable but every Generate call fails with ErrMissingCredential.
func New(opts Options) *Client {
	var comp Completer
	if key := strings.TrimSpace(opts.APIKey); key != "" {
		comp = NewOpenAICompleter(key, opts.BaseURL)
	}
	return NewWithCompleter(comp, opts.Models, opts.Timeout, opts.Metrics)
}

func NewWithCompleter(comp Completer, models []string, timeout time.Duration, rec metrics.Recorder) *Client {
	if rec == nil {
		rec = metrics.Nop{}
	}
	clean := make([]string, 0, len(models))
	for _, m := range models {
		if m = strings.TrimSpace(m); m != "" {
			clean = append(clean, m)
		}
	}
	return &Client{completer: comp, models: clean, timeout: timeout, metrics: rec}
}

// Generate tries each model in order and returns the first non-empty reply.
// Individual failures are logged and recorded; only exhaustion is returned, as *ExhaustedError.
func (c *Client) Generate(ctx context.Context, req TripRequest) (*Result, error) {
	if c.completer == nil {
		return nil, ErrMissingCredential
	}
	if len(c.models) == 0 {
		return nil, ErrNoModels
	}

	start := time.Now()
	defer func() { c.metrics.RecordGenerationLatency(time.Since(start)) }()

	system, prompt := SystemPrompt, BuildPrompt(req)
	exhausted := &ExhaustedError{}
	for _, model := range c.models {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := c.attempt(ctx, model, system, prompt)
		if err == nil && strings.TrimSpace(text) != "" {
			c.metrics.RecordGenerationAttempt(model, "ok")
			slog.Debug("generation succeeded", "model", model, "bytes", len(text))
			return &Result{Text: text, Model: model}, nil
		}

		// The caller gave up; trying further models would be wasted.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		class := ClassEmpty
		if err != nil {
			class = Classify(err)
		} else {
			err = errEmptyReply
		}
		c.metrics.RecordGenerationAttempt(model, string(class))
		slog.Warn("generation attempt failed", "model", model, "class", class, "error", err)
		exhausted.Attempts = append(exhausted.Attempts, Attempt{Model: model, Class: class, Err: err})
	}
	return nil, exhausted
}

func (c *Client) attempt(ctx context.Context, model, system, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.completer.Complete(ctx, model, system, prompt)
}
