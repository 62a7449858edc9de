// Package client runs model calls for extraction with bounded retries and a
// single output-budget escalation per attempt.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/yungbote/cvextract/internal/extraction/errs"
	"github.com/yungbote/cvextract/internal/extraction/prompts"
	"github.com/yungbote/cvextract/internal/pkg/httpx"
	"github.com/yungbote/cvextract/internal/platform/llm"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"golang.org/x/time/rate"
)

const (
	DefaultMaxAttempts            = 3
	DefaultMaxOutputTokens        = 4000
	DefaultMaxOutputTokensCeiling = 8000
)

// ErrTruncated is returned when the model still runs out of output budget
// after the escalated retry.
var ErrTruncated = errors.New("model output truncated")

type Config struct {
	MaxAttempts            int
	MaxOutputTokens        int
	MaxOutputTokensCeiling int
	// RatePerSecond paces model calls across all callers; 0 disables pacing.
	RatePerSecond float64
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if c.MaxOutputTokensCeiling < c.MaxOutputTokens {
		c.MaxOutputTokensCeiling = DefaultMaxOutputTokensCeiling
		if c.MaxOutputTokensCeiling < c.MaxOutputTokens {
			c.MaxOutputTokensCeiling = c.MaxOutputTokens
		}
	}
	return c
}

// Sleeper waits between attempts and must return early when ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

type Option func(*Client)

func WithSleeper(s Sleeper) Option {
	return func(c *Client) {
		if s != nil {
			c.sleep = s
		}
	}
}

type Result struct {
	Data     map[string]any
	Raw      string
	Model    string
	Attempts int
}

type Client struct {
	llm     llm.Completer
	log     *logger.Logger
	cfg     Config
	sleep   Sleeper
	limiter *rate.Limiter
}

func New(completer llm.Completer, log *logger.Logger, cfg Config, opts ...Option) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		llm:   completer,
		log:   log.With("service", "ExtractionClient"),
		cfg:   cfg,
		sleep: httpx.Sleep,
	}
	if cfg.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Model() string { return c.llm.Model() }

// Extract builds the CV extraction messages and returns the model's JSON object.
func (c *Client) Extract(ctx context.Context, documentText, systemPrompt, taskPrompt string) (*Result, error) {
	msgs := prompts.BuildCVMessages(c.log, systemPrompt, taskPrompt, documentText)
	return c.CompleteJSON(ctx, msgs.System, msgs.User)
}

// CompleteJSON calls the model until it returns a parseable JSON object or
// the attempts run out. Attempt n (0-based) is followed by a 2^n second pause.
func (c *Client) CompleteJSON(ctx context.Context, system, user string) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		res, err := c.attempt(ctx, system, user)
		if err == nil {
			res.Attempts = attempt + 1
			if attempt > 0 {
				c.log.Info("extraction succeeded after retry", "attempt", attempt+1)
			}
			return res, nil
		}
		lastErr = err
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errs.Extraction("extraction.complete", fmt.Errorf("%w (last error: %v)", ctxErr, err))
		}

		c.log.Warn("extraction attempt failed",
			"attempt", attempt+1,
			"max_attempts", c.cfg.MaxAttempts,
			"error", err.Error(),
		)
		if attempt == c.cfg.MaxAttempts-1 {
			break
		}
		if err := c.sleep(ctx, time.Duration(1<<attempt)*time.Second); err != nil {
			return nil, errs.Extraction("extraction.complete", fmt.Errorf("%w (last error: %v)", err, lastErr))
		}
	}
	return nil, errs.Extraction("extraction.complete", lastErr)
}

func (c *Client) attempt(ctx context.Context, system, user string) (*Result, error) {
	tokens := c.cfg.MaxOutputTokens
	comp, err := c.call(ctx, system, user, tokens)
	if err != nil {
		return nil, err
	}
	if comp.Status == llm.StatusTruncated && tokens < c.cfg.MaxOutputTokensCeiling {
		tokens = min(tokens*2, c.cfg.MaxOutputTokensCeiling)
		c.log.Warn("model output truncated, retrying with larger budget", "max_output_tokens", tokens)
		comp, err = c.call(ctx, system, user, tokens)
		if err != nil {
			return nil, err
		}
	}
	if comp.Status == llm.StatusTruncated {
		return nil, fmt.Errorf("%w at %d tokens", ErrTruncated, tokens)
	}

	data, err := ParseObject(comp.Text)
	if err != nil {
		return nil, err
	}
	model := comp.Model
	if model == "" {
		model = c.llm.Model()
	}
	return &Result{Data: data, Raw: comp.Text, Model: model}, nil
}

func (c *Client) call(ctx context.Context, system, user string, tokens int) (*llm.Completion, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	comp, err := c.llm.Complete(ctx, llm.Request{
		System:          system,
		User:            user,
		MaxOutputTokens: tokens,
		JSON:            true,
	})
	if err != nil {
		return nil, err
	}
	if comp == nil {
		return nil, errors.New("model returned no completion")
	}
	return comp, nil
}

// ParseObject decodes a JSON object from model text, tolerating a surrounding
// markdown code fence with or without a language tag. Numbers are kept as json.Number.
func ParseObject(text string) (map[string]any, error) {
	s := strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(s, "```"); ok {
		// The opening fence line may carry any info string (json, JSON, jsonc).
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[i+1:]
		} else {
			rest = strings.TrimLeftFunc(rest, unicode.IsLetter)
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(rest), "```"))
	}
	if s == "" {
		return nil, errors.New("model returned empty output")
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("parse model JSON: %w", err)
	}
	if obj == nil {
		return nil, errors.New("model JSON is null")
	}
	if dec.More() {
		return nil, errors.New("parse model JSON: trailing data after object")
	}
	return obj, nil
}
