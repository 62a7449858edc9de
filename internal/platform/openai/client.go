package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/cvextract/internal/pkg/httpx"
	"github.com/yungbote/cvextract/internal/platform/envutil"
	"github.com/yungbote/cvextract/internal/platform/llm"
	"github.com/yungbote/cvextract/internal/platform/logger"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-4o"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxRetries  int
	Temperature *float64
}

func ConfigFromEnv() Config {
	cfg := Config{
		APIKey:     envutil.String("OPENAI_API_KEY", ""),
		BaseURL:    envutil.String("OPENAI_BASE_URL", defaultBaseURL),
		Model:      envutil.String("OPENAI_MODEL", defaultModel),
		Timeout:    envutil.Seconds("OPENAI_TIMEOUT_SECONDS", 180*time.Second),
		MaxRetries: envutil.Int("OPENAI_MAX_RETRIES", 2),
	}
	if raw := envutil.String("OPENAI_TEMPERATURE", ""); raw != "" {
		t := envutil.Float("OPENAI_TEMPERATURE", 0)
		cfg.Temperature = &t
	}
	return cfg
}

// Client talks to the Responses API. It retries transport failures and
// 408/429/5xx replies itself; everything else is the caller's business.
type Client struct {
	log         *logger.Logger
	baseURL     string
	apiKey      string
	model       string
	httpClient  *http.Client
	maxRetries  int
	temperature *float64
}

var _ llm.Completer = (*Client)(nil)

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		log:         log.With("service", "OpenAIClient", "model", model),
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		model:       model,
		httpClient:  &http.Client{Timeout: timeout},
		maxRetries:  maxRetries,
		temperature: cfg.Temperature,
	}, nil
}

func (c *Client) Model() string { return c.model }

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model           string         `json:"model"`
	Input           []inputMessage `json:"input"`
	MaxOutputTokens int            `json:"max_output_tokens,omitempty"`
	Temperature     *float64       `json:"temperature,omitempty"`
	Text            *struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
}

type responsesResponse struct {
	Model             string `json:"model"`
	Status            string `json:"status"`
	IncompleteDetails *struct {
		Reason string `json:"reason"`
	} `json:"incomplete_details,omitempty"`
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type    string `json:"type"`
			Text    string `json:"text,omitempty"`
			Refusal string `json:"refusal,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func extractOutputText(resp responsesResponse) (text string, refusal string) {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" || item.Role != "assistant" {
			continue
		}
		for _, c := range item.Content {
			switch c.Type {
			case "output_text":
				out.WriteString(c.Text)
			case "refusal":
				refusal = c.Refusal
			}
		}
	}
	return out.String(), refusal
}

// Complete performs one model call. A response cut off by the output budget
// comes back as StatusTruncated with whatever text was produced.
func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	body := responsesRequest{
		Model: c.model,
		Input: []inputMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		MaxOutputTokens: req.MaxOutputTokens,
		Temperature:     c.temperature,
	}
	if req.JSON {
		body.Text = &struct {
			Format map[string]any `json:"format,omitempty"`
		}{Format: map[string]any{"type": "json_object"}}
	}

	var resp responsesResponse
	if err := c.do(ctx, http.MethodPost, "/v1/responses", body, &resp); err != nil {
		return nil, err
	}

	text, refusal := extractOutputText(resp)
	if refusal != "" {
		return nil, fmt.Errorf("%w: %s", llm.ErrRefused, refusal)
	}

	status := llm.StatusComplete
	if resp.Status == "incomplete" {
		reason := ""
		if resp.IncompleteDetails != nil {
			reason = resp.IncompleteDetails.Reason
		}
		if reason != "max_output_tokens" {
			return nil, fmt.Errorf("openai response incomplete: %s", reason)
		}
		status = llm.StatusTruncated
	}

	model := resp.Model
	if model == "" {
		model = c.model
	}
	c.log.Debug("OpenAI response received",
		"status", string(status),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
	)
	return &llm.Completion{Status: status, Text: text, Model: model}, nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, body any) ([]byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &httpx.StatusError{
			Service:    "openai",
			StatusCode: resp.StatusCode,
			Body:       string(raw),
			RetryAfter: httpx.RetryAfter(resp),
		}
	}
	return raw, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w", uErr)
			}
			return nil
		}

		if !httpx.IsRetryableError(err) || attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(err, backoff, 10*time.Second))
		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}
