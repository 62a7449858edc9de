package anthropic

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
	defaultBaseURL   = "https://api.anthropic.com"
	defaultModel     = "claude-sonnet-4-5"
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
	jsonInstruction  = "Respond with a single JSON object and no surrounding prose."
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:  envutil.String("ANTHROPIC_API_KEY", ""),
		BaseURL: envutil.String("ANTHROPIC_BASE_URL", defaultBaseURL),
		Model:   envutil.String("ANTHROPIC_MODEL", defaultModel),
		Timeout: envutil.Seconds("ANTHROPIC_TIMEOUT_SECONDS", 120*time.Second),
	}
}

type Client struct {
	log     *logger.Logger
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var _ llm.Completer = (*Client)(nil)

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing ANTHROPIC_API_KEY")
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
		timeout = 120 * time.Second
	}
	return &Client{
		log:     log.With("service", "AnthropicClient", "model", model),
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Model() string { return c.model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type response struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one Messages API call. stop_reason "max_tokens" maps to
// StatusTruncated; "refusal" to llm.ErrRefused.
func (c *Client) Complete(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	system := req.System
	if req.JSON {
		system = strings.TrimSpace(system + "\n\n" + jsonInstruction)
	}

	body, err := json.Marshal(request{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  []message{{Role: "user", Content: req.User}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(respBody)
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Type + ": " + errResp.Error.Message
		}
		return nil, &httpx.StatusError{
			Service:    "anthropic",
			StatusCode: resp.StatusCode,
			Body:       msg,
			RetryAfter: httpx.RetryAfter(resp),
		}
	}

	var apiResp response
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	var text strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	status := llm.StatusComplete
	switch apiResp.StopReason {
	case "max_tokens":
		status = llm.StatusTruncated
	case "refusal":
		return nil, llm.ErrRefused
	}
	if status == llm.StatusComplete && text.Len() == 0 {
		return nil, fmt.Errorf("empty response content")
	}

	model := apiResp.Model
	if model == "" {
		model = c.model
	}
	c.log.Debug("Anthropic response received",
		"stop_reason", apiResp.StopReason,
		"input_tokens", apiResp.Usage.InputTokens,
		"output_tokens", apiResp.Usage.OutputTokens,
	)
	return &llm.Completion{Status: status, Text: text.String(), Model: model}, nil
}
