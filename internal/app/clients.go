package app

import (
	"fmt"
	"strings"

	natsclient "github.com/yungbote/cvextract/internal/clients/nats"
	"github.com/yungbote/cvextract/internal/platform/anthropic"
	"github.com/yungbote/cvextract/internal/platform/gcp"
	"github.com/yungbote/cvextract/internal/platform/llm"
	"github.com/yungbote/cvextract/internal/platform/logger"
	"github.com/yungbote/cvextract/internal/platform/openai"
	"github.com/yungbote/cvextract/internal/realtime/bus"
)

type Clients struct {
	LLM    llm.Completer
	Bucket gcp.BucketService
	Bus    bus.Bus
	// NATS is nil when no queue is configured.
	NATS *natsclient.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	completer, err := newCompleter(log, cfg)
	if err != nil {
		return out, err
	}
	out.LLM = completer

	out.Bucket, err = resolveBucketService(log, cfg.Storage)
	if err != nil {
		return out, err
	}

	switch strings.ToLower(cfg.Events) {
	case EventsRedis:
		out.Bus, err = bus.NewRedisBus(log)
		if err != nil {
			return out, fmt.Errorf("init redis bus: %w", err)
		}
	case EventsNone:
	default:
		out.Bus = bus.NewMemoryBus()
	}

	if cfg.QueueEnabled {
		out.NATS, err = natsclient.NewClient(cfg.NATS, log)
		if err != nil {
			out.Close()
			return Clients{}, err
		}
	}
	return out, nil
}

func newCompleter(log *logger.Logger, cfg Config) (llm.Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "", LLMProviderOpenAI:
		c, err := openai.NewClient(log, cfg.OpenAI)
		if err != nil {
			return nil, fmt.Errorf("init openai: %w", err)
		}
		return c, nil
	case LLMProviderAnthropic:
		c, err := anthropic.NewClient(log, cfg.Anthropic)
		if err != nil {
			return nil, fmt.Errorf("init anthropic: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

func (c *Clients) Close() {
	if c.NATS != nil {
		c.NATS.Close()
		c.NATS = nil
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
		c.Bus = nil
	}
}
