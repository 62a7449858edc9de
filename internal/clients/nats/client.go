// Package nats wraps the NATS connection used to queue extraction jobs.
package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/yungbote/cvextract/internal/platform/envutil"
	"github.com/yungbote/cvextract/internal/platform/logger"
)

const (
	SubjectExtractionRequested  = "cv.extraction.requested"
	SubjectExtractionDeadLetter = "cv.extraction.deadletter"

	// QueueWorkers is the queue group shared by all extraction workers.
	QueueWorkers = "cv-extraction-workers"
)

type Config struct {
	URL   string
	Token string
}

func ConfigFromEnv() Config {
	return Config{
		URL:   envutil.String("NATS_URL", nats.DefaultURL),
		Token: envutil.String("NATS_TOKEN", ""),
	}
}

type Client struct {
	conn *nats.Conn
	subs []*nats.Subscription
	log  *logger.Logger
}

func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	log = log.With("client", "NATS")
	opts := []nats.Option{
		nats.Name("cvextract"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info("nats reconnected")
		}),
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Client{conn: nc, log: log}, nil
}

func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.conn.Publish(subject, payload)
}

// QueueSubscribe delivers each message on subject to one member of queue.
func (c *Client) QueueSubscribe(subject, queue string, handler func(subject string, data []byte)) error {
	sub, err := c.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(msg.Subject, msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.subs = append(c.subs, sub)
	c.log.Info("subscribed", "subject", subject, "queue", queue)
	return nil
}

// Drain unsubscribes after in-flight messages are handed to their handlers.
func (c *Client) Drain() error {
	return c.conn.Drain()
}

func (c *Client) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.conn.Close()
}
