// Package worker consumes queued CV extraction jobs and runs them through
// the pipeline with bounded concurrency.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	natsclient "github.com/yungbote/cvextract/internal/clients/nats"
	"github.com/yungbote/cvextract/internal/extraction/errs"
	"github.com/yungbote/cvextract/internal/extraction/pipeline"
	"github.com/yungbote/cvextract/internal/pkg/httpx"
	"github.com/yungbote/cvextract/internal/platform/envutil"
	"github.com/yungbote/cvextract/internal/platform/logger"
)

type Processor interface {
	Process(ctx context.Context, job pipeline.Job) (*pipeline.Result, error)
}

// Queue is the subset of the NATS client the worker needs.
type Queue interface {
	QueueSubscribe(subject, queue string, handler func(subject string, data []byte)) error
	Publish(subject string, data any) error
}

type Config struct {
	Concurrency   int
	JobTimeout    time.Duration
	MaxDeliveries int
	// RetryDelay is the pause before the first redelivery; it doubles per attempt.
	RetryDelay        time.Duration
	Subject           string
	DeadLetterSubject string
	QueueGroup        string
}

func ConfigFromEnv() Config {
	return Config{
		Concurrency:       envutil.Int("WORKER_CONCURRENCY", 4),
		JobTimeout:        envutil.Seconds("JOB_TIMEOUT_SECONDS", 5*time.Minute),
		MaxDeliveries:     envutil.Int("WORKER_MAX_DELIVERIES", 5),
		RetryDelay:        envutil.Seconds("WORKER_RETRY_DELAY_SECONDS", 5*time.Second),
		Subject:           envutil.String("NATS_SUBJECT", natsclient.SubjectExtractionRequested),
		DeadLetterSubject: envutil.String("NATS_DEADLETTER_SUBJECT", natsclient.SubjectExtractionDeadLetter),
		QueueGroup:        envutil.String("NATS_QUEUE_GROUP", natsclient.QueueWorkers),
	}
}

func (c Config) withDefaults() Config {
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 5 * time.Minute
	}
	if c.MaxDeliveries < 1 {
		c.MaxDeliveries = 1
	}
	if c.Subject == "" {
		c.Subject = natsclient.SubjectExtractionRequested
	}
	if c.DeadLetterSubject == "" {
		c.DeadLetterSubject = natsclient.SubjectExtractionDeadLetter
	}
	if c.QueueGroup == "" {
		c.QueueGroup = natsclient.QueueWorkers
	}
	return c
}

// DeadLetter is published for jobs that will not be retried.
type DeadLetter struct {
	Job       *pipeline.Job `json:"job,omitempty"`
	Raw       string        `json:"raw,omitempty"`
	Error     string        `json:"error"`
	Kind      errs.Kind     `json:"kind,omitempty"`
	Attempts  int           `json:"attempts"`
	FailedAt  time.Time     `json:"failed_at"`
	Retryable bool          `json:"retryable"`
}

type Outcome string

const (
	OutcomeDone       Outcome = "done"
	OutcomeRetried    Outcome = "retried"
	OutcomeDeadLetter Outcome = "dead_letter"
)

type Worker struct {
	log   *logger.Logger
	queue Queue
	proc  Processor
	cfg   Config
	sem   *semaphore.Weighted
	wg    sync.WaitGroup
}

func NewWorker(queue Queue, proc Processor, cfg Config, baseLog *logger.Logger) *Worker {
	cfg = cfg.withDefaults()
	return &Worker{
		log:   baseLog.With("component", "ExtractionWorker"),
		queue: queue,
		proc:  proc,
		cfg:   cfg,
		sem:   semaphore.NewWeighted(int64(cfg.Concurrency)),
	}
}

// Start subscribes to the job subject. Messages are handled until ctx is
// cancelled; Wait blocks until in-flight jobs finish.
func (w *Worker) Start(ctx context.Context) error {
	w.log.Info("Starting extraction worker",
		"concurrency", w.cfg.Concurrency,
		"subject", w.cfg.Subject,
		"queue", w.cfg.QueueGroup,
		"job_timeout", w.cfg.JobTimeout.String(),
	)
	return w.queue.QueueSubscribe(w.cfg.Subject, w.cfg.QueueGroup, func(_ string, data []byte) {
		// Blocking here holds back delivery on this subscription while all slots are busy.
		if err := w.sem.Acquire(ctx, 1); err != nil {
			w.log.Warn("Worker stopping, message not handled", "error", err)
			return
		}
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer w.sem.Release(1)
			w.Handle(ctx, data)
		}()
	})
}

func (w *Worker) Wait() { w.wg.Wait() }

// Handle runs one message and decides whether it is done, redelivered or
// dead-lettered.
func (w *Worker) Handle(ctx context.Context, data []byte) Outcome {
	var job pipeline.Job
	if err := json.Unmarshal(data, &job); err != nil {
		w.log.Error("Undecodable job message", "error", err)
		w.deadLetter(DeadLetter{Raw: string(data), Error: fmt.Sprintf("decode job: %v", err), Kind: errs.KindInvalidInput, Attempts: 1})
		return OutcomeDeadLetter
	}
	attempt := job.Attempt + 1
	log := w.log.With("request_id", job.RequestID, "file_id", job.FileID, "attempt", attempt)

	err := w.run(ctx, job)
	if err == nil {
		return OutcomeDone
	}

	if errs.IsRetryable(err) && attempt < w.cfg.MaxDeliveries && ctx.Err() == nil {
		delay := w.backoff(job.Attempt)
		log.Warn("Job failed, scheduling redelivery", "delay", delay.String(), "error", err)
		if sleepErr := httpx.Sleep(ctx, delay); sleepErr != nil {
			log.Warn("Worker stopping before redelivery", "error", sleepErr)
		}
		job.Attempt = attempt
		pubErr := w.queue.Publish(w.cfg.Subject, job)
		if pubErr == nil {
			return OutcomeRetried
		}
		log.Error("Redelivery publish failed", "error", pubErr)
	}

	job.Content = nil
	w.deadLetter(DeadLetter{
		Job:       &job,
		Error:     err.Error(),
		Kind:      errs.KindOf(err),
		Attempts:  attempt,
		Retryable: errs.IsRetryable(err),
	})
	return OutcomeDeadLetter
}

func (w *Worker) run(ctx context.Context, job pipeline.Job) (err error) {
	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			w.log.Error("Job handler panic", "file_id", job.FileID, "panic", r)
			err = errs.New(errs.KindExtraction, "worker.run", "panic while processing job", fmt.Errorf("%v", r))
		}
	}()
	_, err = w.proc.Process(jobCtx, job)
	return err
}

func (w *Worker) backoff(attempt int) time.Duration {
	if w.cfg.RetryDelay <= 0 {
		return 0
	}
	d := w.cfg.RetryDelay << attempt
	if d <= 0 || d > time.Minute {
		return time.Minute
	}
	return d
}

func (w *Worker) deadLetter(dl DeadLetter) {
	dl.FailedAt = time.Now().UTC()
	if err := w.queue.Publish(w.cfg.DeadLetterSubject, dl); err != nil {
		w.log.Error("Dead-letter publish failed", "error", err, "original_error", dl.Error)
		return
	}
	w.log.Warn("Job dead-lettered", "kind", dl.Kind, "attempts", dl.Attempts, "error", dl.Error)
}
