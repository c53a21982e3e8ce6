package worker

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/matiassromo/registro-helados/internal/core/notifications"
)

const (
	MaxAttempts = 5
	queueSize   = 256

	// DefaultDrainTimeout bounds how long Stop keeps delivering queued events.
	DefaultDrainTimeout = 10 * time.Second
)

type job struct {
	payload  interface{}
	attempts int
}

// WebhookWorker delivers payloads to one URL in the background, retrying
// failed deliveries with a growing delay.
type WebhookWorker struct {
	url    string
	secret string
	client *http.Client

	// retryUnit scales the delay: attempt n waits (n*10+10) units.
	retryUnit    time.Duration
	drainTimeout time.Duration

	jobs   chan job
	quit   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*WebhookWorker)

func WithClient(client *http.Client) Option {
	return func(w *WebhookWorker) { w.client = client }
}

func WithRetryUnit(unit time.Duration) Option {
	return func(w *WebhookWorker) { w.retryUnit = unit }
}

func WithDrainTimeout(timeout time.Duration) Option {
	return func(w *WebhookWorker) { w.drainTimeout = timeout }
}

func NewWebhookWorker(url, secret string, opts ...Option) *WebhookWorker {
	ctx, cancel := context.WithCancel(context.Background())
	w := &WebhookWorker{
		url:          url,
		secret:       secret,
		client:       notifications.DefaultClient,
		retryUnit:    time.Second,
		drainTimeout: DefaultDrainTimeout,
		jobs:         make(chan job, queueSize),
		quit:         make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the delivery goroutine.
func (w *WebhookWorker) Start() {
	w.wg.Add(1)
	go w.loop()
	slog.Info("👷 Webhook worker started", "url", w.url)
}

// Enqueue queues payload without blocking; when the queue is full the event is dropped.
func (w *WebhookWorker) Enqueue(payload interface{}) bool {
	select {
	case <-w.quit:
		return false
	default:
	}
	select {
	case w.jobs <- job{payload: payload}:
		return true
	default:
		slog.Warn("⚠️ Webhook queue full, dropping event")
		return false
	}
}

// Stop refuses new events, delivers the ones already queued and returns.
// Failed deliveries are not retried once stopping, and anything still in
// flight after the drain timeout is cancelled.
func (w *WebhookWorker) Stop() {
	w.once.Do(func() {
		close(w.quit)
		deadline := time.AfterFunc(w.drainTimeout, w.cancel)
		w.wg.Wait()
		deadline.Stop()
		w.cancel()
	})
	w.wg.Wait()
}

func (w *WebhookWorker) loop() {
	defer w.wg.Done()
	for {
		select {
		case j := <-w.jobs:
			w.process(j)
		case <-w.quit:
			w.drain()
			return
		}
	}
}

func (w *WebhookWorker) drain() {
	for {
		select {
		case j := <-w.jobs:
			w.process(j)
		default:
			slog.Info("👷 Webhook worker drained")
			return
		}
	}
}

func (w *WebhookWorker) process(j job) {
	for {
		err := notifications.SendWebhook(w.ctx, w.client, w.url, j.payload, w.secret)
		if err == nil {
			slog.Info("✅ Worker: webhook sent", "attempts", j.attempts+1)
			return
		}

		slog.Error("Worker: webhook failed", "error", err, "attempts", j.attempts)
		if j.attempts >= MaxAttempts-1 {
			slog.Error("Worker: job marked as FAILED (max attempts reached)")
			return
		}

		delay := time.Duration(j.attempts*10+10) * w.retryUnit
		j.attempts++
		slog.Info("Worker: scheduled retry", "in", delay)

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-w.quit:
			timer.Stop()
			return
		}
	}
}
