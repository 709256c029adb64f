package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
	"github.com/atvirokodosprendimai/audito/internal/core/ports"
)

const (
	defaultCaptureQueueSize     = 1024
	defaultCaptureWorkers       = 4
	defaultCaptureInsertTimeout = 5 * time.Second
)

// Capture turns host mutation events into audit records. OnMutation only
// enqueues; a fixed pool of workers builds and stores the records. Failures
// are logged and never reach the host.
type Capture struct {
	registry      *domain.Registry
	watched       domain.WatchSet
	store         ports.AuditStore
	notifiers     []ports.RecordNotifier
	logger        *zap.Logger
	metrics       *CaptureMetrics
	workers       int
	insertTimeout time.Duration

	mu      sync.RWMutex
	queue   chan domain.MutationEvent
	started bool
	closed  bool
	group   errgroup.Group

	recordedTotal atomic.Int64
	failedTotal   atomic.Int64
	droppedTotal  atomic.Int64
	ignoredTotal  atomic.Int64
}

type CaptureMetricsSnapshot struct {
	Recorded int64
	Failed   int64
	Dropped  int64
	Ignored  int64
}

type CaptureOption func(*captureOptions)

type captureOptions struct {
	queueSize     int
	workers       int
	insertTimeout time.Duration
	notifiers     []ports.RecordNotifier
	metrics       *CaptureMetrics
}

// WithQueueSize bounds the number of events waiting for a worker.
func WithQueueSize(n int) CaptureOption {
	return func(o *captureOptions) { o.queueSize = n }
}

func WithWorkers(n int) CaptureOption {
	return func(o *captureOptions) { o.workers = n }
}

func WithInsertTimeout(d time.Duration) CaptureOption {
	return func(o *captureOptions) { o.insertTimeout = d }
}

func WithNotifiers(n ...ports.RecordNotifier) CaptureOption {
	return func(o *captureOptions) { o.notifiers = append(o.notifiers, n...) }
}

func WithCaptureMetrics(m *CaptureMetrics) CaptureOption {
	return func(o *captureOptions) { o.metrics = m }
}

func NewCapture(registry *domain.Registry, watched domain.WatchSet, store ports.AuditStore, logger *zap.Logger, opts ...CaptureOption) *Capture {
	o := captureOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.queueSize <= 0 {
		o.queueSize = defaultCaptureQueueSize
	}
	if o.workers <= 0 {
		o.workers = defaultCaptureWorkers
	}
	if o.insertTimeout <= 0 {
		o.insertTimeout = defaultCaptureInsertTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Capture{
		registry:      registry,
		watched:       watched,
		store:         store,
		notifiers:     o.notifiers,
		logger:        logger.Named("capture"),
		metrics:       o.metrics,
		workers:       o.workers,
		insertTimeout: o.insertTimeout,
		queue:         make(chan domain.MutationEvent, o.queueSize),
	}
}

// Register subscribes the capture to every watched model of src.
func (c *Capture) Register(src ports.MutationSource) {
	src.Subscribe(c.watched.Models(), c.OnMutation)
}

// OnMutation accepts a committed host mutation. It never blocks and never
// fails: events for unwatched models are ignored and events that do not fit
// in the queue are dropped. The entity state is copied before OnMutation
// returns, so the host may reuse or modify it afterwards.
func (c *Capture) OnMutation(ev domain.MutationEvent) {
	if ev == nil || !c.watched.Contains(ev.ModelID()) {
		c.ignoredTotal.Add(1)
		c.metrics.inc(resultIgnored)
		return
	}
	ev = domain.Snapshot(ev)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.drop(ev, "capture closed")
		return
	}
	select {
	case c.queue <- ev:
		c.metrics.setQueueDepth(len(c.queue))
	default:
		c.drop(ev, "queue full")
	}
}

func (c *Capture) drop(ev domain.MutationEvent, reason string) {
	c.droppedTotal.Add(1)
	c.metrics.inc(resultDropped)
	c.logger.Warn("audit event dropped",
		zap.String("reason", reason),
		zap.String("model", ev.ModelID()),
		zap.String("action", string(ev.Action())),
	)
}

// Start launches the workers. Cancelling ctx does not abort in-flight
// inserts; use Close to stop.
func (c *Capture) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.closed {
		return
	}
	c.started = true
	base := context.WithoutCancel(ctx)
	for range c.workers {
		c.group.Go(func() error {
			for ev := range c.queue {
				c.metrics.setQueueDepth(len(c.queue))
				c.process(base, ev)
			}
			return nil
		})
	}
	c.logger.Info("audit capture started",
		zap.Int("workers", c.workers),
		zap.Int("queue_size", cap(c.queue)),
		zap.Strings("models", c.watched.Models()),
	)
}

// Close stops accepting events and waits for queued ones to be written.
func (c *Capture) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.queue)
	started := c.started
	c.mu.Unlock()

	if !started {
		for ev := range c.queue {
			c.drop(ev, "capture never started")
		}
		return nil
	}
	return c.group.Wait()
}

func (c *Capture) process(parent context.Context, ev domain.MutationEvent) {
	log := c.logger.With(zap.String("model", ev.ModelID()), zap.String("action", string(ev.Action())))
	defer func() {
		if r := recover(); r != nil {
			c.failedTotal.Add(1)
			c.metrics.inc(resultFailed)
			log.Error("audit capture panicked", zap.Any("panic", r))
		}
	}()

	rec := BuildRecord(ev, c.registry)
	if rec.ContentTypeName == "" {
		log.Warn("content type name unresolved", zap.Error(domain.ErrRegistryLookup))
	}

	ctx, cancel := context.WithTimeout(parent, c.insertTimeout)
	saved, err := c.store.Insert(ctx, rec)
	cancel()
	if err != nil {
		c.failedTotal.Add(1)
		c.metrics.inc(resultFailed)
		log.Error("create audit record", zap.Error(err))
		return
	}
	c.recordedTotal.Add(1)
	c.metrics.inc(resultRecorded)
	log.Debug("audit record created", zap.Int64("audit_id", saved.ID), zap.Int64("record_id", saved.RecordID))

	c.notify(parent, log, saved.Summary())
}

func (c *Capture) notify(parent context.Context, log *zap.Logger, summary domain.AuditSummary) {
	for _, n := range c.notifiers {
		ctx, cancel := context.WithTimeout(parent, c.insertTimeout)
		err := n.Notify(ctx, summary)
		cancel()
		if err != nil {
			log.Warn("notify audit record", zap.Int64("audit_id", summary.ID), zap.Error(err))
		}
	}
}

func (c *Capture) Metrics() CaptureMetricsSnapshot {
	return CaptureMetricsSnapshot{
		Recorded: c.recordedTotal.Load(),
		Failed:   c.failedTotal.Load(),
		Dropped:  c.droppedTotal.Load(),
		Ignored:  c.ignoredTotal.Load(),
	}
}
