package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/yangsearch/pkg/indices"
	"github.com/platinummonkey/yangsearch/pkg/observability"
)

// Counter counts the documents of an index.
type Counter interface {
	Count(ctx context.Context, kind indices.Kind) (int64, error)
}

// Collector periodically publishes document counts per index.
type Collector struct {
	counter Counter
	kinds   []indices.Kind
	metrics *observability.Metrics
	log     logrus.FieldLogger
	timeout time.Duration

	mu   sync.Mutex
	cron *cron.Cron
}

// NewCollector creates a collector for kinds.
func NewCollector(counter Counter, kinds []indices.Kind, metrics *observability.Metrics, log logrus.FieldLogger) *Collector {
	if log == nil {
		log = logrus.New()
	}
	return &Collector{
		counter: counter,
		kinds:   kinds,
		metrics: metrics,
		log:     log.WithField("component", "index_stats"),
		timeout: 30 * time.Second,
	}
}

// Collect counts every configured index once. A failing index does not
// stop the others; all failures are returned together.
func (c *Collector) Collect(ctx context.Context) error {
	var errs []error
	for _, kind := range c.kinds {
		count, err := c.counter.Count(ctx, kind)
		if err != nil {
			errs = append(errs, fmt.Errorf("count %s: %w", kind, err))
			continue
		}
		if c.metrics != nil {
			c.metrics.IndexDocuments.WithLabelValues(kind.IndexName()).Set(float64(count))
		}
		c.log.WithFields(logrus.Fields{
			"index":     kind.IndexName(),
			"documents": count,
		}).Debug("index statistics collected")
	}
	if c.metrics != nil {
		c.metrics.IndexStatsLastRunEpoch.SetToCurrentTime()
	}
	return errors.Join(errs...)
}

// Start runs Collect on schedule, a standard cron expression or an @every descriptor.
func (c *Collector) Start(schedule string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron != nil {
		return errors.New("collector already started")
	}

	sched := cron.New()
	_, err := sched.AddFunc(schedule, func() {
		defer observability.RecoverPanic(c.log, "index stats collection")

		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		if err := c.Collect(ctx); err != nil {
			c.log.WithError(err).Warn("index statistics collection failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule index statistics: %w", err)
	}

	sched.Start()
	c.cron = sched
	c.log.WithField("schedule", schedule).Info("index statistics collector started")
	return nil
}

// Stop stops the schedule and waits for a running collection or ctx.
func (c *Collector) Stop(ctx context.Context) error {
	c.mu.Lock()
	sched := c.cron
	c.cron = nil
	c.mu.Unlock()

	if sched == nil {
		return nil
	}

	select {
	case <-sched.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
