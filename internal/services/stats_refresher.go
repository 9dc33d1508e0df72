package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

type StatisticsRebuilder interface {
	RebuildAll(ctx context.Context) (int, error)
}

// StatsRefresher periodically re-runs the aggregation job for every user
type StatsRefresher struct {
	stats    StatisticsRebuilder
	interval time.Duration
	log      *logrus.Entry
	done     chan struct{}
}

func NewStatsRefresher(stats StatisticsRebuilder, interval time.Duration, log *logrus.Entry) *StatsRefresher {
	return &StatsRefresher{
		stats:    stats,
		interval: interval,
		log:      log,
		done:     make(chan struct{}),
	}
}

func (r *StatsRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	go func() {
		defer close(r.done)
		for {
			select {
			case <-ticker.C:
				r.refresh(ctx)
			case <-ctx.Done():
				r.log.Info("stopping statistics refresher")
				ticker.Stop()
				return
			}
		}
	}()
}

// Done is closed once the refresher goroutine has exited
func (r *StatsRefresher) Done() <-chan struct{} {
	return r.done
}

func (r *StatsRefresher) refresh(ctx context.Context) {
	start := time.Now()
	n, err := r.stats.RebuildAll(ctx)
	if err != nil {
		r.log.WithError(err).Error("statistics refresh failed")
		return
	}

	r.log.WithFields(logrus.Fields{
		"users":       n,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("statistics refreshed")
}
