package workers

import (
	"context"
	"log"
	"time"
)

// StatsStore recomputes directory rollups in the database.
type StatsStore interface {
	RefreshAgentListingCounts(ctx context.Context) (int64, error)
}

// StatsRefresher rebuilds cached dashboard aggregates.
type StatsRefresher interface {
	RefreshStats(ctx context.Context) error
}

// StatsWorker keeps agent listing counts and the dashboard cache current.
// The rollups drive the listings-desc directory sort, so staleness shows up
// to users quickly.
type StatsWorker struct {
	store     StatsStore
	refresher StatsRefresher
	triggerCh chan struct{}
}

func NewStatsWorker(store StatsStore, refresher StatsRefresher) *StatsWorker {
	return &StatsWorker{
		store:     store,
		refresher: refresher,
		triggerCh: make(chan struct{}, 1),
	}
}

// Trigger requests an immediate refresh outside the regular interval.
func (w *StatsWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run starts the refresh loop.
func (w *StatsWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Stats worker stopping")
			return
		case <-ticker.C:
			w.refresh(ctx)
		case <-w.triggerCh:
			w.refresh(ctx)
		}
	}
}

func (w *StatsWorker) refresh(ctx context.Context) {
	updated, err := w.store.RefreshAgentListingCounts(ctx)
	if err != nil {
		log.Printf("Stats worker: rollup error: %v", err)
	} else if updated > 0 {
		log.Printf("Stats worker: updated listing counts for %d agents", updated)
	}

	if err := w.refresher.RefreshStats(ctx); err != nil {
		log.Printf("Stats worker: dashboard refresh error: %v", err)
	}
}
