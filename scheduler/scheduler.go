package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"estatenexus/config"
	"estatenexus/services"
	"estatenexus/storage"
)

// Triggerable allows workers to be triggered manually.
type Triggerable interface {
	Trigger()
}

const auditRetention = 90 * 24 * time.Hour

// Scheduler runs the periodic housekeeping jobs: expiring stale invitations,
// refreshing directory rollups, and pruning the local audit log.
type Scheduler struct {
	cfg       *config.SchedulerConfig
	companies *services.CompanyService
	local     *storage.SQLiteStore
	cron      *cron.Cron
	ticker    *time.Ticker
	stopCh    chan struct{}

	statsWorker Triggerable
}

func New(cfg *config.SchedulerConfig, companies *services.CompanyService, local *storage.SQLiteStore) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		companies: companies,
		local:     local,
		cron:      cron.New(),
		stopCh:    make(chan struct{}),
	}
}

// SetWorkers registers background workers the scheduler may trigger.
func (s *Scheduler) SetWorkers(stats Triggerable) {
	s.statsWorker = stats
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.InviteSweepCron != "" {
		log.Printf("Invite sweep scheduled: %s", s.cfg.InviteSweepCron)
		_, err := s.cron.AddFunc(s.cfg.InviteSweepCron, func() {
			s.sweepInvitations(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid invite sweep cron: %w", err)
		}
	}

	if s.cfg.StatsRefreshCron != "" {
		log.Printf("Stats refresh scheduled: %s", s.cfg.StatsRefreshCron)
		_, err := s.cron.AddFunc(s.cfg.StatsRefreshCron, func() {
			if s.statsWorker != nil {
				s.statsWorker.Trigger()
			}
		})
		if err != nil {
			return fmt.Errorf("invalid stats refresh cron: %w", err)
		}
	}

	// Audit pruning is cheap, once a day is plenty.
	if _, err := s.cron.AddFunc("30 3 * * *", s.pruneAudit); err != nil {
		return fmt.Errorf("invalid prune cron: %w", err)
	}

	s.cron.Start()

	if s.cfg.InviteSweepCron == "" && s.cfg.StatsRefreshCron == "" && s.cfg.Interval > 0 {
		log.Printf("Scheduler running on interval: %s", s.cfg.Interval)
		s.ticker = time.NewTicker(s.cfg.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.sweepInvitations(ctx)
					if s.statsWorker != nil {
						s.statsWorker.Trigger()
					}
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

func (s *Scheduler) sweepInvitations(ctx context.Context) {
	n, err := s.companies.ExpireInvitations(ctx)
	if err != nil {
		log.Printf("Invite sweep error: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Invite sweep: expired %d invitations", n)
	}
}

func (s *Scheduler) pruneAudit() {
	if s.local == nil {
		return
	}
	n, err := s.local.PruneAudit(auditRetention)
	if err != nil {
		log.Printf("Audit prune error: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Audit prune: removed %d rows", n)
	}
}
