// Package jobs runs the background maintenance the store model needs:
// repair of orphaned session token material (multi-key session writes are
// not crash-atomic on every backend) and the periodic report capacity
// sweep.
package jobs

import (
	"context"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"ecowatch/api/internal/repository"
	"ecowatch/api/internal/store"
)

type Scheduler struct {
	cron    *cron.Cron
	kv      store.KV
	reports *repository.ReportRepository
	log     zerolog.Logger
}

func NewScheduler(kv store.KV, reports *repository.ReportRepository, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		kv:      kv,
		reports: reports,
		log:     log,
	}
}

func (s *Scheduler) Start() error {
	// Repair once at startup, before any request can observe stale state.
	s.reconcileSession()

	if _, err := s.cron.AddFunc("0 */15 * * * *", s.reconcileSession); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 * * * *", s.sweepReports); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() context.CancelFunc {
	_, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	go func() {
		s.cron.Stop()
		cancel()
	}()
	return cancel
}

// reconcileSession deletes token material that can no longer back a valid
// session: expired expiry, unparseable expiry, or a token with no
// username next to it.
func (s *Scheduler) reconcileSession() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	token, hasToken, err := s.kv.Get(ctx, store.KeyToken)
	if err != nil {
		s.log.Error().Err(err).Msg("session reconciliation read failed")
		return
	}
	if !hasToken || token == "" {
		return
	}

	stale := false

	expiryRaw, hasExpiry, err := s.kv.Get(ctx, store.KeyTokenExpiry)
	if err != nil {
		s.log.Error().Err(err).Msg("session reconciliation read failed")
		return
	}
	if !hasExpiry {
		stale = true
	} else if millis, err := strconv.ParseInt(expiryRaw, 10, 64); err != nil || !time.Now().Before(time.UnixMilli(millis)) {
		stale = true
	}

	username, hasUsername, err := s.kv.Get(ctx, store.KeyUsername)
	if err != nil {
		s.log.Error().Err(err).Msg("session reconciliation read failed")
		return
	}
	if !hasUsername || username == "" {
		stale = true
	}

	if !stale {
		return
	}

	err = s.kv.RemoveMulti(ctx, []string{
		store.KeyToken, store.KeyRole, store.KeyUsername, store.KeyTokenExpiry,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("session reconciliation cleanup failed")
		return
	}
	s.log.Info().Msg("cleared stale session token material")
}

// sweepReports resyncs the report repository, which re-applies the
// capacity eviction policy against the store.
func (s *Scheduler) sweepReports() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.reports.Sync(ctx); err != nil {
		s.log.Error().Err(err).Msg("report capacity sweep failed")
	}
}
