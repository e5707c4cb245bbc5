package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"tenmunches/internal/domain"
)

// ErrSchedulerStopped is returned by Trigger after Stop.
var ErrSchedulerStopped = errors.New("scheduler stopped")

// Refresher runs a full refresh over a list of categories.
type Refresher interface {
	RunFullRefresh(ctx context.Context, categories []string) (domain.RefreshLog, error)
	Running() bool
}

// Scheduler refreshes the catalog on a fixed interval and on demand.
type Scheduler struct {
	refresher  Refresher
	store      domain.CategoryStore
	categories []string
	interval   time.Duration

	// ctx bounds every refresh the scheduler starts; Stop cancels it.
	ctx    context.Context
	cancel context.CancelFunc
	busy   atomic.Bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler builds a scheduler. interval <= 0 disables periodic runs;
// Trigger and the initial empty-store check still work.
func NewScheduler(r Refresher, store domain.CategoryStore, categories []string, interval time.Duration) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		refresher:  r,
		store:      store,
		categories: append([]string(nil), categories...),
		interval:   interval,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start runs the scheduler loop and blocks until Stop is called or ctx ends.
// If the store holds no categories yet, an initial refresh starts right away.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return ErrSchedulerStopped
	}
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.initialCheck(ctx)

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
		log.Info().Dur("interval", s.interval).Msg("scheduler started")
	} else {
		log.Info().Msg("scheduler started without periodic refresh")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-tick:
			if err := s.Trigger(ctx); err != nil {
				log.Warn().Err(err).Msg("scheduled refresh skipped")
			}
		}
	}
}

// Stop ends the loop, cancels a refresh started by the scheduler and waits
// for it to return. A stopped scheduler cannot be restarted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.running {
		s.running = false
		close(s.stopCh)
	}
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
}

// Trigger starts a full refresh in the background. It returns
// ErrRefreshInProgress when one is already running. The refresh runs under
// the scheduler's context, so it outlives the caller's ctx but not Stop.
func (s *Scheduler) Trigger(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return ErrSchedulerStopped
	}
	if !s.busy.CompareAndSwap(false, true) {
		return domain.ErrRefreshInProgress
	}
	// a refresh may also have been started outside the scheduler
	if s.refresher.Running() {
		s.busy.Store(false)
		return domain.ErrRefreshInProgress
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.busy.Store(false)
		entry, err := s.refresher.RunFullRefresh(s.ctx, s.categories)
		switch {
		case errors.Is(err, domain.ErrRefreshInProgress):
			log.Info().Msg("refresh already running")
		case errors.Is(err, context.Canceled):
			log.Warn().Msg("refresh cancelled")
		case err != nil:
			log.Error().Err(err).Msg("refresh failed")
		default:
			log.Info().Str("status", entry.Status).Str("id", entry.ID).Msg("refresh finished")
		}
	}()
	return nil
}

func (s *Scheduler) initialCheck(ctx context.Context) {
	existing, err := s.store.ListCategories(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not check store on startup")
		return
	}
	if len(existing) > 0 {
		log.Info().Int("categories", len(existing)).Msg("store populated, no initial refresh needed")
		return
	}
	log.Info().Msg("store is empty, starting initial refresh")
	if err := s.Trigger(ctx); err != nil {
		log.Warn().Err(err).Msg("initial refresh skipped")
	}
}
