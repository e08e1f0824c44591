package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"wordcards/internal/metrics"
)

// Reconciler recomputes stored progress aggregates
type Reconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

// SessionCleaner removes expired sessions
type SessionCleaner interface {
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// Scheduler runs the periodic maintenance jobs
type Scheduler struct {
	scheduler         *gocron.Scheduler
	reconciler        Reconciler
	sessions          SessionCleaner
	reconcileInterval time.Duration
	cleanupInterval   time.Duration
	jobTimeout        time.Duration
}

// New creates a new scheduler. A zero reconcileInterval disables the
// reconcile job.
func New(reconciler Reconciler, sessions SessionCleaner, reconcileInterval, cleanupInterval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler:         gocron.NewScheduler(time.UTC),
		reconciler:        reconciler,
		sessions:          sessions,
		reconcileInterval: reconcileInterval,
		cleanupInterval:   cleanupInterval,
		jobTimeout:        10 * time.Minute,
	}
}

// Start registers the jobs and runs them in the background
func (s *Scheduler) Start() error {
	if s.reconcileInterval > 0 {
		if _, err := s.scheduler.Every(s.reconcileInterval).SingletonMode().Do(s.reconcile); err != nil {
			return fmt.Errorf("failed to schedule reconcile job: %w", err)
		}
		log.Printf("Progress reconcile scheduled every %s", s.reconcileInterval)
	}
	if s.cleanupInterval > 0 {
		if _, err := s.scheduler.Every(s.cleanupInterval).SingletonMode().Do(s.cleanupSessions); err != nil {
			return fmt.Errorf("failed to schedule session cleanup job: %w", err)
		}
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled jobs
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	start := time.Now()
	failed, err := s.reconciler.ReconcileAll(ctx)
	switch {
	case err != nil:
		metrics.ReconcileRuns.WithLabelValues("error").Inc()
		log.Printf("Progress reconcile failed: %v", err)
	case failed > 0:
		metrics.ReconcileRuns.WithLabelValues("partial").Inc()
		log.Printf("Progress reconcile finished with %d failed accounts in %s", failed, time.Since(start))
	default:
		metrics.ReconcileRuns.WithLabelValues("success").Inc()
		log.Printf("Progress reconcile finished in %s", time.Since(start))
	}
}

func (s *Scheduler) cleanupSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
	defer cancel()

	n, err := s.sessions.CleanupExpiredSessions(ctx)
	if err != nil {
		log.Printf("Error cleaning up expired sessions: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Cleaned up %d expired sessions", n)
	}
}
