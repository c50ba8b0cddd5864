package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/application"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/interfaces"
	"github.com/Builder-Lawyers/site-provisioner/pkg/env"
)

// Reconciler periodically settles provisions left in PENDING or PROVISIONING.
type Reconciler struct {
	handlers *application.Handlers
	repo     interfaces.ProvisionRepo
	cfg      *ReconcilerConfig
	now      func() time.Time
	stop     chan struct{}
	done     chan struct{}
}

type ReconcilerConfig struct {
	interval   time.Duration
	staleAfter time.Duration
	limit      int
}

func NewReconcilerConfig() *ReconcilerConfig {
	return &ReconcilerConfig{
		interval:   env.GetEnvDuration("RECONCILE_INTERVAL", 60*time.Second),
		staleAfter: env.GetEnvDuration("RECONCILE_STALE_AFTER", 15*time.Minute),
		limit:      env.GetEnvInt("RECONCILE_LIMIT", 20),
	}
}

func NewReconciler(handlers *application.Handlers, repo interfaces.ProvisionRepo, cfg *ReconcilerConfig) *Reconciler {
	return &Reconciler{
		handlers: handlers,
		repo:     repo,
		cfg:      cfg,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *Reconciler) Start() {
	slog.Info("Starting stale provision reconciler...", "interval", r.cfg.interval, "staleAfter", r.cfg.staleAfter)
	ticker := time.NewTicker(r.cfg.interval)
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		ticker.Stop()
		cancel()
		close(r.done)
	}()

	for {
		select {
		case <-ticker.C:
			r.Poll(ctx)
		case <-r.stop:
			slog.Info("Cancelling current execution")
			return
		}
	}
}

// Poll reconciles one batch of stale provisions and waits for all of them.
func (r *Reconciler) Poll(ctx context.Context) {
	stale, err := r.repo.ListStale(ctx, r.now().Add(-r.cfg.staleAfter), r.cfg.limit)
	if err != nil {
		slog.Error("error listing stale provisions", "err", err)
		return
	}
	if len(stale) == 0 {
		slog.Debug("no stale provisions")
		return
	}

	var wg sync.WaitGroup
	for _, p := range stale {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slog.Info("Reconciling provision", "provision_id", p.ID, "status", p.Status, "updated_at", p.UpdatedAt)
			if err := r.handlers.ReconcileProvision.Handle(ctx, p); err != nil {
				slog.Error("reconcile error", "provision_id", p.ID, "err", err)
			}
		}()
	}
	wg.Wait()
	slog.Debug("Finished reconciler pass", "count", len(stale))
}

// Stop ends the loop and waits for an in-flight pass to finish.
func (r *Reconciler) Stop() {
	slog.Info("Stopping reconciler")
	close(r.stop)
	<-r.done
}
