package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"herald/internal/api"
	"herald/internal/config"
	"herald/internal/emitter"
	"herald/internal/event"
	"herald/internal/logging"
	"herald/internal/processor"
	"herald/internal/store"
)

// Daemon coordinates the processor, API server, and single-instance lock.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	processor *processor.Processor
	emitter   *emitter.Emitter
	service   *api.NotificationService

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	apiSrv  *apiServer
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger, proc *processor.Processor, emit *emitter.Emitter) (*Daemon, error) {
	if cfg == nil || st == nil || logger == nil || proc == nil {
		return nil, errors.New("daemon requires config, store, logger, and processor")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "heraldd.lock")
	return &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		processor: proc,
		emitter:   emit,
		service:   api.NewNotificationService(st),
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, launches the processor, and brings up
// the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another herald daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		if err := d.processor.Run(runCtx); err != nil {
			d.logger.Error("processor exited", logging.Error(err))
		}
	}()

	srv, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.apiSrv = srv
	if err := d.apiSrv.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("herald daemon started", logging.String("lock", d.lockPath))
	d.announceRestart(runCtx)
	return nil
}

// Stop halts the processor, shuts the API server down, and releases the
// lock. The processor's in-flight batch completes first.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	d.apiSrv.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("herald daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports daemon runtime information.
func (d *Daemon) Status(ctx context.Context) (api.StatusSummary, error) {
	summary, err := d.service.Summary(ctx)
	if err != nil {
		return api.StatusSummary{}, err
	}
	return api.StatusSummary{
		Running:  d.running.Load(),
		Consumer: d.processor.ConsumerName(),
		Total:    summary.Total,
		Unseen:   summary.Unseen,
		Claimed:  summary.Claimed,
		Resolved: summary.Resolved,
	}, nil
}

// announceRestart emits the daemon's own startup event. The computer/pid
// idempotency fields make repeated announcements from one boot collapse
// into a single notification.
func (d *Daemon) announceRestart(ctx context.Context) {
	if d.emitter == nil {
		return
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	_, err = d.emitter.Emit(ctx, emitter.Event{
		Type: "system.daemon.restarted",
		Payload: event.Payload{
			"computer": hostname,
			"pid":      strconv.Itoa(os.Getpid()),
		},
	})
	if err != nil {
		d.logger.Warn("failed to announce restart", logging.Error(err))
	}
}
