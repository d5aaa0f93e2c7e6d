package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/VinayKumar7512/EventNest/internal/service"
	"github.com/VinayKumar7512/EventNest/pkg/logger"
)

// ReminderWorkerConfig contains configuration for the reminder worker
type ReminderWorkerConfig struct {
	// SweepInterval is the interval between reminder sweeps
	SweepInterval time.Duration
}

// DefaultReminderWorkerConfig returns default configuration
func DefaultReminderWorkerConfig() *ReminderWorkerConfig {
	return &ReminderWorkerConfig{
		SweepInterval: 1 * time.Hour,
	}
}

// ReminderWorker runs reminder sweeps on a ticker. Multiple instances can
// run against the same database; the per-booking claim in the sweep keeps
// them from double-sending.
type ReminderWorker struct {
	reminders service.ReminderService
	config    *ReminderWorkerConfig
	log       *logger.Logger
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool

	// Stats
	totalSent     int64
	totalSweeps   int64
	lastSweepTime time.Time
	lastSentCount int
}

// NewReminderWorker creates a new reminder worker
func NewReminderWorker(reminders service.ReminderService, config *ReminderWorkerConfig) *ReminderWorker {
	if config == nil {
		config = DefaultReminderWorkerConfig()
	}

	return &ReminderWorker{
		reminders: reminders,
		config:    config,
		log:       logger.Get(),
		stopCh:    make(chan struct{}),
	}
}

// Start starts the reminder worker
func (w *ReminderWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("reminder worker already running")
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("Starting reminder worker")

	w.wg.Add(1)
	go w.sweepLoop(ctx)

	return nil
}

// Stop stops the reminder worker
func (w *ReminderWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	w.log.Info("Stopping reminder worker")
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("Reminder worker stopped")
}

// sweepLoop runs sweeps on the configured interval
func (w *ReminderWorker) sweepLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	// Run immediately on start
	w.runSweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.runSweep(ctx)
		}
	}
}

// runSweep executes one sweep and records stats
func (w *ReminderWorker) runSweep(ctx context.Context) {
	w.mu.Lock()
	w.lastSweepTime = time.Now()
	w.totalSweeps++
	w.mu.Unlock()

	result, err := w.reminders.Run(ctx)
	if err != nil {
		w.log.Error(fmt.Sprintf("Reminder sweep failed: %v", err))
		return
	}

	w.mu.Lock()
	w.totalSent += int64(result.Sent)
	w.lastSentCount = result.Sent
	w.mu.Unlock()

	if result.Sent > 0 || result.Failed > 0 {
		w.log.Info(fmt.Sprintf("Reminder sweep: scanned=%d sent=%d skipped=%d failed=%d",
			result.Scanned, result.Sent, result.Skipped, result.Failed))
	}
}

// Stats returns worker statistics
func (w *ReminderWorker) Stats() map[string]interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	return map[string]interface{}{
		"running":         w.running,
		"total_sweeps":    w.totalSweeps,
		"total_sent":      w.totalSent,
		"last_sweep_time": w.lastSweepTime,
		"last_sent_count": w.lastSentCount,
	}
}
