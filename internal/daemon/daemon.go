package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/username/aviv-calendar/internal/astro"
	"github.com/username/aviv-calendar/internal/calendar"
	"github.com/username/aviv-calendar/pkg/dateutil"
)

// ErrAlreadyRunning is returned when a check is requested while another is in progress
var ErrAlreadyRunning = errors.New("check already in progress")

// Resolver resolves the present moment at a location
type Resolver interface {
	Now(ctx context.Context, loc astro.Location) (*calendar.ResolvedDate, error)
}

// Daemon periodically resolves the current lunisolar date and reports day changes
type Daemon struct {
	resolver      Resolver
	location      astro.Location
	checkInterval time.Duration
	logger        *zap.Logger
	ctx           context.Context
	cancel        context.CancelFunc

	mu          sync.Mutex
	running     bool                   // a check is in progress
	last        *calendar.ResolvedDate // last successfully resolved date
	lastRunTime time.Time
}

// NewDaemon creates a new daemon instance
func NewDaemon(resolver Resolver, location astro.Location, checkInterval time.Duration, logger *zap.Logger) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		resolver:      resolver,
		location:      location,
		checkInterval: checkInterval,
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start runs checks until Stop is called or the process is signalled
func (d *Daemon) Start() error {
	d.logger.Info("Daemon started",
		zap.String("location", d.location.String()),
		zap.Duration("check_interval", d.checkInterval))

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	return d.loop(d.ctx, sigChan)
}

// RunWithTimeout runs the daemon with a timeout (for testing)
func (d *Daemon) RunWithTimeout(timeout time.Duration) error {
	d.logger.Info("Daemon started with timeout",
		zap.Duration("timeout", timeout),
		zap.Duration("check_interval", d.checkInterval))

	timeoutCtx, timeoutCancel := context.WithTimeout(d.ctx, timeout)
	defer timeoutCancel()

	return d.loop(timeoutCtx, nil)
}

func (d *Daemon) loop(ctx context.Context, sigChan <-chan os.Signal) error {
	// Run initial check immediately
	d.runCheck(ctx)

	ticker := time.NewTicker(d.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Daemon stopped")
			return nil

		case sig := <-sigChan:
			d.logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			d.Stop()
			return nil

		case <-ticker.C:
			d.runCheck(ctx)
		}
	}
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}

func (d *Daemon) runCheck(ctx context.Context) {
	if _, _, err := d.RunOnce(ctx); err != nil {
		if errors.Is(err, ErrAlreadyRunning) {
			d.logger.Warn("Previous check still running, skipping")
			return
		}
		d.logger.Error("Check failed", zap.Error(err))
	}
}

// RunOnce resolves the current date and reports whether it differs from the
// previous successful check.
func (d *Daemon) RunOnce(ctx context.Context) (*calendar.ResolvedDate, bool, error) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil, false, ErrAlreadyRunning
	}
	d.running = true
	previous := d.last
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	date, err := d.resolver.Now(ctx, d.location)
	if err != nil {
		return nil, false, fmt.Errorf("failed to resolve current date: %w", err)
	}

	changed := previous == nil || previous.String() != date.String()
	if changed {
		d.logDayChange(previous, date)
	} else {
		d.logger.Debug("Lunisolar day unchanged", zap.String("date", date.String()))
	}
	for _, w := range date.Warnings {
		d.logger.Warn("Resolution warning", zap.String("date", date.String()), zap.String("warning", w))
	}

	d.mu.Lock()
	d.last = date
	d.lastRunTime = time.Now()
	d.mu.Unlock()

	return date, changed, nil
}

func (d *Daemon) logDayChange(previous, current *calendar.ResolvedDate) {
	fields := []zap.Field{
		zap.String("date", current.String()),
		zap.String("month", current.MonthName()),
		zap.String("weekday", current.Weekday.String()),
		zap.String("confidence", current.Confidence.String()),
		zap.Bool("sabbath", current.IsSabbath()),
	}
	if current.Feast.Name != "" {
		fields = append(fields, zap.String("feast", current.Feast.Name))
	}
	if previous != nil {
		fields = append(fields, zap.String("previous", previous.String()))
	}
	d.logger.Info("Lunisolar day changed", fields...)

	if current.IsSabbath() && (previous == nil || !previous.IsSabbath()) {
		d.logger.Info("Sabbath begins",
			zap.String("date", current.String()),
			zap.Bool("high_sabbath", current.Feast.IsHighSabbath))
	}
}

// GetStatus returns daemon status
func (d *Daemon) GetStatus() map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	status := map[string]interface{}{
		"running":        d.ctx.Err() == nil,
		"location":       d.location.String(),
		"check_interval": d.checkInterval.String(),
	}

	if d.last != nil {
		status["today"] = map[string]interface{}{
			"date":       d.last.String(),
			"weekday":    d.last.Weekday.String(),
			"sabbath":    d.last.IsSabbath(),
			"feast":      d.last.Feast.Name,
			"checked_at": dateutil.FormatISO8601(d.lastRunTime),
		}
	}

	return status
}
