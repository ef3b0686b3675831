package installer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"ckan-devstaller/internal/logger"
	"ckan-devstaller/internal/precheck"
)

// ErrWaitTimeout is returned when a bounded wait gives up.
var ErrWaitTimeout = errors.New("timed out waiting")

// WaitOptions bound the installer's polling loops.
type WaitOptions struct {
	Interval    time.Duration
	FileTimeout time.Duration
	DBTimeout   time.Duration
}

// DefaultWaits polls every 2s for up to 2m.
func DefaultWaits() WaitOptions {
	return WaitOptions{
		Interval:    2 * time.Second,
		FileTimeout: 2 * time.Minute,
		DBTimeout:   2 * time.Minute,
	}
}

// withDefaults fills unset fields from DefaultWaits.
func (w WaitOptions) withDefaults() WaitOptions {
	d := DefaultWaits()
	if w.Interval <= 0 {
		w.Interval = d.Interval
	}
	if w.FileTimeout <= 0 {
		w.FileTimeout = d.FileTimeout
	}
	if w.DBTimeout <= 0 {
		w.DBTimeout = d.DBTimeout
	}
	return w
}

// poll calls check every interval until it reports done, returns an error,
// the timeout elapses or ctx is cancelled.
func poll(ctx context.Context, what string, interval, timeout time.Duration, check func(context.Context) (bool, error)) error {
	if interval <= 0 {
		interval = DefaultWaits().Interval
	}
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := check(ctx)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("%w for %s after %s", ErrWaitTimeout, what, timeout)
		}
		logger.Debug("[DEBUG] Still waiting for %s\n", what)
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", what, ctx.Err())
		case <-ticker.C:
		}
	}
}

// WaitForFile blocks until path exists.
func WaitForFile(ctx context.Context, path string, interval, timeout time.Duration) error {
	return poll(ctx, path, interval, timeout, func(context.Context) (bool, error) {
		return precheck.PathExists(path)
	})
}

// WaitForPostgres blocks until the database at dsn accepts a connection and answers a ping.
func WaitForPostgres(ctx context.Context, dsn string, interval, timeout time.Duration) error {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("invalid database URL: %w", err)
	}
	cfg.ConnectTimeout = interval

	return poll(ctx, "PostgreSQL at "+cfg.Host, interval, timeout, func(ctx context.Context) (bool, error) {
		conn, err := pgx.ConnectConfig(ctx, cfg)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			logger.Debug("[DEBUG] PostgreSQL not ready: %v\n", err)
			return false, nil
		}
		defer conn.Close(context.Background())
		if err := conn.Ping(ctx); err != nil {
			logger.Debug("[DEBUG] PostgreSQL ping failed: %v\n", err)
			return false, nil
		}
		return true, nil
	})
}
