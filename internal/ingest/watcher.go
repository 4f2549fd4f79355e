package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/BohdanGlowacki/UGODY/constants"
)

type WatchConfig struct {
	Dir      string        // directory to watch (not recursive)
	Debounce time.Duration // coalesce rapid create/write/rename bursts
	Retry    time.Duration // how often to look for a missing Dir; defaults to 1s
}

// StartWatcher signals on the returned channel once per burst of PDF changes in cfg.Dir.
// A Dir that does not exist yet is retried every cfg.Retry; the channel signals once
// when it appears. The channel is closed when ctx is done or the watcher fails.
func StartWatcher(ctx context.Context, cfg WatchConfig, logger *slog.Logger) (<-chan struct{}, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Dir == "" {
		logger.Error("watcher start failed: no directory provided")
		return nil, errors.New("no directory provided")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create fsnotify watcher", "error", err)
		return nil, err
	}
	if cfg.Retry <= 0 {
		cfg.Retry = time.Second
	}
	watching := true
	if err := w.Add(cfg.Dir); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Error("failed to watch directory", "dir", cfg.Dir, "error", err)
			_ = w.Close()
			return nil, err
		}
		logger.Warn("scan directory does not exist yet, waiting for it", "dir", cfg.Dir, "retry", cfg.Retry.String())
		watching = false
	}

	trigger := make(chan struct{}, 1)
	emit := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	go func() {
		defer close(trigger)
		defer func() {
			if err := w.Close(); err != nil {
				logger.Warn("failed to close watcher", "error", err)
			}
		}()

		var (
			timer *time.Timer
			fire  <-chan time.Time
			retry <-chan time.Time
		)
		if !watching {
			ticker := time.NewTicker(cfg.Retry)
			defer ticker.Stop()
			retry = ticker.C
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-retry:
				err := w.Add(cfg.Dir)
				if errors.Is(err, fs.ErrNotExist) {
					continue
				}
				if err != nil {
					logger.Error("failed to watch directory", "dir", cfg.Dir, "error", err)
					return
				}
				retry = nil
				logger.Info("scan directory appeared", "dir", cfg.Dir)
				emit()
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if !constants.IsPDF(e.Name) || !(e.Has(fsnotify.Create) || e.Has(fsnotify.Write) || e.Has(fsnotify.Rename)) {
					continue
				}
				logger.Debug("watched file changed", "path", e.Name, "op", e.Op.String())
				if cfg.Debounce <= 0 {
					emit()
					continue
				}
				if timer == nil {
					timer = time.NewTimer(cfg.Debounce)
				} else {
					timer.Reset(cfg.Debounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				emit()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("watcher error", "error", err)
			}
		}
	}()

	if watching {
		logger.Info("watching scan directory", "dir", cfg.Dir, "debounce", cfg.Debounce.String())
	}
	return trigger, nil
}
