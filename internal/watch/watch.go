package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

type Options struct {
	// Paths are the files to watch. Their directories are watched so that
	// editors replacing a file through rename are still seen.
	Paths    []string
	Debounce time.Duration
	// OnEvent is called for every relevant filesystem event.
	OnEvent func(fsnotify.Event)
	// OnChange runs once per burst of events, after Debounce of quiet.
	OnChange func(ctx context.Context)
	Logger   *slog.Logger
}

// Run blocks until ctx is done or the watcher fails.
func Run(ctx context.Context, opts Options) error {
	if len(opts.Paths) == 0 {
		return errors.New("watch: no paths")
	}
	if opts.OnChange == nil {
		return errors.New("watch: OnChange is required")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 300 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	targets := map[string]struct{}{}
	dirs := map[string]struct{}{}
	for _, p := range opts.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = struct{}{}
		dir := filepath.Dir(abs)
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return err
		}
		dirs[dir] = struct{}{}
	}

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	resetTimer := func() {
		if timer == nil {
			timer = time.NewTimer(opts.Debounce)
			timerC = timer.C
			return
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(opts.Debounce)
		timerC = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	logger.Info("watching grammar files", "paths", opts.Paths, "debounce", opts.Debounce)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timerC:
			timerC = nil
			opts.OnChange(ctx)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "err", err)
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(evt, targets) {
				continue
			}
			logger.Debug("grammar file changed", "path", evt.Name, "op", evt.Op.String())
			if opts.OnEvent != nil {
				opts.OnEvent(evt)
			}
			resetTimer()
		}
	}
}

func relevant(evt fsnotify.Event, targets map[string]struct{}) bool {
	if evt.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return false
	}
	abs, err := filepath.Abs(evt.Name)
	if err != nil {
		return false
	}
	_, ok := targets[abs]
	return ok
}
