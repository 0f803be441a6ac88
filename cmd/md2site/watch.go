package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	md2site "github.com/alnah/go-md2site"
)

// runWatch builds once, then rebuilds whenever a post changes.
// It returns nil when interrupted.
func runWatch(ctx context.Context, args []string, env *Environment) error {
	f, positional, err := parseWatchFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: watch takes at most one content directory", ErrUsage)
	}

	cfg, err := loadSiteConfig(f.build.common, &f.build.site, env)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, f.build.common.verbose, f.build.common.quiet)
	defer func() { _ = logger.Sync() }()

	job := buildJob{
		cfg:        cfg,
		contentDir: resolveContentDir(positional, cfg),
		outputDir:  resolveOutputDir(f.build.output, cfg),
		quiet:      f.build.common.quiet,
		verbose:    f.build.common.verbose,
	}

	// Post failures are reported and do not stop the watch.
	if err := job.run(ctx, env, logger); err != nil && !errors.Is(err, md2site.ErrRender) {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(job.contentDir); err != nil {
		return fmt.Errorf("%w: watching %s: %v", md2site.ErrStorage, job.contentDir, err)
	}
	logger.Info("watching for changes", zap.String("dir", job.contentDir), zap.Duration("debounce", f.debounce))

	rebuild := func() {
		start := env.Now()
		err := job.run(ctx, env, logger)
		switch {
		case ctx.Err() != nil:
		case err != nil:
			logger.Error("rebuild failed", zap.Error(err))
		default:
			logger.Info("rebuilt", zap.Duration("took", env.Now().Sub(start).Round(time.Millisecond)))
		}
	}

	return watchLoop(ctx, watcher.Events, watcher.Errors, f.debounce, rebuild, logger)
}

// watchLoop calls rebuild once per burst of post changes, after the
// debounce quiet period. Rebuilds run on the loop goroutine, so they never
// overlap. Returns nil when ctx is done or the event channels close.
func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error,
	debounce time.Duration, rebuild func(), logger *zap.Logger,
) error {
	d := newDebouncer(debounce)
	defer d.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if isPostEvent(ev) {
				logger.Debug("change detected", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
				d.Trigger()
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		case <-d.C:
			rebuild()
		}
	}
}

// isPostEvent reports whether ev changes a post file.
func isPostEvent(ev fsnotify.Event) bool {
	base := filepath.Base(ev.Name)
	if !strings.HasSuffix(base, md2site.PostExt) || strings.HasPrefix(base, ".") {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
		ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}

// debouncer coalesces triggers into one signal on C after a quiet period.
type debouncer struct {
	delay time.Duration
	C     chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay, C: make(chan struct{}, 1)}
}

// Trigger restarts the quiet period.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		select {
		case d.C <- struct{}{}:
		default:
		}
	})
}

// Stop cancels a pending signal.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
