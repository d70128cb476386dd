// Package daemon keeps the output tree fresh by rebuilding on an interval and
// whenever the content source changes on disk.
package daemon

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	ferrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
	"git.home.luguber.info/inful/fundsite/internal/logfields"
)

// Trigger names why a build started.
const (
	TriggerStartup  = "startup"
	TriggerInterval = "interval"
	TriggerWatch    = "watch"
)

// BuildFunc runs one full build. The daemon never runs two concurrently.
type BuildFunc func(ctx context.Context, trigger string) error

// Options configures a Daemon.
type Options struct {
	// Interval schedules periodic rebuilds; zero disables them.
	Interval time.Duration
	// WatchPath is the content file to watch; empty disables watching.
	WatchPath string
	// Debounce is the quiet window for coalescing change bursts.
	Debounce time.Duration
}

// Daemon serializes builds requested by the scheduler and the watcher.
type Daemon struct {
	opts    Options
	build   BuildFunc
	running atomic.Bool

	mu     sync.Mutex
	builds int
	failed int
}

// New returns a daemon that calls build.
func New(opts Options, build BuildFunc) (*Daemon, error) {
	if build == nil {
		return nil, ferrors.ValidationError("build function is required").Build()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	return &Daemon{opts: opts, build: build}, nil
}

// Stats returns the number of builds run and how many failed.
func (d *Daemon) Stats() (builds, failed int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.builds, d.failed
}

// Run performs a startup build, then rebuilds on demand until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	deb, err := NewDebouncer(DebouncerConfig{
		QuietWindow:       d.opts.Debounce,
		MaxDelay:          4 * d.opts.Debounce,
		CheckBuildRunning: d.running.Load,
	})
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = deb.Run(ctx)
	}()

	if d.opts.Interval > 0 {
		sched, err := NewScheduler()
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryDaemon, "cannot create scheduler").Build()
		}
		if _, err := sched.ScheduleInterval(d.opts.Interval, "rebuild", func() { deb.Request(TriggerInterval) }); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryDaemon, "cannot schedule rebuild").
				WithContext("interval", d.opts.Interval.String()).Build()
		}
		sched.Start()
		defer func() {
			if err := sched.Stop(); err != nil {
				slog.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	if d.opts.WatchPath != "" {
		w, err := NewWatcher(d.opts.WatchPath)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryDaemon, "cannot watch content").
				WithContext("path", d.opts.WatchPath).Build()
		}
		defer func() { _ = w.Close() }()
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx, deb.Request)
		}()
	}

	slog.Info("Daemon started",
		slog.Duration("interval", d.opts.Interval),
		logfields.File(d.opts.WatchPath),
		slog.Duration("debounce", d.opts.Debounce))
	d.runBuild(ctx, TriggerStartup)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Daemon stopping")
			return nil
		case ev := <-deb.C():
			slog.Info("Rebuild requested",
				slog.String("reason", ev.LastReason),
				slog.Int("requests", ev.RequestCount),
				slog.String("cause", ev.DebounceCause))
			d.runBuild(ctx, ev.LastReason)
		}
	}
}

func (d *Daemon) runBuild(ctx context.Context, trigger string) {
	d.running.Store(true)
	defer d.running.Store(false)

	err := d.build(ctx, trigger)

	d.mu.Lock()
	d.builds++
	if err != nil {
		d.failed++
	}
	d.mu.Unlock()
	if err != nil {
		// Failures are reported by the build itself; the daemon keeps serving.
		slog.Warn("Daemon build failed", slog.String("trigger", trigger), logfields.Error(err))
	}
}
