package daemon

import (
	"context"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/fundsite/internal/foundation/errors"
)

// BuildNow is emitted by the debouncer when a coalesced rebuild should start.
type BuildNow struct {
	TriggeredAt   time.Time
	RequestCount  int
	LastReason    string
	FirstRequest  time.Time
	LastRequest   time.Time
	DebounceCause string
}

type DebouncerConfig struct {
	QuietWindow time.Duration
	MaxDelay    time.Duration

	// CheckBuildRunning reports whether a build is currently running.
	// While it returns true the debouncer holds back and emits exactly one
	// follow-up once the running build has finished.
	CheckBuildRunning func() bool

	// PollInterval controls how often build completion is polled while a
	// follow-up is pending.
	PollInterval time.Duration
}

// Debouncer coalesces bursts of rebuild requests into a single BuildNow.
// A request burst fires after QuietWindow of silence, or after MaxDelay from
// the first request at the latest.
type Debouncer struct {
	cfg      DebouncerConfig
	requests chan string
	out      chan BuildNow

	mu        sync.Mutex
	readyOnce sync.Once
	ready     chan struct{}

	pending         bool
	pendingAfterRun bool
	firstRequestAt  time.Time
	lastRequestAt   time.Time
	lastReason      string
	requestCount    int
	pollingAfterRun bool
}

func NewDebouncer(cfg DebouncerConfig) (*Debouncer, error) {
	if cfg.QuietWindow <= 0 {
		return nil, ferrors.ValidationError("quiet window must be > 0").Build()
	}
	if cfg.MaxDelay <= 0 {
		return nil, ferrors.ValidationError("max delay must be > 0").Build()
	}
	if cfg.CheckBuildRunning == nil {
		cfg.CheckBuildRunning = func() bool { return false }
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	return &Debouncer{
		cfg:      cfg,
		requests: make(chan string, 64),
		out:      make(chan BuildNow, 1),
		ready:    make(chan struct{}),
	}, nil
}

// Ready is closed once Run is accepting requests.
func (d *Debouncer) Ready() <-chan struct{} { return d.ready }

// C delivers coalesced BuildNow events.
func (d *Debouncer) C() <-chan BuildNow { return d.out }

// Request asks for a rebuild. It never blocks; requests beyond the buffer are
// dropped because one is already pending.
func (d *Debouncer) Request(reason string) {
	select {
	case d.requests <- reason:
	default:
	}
}

func stoppedTimer() *time.Timer {
	t := time.NewTimer(time.Hour)
	if !t.Stop() {
		<-t.C
	}
	return t
}

func resetTimer(t *time.Timer, after time.Duration) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(after)
}

// Run processes requests until ctx is done.
func (d *Debouncer) Run(ctx context.Context) error {
	if ctx == nil {
		return ferrors.ValidationError("context cannot be nil").Build()
	}
	d.readyOnce.Do(func() { close(d.ready) })

	quietTimer, maxTimer, pollTimer := stoppedTimer(), stoppedTimer(), stoppedTimer()
	var quietC, maxC, pollC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil
		case reason := <-d.requests:
			d.onRequest(reason)
			resetTimer(quietTimer, d.cfg.QuietWindow)
			quietC = quietTimer.C
			if d.shouldStartMaxTimer() {
				resetTimer(maxTimer, d.cfg.MaxDelay)
				maxC = maxTimer.C
			}

		case <-quietC:
			if d.tryEmit(ctx, "quiet") {
				quietC, maxC = nil, nil
			}

		case <-maxC:
			if d.tryEmit(ctx, "max_delay") {
				quietC, maxC = nil, nil
			}

		case <-pollC:
			if d.tryEmitAfterRunning(ctx) {
				pollC, quietC, maxC = nil, nil, nil
				continue
			}
			resetTimer(pollTimer, d.cfg.PollInterval)
			pollC = pollTimer.C
		}

		if d.shouldPollAfterRun() && pollC == nil {
			resetTimer(pollTimer, d.cfg.PollInterval)
			pollC = pollTimer.C
		}
	}
}

func (d *Debouncer) onRequest(reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if !d.pending {
		d.pending = true
		d.firstRequestAt = now
		d.requestCount = 0
	}
	d.lastRequestAt = now
	d.lastReason = reason
	d.requestCount++
}

func (d *Debouncer) shouldStartMaxTimer() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending && d.requestCount == 1
}

func (d *Debouncer) shouldPollAfterRun() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pendingAfterRun && !d.pollingAfterRun
}

func (d *Debouncer) tryEmit(ctx context.Context, cause string) bool {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return true
	}
	if d.cfg.CheckBuildRunning() {
		d.pendingAfterRun = true
		d.mu.Unlock()
		return false
	}
	evt := BuildNow{
		TriggeredAt:   time.Now(),
		RequestCount:  d.requestCount,
		LastReason:    d.lastReason,
		FirstRequest:  d.firstRequestAt,
		LastRequest:   d.lastRequestAt,
		DebounceCause: cause,
	}
	d.pending = false
	d.pendingAfterRun = false
	d.pollingAfterRun = false
	d.mu.Unlock()

	select {
	case d.out <- evt:
	case <-ctx.Done():
	}
	return true
}

func (d *Debouncer) tryEmitAfterRunning(ctx context.Context) bool {
	d.mu.Lock()
	if !d.pendingAfterRun {
		d.mu.Unlock()
		return true
	}
	d.pollingAfterRun = true
	d.mu.Unlock()

	if d.cfg.CheckBuildRunning() {
		return false
	}
	return d.tryEmit(ctx, "after_running")
}
