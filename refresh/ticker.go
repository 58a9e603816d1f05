package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Ticker calls a function on a fixed interval to simulate a live dashboard.
// Intervals below one second are rounded up by the scheduler.
type Ticker struct {
	cron     *cron.Cron
	interval time.Duration
	onTick   func()
	entryID  cron.EntryID
	running  bool
	mutex    sync.Mutex
}

func NewTicker(interval time.Duration, onTick func()) (*Ticker, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("refresh interval must be positive, got %s", interval)
	}

	t := &Ticker{
		cron:     cron.New(),
		interval: interval,
		onTick:   onTick,
	}

	id, err := t.cron.AddFunc(fmt.Sprintf("@every %s", interval), t.Tick)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule refresh: %w", err)
	}
	t.entryID = id

	return t, nil
}

// Start begins ticking in the background. Starting twice is a no-op.
func (t *Ticker) Start() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.running {
		return
	}
	t.cron.Start()
	t.running = true

	log.Info().Dur("interval", t.interval).Msg("Refresh ticker started")
}

// Stop cancels future ticks. The returned context is done once a tick that
// was already running has finished.
func (t *Ticker) Stop() context.Context {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.running {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	t.running = false

	log.Info().Msg("Refresh ticker stopped")
	return t.cron.Stop()
}

// Tick runs the tick function once, outside the schedule.
func (t *Ticker) Tick() {
	if t.onTick != nil {
		t.onTick()
	}
}

// Next returns when the next scheduled tick fires, zero if stopped.
func (t *Ticker) Next() time.Time {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.running {
		return time.Time{}
	}
	return t.cron.Entry(t.entryID).Next
}
