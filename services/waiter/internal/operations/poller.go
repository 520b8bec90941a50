package operations

import (
	"context"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
)

// Poller refreshes every live session in the background on a fixed interval.
type Poller struct {
	store    *SessionStore
	interval time.Duration
	logger   apt.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPoller(store *SessionStore, interval time.Duration, logger apt.Logger) *Poller {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{store: store, interval: interval, logger: logger}
}

// Start launches the polling loop and returns immediately.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	go p.loop(loopCtx)

	p.logger.Info("starting session poller", "interval", p.interval.String())
	return nil
}

// Stop ends the loop and waits for an in-flight round to finish.
func (p *Poller) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll runs one background refresh of every live session and returns how
// many succeeded.
func (p *Poller) Poll(ctx context.Context) int {
	if p.store == nil {
		return 0
	}
	sessions := p.store.All()

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			if err := s.Load(ctx, true); err != nil {
				p.logger.Debug("background refresh failed", "session_id", s.ID, "error", err)
				return
			}
			mu.Lock()
			ok++
			mu.Unlock()
		}(s)
	}
	wg.Wait()
	return ok
}
