package services

import (
	"context"
	"sync"
	"time"

	"github.com/iota-uz/slatrack/modules/recruitment/domain/sla"
	"github.com/iota-uz/slatrack/pkg/clock"
)

// CountdownService binds the pure derivation to the shared clock store for
// consumers that want a live standing rather than a one-off evaluation.
type CountdownService struct {
	clk  *clock.Store
	opts sla.DeriveOptions
	tick time.Duration
}

func NewCountdownService(clk *clock.Store, opts sla.DeriveOptions, tick time.Duration) *CountdownService {
	if tick <= 0 {
		tick = clock.DefaultInterval
	}
	return &CountdownService{clk: clk, opts: opts, tick: tick}
}

// At evaluates against a caller-supplied instant and takes no clock
// subscription; callers already driving time themselves must not cause a
// second ticker.
func (s *CountdownService) At(desc *sla.Descriptor, ov sla.Overrides, now time.Time) sla.Countdown {
	return sla.Derive(desc, ov, now, s.opts)
}

// Current evaluates against the wall clock once.
func (s *CountdownService) Current(desc *sla.Descriptor, ov sla.Overrides) sla.Countdown {
	return sla.Derive(desc, ov, s.clk.Now(), s.opts)
}

// Watch emits a fresh countdown on every shared clock tick until ctx is
// cancelled. The subscription is released deterministically on cancel; a slow
// receiver gets the newest value, not a backlog.
func (s *CountdownService) Watch(ctx context.Context, desc *sla.Descriptor, ov sla.Overrides) <-chan sla.Countdown {
	w := &watcher{ch: make(chan sla.Countdown, 1)}
	w.emit(sla.Derive(desc, ov, s.clk.Now(), s.opts))

	unsubscribe := s.clk.Subscribe(func(now time.Time) {
		w.emit(sla.Derive(desc, ov, now, s.opts))
	}, clock.SubscribeOptions{Interval: s.tick})

	go func() {
		<-ctx.Done()
		unsubscribe()
		w.close()
	}()
	return w.ch
}

// watcher serializes emits against close so a tick racing the unsubscribe
// can never send on a closed channel.
type watcher struct {
	mu     sync.Mutex
	closed bool
	ch     chan sla.Countdown
}

func (w *watcher) emit(cd sla.Countdown) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	select {
	case w.ch <- cd:
	default:
		// Drop the stale value and replace it with the fresh one.
		select {
		case <-w.ch:
		default:
		}
		select {
		case w.ch <- cd:
		default:
		}
	}
}

func (w *watcher) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	close(w.ch)
}
