// Package clock provides a process-wide ticking timestamp source. Many
// independent consumers share a single periodic timer: the store runs at the
// minimum interval requested across live subscribers and notifies all of them
// with the same captured instant, so countdowns rendered side by side never
// skew against each other.
package clock

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultInterval = time.Second

type SubscribeOptions struct {
	// Interval is the cadence this subscriber needs. Zero means
	// DefaultInterval. The store may tick faster when another subscriber
	// requested a smaller interval.
	Interval time.Duration
}

// Unsubscribe removes a subscriber. Safe to call more than once.
type Unsubscribe func()

// Scheduler drives the shared timer. Production uses a time.Ticker; tests
// inject a manual implementation and fire ticks themselves.
type Scheduler interface {
	Start(interval time.Duration, fn func())
	Stop()
}

type subscriber struct {
	fn       func(now time.Time)
	interval time.Duration
}

type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	sched    Scheduler
	subs     []*subscriber
	interval time.Duration // 0 while the timer is stopped
	snapshot time.Time
	log      *logrus.Logger
	tickHook func(subscribers int)
}

type Option func(*Store)

func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithScheduler(sched Scheduler) Option {
	return func(s *Store) { s.sched = sched }
}

// WithTickHook installs an observer called once per tick with the subscriber
// count, for instrumentation.
func WithTickHook(hook func(subscribers int)) Option {
	return func(s *Store) { s.tickHook = hook }
}

func NewStore(log *logrus.Logger, opts ...Option) *Store {
	s := &Store{
		now: time.Now,
		log: log,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sched == nil {
		s.sched = newTickerScheduler()
	}
	s.snapshot = s.now()
	return s
}

// Subscribe registers fn to be called on every tick and may restart the
// shared timer when the minimum requested interval changes. The returned
// function removes the subscriber; removing the last one stops the timer.
func (s *Store) Subscribe(fn func(now time.Time), opts SubscribeOptions) Unsubscribe {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	sub := &subscriber{fn: fn, interval: interval}

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.reconcile()
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			for i, candidate := range s.subs {
				if candidate == sub {
					s.subs = append(s.subs[:i], s.subs[i+1:]...)
					break
				}
			}
			s.reconcile()
			s.mu.Unlock()
		})
	}
}

// Snapshot returns the instant captured on the last tick. It does not read
// the wall clock; consumers that need updates must subscribe.
func (s *Store) Snapshot() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Now reads the wall clock directly, for callers with no active subscription.
func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) SubscribersCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Interval reports the cadence the shared timer currently runs at, zero when
// stopped.
func (s *Store) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// reconcile restarts or stops the timer so it matches the minimum interval of
// the current subscriber set. Must be called with mu held. The minimum is
// recomputed from scratch: a departed subscriber's cadence must not linger.
func (s *Store) reconcile() {
	if len(s.subs) == 0 {
		if s.interval != 0 {
			s.sched.Stop()
			s.interval = 0
		}
		return
	}
	min := s.subs[0].interval
	for _, sub := range s.subs[1:] {
		if sub.interval < min {
			min = sub.interval
		}
	}
	if min == s.interval {
		return
	}
	if s.interval != 0 {
		s.sched.Stop()
	}
	s.sched.Start(min, s.tick)
	s.interval = min
}

// tick captures one instant and hands it to every subscriber in registration
// order. A panicking subscriber must not starve the rest.
func (s *Store) tick() {
	s.mu.Lock()
	now := s.now()
	s.snapshot = now
	subs := make([]*subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	if s.tickHook != nil {
		s.tickHook(len(subs))
	}
	for _, sub := range subs {
		s.notify(sub, now)
	}
}

func (s *Store) notify(sub *subscriber, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			if s.log != nil {
				s.log.Errorf("clock: subscriber panicked at tick %s: %v", now, r)
			}
		}
	}()
	sub.fn(now)
}

// tickerScheduler is the production Scheduler backed by time.Ticker.
type tickerScheduler struct {
	ticker *time.Ticker
	done   chan struct{}
}

func newTickerScheduler() *tickerScheduler {
	return &tickerScheduler{}
}

func (t *tickerScheduler) Start(interval time.Duration, fn func()) {
	t.ticker = time.NewTicker(interval)
	t.done = make(chan struct{})
	go func(ticker *time.Ticker, done chan struct{}) {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}(t.ticker, t.done)
}

func (t *tickerScheduler) Stop() {
	if t.ticker != nil {
		t.ticker.Stop()
		close(t.done)
		t.ticker = nil
		t.done = nil
	}
}
