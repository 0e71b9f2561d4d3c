package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/slatrack/modules/recruitment/domain/sla"
	"github.com/iota-uz/slatrack/pkg/clock"
)

type manualScheduler struct {
	fn      func()
	running bool
}

func (m *manualScheduler) Start(_ time.Duration, fn func()) {
	m.fn = fn
	m.running = true
}

func (m *manualScheduler) Stop() { m.running = false }

func (m *manualScheduler) fire() {
	if m.running && m.fn != nil {
		m.fn()
	}
}

func TestCountdownService_WatchTicksAndUnsubscribes(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sched := &manualScheduler{}
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	clk := clock.NewStore(log,
		clock.WithNowFunc(func() time.Time { return now }),
		clock.WithScheduler(sched),
	)
	svc := NewCountdownService(clk, sla.DeriveOptions{TimeZone: "UTC"}, time.Second)

	desc := &sla.Descriptor{
		StepName:       "PRECALL",
		PlannedMinutes: 30,
		StartAt:        now.Add(-29 * time.Minute).Format(time.RFC3339),
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch := svc.Watch(ctx, desc, sla.Overrides{})

	first := <-ch
	require.Equal(t, sla.StatusDueSoon, first.Status)
	require.Equal(t, time.Minute, *first.Remaining)

	now = now.Add(2 * time.Minute)
	sched.fire()
	second := <-ch
	require.True(t, second.IsOverdue)
	require.Equal(t, "OVERDUE by 00:01:00", second.BadgeText)

	cancel()
	require.Eventually(t, func() bool {
		return clk.SubscribersCount() == 0
	}, time.Second, 10*time.Millisecond)

	// Channel closes once the watch is released.
	require.Eventually(t, func() bool {
		select {
		case _, open := <-ch:
			return !open
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestCountdownService_AtUsesCallerClockOnly(t *testing.T) {
	sched := &manualScheduler{}
	clk := clock.NewStore(nil, clock.WithScheduler(sched))
	svc := NewCountdownService(clk, sla.DeriveOptions{TimeZone: "UTC"}, time.Second)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	deadline := at.Add(-time.Second)
	got := svc.At(nil, sla.Overrides{StepKey: "HR_REVIEW", PlannedMinutes: 15, DeadlineAt: &deadline}, at)

	require.True(t, got.IsOverdue)
	// A caller-supplied instant must not create a clock subscription.
	require.Zero(t, clk.SubscribersCount())
	require.False(t, sched.running)
}
