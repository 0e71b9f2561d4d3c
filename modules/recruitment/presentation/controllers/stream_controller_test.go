package controllers_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/slatrack/modules/recruitment/domain/sla"
	"github.com/iota-uz/slatrack/modules/recruitment/infrastructure/sources"
	"github.com/iota-uz/slatrack/modules/recruitment/presentation/controllers"
	"github.com/iota-uz/slatrack/modules/recruitment/presentation/viewmodels"
	"github.com/iota-uz/slatrack/modules/recruitment/services"
	"github.com/iota-uz/slatrack/pkg/application"
	"github.com/iota-uz/slatrack/pkg/clock"
	"github.com/iota-uz/slatrack/pkg/eventbus"
)

// streamScheduler is fired from the test goroutine while Subscribe runs on
// the server's connection goroutine, so it guards its state.
type streamScheduler struct {
	mu      sync.Mutex
	fn      func()
	running bool
}

func (m *streamScheduler) Start(_ time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
	m.running = true
}

func (m *streamScheduler) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
}

func (m *streamScheduler) fire() {
	m.mu.Lock()
	fn := m.fn
	running := m.running
	m.mu.Unlock()
	if running && fn != nil {
		fn()
	}
}

type streamEnv struct {
	clk   *clock.Store
	sched *streamScheduler
	app   application.Application
	srv   *httptest.Server
}

func newStreamEnv(t *testing.T, fetcher sources.Fetcher) *streamEnv {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	sched := &streamScheduler{}
	clk := clock.NewStore(log,
		clock.WithNowFunc(func() time.Time { return apiNow }),
		clock.WithScheduler(sched),
	)
	opts := sla.DeriveOptions{TimeZone: "UTC"}
	config := services.NewConfigService([]sla.StageConfig{
		{StepName: "PRECALL", PlannedMinutes: 30, Enabled: true},
	})

	app := application.New(&application.ApplicationOptions{
		EventBus: eventbus.NewEventPublisher(log),
		Clock:    clk,
		Logger:   log,
	})
	app.RegisterServices(
		config,
		services.NewBoardService(fetcher, config, clk, app.EventPublisher(), opts, log),
		services.NewCountdownService(clk, opts, clock.DefaultInterval),
	)
	app.RegisterControllers(controllers.NewStreamController(app, 50*time.Millisecond))

	r := mux.NewRouter()
	for _, c := range app.Controllers() {
		c.Register(r)
	}
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &streamEnv{clk: clk, sched: sched, app: app, srv: srv}
}

func (e *streamEnv) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/recruitment/api/sla/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type streamTestFrame struct {
	Type  string            `json:"type"`
	Board *viewmodels.Board `json:"board"`
	Alert *struct {
		Stage   string `json:"stage"`
		Overdue int    `json:"overdue"`
	} `json:"alert"`
}

// readFrames decodes every frame the server pushes until the connection dies.
func readFrames(conn *websocket.Conn) <-chan streamTestFrame {
	frames := make(chan streamTestFrame, 32)
	go func() {
		defer close(frames)
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var f streamTestFrame
			if json.Unmarshal(payload, &f) == nil {
				frames <- f
			}
		}
	}()
	return frames
}

func TestStreamController_SubscribesOnlyWhileClientsConnected(t *testing.T) {
	env := newStreamEnv(t, &stubFetcher{})

	require.Zero(t, env.clk.SubscribersCount())

	first := env.dial(t)
	require.Eventually(t, func() bool {
		return env.clk.SubscribersCount() == 1
	}, time.Second, 10*time.Millisecond)

	// A second client rides the existing subscription.
	second := env.dial(t)
	require.Eventually(t, func() bool {
		return env.clk.SubscribersCount() == 1
	}, time.Second, 10*time.Millisecond)

	_ = first.Close()
	require.Never(t, func() bool {
		return env.clk.SubscribersCount() == 0
	}, 200*time.Millisecond, 20*time.Millisecond)

	_ = second.Close()
	require.Eventually(t, func() bool {
		return env.clk.SubscribersCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestStreamController_TickBroadcastsBoardFrame(t *testing.T) {
	started := apiNow.Add(-45 * time.Minute)
	env := newStreamEnv(t, &stubFetcher{candidates: []sources.Candidate{
		{ID: "c1", Status: "PRECALL_PENDING", PreCallAt: started.Format(time.RFC3339)},
	}})

	conn := env.dial(t)
	require.Eventually(t, func() bool {
		return env.clk.SubscribersCount() == 1
	}, time.Second, 10*time.Millisecond)

	frames := readFrames(conn)

	// The first ticks trigger the upstream fetch; once the board is cached
	// every subsequent tick re-scores and broadcasts it.
	var board *viewmodels.Board
	require.Eventually(t, func() bool {
		env.sched.fire()
		select {
		case f, ok := <-frames:
			if ok && f.Type == "board" && f.Board != nil {
				board = f.Board
				return true
			}
		default:
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)

	var precall *viewmodels.StageRow
	for i := range board.Stages {
		if board.Stages[i].Stage == "PRECALL" {
			precall = &board.Stages[i]
		}
	}
	require.NotNil(t, precall)
	require.Equal(t, "1", precall.Active)
	require.Equal(t, "1", precall.Overdue)
}

func TestStreamController_OverdueEventBroadcastsAlert(t *testing.T) {
	env := newStreamEnv(t, &stubFetcher{})

	conn := env.dial(t)
	require.Eventually(t, func() bool {
		return env.clk.SubscribersCount() == 1
	}, time.Second, 10*time.Millisecond)

	frames := readFrames(conn)
	env.app.EventPublisher().Publish(&services.StageOverdueEvent{
		Stage:   "PRECALL",
		Overdue: 2,
		Oldest:  apiNow.Add(-45 * time.Minute),
	})

	require.Eventually(t, func() bool {
		select {
		case f, ok := <-frames:
			if ok && f.Type == "stageOverdue" && f.Alert != nil {
				require.Equal(t, "PRECALL", f.Alert.Stage)
				require.Equal(t, 2, f.Alert.Overdue)
				return true
			}
		default:
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)
}
