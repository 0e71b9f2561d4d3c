package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/slatrack/modules/recruitment/presentation/viewmodels"
	"github.com/iota-uz/slatrack/modules/recruitment/services"
	"github.com/iota-uz/slatrack/pkg/application"
	"github.com/iota-uz/slatrack/pkg/clock"
	"github.com/iota-uz/slatrack/pkg/ws"
)

// How often the upstream sources are re-fetched while clients are connected.
// Between fetches every tick re-scores the cached timer sets, so countdowns
// stay live without hammering the backend.
const streamRefreshEvery = 30 * time.Second

type streamFrame struct {
	Type  string            `json:"type"`
	Board *viewmodels.Board `json:"board,omitempty"`
	Alert *overdueAlert     `json:"alert,omitempty"`
}

type overdueAlert struct {
	Stage   string `json:"stage"`
	Overdue int    `json:"overdue"`
	Oldest  string `json:"oldest"`
}

// StreamController pushes the live board to websocket clients. It holds a
// shared-clock subscription only while at least one client is connected, so
// an idle service runs no timer at all.
type StreamController struct {
	board *services.BoardService
	clk   *clock.Store
	log   *logrus.Logger
	hub   *ws.Hub
	tick  time.Duration
	path  string

	mu          sync.Mutex
	unsubscribe clock.Unsubscribe
	last        *services.Board
	lastFetch   time.Time
	fetching    bool
}

func NewStreamController(app application.Application, tick time.Duration) application.Controller {
	c := &StreamController{
		board: app.Service(services.BoardService{}).(*services.BoardService),
		clk:   app.Clock(),
		log:   app.Logger(),
		tick:  tick,
		path:  "/recruitment/api/sla/stream",
	}
	c.hub = ws.NewHub(ws.HubOptions{
		Logger:       app.Logger(),
		OnConnect:    c.onConnect,
		OnDisconnect: c.onDisconnect,
	})
	app.EventPublisher().Subscribe(c.onStageOverdue)
	return c
}

func (c *StreamController) Key() string {
	return c.path
}

func (c *StreamController) Register(r *mux.Router) {
	r.Handle(c.path, c.hub).Methods(http.MethodGet)
}

func (c *StreamController) onConnect(_ *http.Request, _ *ws.Connection) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.unsubscribe == nil {
		c.unsubscribe = c.clk.Subscribe(c.onTick, clock.SubscribeOptions{Interval: c.tick})
	}
	return nil
}

func (c *StreamController) onDisconnect(_ *ws.Connection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hub.ConnectionsCount() == 0 && c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

func (c *StreamController) onTick(now time.Time) {
	c.mu.Lock()
	needFetch := !c.fetching && (c.last == nil || now.Sub(c.lastFetch) >= streamRefreshEvery)
	if needFetch {
		c.fetching = true
	}
	last := c.last
	c.mu.Unlock()

	if needFetch {
		go c.fetch()
	}
	if last == nil {
		return
	}
	view := viewmodels.NewBoard(c.board.Rescore(last, now))
	if err := c.hub.BroadcastJSON(streamFrame{Type: "board", Board: &view}); err != nil && c.log != nil {
		c.log.Warnf("stream: broadcast failed: %v", err)
	}
}

func (c *StreamController) fetch() {
	ctx, cancel := context.WithTimeout(context.Background(), streamRefreshEvery)
	defer cancel()
	board, err := c.board.Refresh(ctx)

	c.mu.Lock()
	c.fetching = false
	if err == nil {
		c.last = board
		c.lastFetch = time.Now()
	}
	c.mu.Unlock()

	if err != nil && c.log != nil {
		c.log.WithError(err).Error("stream: board refresh failed")
	}
}

func (c *StreamController) onStageOverdue(ev *services.StageOverdueEvent) {
	_ = c.hub.BroadcastJSON(streamFrame{Type: "stageOverdue", Alert: &overdueAlert{
		Stage:   ev.Stage,
		Overdue: ev.Overdue,
		Oldest:  ev.Oldest.UTC().Format(time.RFC3339),
	}})
}
