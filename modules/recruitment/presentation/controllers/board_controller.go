package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/iota-uz/slatrack/modules/recruitment/domain/sla"
	"github.com/iota-uz/slatrack/modules/recruitment/presentation/viewmodels"
	"github.com/iota-uz/slatrack/modules/recruitment/services"
	"github.com/iota-uz/slatrack/pkg/application"
	"github.com/iota-uz/slatrack/pkg/httpapi"
	"github.com/iota-uz/slatrack/pkg/middleware"
)

type BoardController struct {
	app       application.Application
	board     *services.BoardService
	countdown *services.CountdownService
	config    *services.ConfigService
	apiPrefix string
}

func NewBoardController(app application.Application) application.Controller {
	return &BoardController{
		app:       app,
		board:     app.Service(services.BoardService{}).(*services.BoardService),
		countdown: app.Service(services.CountdownService{}).(*services.CountdownService),
		config:    app.Service(services.ConfigService{}).(*services.ConfigService),
		apiPrefix: "/recruitment/api/sla",
	}
}

func (c *BoardController) Key() string {
	return c.apiPrefix
}

func (c *BoardController) Register(r *mux.Router) {
	api := r.PathPrefix(c.apiPrefix).Subrouter()
	api.HandleFunc("/board", c.GetBoard).Methods(http.MethodGet)
	api.HandleFunc("/countdown", c.GetCountdown).Methods(http.MethodGet)
	api.HandleFunc("/config", c.GetConfig).Methods(http.MethodGet)
}

func (c *BoardController) GetBoard(w http.ResponseWriter, r *http.Request) {
	board, err := c.board.Refresh(r.Context())
	if err != nil {
		middleware.UseLogger(r.Context()).WithError(err).Error("board refresh failed")
		_ = httpapi.WriteError(w, http.StatusBadGateway,
			httpapi.CodeSourcesUnavailable, "no upstream source could be reached", nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, viewmodels.NewBoard(board))
}

// GetCountdown evaluates one step from query parameters. Requests carrying no
// SLA context at all get 204: nothing to show is not an error.
func (c *BoardController) GetCountdown(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	ov := sla.Overrides{StepKey: q.Get("stepKey")}
	if raw := q.Get("plannedMinutes"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			ov.PlannedMinutes = n
		}
	}
	if t, ok := sla.ParseInstant(q.Get("startAt")); ok {
		ov.StartAt = &t
	}
	if t, ok := sla.ParseInstant(q.Get("deadlineAt")); ok {
		ov.DeadlineAt = &t
	}

	if !sla.HasContext(nil, ov) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var result sla.Countdown
	if at, ok := sla.ParseInstant(q.Get("now")); ok {
		result = c.countdown.At(nil, ov, at)
	} else {
		result = c.countdown.Current(nil, ov)
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, viewmodels.NewCountdown(result))
}

func (c *BoardController) GetConfig(w http.ResponseWriter, r *http.Request) {
	type configResponse struct {
		GeneratedAt string            `json:"generatedAt"`
		Stages      []sla.StageConfig `json:"stages"`
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, configResponse{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Stages:      c.config.All(),
	})
}
