package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/iota-uz/slatrack/pkg/application"
	"github.com/iota-uz/slatrack/pkg/httpapi"
)

type HealthController struct {
	startedAt time.Time
}

func NewHealthController() application.Controller {
	return &HealthController{startedAt: time.Now()}
}

func (c *HealthController) Key() string {
	return "/health"
}

func (c *HealthController) Register(r *mux.Router) {
	r.HandleFunc("/health", c.Get).Methods(http.MethodGet)
}

func (c *HealthController) Get(w http.ResponseWriter, r *http.Request) {
	type healthResponse struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Uptime: time.Since(c.startedAt).Round(time.Second).String(),
	})
}
