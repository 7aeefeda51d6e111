package handler

import (
	"net/http"

	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"github.com/avbottsubscription-dev/canteencouponang/internal/state"
	"github.com/go-chi/chi/v5"
)

type PunchHandler struct {
	State *state.State
}

func (h PunchHandler) RegisterRoutes(r chi.Router) {
	r.Get("/punch-events", h.history)
	r.Get("/punch-events/latest", h.latest)
}

func (h PunchHandler) history(w http.ResponseWriter, r *http.Request) {
	events := h.State.PunchHistory()
	if events == nil {
		events = []domain.PunchEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (h PunchHandler) latest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.State.LastPunchEvent())
}
