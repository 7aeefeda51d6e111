package handler

import (
	"encoding/json"
	"net/http"

	"github.com/avbottsubscription-dev/canteencouponang/internal/canteen"
	"github.com/avbottsubscription-dev/canteencouponang/internal/domain"
	"github.com/avbottsubscription-dev/canteencouponang/internal/state"
	"github.com/go-chi/chi/v5"
)

type MenuHandler struct {
	State   *state.State
	Service *canteen.Service
}

// RegisterRoutes exposes menu reads to every authenticated employee.
func (h MenuHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menus", h.list)
	r.Get("/menus/{date}", h.forDate)
}

// RegisterManageRoutes exposes menu publishing to the canteen desk.
func (h MenuHandler) RegisterManageRoutes(r chi.Router) {
	r.Put("/menus/{date}", h.upsert)
}

func (h MenuHandler) list(w http.ResponseWriter, r *http.Request) {
	menus := h.State.Menus()
	if menus == nil {
		menus = []domain.DailyMenu{}
	}
	writeJSON(w, http.StatusOK, menus)
}

func (h MenuHandler) forDate(w http.ResponseWriter, r *http.Request) {
	menu, ok := h.Service.MenuForDate(chi.URLParam(r, "date"))
	if !ok {
		writeError(w, http.StatusNotFound, "no menu published for this date")
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

type menuRequest struct {
	BreakfastMenu   string `json:"breakfastMenu"`
	LunchDinnerMenu string `json:"lunchDinnerMenu"`
}

func (h MenuHandler) upsert(w http.ResponseWriter, r *http.Request) {
	var req menuRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	writeResult(w, h.Service.UpsertMenu(r.Context(), chi.URLParam(r, "date"), req.BreakfastMenu, req.LunchDinnerMenu))
}
