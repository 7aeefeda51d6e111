package handler

import (
	"net/http"

	"github.com/avbottsubscription-dev/canteencouponang/internal/canteen"
	"github.com/avbottsubscription-dev/canteencouponang/internal/server/authctx"
	"github.com/go-chi/chi/v5"
)

type NotificationHandler struct {
	Service *canteen.Service
}

func (h NotificationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications", h.list)
	r.Post("/notifications/{id}/read", h.markRead)
	r.Post("/notifications/read-all", h.markAllRead)
}

func (h NotificationHandler) list(w http.ResponseWriter, r *http.Request) {
	principal := authctx.FromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	writeJSON(w, http.StatusOK, h.Service.NotificationsFor(principal.ID))
}

func (h NotificationHandler) markRead(w http.ResponseWriter, r *http.Request) {
	h.Service.MarkNotificationRead(r.Context(), chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, canteen.Result{Success: true, Message: "Notification marked as read."})
}

func (h NotificationHandler) markAllRead(w http.ResponseWriter, r *http.Request) {
	principal := authctx.FromContext(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "missing session")
		return
	}
	h.Service.MarkAllNotificationsRead(r.Context(), principal.ID)
	writeJSON(w, http.StatusOK, canteen.Result{Success: true, Message: "All notifications marked as read."})
}
