package handler

import (
	"encoding/json"
	"net/http"

	"github.com/avbottsubscription-dev/canteencouponang/internal/mail"
	"github.com/go-chi/chi/v5"
)

type EmailHandler struct {
	Mailer mail.Mailer
}

func (h EmailHandler) RegisterRoutes(r chi.Router) {
	r.Post("/email/test", h.sendTest)
}

type testEmailRequest struct {
	Recipient string `json:"recipient"`
}

func (h EmailHandler) sendTest(w http.ResponseWriter, r *http.Request) {
	var req testEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Recipient == "" {
		writeError(w, http.StatusBadRequest, "recipient is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": h.Mailer.SendTestMessage(req.Recipient)})
}
