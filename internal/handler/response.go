package handler

import (
	"encoding/json"
	"net/http"

	"github.com/avbottsubscription-dev/canteencouponang/internal/canteen"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeResult maps a business result onto the wire: failures are still 200
// responses carrying {success:false, message} so callers branch on the
// payload, not the status code.
func writeResult(w http.ResponseWriter, res canteen.Result) {
	writeJSON(w, http.StatusOK, res)
}

func writeError(w http.ResponseWriter, status int, message string) {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, canteen.Result{Success: false, Message: message})
}
