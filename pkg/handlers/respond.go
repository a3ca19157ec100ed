package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/driftchat/driftchat/pkg/errs"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError maps taxonomy kinds onto HTTP statuses. Store failures come
// back as a generic 500 so driver details never leak.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	if kind, ok := errs.KindOf(err); ok {
		switch kind {
		case errs.KindValidation:
			status = http.StatusBadRequest
			message = errs.Reason(err)
		case errs.KindDuplicate:
			status = http.StatusConflict
			message = errs.Reason(err)
		case errs.KindNotFound:
			status = http.StatusNotFound
			message = errs.Reason(err)
		case errs.KindStoreUnavailable:
			status = http.StatusInternalServerError
			message = "failed to process request"
		}
	}

	respondJSON(w, status, map[string]string{"error": message})
}
