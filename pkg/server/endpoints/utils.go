package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/doodlesbykumbi/secrets-in-go/pkg/model"
	"github.com/doodlesbykumbi/secrets-in-go/pkg/server/store"
)

func respondWithError(w http.ResponseWriter, code int, payload interface{}) {
	respondWithJSON(w, code, map[string]interface{}{"error": payload})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// statusFor maps an error to its response status. Anything outside the
// store's error taxonomy is an internal fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrBadRequest), errors.Is(err, model.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrNestingLimitExceeded):
		return http.StatusNotAcceptable
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, store.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, store.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

// respondWithStoreError answers with the status of err. Internal faults are
// logged and never described to the client.
func respondWithStoreError(w http.ResponseWriter, logger *zap.Logger, err error) {
	code := statusFor(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		logger.Error("internal error", zap.Error(err))
		message = http.StatusText(code)
	}
	respondWithError(w, code, map[string]string{"message": message})
}
