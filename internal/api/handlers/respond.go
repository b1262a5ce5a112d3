package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/geosight/dashboard/pkg/errors"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 16

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Debug().Err(err).Msg("Failed to write response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps typed errors to status codes. Internal failures
// are logged and hidden from the client.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		if status == http.StatusInternalServerError {
			message = "internal server error"
		}
	}
	respondWithError(w, status, message)
}

// decodeJSON reads a small JSON body into dest
func decodeJSON(r *http.Request, dest interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperrors.NewValidationError("failed to read request body")
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return apperrors.NewValidationError("invalid JSON body")
	}
	return nil
}

type queryRequest struct {
	Query string `json:"query"`
}
