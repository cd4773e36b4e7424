package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/pp-store-sync/merchant-api/internal/cart"
)

type ValidationErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithErrorDetail attaches the underlying failure message alongside
// the client-facing error, matching the gateway-failure response shape.
func respondWithErrorDetail(w http.ResponseWriter, code int, message, detail string) {
	respondWithJSON(w, code, map[string]string{"error": message, "detail": detail})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func formatValidationErrors(validationErrors validator.ValidationErrors) []string {
	details := make([]string, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		details = append(details, fmt.Sprintf("field '%s' failed on the '%s' rule", fieldError.Field(), fieldError.Tag()))
	}
	return details
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, cart.ErrCartNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrEmptyItems), errors.Is(err, cart.ErrCartCompleted):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
