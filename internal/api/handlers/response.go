package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/fundwatch/internal/blobstore"
	"github.com/wonny/fundwatch/internal/portfolio"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, blobstore.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, portfolio.ErrUnknownFund):
		return http.StatusNotFound
	case errors.Is(err, portfolio.ErrInvalidUpdate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
