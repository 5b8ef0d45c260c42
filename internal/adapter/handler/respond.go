package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stockroom/stockroom/internal/auth"
	"github.com/stockroom/stockroom/internal/core/domain"
)

// errorBody is the JSON error envelope returned by every endpoint.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: code, Message: message})
}

// writeDomainError maps service-layer errors onto the HTTP error envelope.
func writeDomainError(w http.ResponseWriter, err error) {
	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		details := make([]string, len(stockErr.Problems))
		for i, p := range stockErr.Problems {
			details[i] = p.String()
		}
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "insufficient_stock",
			Message: "order cannot be fulfilled due to insufficient inventory",
			Details: details,
		})
		return
	}

	// A mid-commit failure stays a persistence failure no matter what its
	// root cause unwraps to: partial state may have been written and
	// compensated, so a sentinel like ErrNotFound inside it must not turn
	// the response into a plain 404.
	var persistErr *domain.PersistenceError
	if errors.As(err, &persistErr) {
		writeError(w, http.StatusInternalServerError, "persistence_failure", "the operation did not complete cleanly")
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, domain.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, "duplicate_request", "this request was already submitted")
	case errors.Is(err, domain.ErrNameTaken):
		writeError(w, http.StatusConflict, "name_taken", "inventory item with this name already exists")
	case errors.Is(err, domain.ErrEmailTaken):
		writeError(w, http.StatusConflict, "email_taken", "a user with this email already exists")
	case errors.Is(err, domain.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "already_registered", "this account has already been registered")
	case errors.Is(err, domain.ErrNotInvited):
		writeError(w, http.StatusForbidden, "not_invited", "this email has not been invited")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, domain.ErrUserNotActive):
		writeError(w, http.StatusForbidden, "account_inactive", "account registration is not complete")
	case errors.Is(err, domain.ErrSelfDeletion):
		writeError(w, http.StatusBadRequest, "self_deletion", "you cannot delete your own account")
	case errors.Is(err, auth.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, "weak_password", auth.ErrWeakPassword.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeUnauthorized(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid credentials")
}

func writeForbidden(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusForbidden, "forbidden", "insufficient role for this operation")
}
