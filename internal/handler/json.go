package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/guardias-hospital/shift-manager/backend/internal/domain"
)

func (h *Handler) logInternalServerError(r *http.Request, err error) {
	h.log.Error("internal server error",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
}

func (h *Handler) readJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logInternalServerError(r, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data"`
}

func (h *Handler) errorResponse(w http.ResponseWriter, r *http.Request, msg string) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: msg,
		Data:    nil,
	})
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		h.errorResponse(w, r, err.Error())
		return
	}

	h.errorResponse(w, r, validationErrors[0].Translate(h.translator))
}

func (h *Handler) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	h.logInternalServerError(r, err)
	h.writeJSON(w, r, http.StatusInternalServerError, Response{
		Success: false,
		Message: "internal server error",
		Data:    nil,
	})
}

func (h *Handler) successResponse(w http.ResponseWriter, r *http.Request, msg string, data any) {
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: true,
		Message: msg,
		Data:    data,
	})
}

var errorCodes = []struct {
	err  error
	code string
}{
	{domain.ErrNotFound, "not_found"},
	{domain.ErrUnauthorized, "unauthorized"},
	{domain.ErrAlreadyClaimed, "already_claimed"},
	{domain.ErrAlreadyClockedIn, "already_clocked_in"},
	{domain.ErrAlreadyClockedOut, "already_clocked_out"},
	{domain.ErrNotClockedIn, "not_clocked_in"},
	{domain.ErrEmptyPool, "empty_pool"},
	{domain.ErrValidation, "validation"},
	{domain.ErrInvalidState, "invalid_state"},
}

func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return ""
}

// serviceError answers a lifecycle or repository error. Business outcomes
// are regular responses that carry a code; anything else is a server fault.
func (h *Handler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	if !domain.IsBusinessError(err) {
		h.internalServerError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, Response{
		Success: false,
		Message: err.Error(),
		Code:    errorCode(err),
		Data:    nil,
	})
}
