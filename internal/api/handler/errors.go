package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// messageResponse is the envelope for plain success messages.
type messageResponse struct {
	Message string `json:"message"`
}

// ErrorStatus maps a domain error to the status code and message shown to
// clients. ok is false for errors that have no public mapping.
func ErrorStatus(err error) (code int, msg string, ok bool) {
	switch {
	case errors.Is(err, domain.ErrDuplicateUsername):
		return http.StatusBadRequest, "Error: Username is already taken!", true
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusBadRequest, "Error: Email is already in use!", true
	case errors.Is(err, domain.ErrUnknownRole):
		return http.StatusBadRequest, "Error: " + err.Error(), true
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials", true
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken),
		errors.Is(err, domain.ErrRevokedToken):
		return http.StatusUnauthorized, "unauthorized", true
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden", true
	}
	return 0, "", false
}

// respondError renders known domain errors and hands everything else to the
// central error handler, which logs it and answers 500.
func respondError(c echo.Context, err error) error {
	if code, msg, ok := ErrorStatus(err); ok {
		return c.JSON(code, errorResponse{Error: msg})
	}
	return err
}
