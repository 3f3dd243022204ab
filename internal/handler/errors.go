package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"mailtriage/internal/repository"
	"mailtriage/internal/service"
)

// statusFor maps service and storage errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrEmailNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmptyEmail),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidPriority),
		errors.Is(err, service.ErrConfirmationRequired):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrEngineNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrProcessingFailed):
		return http.StatusBadGateway
	case errors.Is(err, repository.ErrNoBackup):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func errorJSON(c echo.Context, err error) error {
	return c.JSON(statusFor(err), map[string]string{
		"error": err.Error(),
	})
}
