package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"mailtriage/internal/inbox"
)

type InboxImporter interface {
	Import(ctx context.Context, label string, max int) (inbox.Result, error)
}

type InboxHandler struct {
	importer   InboxImporter
	label      string
	defaultMax int
	logger     echo.Logger
}

// NewInboxHandler accepts a nil importer when no mailbox is configured.
func NewInboxHandler(importer InboxImporter, label string, defaultMax int, logger echo.Logger) *InboxHandler {
	return &InboxHandler{
		importer:   importer,
		label:      label,
		defaultMax: defaultMax,
		logger:     logger,
	}
}

// Import pulls new messages from the configured mailbox
func (h *InboxHandler) Import(c echo.Context) error {
	if h.importer == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": inbox.ErrNoProvider.Error(),
		})
	}

	label := h.label
	if l := c.QueryParam("label"); l != "" {
		label = l
	}
	max := h.defaultMax
	if s := c.QueryParam("max"); s != "" {
		parsed, err := strconv.Atoi(s)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "max must be a positive integer",
			})
		}
		max = parsed
	}

	res, err := h.importer.Import(c.Request().Context(), label, max)
	if err != nil {
		h.logger.Error("Failed to import inbox:", err)
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		return c.JSON(status, map[string]string{
			"error": err.Error(),
		})
	}
	return c.JSON(http.StatusOK, res)
}
