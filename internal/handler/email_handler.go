package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"mailtriage/internal/export"
	"mailtriage/internal/model"
	"mailtriage/internal/service"
)

type EmailHandler struct {
	emailService service.EmailService
	logger       echo.Logger
}

func NewEmailHandler(emailService service.EmailService, logger echo.Logger) *EmailHandler {
	return &EmailHandler{
		emailService: emailService,
		logger:       logger,
	}
}

// ProcessEmail classifies a pasted email and appends it to the table
func (h *EmailHandler) ProcessEmail(c echo.Context) error {
	var req struct {
		EmailText string `json:"email_text"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	entry, err := h.emailService.ProcessNewEmail(c.Request().Context(), req.EmailText)
	if err != nil {
		h.logger.Error("Failed to process email:", err)
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusCreated, entry)
}

func (h *EmailHandler) ListEmails(c echo.Context) error {
	var filter service.Filter
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &filter); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid filter",
		})
	}

	emails, err := h.emailService.ListEmails(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("Failed to load emails:", err)
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, emails)
}

func (h *EmailHandler) GetEmail(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid email ID",
		})
	}

	email, err := h.emailService.GetEmail(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, email)
}

// UpdateEmail patches status, priority, remarks or draft reply
func (h *EmailHandler) UpdateEmail(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid email ID",
		})
	}

	var update service.EmailUpdate
	if err := c.Bind(&update); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	email, err := h.emailService.UpdateEmail(c.Request().Context(), id, update)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, email)
}

// DeleteEmails handles bulk deletion of emails
func (h *EmailHandler) DeleteEmails(c echo.Context) error {
	var req struct {
		EmailIDs []int `json:"email_ids"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}
	if len(req.EmailIDs) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Email IDs are required",
		})
	}

	n, err := h.emailService.DeleteEmails(c.Request().Context(), req.EmailIDs)
	if err != nil {
		h.logger.Error("Failed to delete emails:", err)
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"deleted": n})
}

// BulkStatus sets one status on the listed emails, or on all when none are listed
func (h *EmailHandler) BulkStatus(c echo.Context) error {
	var req struct {
		EmailIDs []int        `json:"email_ids"`
		Status   model.Status `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	n, err := h.emailService.BulkSetStatus(c.Request().Context(), req.EmailIDs, req.Status)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"updated": n})
}

func (h *EmailHandler) DeleteCompleted(c echo.Context) error {
	n, err := h.emailService.DeleteCompleted(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to delete completed emails:", err)
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"deleted": n})
}

func (h *EmailHandler) ClearAll(c echo.Context) error {
	var req struct {
		Confirm string `json:"confirm"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid request body",
		})
	}

	if err := h.emailService.ClearAll(c.Request().Context(), req.Confirm); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "All email data cleared",
	})
}

func (h *EmailHandler) RestoreBackup(c echo.Context) error {
	n, err := h.emailService.RestoreBackup(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to restore backup:", err)
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"restored": n})
}

func (h *EmailHandler) Stats(c echo.Context) error {
	stats, err := h.emailService.Stats(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *EmailHandler) ActionQueue(c echo.Context) error {
	var filter service.Filter
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &filter); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid filter",
		})
	}

	items, err := h.emailService.ActionQueue(c.Request().Context(), filter)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *EmailHandler) ExportCSV(c echo.Context) error {
	rows, err := h.emailService.ListEmails(c.Request().Context(), service.Filter{})
	if err != nil {
		return errorJSON(c, err)
	}
	setDownloadHeaders(c, "text/csv; charset=utf-8", export.Filename("csv"))
	c.Response().WriteHeader(http.StatusOK)
	return export.WriteCSV(c.Response(), rows)
}

func (h *EmailHandler) ExportXLSX(c echo.Context) error {
	rows, err := h.emailService.ListEmails(c.Request().Context(), service.Filter{})
	if err != nil {
		return errorJSON(c, err)
	}
	setDownloadHeaders(c, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", export.Filename("xlsx"))
	c.Response().WriteHeader(http.StatusOK)
	return export.WriteXLSX(c.Response(), rows)
}

func setDownloadHeaders(c echo.Context, contentType, filename string) {
	c.Response().Header().Set(echo.HeaderContentType, contentType)
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=\""+filename+"\"")
}
