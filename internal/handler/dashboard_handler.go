package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"mailtriage/internal/model"
	"mailtriage/internal/repository"
	"mailtriage/internal/service"
)

type DashboardHandler struct {
	emailService service.EmailService
	store        sessions.Store
	logger       echo.Logger
}

func NewDashboardHandler(emailService service.EmailService, store sessions.Store, logger echo.Logger) *DashboardHandler {
	return &DashboardHandler{
		emailService: emailService,
		store:        store,
		logger:       logger,
	}
}

type dashboardView struct {
	Flashes           []Flash
	EngineReady       bool
	LoadError         string
	Stats             *service.Stats
	Filter            service.Filter
	Emails            []*model.ProcessedEmail
	Actions           []*service.ActionItem
	Categories        []string
	Statuses          []model.Status
	Priorities        []model.Priority
	ClearConfirmation string
}

// Dashboard renders stats, the process form, the filtered table and the action queue
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()

	var filter service.Filter
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &filter); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid filter")
	}

	view := dashboardView{
		Flashes:           popFlashes(c, h.store),
		EngineReady:       h.emailService.EngineReady(),
		Filter:            filter,
		Statuses:          model.Statuses,
		Priorities:        model.Priorities,
		ClearConfirmation: service.ClearConfirmation,
	}

	// reads fall back to an empty table, so keep rendering and show the error
	overview, err := h.emailService.Overview(ctx, filter)
	if err != nil {
		h.logger.Error("Failed to load email table:", err)
		view.LoadError = err.Error()
	}
	view.Stats = overview.Stats
	view.Emails = overview.Emails
	view.Actions = overview.Actions
	view.Categories = overview.Categories

	return c.Render(http.StatusOK, "dashboard.html", view)
}

func (h *DashboardHandler) redirect(c echo.Context, kind, message string) error {
	addFlash(c, h.store, kind, message)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *DashboardHandler) fail(c echo.Context, action string, err error) error {
	h.logger.Error("Dashboard "+action+" failed:", err)
	return h.redirect(c, FlashError, err.Error())
}

func (h *DashboardHandler) ProcessEmail(c echo.Context) error {
	entry, err := h.emailService.ProcessNewEmail(c.Request().Context(), c.FormValue("email_text"))
	if err != nil {
		if errors.Is(err, service.ErrEmptyEmail) || errors.Is(err, service.ErrEngineNotReady) {
			return h.redirect(c, FlashWarning, err.Error())
		}
		return h.fail(c, "process", err)
	}
	return h.redirect(c, FlashSuccess, fmt.Sprintf("%s Email from %s classified as %s (%s priority)",
		model.EmojiOf(entry.Category), entry.Name, entry.Category, entry.Priority))
}

func (h *DashboardHandler) SetStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return h.redirect(c, FlashError, "Invalid email ID")
	}
	status := model.Status(c.FormValue("status"))
	if _, err := h.emailService.MarkStatus(c.Request().Context(), id, status); err != nil {
		return h.fail(c, "status update", err)
	}
	return h.redirect(c, FlashSuccess, fmt.Sprintf("Email %d marked as %s", id, status))
}

func (h *DashboardHandler) EditReply(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return h.redirect(c, FlashError, "Invalid email ID")
	}
	if _, err := h.emailService.EditReply(c.Request().Context(), id, c.FormValue("draft_reply")); err != nil {
		return h.fail(c, "reply edit", err)
	}
	return h.redirect(c, FlashSuccess, fmt.Sprintf("Reply for email %d updated", id))
}

// UpdateRow applies the inline Priority and Remarks edits. Fields missing
// from the form are left unchanged.
func (h *DashboardHandler) UpdateRow(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return h.redirect(c, FlashError, "Invalid email ID")
	}
	params, err := c.FormParams()
	if err != nil {
		return h.redirect(c, FlashError, "Invalid form")
	}

	var update service.EmailUpdate
	if v, ok := params["priority"]; ok && len(v) > 0 {
		p := model.Priority(v[0])
		update.Priority = &p
	}
	if v, ok := params["remarks"]; ok && len(v) > 0 {
		update.Remarks = &v[0]
	}
	if update.Priority == nil && update.Remarks == nil {
		return h.redirect(c, FlashWarning, "Nothing to update")
	}

	if _, err := h.emailService.UpdateEmail(c.Request().Context(), id, update); err != nil {
		return h.fail(c, "row update", err)
	}
	return h.redirect(c, FlashSuccess, fmt.Sprintf("Email %d updated", id))
}

func (h *DashboardHandler) BulkStatus(c echo.Context) error {
	params, err := c.FormParams()
	if err != nil {
		return h.redirect(c, FlashError, "Invalid form")
	}
	var ids []int
	for _, s := range params["ids"] {
		id, err := strconv.Atoi(s)
		if err != nil {
			return h.redirect(c, FlashError, "Invalid email ID "+s)
		}
		ids = append(ids, id)
	}

	status := model.Status(c.FormValue("status"))
	n, err := h.emailService.BulkSetStatus(c.Request().Context(), ids, status)
	if err != nil {
		return h.fail(c, "bulk status", err)
	}
	return h.redirect(c, FlashSuccess, fmt.Sprintf("%d emails set to %s", n, status))
}

func (h *DashboardHandler) DeleteCompleted(c echo.Context) error {
	n, err := h.emailService.DeleteCompleted(c.Request().Context())
	if err != nil {
		return h.fail(c, "delete completed", err)
	}
	return h.redirect(c, FlashSuccess, fmt.Sprintf("Deleted %d completed emails", n))
}

func (h *DashboardHandler) Restore(c echo.Context) error {
	n, err := h.emailService.RestoreBackup(c.Request().Context())
	if err != nil {
		if errors.Is(err, repository.ErrNoBackup) {
			return h.redirect(c, FlashWarning, "No backup file found")
		}
		return h.fail(c, "restore", err)
	}
	return h.redirect(c, FlashSuccess, fmt.Sprintf("Restored %d emails from backup", n))
}

func (h *DashboardHandler) Clear(c echo.Context) error {
	if err := h.emailService.ClearAll(c.Request().Context(), c.FormValue("confirm")); err != nil {
		if errors.Is(err, service.ErrConfirmationRequired) {
			return h.redirect(c, FlashWarning, err.Error())
		}
		return h.fail(c, "clear", err)
	}
	return h.redirect(c, FlashSuccess, "All email data cleared")
}
