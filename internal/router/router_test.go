package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailtriage/internal/handler"
	"mailtriage/internal/logger"
	"mailtriage/internal/model"
	"mailtriage/internal/repository/memory"
	"mailtriage/internal/service"
	"mailtriage/internal/sse"
)

type offlineEngine struct{}

func (offlineEngine) IsInitialized() bool { return false }

func (offlineEngine) ProcessEmail(ctx context.Context, text string) (model.ProcessResult, error) {
	return model.ProcessResult{}, nil
}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	renderer, err := handler.NewTemplateRenderer()
	require.NoError(t, err)
	e.Renderer = renderer

	svc := service.NewEmailService(memory.NewInMemoryEmailTableRepository(), offlineEngine{}, nil, logger.Nop())
	SetupRoutes(e, Handlers{
		Dashboard: handler.NewDashboardHandler(svc, handler.NewSessionStore([]byte("secret"), false), e.Logger),
		Email:     handler.NewEmailHandler(svc, e.Logger),
		Inbox:     handler.NewInboxHandler(nil, "INBOX", 10, e.Logger),
		SSE:       handler.NewSSEHandler(sse.NewSSEManager(logger.Nop())),
	}, svc)
	return e
}

func serve(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	e := newServer(t)

	rec := serve(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = serve(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mailtriage_http_request_duration_seconds")
}

func TestProcessRoutesNeedEngine(t *testing.T) {
	e := newServer(t)

	rec := serve(e, http.MethodPost, "/api/emails/process", `{"email_text":"hello"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(e, http.MethodPost, "/api/inbox/import", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	// the rest of the surface stays usable
	rec = serve(e, http.MethodGet, "/api/emails", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = serve(e, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "AI engine is not initialized")
}

func TestUnknownRoute(t *testing.T) {
	e := newServer(t)
	rec := serve(e, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
