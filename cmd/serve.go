package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"

	"mailtriage/internal/handler"
	"mailtriage/internal/router"
	"mailtriage/internal/sse"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web dashboard and JSON API",
	Long: `Start the HTTP server with the dashboard, the JSON API, live updates and
/metrics. The server starts even when the AI engine cannot be initialized; the
processing endpoints then answer 503.

When INBOX_PROVIDER and INBOX_POLL_INTERVAL_SECONDS are set, the mailbox is
polled in the background.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := buildApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		importer, err := a.newImporter(ctx)
		if err != nil {
			return err
		}

		e := echo.New()
		e.HideBanner = true

		e.Use(middleware.Logger())
		e.Use(middleware.Recover())

		renderer, err := handler.NewTemplateRenderer()
		if err != nil {
			return err
		}
		e.Renderer = renderer

		// keep the interface nil rather than holding a nil *inbox.Importer
		var inboxImporter handler.InboxImporter
		if importer != nil {
			inboxImporter = importer
		}

		secure := cfg.Env == "production"
		router.SetupRoutes(e, router.Handlers{
			Dashboard: handler.NewDashboardHandler(a.emailService, handler.NewSessionStore([]byte(cfg.SessionSecret), secure), e.Logger),
			Email:     handler.NewEmailHandler(a.emailService, e.Logger),
			Inbox:     handler.NewInboxHandler(inboxImporter, cfg.InboxLabel, cfg.InboxFetchMax, e.Logger),
			SSE:       handler.NewSSEHandler(a.sseManager),
		}, a.emailService)

		if importer != nil && cfg.InboxPollInterval > 0 {
			job := sse.NewInboxPollJob(importer, a.sseManager, appLogger, cfg.InboxPollInterval, cfg.InboxLabel, cfg.InboxFetchMax)
			go job.Start()
			defer job.Stop()
		}

		go func() {
			appLogger.Infof("starting server on port %s", cfg.Port)
			if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Errorf("server stopped: %v", err)
				stop()
			}
		}()

		<-ctx.Done()
		appLogger.Info("shutting down")
		// open SSE streams end when their channels close
		a.sseManager.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
