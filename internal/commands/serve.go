package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"folio/internal/mailer"
	"folio/internal/metrics"
	"folio/internal/notes"
	"folio/internal/server"
	"folio/internal/viewmodel"
)

var (
	serveAddr   string
	serveStatic string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveStatic, "static", "", "Directory with built frontend (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger := newLogger(os.Stdout)
	logger.Info("folio", slog.String("version", version), slog.String("commit", commit))

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if serveStatic != "" {
		cfg.StaticDir = serveStatic
	}

	a, err := openApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	m := metrics.New()
	vm := viewmodel.New(a.tasks,
		viewmodel.WithSaveLatency(cfg.Tasks.SaveLatency),
		viewmodel.WithLogger(logger),
		viewmodel.WithMetrics(m),
	)
	adapter := notes.NewAdapter(vm.AddNote,
		notes.WithQuietPeriod(cfg.Tasks.NoteQuietPeriod),
		notes.WithLogger(logger),
		notes.WithMetrics(m),
	)

	opts := []server.Option{server.WithMetrics(m), server.WithStaticDir(cfg.StaticDir)}
	if cfg.MailEnabled() {
		ml, err := mailer.New(cfg.Mail, logger)
		if err != nil {
			return err
		}
		verifyCtx, cancel := context.WithTimeout(cmd.Context(), cfg.Mail.Timeout)
		if err := ml.Verify(verifyCtx); err != nil {
			logger.Warn("contact form will fail until the relay is reachable")
		}
		cancel()
		opts = append(opts, server.WithMailer(ml))
	} else {
		logger.Warn("mail relay not configured; contact form disabled")
	}

	srv := server.New(vm, adapter, logger, opts...)
	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Engine(),
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	// pending note edits are written before the database closes
	adapter.Close()

	logger.Info("server stopped")
	return nil
}
