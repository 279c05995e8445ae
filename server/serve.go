package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phambaophuc/tiny-compress-images/internal/http/handlers"
	"github.com/phambaophuc/tiny-compress-images/internal/http/routes"
	"github.com/phambaophuc/tiny-compress-images/internal/services/queue"
)

var serveWorkers bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveWorkers, "workers", true, "consume queued jobs in this process")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// A nil *QueueService must not reach the handler as a non-nil Publisher.
	var publisher handlers.Publisher
	q, err := queue.NewQueueService(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, a.compressor, logger)
	if err != nil {
		logger.Warn("Failed to initialize queue service, compressing inline", zap.Error(err))
	} else {
		defer q.Close()
		publisher = q
		if serveWorkers {
			startWorkers(ctx, q, cfg.Server.Workers)
		}
	}

	router := routes.NewRouter(
		handlers.NewSettingsHandler(a.store, a.opts, logger),
		handlers.NewAttachmentHandler(a.compressor, publisher, a.storage, logger),
		a.registry,
		logger,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
	return nil
}

func startWorkers(ctx context.Context, q *queue.QueueService, n int) {
	for i := 1; i <= n; i++ {
		if err := q.StartWorker(ctx, i); err != nil {
			logger.Error("Failed to start worker", zap.Int("worker_id", i), zap.Error(err))
		}
	}
}
