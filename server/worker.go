package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/phambaophuc/tiny-compress-images/internal/services/queue"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume queued compression jobs",
	RunE:  runWorker,
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	q, err := queue.NewQueueService(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, a.compressor, logger)
	if err != nil {
		return err
	}
	defer q.Close()

	if stats, err := q.Stats(); err != nil {
		logger.Warn("Failed to inspect queue", zap.Error(err))
	} else {
		logger.Info("Queue inspected", zap.Int("pending", stats.Pending), zap.Int("consumers", stats.Consumers))
	}

	startWorkers(ctx, q, cfg.Server.Workers)
	logger.Info("Workers running", zap.Int("count", cfg.Server.Workers), zap.String("queue", cfg.RabbitMQ.Queue))

	<-ctx.Done()
	logger.Info("Workers exited")
	return nil
}
