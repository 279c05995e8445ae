package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
)

func (q *QueueService) StartWorker(ctx context.Context, workerID int) error {
	msgs, err := q.channel.Consume(
		q.queueName,                        // queue
		fmt.Sprintf("worker-%d", workerID), // consumer
		false,                              // auto-ack
		false,                              // exclusive
		false,                              // no-local
		false,                              // no-wait
		nil,                                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	q.logger.Info("Worker started", zap.Int("worker_id", workerID))

	go func() {
		for {
			select {
			case <-ctx.Done():
				q.logger.Info("Worker stopping", zap.Int("worker_id", workerID))
				return
			case msg, ok := <-msgs:
				if !ok {
					q.logger.Warn("Message channel closed", zap.Int("worker_id", workerID))
					return
				}

				q.processMessage(ctx, msg, workerID)
			}
		}
	}()

	return nil
}

// acknowledger is the part of amqp.Delivery the worker uses.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (q *QueueService) processMessage(ctx context.Context, msg amqp.Delivery, workerID int) {
	q.handle(ctx, msg.Body, msg, workerID)
}

func (q *QueueService) handle(ctx context.Context, body []byte, ack acknowledger, workerID int) *models.CompressionJob {
	var job models.CompressionJob
	if err := json.Unmarshal(body, &job); err != nil || job.AttachmentID <= 0 {
		q.logger.Error("Malformed job",
			zap.Error(err),
			zap.Int("worker_id", workerID))
		// Don't requeue malformed messages
		if err := ack.Nack(false, false); err != nil {
			q.logger.Error("Failed to nack message",
				zap.Int("worker_id", workerID),
				zap.Error(err))
		}
		return nil
	}

	q.logger.Info("Processing job",
		zap.String("job_id", job.ID),
		zap.Int64("attachment_id", job.AttachmentID),
		zap.Int("worker_id", workerID))

	job.Status = models.StatusProcessing

	result, err := q.compressor.CompressAttachment(ctx, job.AttachmentID)
	if err != nil {
		job.Status = models.StatusFailed
		job.Error = err.Error()
		q.logger.Error("Job processing failed",
			zap.String("job_id", job.ID),
			zap.Error(err))
	} else {
		job.Status = models.StatusCompleted
		job.Result = result
		q.logger.Info("Job completed successfully",
			zap.String("job_id", job.ID),
			zap.Int("compressed", len(result.Compressed)),
			zap.Int("failed", len(result.Failed)))
	}

	// Failures are tracked per rendition, so the message is done either way.
	if err := ack.Ack(false); err != nil {
		q.logger.Error("Failed to ack message",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}

	return &job
}
