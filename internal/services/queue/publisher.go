package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
)

// NewJob builds a pending job for one attachment.
func NewJob(attachmentID int64) *models.CompressionJob {
	return &models.CompressionJob{
		ID:           uuid.New().String(),
		AttachmentID: attachmentID,
		Status:       models.StatusPending,
		CreatedAt:    time.Now(),
	}
}

func (q *QueueService) PublishJob(ctx context.Context, job *models.CompressionJob) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	err = q.channel.Publish(
		"",          // exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         jobBytes,
			DeliveryMode: amqp.Persistent,
			MessageId:    job.ID,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish job: %w", err)
	}

	q.logger.Info("Job published to queue",
		zap.String("job_id", job.ID),
		zap.Int64("attachment_id", job.AttachmentID))
	return nil
}
