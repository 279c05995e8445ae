package models

import "time"

type CompressionJob struct {
	ID           string              `json:"id"`
	AttachmentID int64               `json:"attachment_id"`
	Status       string              `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	Result       *CompressionSummary `json:"result,omitempty"`
	Error        string              `json:"error,omitempty"`
}

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)
