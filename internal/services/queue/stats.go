package queue

import "fmt"

// Stats is a snapshot of the job queue.
type Stats struct {
	Name      string `json:"name"`
	Pending   int    `json:"pending"`
	Consumers int    `json:"consumers"`
}

func (q *QueueService) Stats() (Stats, error) {
	info, err := q.channel.QueueInspect(q.queueName)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to inspect queue: %w", err)
	}
	return Stats{Name: info.Name, Pending: info.Messages, Consumers: info.Consumers}, nil
}

// HealthCheck reports whether the broker connection is usable.
func (q *QueueService) HealthCheck() string {
	switch {
	case q.conn == nil || q.conn.IsClosed():
		return "unhealthy: connection closed"
	case q.channel == nil:
		return "unhealthy: channel not available"
	}
	return "healthy"
}
