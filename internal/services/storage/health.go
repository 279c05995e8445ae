package storage

import "context"

// HealthCheck checks Redis and the mirror backend.
func (s *StorageService) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		status["redis"] = "unhealthy: " + err.Error()
	} else {
		status["redis"] = "healthy"
	}

	name := s.mirror.Name()
	if name == "none" {
		status["mirror"] = "not configured"
	} else if err := s.mirror.HealthCheck(ctx); err != nil {
		status[name] = "unhealthy: " + err.Error()
	} else {
		status[name] = "healthy"
	}

	return status
}
