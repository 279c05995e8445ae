package storage

import (
	"github.com/redis/go-redis/v9"

	"github.com/phambaophuc/tiny-compress-images/internal/config"
	"github.com/phambaophuc/tiny-compress-images/internal/services/mirror"
)

const (
	AttachmentKeyPrefix = "attachment:"
	MetaKeyPrefix       = "tiny_compress_images:"
)

// StorageService persists attachments and their tracked compression state
// in redis.
type StorageService struct {
	redisClient *redis.Client
	mirror      mirror.Mirror
}

func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	})
}

func NewStorageService(redisClient *redis.Client, m mirror.Mirror) *StorageService {
	if m == nil {
		m = mirror.Noop{}
	}
	return &StorageService{
		redisClient: redisClient,
		mirror:      m,
	}
}
