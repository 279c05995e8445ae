package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
)

var ErrAttachmentNotFound = errors.New("attachment not found")

func attachmentKey(id int64) string {
	return AttachmentKeyPrefix + strconv.FormatInt(id, 10)
}

func metaKey(id int64) string {
	return MetaKeyPrefix + strconv.FormatInt(id, 10)
}

func (s *StorageService) GetAttachment(ctx context.Context, id int64) (*models.Attachment, error) {
	data, err := s.redisClient.Get(ctx, attachmentKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("%w: %d", ErrAttachmentNotFound, id)
		}
		return nil, fmt.Errorf("attachment get error: %w", err)
	}
	var attachment models.Attachment
	if err := json.Unmarshal(data, &attachment); err != nil {
		return nil, fmt.Errorf("failed to decode attachment %d: %w", id, err)
	}
	attachment.ID = id
	return &attachment, nil
}

func (s *StorageService) SaveAttachment(ctx context.Context, attachment *models.Attachment) error {
	data, err := json.Marshal(attachment)
	if err != nil {
		return fmt.Errorf("failed to encode attachment: %w", err)
	}
	return s.redisClient.Set(ctx, attachmentKey(attachment.ID), data, 0).Err()
}

// LoadMeta returns the tracked state of every rendition of an attachment.
// An attachment that was never tracked yields an empty map.
func (s *StorageService) LoadMeta(ctx context.Context, id int64) (map[string]models.SizeRecord, error) {
	meta := make(map[string]models.SizeRecord)
	data, err := s.redisClient.Get(ctx, metaKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return meta, nil
		}
		return nil, fmt.Errorf("meta get error: %w", err)
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to decode meta for %d: %w", id, err)
	}
	return meta, nil
}

func (s *StorageService) SaveMeta(ctx context.Context, id int64, meta map[string]models.SizeRecord) error {
	for name, rec := range meta {
		if rec.IsEmpty() {
			delete(meta, name)
		}
	}
	if len(meta) == 0 {
		return s.redisClient.Del(ctx, metaKey(id)).Err()
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode meta: %w", err)
	}
	return s.redisClient.Set(ctx, metaKey(id), data, 0).Err()
}
