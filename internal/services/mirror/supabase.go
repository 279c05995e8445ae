package mirror

import (
	"bytes"
	"context"
	"fmt"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/phambaophuc/tiny-compress-images/internal/config"
)

type Supabase struct {
	client *storage_go.Client
	bucket string
}

func NewSupabase(cfg config.SupabaseConfig) *Supabase {
	return &Supabase{
		client: storage_go.NewClient(cfg.URL+"/storage/v1", cfg.KEY, nil),
		bucket: cfg.BUCKET,
	}
}

func (s *Supabase) Name() string { return "supabase" }

// Upload stores data under key and returns its public URL.
func (s *Supabase) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	upsert := true
	_, err := s.client.UploadFile(s.bucket, key, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to supabase: %w", err)
	}

	publicURL := s.client.GetPublicUrl(s.bucket, key)
	return publicURL.SignedURL, nil
}

func (s *Supabase) HealthCheck(ctx context.Context) error {
	if _, err := s.client.ListFiles(s.bucket, "", storage_go.FileSearchOptions{}); err != nil {
		return fmt.Errorf("supabase: %v", err)
	}
	return nil
}
