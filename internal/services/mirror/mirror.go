package mirror

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/phambaophuc/tiny-compress-images/internal/config"
)

// Mirror copies compressed renditions to an object store.
type Mirror interface {
	Name() string
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	HealthCheck(ctx context.Context) error
}

// New builds the mirror selected by cfg.Mirror.Backend.
func New(cfg *config.Config) (Mirror, error) {
	switch cfg.Mirror.Backend {
	case "", "none":
		return Noop{}, nil
	case "supabase":
		return NewSupabase(cfg.Supabase), nil
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown mirror backend %q", cfg.Mirror.Backend)
	}
}

// Key builds the object key of one rendition.
func Key(prefix string, attachmentID int64, size, file string) string {
	return strings.TrimPrefix(path.Join(prefix, strconv.FormatInt(attachmentID, 10), size, path.Base(file)), "/")
}

type Noop struct{}

func (Noop) Name() string { return "none" }

func (Noop) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return "", nil
}

func (Noop) HealthCheck(ctx context.Context) error { return nil }
