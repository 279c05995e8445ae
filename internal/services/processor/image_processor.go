package processor

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
)

const MaxFileSize = 32 << 20

// CompressibleTypes are the formats the compression service accepts.
var CompressibleTypes = []string{"image/jpeg", "image/png", "image/webp"}

type ImageProcessor struct {
	maxSize int64
}

func NewImageProcessor(maxSize int64) *ImageProcessor {
	if maxSize <= 0 {
		maxSize = MaxFileSize
	}
	return &ImageProcessor{maxSize: maxSize}
}

// Inspect reports the size, type and dimensions of an encoded image.
func (p *ImageProcessor) Inspect(data []byte) (models.FileStats, error) {
	stats := models.FileStats{
		Size: int64(len(data)),
		Type: DetectType(data),
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return stats, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()
	stats.Width = bounds.Dx()
	stats.Height = bounds.Dy()
	return stats, nil
}

func DetectType(data []byte) string {
	ct := http.DetectContentType(data)
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(strings.ToLower(ct))
}

func IsCompressible(contentType string) bool {
	for _, t := range CompressibleTypes {
		if contentType == t {
			return true
		}
	}
	return false
}
