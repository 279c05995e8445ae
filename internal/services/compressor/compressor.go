package compressor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/juju/clock"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/phambaophuc/tiny-compress-images/internal/imagesize"
	"github.com/phambaophuc/tiny-compress-images/internal/models"
	"github.com/phambaophuc/tiny-compress-images/internal/services/mirror"
	"github.com/phambaophuc/tiny-compress-images/internal/services/processor"
)

var ErrNoAPIKey = errors.New("no API key configured")

type Repository interface {
	GetAttachment(ctx context.Context, id int64) (*models.Attachment, error)
	LoadMeta(ctx context.Context, id int64) (map[string]models.SizeRecord, error)
	SaveMeta(ctx context.Context, id int64, meta map[string]models.SizeRecord) error
}

type Client interface {
	Compress(ctx context.Context, apiKey string, data []byte) ([]byte, models.CompressionResult, int, error)
}

// Settings is the part of the settings controller the compressor reads.
type Settings interface {
	APIKey(ctx context.Context) string
	TinifySizes(ctx context.Context) []string
}

type Options struct {
	Fs               afero.Fs
	Clock            clock.Clock
	InProgressWindow time.Duration
	Mirror           mirror.Mirror
	MirrorPrefix     string
	Metrics          *Metrics
}

// Compressor sends the renditions of an attachment to the compression
// service and tracks the outcome of each.
type Compressor struct {
	repo      Repository
	client    Client
	settings  func() Settings
	processor *processor.ImageProcessor
	logger    *zap.Logger
	opts      Options
}

// New creates a Compressor. settings is called once per attachment so that
// each run sees current configuration.
func New(repo Repository, client Client, settings func() Settings, logger *zap.Logger, opts Options) *Compressor {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Clock == nil {
		opts.Clock = clock.WallClock
	}
	if opts.Mirror == nil {
		opts.Mirror = mirror.Noop{}
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	return &Compressor{
		repo:      repo,
		client:    client,
		settings:  settings,
		processor: processor.NewImageProcessor(0),
		logger:    logger,
		opts:      opts,
	}
}

func (c *Compressor) imageSize(name, path string, rec models.SizeRecord) *imagesize.ImageSize {
	return imagesize.New(name, path, rec,
		imagesize.WithFs(c.opts.Fs),
		imagesize.WithClock(c.opts.Clock),
		imagesize.WithInProgressWindow(c.opts.InProgressWindow),
	)
}

// CompressAttachment compresses the original and every enabled size of one
// attachment. Renditions that are missing, in progress or already
// compressed are skipped. A failed rendition does not stop the others.
func (c *Compressor) CompressAttachment(ctx context.Context, id int64) (*models.CompressionSummary, error) {
	s := c.settings()
	apiKey := s.APIKey(ctx)
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	attachment, err := c.repo.GetAttachment(ctx, id)
	if err != nil {
		return nil, err
	}
	meta, err := c.repo.LoadMeta(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := &models.CompressionSummary{
		AttachmentID: id,
		Compressed:   []string{},
		Failed:       []string{},
		Skipped:      []string{},
	}

	sizes := append([]string{models.OriginalSize}, s.TinifySizes(ctx)...)
	for _, name := range sizes {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		path, _ := attachment.Path(name)
		img := c.imageSize(name, path, meta[name])
		if !img.StillExists() || img.InProgress() || img.Compressed() {
			summary.Skipped = append(summary.Skipped, name)
			continue
		}

		img.AddRequest()
		meta[name] = img.Record()
		if err := c.repo.SaveMeta(ctx, id, meta); err != nil {
			return summary, fmt.Errorf("failed to save request marker: %w", err)
		}

		result, err := c.compressOne(ctx, apiKey, attachment, img)
		if err != nil {
			img.AddException(err)
			summary.Failed = append(summary.Failed, name)
			c.opts.Metrics.compressions.WithLabelValues("failure").Inc()
			c.logger.Warn("Compression failed",
				zap.Int64("attachment_id", id),
				zap.String("size", name),
				zap.Error(err))
		} else {
			img.AddResponse(result)
			summary.Compressed = append(summary.Compressed, name)
			c.opts.Metrics.compressions.WithLabelValues("success").Inc()
			if saved := result.Input.Size - result.Output.Size; saved > 0 {
				c.opts.Metrics.bytesSaved.Add(float64(saved))
			}
		}

		meta[name] = img.Record()
		if err := c.repo.SaveMeta(ctx, id, meta); err != nil {
			return summary, fmt.Errorf("failed to save compression result: %w", err)
		}
	}

	c.logger.Info("Attachment processed",
		zap.Int64("attachment_id", id),
		zap.Int("compressed", len(summary.Compressed)),
		zap.Int("failed", len(summary.Failed)),
		zap.Int("skipped", len(summary.Skipped)))

	return summary, nil
}

func (c *Compressor) compressOne(ctx context.Context, apiKey string, attachment *models.Attachment, img *imagesize.ImageSize) (models.CompressionResult, error) {
	start := c.opts.Clock.Now()
	defer func() {
		c.opts.Metrics.duration.Observe(c.opts.Clock.Now().Sub(start).Seconds())
	}()

	var result models.CompressionResult
	data, err := afero.ReadFile(c.opts.Fs, img.Path)
	if err != nil {
		return result, fmt.Errorf("failed to read %s: %w", img.Path, err)
	}
	if err := c.processor.Validate(data); err != nil {
		return result, err
	}

	output, result, count, err := c.client.Compress(ctx, apiKey, data)
	if count >= 0 {
		c.opts.Metrics.compressionCount.Set(float64(count))
	}
	if err != nil {
		return result, err
	}

	if result.Output.Width == 0 || result.Output.Height == 0 {
		if stats, err := c.processor.Inspect(output); err == nil {
			result.Output.Width = stats.Width
			result.Output.Height = stats.Height
		}
	}
	// The recorded output size must match the file on disk.
	result.Output.Size = int64(len(output))
	if result.Input.Size == 0 {
		result.Input.Size = int64(len(data))
	}

	if err := writeFile(c.opts.Fs, img.Path, output); err != nil {
		return result, err
	}

	if c.opts.Mirror.Name() != "none" {
		key := mirror.Key(c.opts.MirrorPrefix, attachment.ID, img.Name, img.Path)
		if url, err := c.opts.Mirror.Upload(ctx, key, output, result.Output.Type); err != nil {
			c.logger.Warn("Failed to mirror rendition", zap.String("key", key), zap.Error(err))
		} else {
			c.logger.Debug("Rendition mirrored", zap.String("key", key), zap.String("url", url))
		}
	}

	return result, nil
}

func writeFile(fs afero.Fs, path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := afero.WriteFile(fs, path, data, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Status reports the tracked state of every rendition of an attachment,
// original first.
func (c *Compressor) Status(ctx context.Context, id int64) ([]models.RenditionStatus, error) {
	attachment, err := c.repo.GetAttachment(ctx, id)
	if err != nil {
		return nil, err
	}
	meta, err := c.repo.LoadMeta(ctx, id)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(attachment.Sizes))
	for name := range attachment.Sizes {
		names = append(names, name)
	}
	sort.Strings(names)
	names = append([]string{models.OriginalSize}, names...)

	statuses := make([]models.RenditionStatus, 0, len(names))
	for _, name := range names {
		path, _ := attachment.Path(name)
		img := c.imageSize(name, path, meta[name])
		status := models.RenditionStatus{
			Size:       name,
			Path:       path,
			Exists:     img.StillExists(),
			Compressed: img.Compressed(),
			Modified:   img.Modified(),
			InProgress: img.InProgress(),
			Resized:    img.Resized(),
		}
		if end, ok := img.EndTime(); ok {
			sec := end.Unix()
			status.EndTime = &sec
		}
		switch st := img.State().(type) {
		case imagesize.Completed:
			out := st.Output
			status.Output = &out
		case imagesize.Failed:
			status.Error = st.Message
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
