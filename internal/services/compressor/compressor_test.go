package compressor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"reflect"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
	"github.com/phambaophuc/tiny-compress-images/internal/tinify"
)

var now = time.Unix(1500000000, 0)

type memoryRepo struct {
	attachments map[int64]*models.Attachment
	meta        map[int64]map[string]models.SizeRecord
	saves       int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		attachments: make(map[int64]*models.Attachment),
		meta:        make(map[int64]map[string]models.SizeRecord),
	}
}

func (r *memoryRepo) GetAttachment(ctx context.Context, id int64) (*models.Attachment, error) {
	a, ok := r.attachments[id]
	if !ok {
		return nil, errors.New("attachment not found")
	}
	return a, nil
}

func (r *memoryRepo) LoadMeta(ctx context.Context, id int64) (map[string]models.SizeRecord, error) {
	out := make(map[string]models.SizeRecord)
	for k, v := range r.meta[id] {
		out[k] = v
	}
	return out, nil
}

func (r *memoryRepo) SaveMeta(ctx context.Context, id int64, meta map[string]models.SizeRecord) error {
	r.saves++
	cp := make(map[string]models.SizeRecord)
	for k, v := range meta {
		cp[k] = v
	}
	r.meta[id] = cp
	return nil
}

type fakeClient struct {
	output []byte
	err    error
	calls  int
	keys   []string
}

func (c *fakeClient) Compress(ctx context.Context, apiKey string, data []byte) ([]byte, models.CompressionResult, int, error) {
	c.calls++
	c.keys = append(c.keys, apiKey)
	if c.err != nil {
		return nil, models.CompressionResult{}, 7, c.err
	}
	return c.output, models.CompressionResult{
		Input:  models.FileStats{Size: int64(len(data)), Type: "image/png"},
		Output: models.FileStats{Size: 999, Type: "image/png", Width: 10, Height: 10},
	}, 7, nil
}

type fakeSettings struct {
	key   string
	sizes []string
}

func (s fakeSettings) APIKey(ctx context.Context) string { return s.key }
func (s fakeSettings) TinifySizes(ctx context.Context) []string { return s.sizes }

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type env struct {
	fs     afero.Fs
	clock  *testclock.Clock
	repo   *memoryRepo
	client *fakeClient
	c      *Compressor
}

func setup(t *testing.T, settings fakeSettings) *env {
	t.Helper()
	e := &env{
		fs:     afero.NewMemMapFs(),
		clock:  testclock.NewClock(now),
		repo:   newMemoryRepo(),
		client: &fakeClient{output: []byte("compressed-bytes")},
	}
	afero.WriteFile(e.fs, "/2015/09/photo.png", pngBytes(t, 40, 40), 0o600)
	afero.WriteFile(e.fs, "/2015/09/photo-150x150.png", pngBytes(t, 15, 15), 0o644)
	e.repo.attachments[1] = &models.Attachment{
		ID:   1,
		File: "/2015/09/photo.png",
		Sizes: map[string]string{
			"thumbnail": "/2015/09/photo-150x150.png",
			"medium":    "/2015/09/photo-300x300.png",
		},
	}
	e.c = New(e.repo, e.client, func() Settings { return settings }, zap.NewNop(), Options{
		Fs:      e.fs,
		Clock:   e.clock,
		Metrics: NewMetrics(prometheus.NewRegistry()),
	})
	return e
}

func TestCompressAttachment(t *testing.T) {
	e := setup(t, fakeSettings{key: "key", sizes: []string{"thumbnail", "medium", "large"}})

	summary, err := e.c.CompressAttachment(context.Background(), 1)
	if err != nil {
		t.Fatalf("CompressAttachment() failed: %v", err)
	}

	if want := []string{models.OriginalSize, "thumbnail"}; !reflect.DeepEqual(summary.Compressed, want) {
		t.Errorf("compressed = %v, want %v", summary.Compressed, want)
	}
	if want := []string{"medium", "large"}; !reflect.DeepEqual(summary.Skipped, want) {
		t.Errorf("skipped = %v, want %v", summary.Skipped, want)
	}
	if len(summary.Failed) != 0 {
		t.Errorf("expected no failures, got %v", summary.Failed)
	}
	if e.client.calls != 2 {
		t.Errorf("expected 2 service calls, got %d", e.client.calls)
	}

	data, _ := afero.ReadFile(e.fs, "/2015/09/photo.png")
	if string(data) != "compressed-bytes" {
		t.Errorf("expected original to be replaced, got %q", data)
	}
	info, _ := e.fs.Stat("/2015/09/photo.png")
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected file mode to be kept, got %v", info.Mode().Perm())
	}

	rec := e.repo.meta[1]["thumbnail"]
	if rec.End == nil || *rec.End != now.Unix() {
		t.Errorf("expected end time, got %+v", rec)
	}
	if rec.Output == nil || rec.Output.Size != int64(len("compressed-bytes")) {
		t.Errorf("expected output size of written file, got %+v", rec.Output)
	}
	if _, ok := e.repo.meta[1]["medium"]; ok {
		t.Error("expected no meta for missing rendition")
	}
}

func TestCompressAttachment_SkipsCompressed(t *testing.T) {
	e := setup(t, fakeSettings{key: "key", sizes: []string{"thumbnail"}})
	ctx := context.Background()

	if _, err := e.c.CompressAttachment(ctx, 1); err != nil {
		t.Fatal(err)
	}
	summary, err := e.c.CompressAttachment(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary.Compressed) != 0 || len(summary.Skipped) != 2 {
		t.Errorf("expected everything to be skipped, got %+v", summary)
	}
	if e.client.calls != 2 {
		t.Errorf("expected no new service calls, got %d", e.client.calls)
	}
}

func TestCompressAttachment_RecompressesModified(t *testing.T) {
	e := setup(t, fakeSettings{key: "key", sizes: []string{"thumbnail"}})
	ctx := context.Background()

	if _, err := e.c.CompressAttachment(ctx, 1); err != nil {
		t.Fatal(err)
	}
	afero.WriteFile(e.fs, "/2015/09/photo-150x150.png", pngBytes(t, 20, 20), 0o644)

	summary, err := e.c.CompressAttachment(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(summary.Compressed, []string{"thumbnail"}) {
		t.Errorf("expected modified thumbnail to be compressed again, got %+v", summary)
	}
}

func TestCompressAttachment_SkipsInProgress(t *testing.T) {
	e := setup(t, fakeSettings{key: "key", sizes: []string{"thumbnail"}})
	start := now.Add(-2 * time.Minute).Unix()
	e.repo.meta[1] = map[string]models.SizeRecord{"thumbnail": {Start: &start}}

	summary, err := e.c.CompressAttachment(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(summary.Skipped, []string{"thumbnail"}) {
		t.Errorf("expected thumbnail to be skipped, got %+v", summary)
	}
}

func TestCompressAttachment_RecordsFailure(t *testing.T) {
	e := setup(t, fakeSettings{key: "key", sizes: []string{"thumbnail"}})
	e.client.err = tinify.NewError("Unauthorized", "Credentials are invalid")

	summary, err := e.c.CompressAttachment(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{models.OriginalSize, "thumbnail"}; !reflect.DeepEqual(summary.Failed, want) {
		t.Errorf("failed = %v, want %v", summary.Failed, want)
	}

	rec := e.repo.meta[1]["thumbnail"]
	if rec.Error != "Unauthorized" || rec.Message != "Credentials are invalid" {
		t.Errorf("unexpected failure record %+v", rec)
	}
	if rec.Timestamp == nil || rec.Start != nil {
		t.Errorf("expected timestamp without start, got %+v", rec)
	}

	data, _ := afero.ReadFile(e.fs, "/2015/09/photo-150x150.png")
	if string(data) == "compressed-bytes" {
		t.Error("expected file to be untouched after failure")
	}
}

func TestCompressAttachment_NoAPIKey(t *testing.T) {
	e := setup(t, fakeSettings{sizes: []string{"thumbnail"}})
	_, err := e.c.CompressAttachment(context.Background(), 1)
	if !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
	if e.repo.saves != 0 {
		t.Errorf("expected no state change, got %d saves", e.repo.saves)
	}
}

func TestCompressAttachment_UnknownAttachment(t *testing.T) {
	e := setup(t, fakeSettings{key: "key"})
	if _, err := e.c.CompressAttachment(context.Background(), 99); err == nil {
		t.Error("expected error for unknown attachment")
	}
}

func TestStatus(t *testing.T) {
	e := setup(t, fakeSettings{key: "key", sizes: []string{"thumbnail"}})
	ctx := context.Background()
	if _, err := e.c.CompressAttachment(ctx, 1); err != nil {
		t.Fatal(err)
	}

	statuses, err := e.c.Status(ctx, 1)
	if err != nil {
		t.Fatalf("Status() failed: %v", err)
	}
	if len(statuses) != 3 {
		t.Fatalf("expected 3 renditions, got %d", len(statuses))
	}

	names := []string{statuses[0].Size, statuses[1].Size, statuses[2].Size}
	if !reflect.DeepEqual(names, []string{models.OriginalSize, "medium", "thumbnail"}) {
		t.Errorf("unexpected order %v", names)
	}

	original := statuses[0]
	if !original.Exists || !original.Compressed || original.Modified || original.InProgress {
		t.Errorf("unexpected original status %+v", original)
	}
	if !original.Resized {
		t.Error("expected original to be reported as resized")
	}
	if original.EndTime == nil || *original.EndTime != now.Unix() {
		t.Errorf("expected end time %d, got %v", now.Unix(), original.EndTime)
	}

	medium := statuses[1]
	if medium.Exists || medium.Compressed {
		t.Errorf("expected missing medium, got %+v", medium)
	}
}
