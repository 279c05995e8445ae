package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
)

func newTestService(t *testing.T) (*StorageService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStorageService(client, nil), mr
}

func TestAttachmentRoundTrip(t *testing.T) {
	s, mr := newTestService(t)
	ctx := context.Background()

	want := &models.Attachment{
		ID:    7,
		File:  "2015/09/photo.jpg",
		Sizes: map[string]string{"thumbnail": "2015/09/photo-150x150.jpg"},
	}
	if err := s.SaveAttachment(ctx, want); err != nil {
		t.Fatalf("SaveAttachment() failed: %v", err)
	}
	if !mr.Exists("attachment:7") {
		t.Error("expected attachment:7 key")
	}

	got, err := s.GetAttachment(ctx, 7)
	if err != nil {
		t.Fatalf("GetAttachment() failed: %v", err)
	}
	if got.File != want.File || got.Sizes["thumbnail"] != want.Sizes["thumbnail"] {
		t.Errorf("GetAttachment() = %+v, want %+v", got, want)
	}
}

func TestGetAttachment_NotFound(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.GetAttachment(context.Background(), 1)
	if !errors.Is(err, ErrAttachmentNotFound) {
		t.Errorf("expected ErrAttachmentNotFound, got %v", err)
	}
}

func TestLoadMeta_Missing(t *testing.T) {
	s, _ := newTestService(t)

	meta, err := s.LoadMeta(context.Background(), 1)
	if err != nil {
		t.Fatalf("LoadMeta() failed: %v", err)
	}
	if meta == nil || len(meta) != 0 {
		t.Errorf("expected empty map, got %v", meta)
	}
}

func TestSaveMeta(t *testing.T) {
	s, mr := newTestService(t)
	ctx := context.Background()

	end := int64(1447925134)
	meta := map[string]models.SizeRecord{
		"0":         {End: &end, Output: &models.FileStats{Size: 100}},
		"thumbnail": {},
	}
	if err := s.SaveMeta(ctx, 3, meta); err != nil {
		t.Fatalf("SaveMeta() failed: %v", err)
	}

	got, err := s.LoadMeta(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected empty records to be dropped, got %v", got)
	}
	if got["0"].End == nil || *got["0"].End != end {
		t.Errorf("unexpected record %+v", got["0"])
	}

	if err := s.SaveMeta(ctx, 3, map[string]models.SizeRecord{}); err != nil {
		t.Fatal(err)
	}
	if mr.Exists("tiny_compress_images:3") {
		t.Error("expected meta key to be removed")
	}
}

func TestHealthCheck(t *testing.T) {
	s, mr := newTestService(t)
	ctx := context.Background()

	status := s.HealthCheck(ctx)
	if status["redis"] != "healthy" {
		t.Errorf("expected healthy redis, got %q", status["redis"])
	}
	if status["mirror"] != "not configured" {
		t.Errorf("expected unconfigured mirror, got %q", status["mirror"])
	}

	mr.Close()
	if status := s.HealthCheck(ctx); status["redis"] == "healthy" {
		t.Error("expected unhealthy redis after shutdown")
	}
}
