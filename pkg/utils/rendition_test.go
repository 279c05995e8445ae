package utils

import (
	"math"
	"reflect"
	"testing"

	"github.com/spf13/afero"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
)

func TestFindRenditions(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{
		"photo.jpg",
		"photo-150x150.jpg",
		"photo-300x200.jpg",
		"photo-1024x683.jpg",
		"photo-150x150.png",
		"other-150x150.jpg",
	} {
		afero.WriteFile(fs, "/uploads/2015/09/"+name, []byte("x"), 0o644)
	}
	sizes := []models.SizeConfig{
		{Name: "thumbnail", Width: 150, Height: 150},
		{Name: "medium", Width: 300, Height: 300},
		{Name: "large", Width: 1024, Height: 1024},
		{Name: "huge", Width: 4000, Height: 4000},
	}

	got, err := FindRenditions(fs, "/uploads/2015/09/photo.jpg", sizes)
	if err != nil {
		t.Fatalf("FindRenditions() failed: %v", err)
	}
	want := map[string]string{
		"thumbnail": "/uploads/2015/09/photo-150x150.jpg",
		"medium":    "/uploads/2015/09/photo-300x200.jpg",
		"large":     "/uploads/2015/09/photo-1024x683.jpg",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindRenditions() = %v, want %v", got, want)
	}
}

func TestFindRenditions_SkipsOutOfRangeDimensions(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/uploads/photo.jpg", []byte("x"), 0o644)
	afero.WriteFile(fs, "/uploads/photo-99999999999999999999999x150.jpg", []byte("x"), 0o644)

	sizes := []models.SizeConfig{{Name: "wide", Width: math.MaxInt, Height: 150}}
	got, err := FindRenditions(fs, "/uploads/photo.jpg", sizes)
	if err != nil {
		t.Fatalf("FindRenditions() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected unparsable rendition to be skipped, got %v", got)
	}
}
