package utils

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
)

var renditionPattern = regexp.MustCompile(`^(.+)-(\d+)x(\d+)$`)

// FindRenditions looks next to original for generated renditions and
// assigns each to the registered size it fits. A file fits a size when it
// is inside the size's box and touches one of its edges.
func FindRenditions(fs afero.Fs, original string, sizes []models.SizeConfig) (map[string]string, error) {
	dir := path.Dir(original)
	ext := path.Ext(original)
	base := strings.TrimSuffix(path.Base(original), ext)

	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	found := make(map[string]string)
	area := make(map[string]int)
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ext {
			continue
		}
		m := renditionPattern.FindStringSubmatch(strings.TrimSuffix(entry.Name(), ext))
		if m == nil || m[1] != base {
			continue
		}
		w, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		h, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}

		for _, size := range sizes {
			if w > size.Width || h > size.Height || (w != size.Width && h != size.Height) {
				continue
			}
			if w*h > area[size.Name] {
				found[size.Name] = path.Join(dir, entry.Name())
				area[size.Name] = w * h
			}
		}
	}
	return found, nil
}
