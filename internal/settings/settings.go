package settings

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
)

const Prefix = "tinypng_"

var (
	APIKeyOption = prefixed("api_key")
	SizesOption  = prefixed("sizes")
)

func prefixed(name string) string {
	return Prefix + name
}

type Options struct {
	// Overrides is consulted in order before the stored API key.
	Overrides []KeySource
	// Multisite is set when several sites share one installation.
	Multisite bool
	// NetworkActivated is set when the integration is enabled for the whole
	// network rather than per site.
	NetworkActivated bool
	Registry         *Registry
}

// Settings resolves the API key and the sizes to compress. Absent or
// unreadable options degrade to their defaults.
type Settings struct {
	store  Store
	opts   Options
	logger *zap.Logger

	sizesOnce   sync.Once
	sizes       []models.SizeConfig
	tinifyOnce  sync.Once
	tinifySizes []string
}

func New(store Store, opts Options, logger *zap.Logger) *Settings {
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Settings{store: store, opts: opts, logger: logger}
}

func (s *Settings) Multisite() bool        { return s.opts.Multisite }
func (s *Settings) NetworkActivated() bool { return s.opts.NetworkActivated }

// HasOverride reports whether the API key comes from configuration rather
// than the store.
func (s *Settings) HasOverride() bool {
	_, ok := lookupChain(s.opts.Overrides)
	return ok
}

func (s *Settings) APIKey(ctx context.Context) string {
	if key, ok := lookupChain(s.opts.Overrides); ok {
		return key
	}
	var key string
	if _, err := s.store.Get(ctx, APIKeyOption, &key); err != nil {
		s.logger.Warn("Failed to read API key", zap.Error(err))
		return ""
	}
	return key
}

// MultisiteAPIKey returns the configured override in multisite mode and an
// empty string otherwise.
func (s *Settings) MultisiteAPIKey() string {
	if !s.opts.Multisite {
		return ""
	}
	key, _ := lookupChain(s.opts.Overrides)
	return key
}

// Sizes returns every registered rendition with known dimensions. The
// result is computed once per Settings value.
func (s *Settings) Sizes(ctx context.Context) []models.SizeConfig {
	s.sizesOnce.Do(func() {
		s.sizes = s.loadSizes(ctx)
	})
	return s.sizes
}

func (s *Settings) TinifySizes(ctx context.Context) []string {
	s.tinifyOnce.Do(func() {
		s.tinifySizes = []string{}
		for _, size := range s.Sizes(ctx) {
			if size.Tinify {
				s.tinifySizes = append(s.tinifySizes, size.Name)
			}
		}
	})
	return s.tinifySizes
}

func (s *Settings) loadSizes(ctx context.Context) []models.SizeConfig {
	var enabled map[string]string
	found, err := s.store.Get(ctx, SizesOption, &enabled)
	if err != nil {
		s.logger.Warn("Failed to read sizes setting", zap.Error(err))
		found = false
	}

	sizes := []models.SizeConfig{}
	for _, name := range s.opts.Registry.Names() {
		width, height := s.dimensions(ctx, name)
		if width == 0 || height == 0 {
			continue
		}
		sizes = append(sizes, models.SizeConfig{
			Name:   name,
			Width:  width,
			Height: height,
			Tinify: !found || enabled[name] == "on",
		})
	}
	return sizes
}

func (s *Settings) dimensions(ctx context.Context, name string) (int, int) {
	width := s.intOption(ctx, name+"_size_w")
	height := s.intOption(ctx, name+"_size_h")
	if width != 0 && height != 0 {
		return width, height
	}
	if def, ok := s.opts.Registry.Additional(name); ok {
		return def.Width, def.Height
	}
	return 0, 0
}

func (s *Settings) intOption(ctx context.Context, key string) int {
	var v int
	if _, err := s.store.Get(ctx, key, &v); err != nil {
		s.logger.Debug("Ignoring unreadable option", zap.String("key", key), zap.Error(err))
		return 0
	}
	return v
}

// Save validates the submitted form through each field and stores the
// results. Fields absent from the form are left alone. Nothing is stored
// unless every submitted field validates.
func (s *Settings) Save(ctx context.Context, form url.Values) error {
	type pending struct {
		key   string
		value interface{}
	}
	var values []pending
	for _, field := range s.Fields() {
		if field.Validate == nil || !field.Submitted(form) {
			continue
		}
		value, err := field.Validate(ctx, form)
		if err != nil {
			return err
		}
		values = append(values, pending{key: field.Key, value: value})
	}

	defer s.reset()
	for _, v := range values {
		if err := s.store.Set(ctx, v.key, v.value); err != nil {
			return err
		}
		s.logger.Info("Setting saved", zap.String("key", v.key))
	}
	return nil
}

func (s *Settings) reset() {
	s.sizesOnce = sync.Once{}
	s.tinifyOnce = sync.Once{}
	s.sizes = nil
	s.tinifySizes = nil
}

// sizeFieldName is the form name of a size checkbox.
func sizeFieldName(size string) string {
	return SizesOption + "[" + size + "]"
}

func parseSizeField(name string) (string, bool) {
	if !strings.HasPrefix(name, SizesOption+"[") || !strings.HasSuffix(name, "]") {
		return "", false
	}
	return name[len(SizesOption)+1 : len(name)-1], true
}
