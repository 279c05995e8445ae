package settings

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/phambaophuc/tiny-compress-images/internal/models"
)

// BuiltinSizes are the renditions every site generates, in order.
var BuiltinSizes = []string{"thumbnail", "medium", "medium_large", "large"}

var builtinDefaults = map[string][2]int{
	"thumbnail":    {150, 150},
	"medium":       {300, 300},
	"medium_large": {768, 0},
	"large":        {1024, 1024},
}

// Registry lists the rendition names a site generates. Custom sizes carry
// their own dimensions.
type Registry struct {
	names      []string
	additional map[string]models.SizeDefinition
}

type registryFile struct {
	Sizes []models.SizeDefinition `yaml:"sizes"`
}

func NewRegistry(custom ...models.SizeDefinition) *Registry {
	r := &Registry{additional: make(map[string]models.SizeDefinition)}
	r.names = append(r.names, BuiltinSizes...)
	for _, def := range custom {
		r.Register(def)
	}
	return r
}

// LoadRegistry reads custom sizes from a YAML file. A missing path yields
// the builtin sizes only.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewRegistry(), nil
		}
		return nil, fmt.Errorf("failed to read sizes file: %w", err)
	}
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse sizes file: %w", err)
	}
	return NewRegistry(file.Sizes...), nil
}

func (r *Registry) Register(def models.SizeDefinition) {
	if def.Name == "" {
		return
	}
	if _, ok := r.additional[def.Name]; !ok && !r.has(def.Name) {
		r.names = append(r.names, def.Name)
	}
	r.additional[def.Name] = def
}

func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *Registry) Additional(name string) (models.SizeDefinition, bool) {
	def, ok := r.additional[name]
	return def, ok
}

func (r *Registry) has(name string) bool {
	for _, n := range r.names {
		if n == name {
			return true
		}
	}
	return false
}

// SeedDefaults stores the builtin dimensions for any size that has none.
func SeedDefaults(ctx context.Context, store Store) error {
	for _, name := range BuiltinSizes {
		dims := builtinDefaults[name]
		for i, suffix := range []string{"_size_w", "_size_h"} {
			var v int
			found, err := store.Get(ctx, name+suffix, &v)
			if err != nil {
				return err
			}
			if found {
				continue
			}
			if err := store.Set(ctx, name+suffix, dims[i]); err != nil {
				return err
			}
		}
	}
	return nil
}
