package settings

import (
	"os"
	"strings"
)

// KeySource supplies an API key that overrides the stored one.
type KeySource interface {
	Lookup() (string, bool)
}

type staticKey string

func (k staticKey) Lookup() (string, bool) {
	return string(k), k != ""
}

// StaticKey is a fixed override, typically from deployment configuration.
func StaticKey(key string) KeySource {
	return staticKey(strings.TrimSpace(key))
}

type envKey string

func (k envKey) Lookup() (string, bool) {
	v, ok := os.LookupEnv(string(k))
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// EnvKey reads the override from an environment variable at lookup time.
func EnvKey(name string) KeySource {
	return envKey(name)
}

// lookupChain returns the first key any source supplies.
func lookupChain(sources []KeySource) (string, bool) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		if key, ok := src.Lookup(); ok {
			return key, true
		}
	}
	return "", false
}
