// Package config loads translation run options from YAML.
//
// Configuration controls which items reach the output (include/exclude
// globs over fully qualified paths), which backend renders the result,
// and run plumbing: worker count and the translation cache location.
// Backend options pass through verbatim; each backend validates its own
// bag.
package config

import (
	"fmt"
	"os"
	"path"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is one translation run's options.
type Config struct {
	// Backend selects the registered code generator. Defaults to
	// "ir-json".
	Backend string `yaml:"backend"`

	// BackendOptions is handed to the backend constructor verbatim.
	BackendOptions map[string]any `yaml:"backend_options,omitempty"`

	// Include restricts output to items whose path matches at least one
	// glob. Empty means include everything. Items carrying an include
	// marker bypass this filter.
	Include []string `yaml:"include,omitempty"`

	// Exclude drops items whose path matches any glob. Exclusion by
	// configuration behaves exactly like an exclude marker: referenced
	// excluded items fail their referencers.
	Exclude []string `yaml:"exclude,omitempty"`

	// Workers bounds parallel compilation units. Zero means one worker
	// per CPU.
	Workers int `yaml:"workers,omitempty"`

	// CachePath locates the translation cache database. Empty disables
	// caching.
	CachePath string `yaml:"cache_path,omitempty"`
}

// Default returns the zero-config run options.
func Default() *Config {
	return &Config{Backend: "ir-json"}
}

// Load reads and validates a YAML config file.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML config bytes.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Backend == "" {
		c.Backend = "ir-json"
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers must be >= 0, got %d", c.Workers)
	}
	for _, g := range append(append([]string{}, c.Include...), c.Exclude...) {
		if _, err := path.Match(g, ""); err != nil {
			return fmt.Errorf("config: bad glob %q: %w", g, err)
		}
	}
	return nil
}

// EffectiveWorkers resolves the worker count.
func (c *Config) EffectiveWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// Selected reports whether an item path passes the include/exclude
// globs. Globs match against the "::"-joined path.
func (c *Config) Selected(itemPath string) bool {
	for _, g := range c.Exclude {
		if ok, _ := path.Match(g, itemPath); ok {
			return false
		}
	}
	if len(c.Include) == 0 {
		return true
	}
	for _, g := range c.Include {
		if ok, _ := path.Match(g, itemPath); ok {
			return true
		}
	}
	return false
}
