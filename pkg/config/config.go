// Package config loads the ambient settings document the thin application
// bootstrap hands to the preview pipeline: roots to watch, cache sizes,
// worker count, and the catalog path. Loading follows the same two-step
// the reference project's own config loader uses: YAML is first
// converted to JSON, then strict-decoded so unknown fields are rejected
// rather than silently ignored.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

// Settings is the root of the settings document.
type Settings struct {
	CatalogPath     string   `json:"catalogPath"`
	Roots           []string `json:"roots"`
	RamCapacity     int      `json:"ramCapacity"`
	PreloadCapacity int      `json:"preloadCapacity"`
	WorkerCount     int      `json:"workerCount"`
	PrefetchWindow  int      `json:"prefetchWindow"`
	GpuBackend      string   `json:"gpuBackend"`
	RedisAddr       string   `json:"redisAddr"`
	RedisChannel    string   `json:"redisChannel"`
	MetricsEnabled  bool     `json:"metricsEnabled"`
}

// ErrConfig wraps any configuration load/decode failure.
var ErrConfig = fmt.Errorf("config: invalid settings")

// Load reads and strict-decodes the settings document at path.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Settings{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return Settings{}, fmt.Errorf("config: yaml to json %s: %w: %s", path, ErrConfig, err.Error())
	}

	var s Settings
	dec := json.NewDecoder(bytes.NewBuffer(jsonData))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Settings{}, fmt.Errorf("config: decode %s: %w: %s", path, ErrConfig, err.Error())
	}

	applyDefaults(&s)
	return s, nil
}

func applyDefaults(s *Settings) {
	if s.RamCapacity <= 0 {
		s.RamCapacity = 64
	}
	if s.PreloadCapacity <= 0 {
		s.PreloadCapacity = 8
	}
	if s.WorkerCount <= 0 {
		s.WorkerCount = 2
	}
}
