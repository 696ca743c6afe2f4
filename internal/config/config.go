// Package config assembles and validates the run configuration for shuffly.
//
// Settings come from three layers, lowest precedence first: built-in defaults,
// an optional YAML file, and environment variables. The CLI applies its flag
// overrides on top of whatever Load returns.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the full run configuration.
type Config struct {
	// Inputs is the ordered list of input file paths.
	Inputs []string `yaml:"inputs"`

	// InputDir, when set, is scanned for files with the record extension
	// (plain or compressed); discovered paths are appended to Inputs.
	InputDir string `yaml:"input_dir"`

	// Extension is the record-file extension used for discovery and for
	// naming output files.
	Extension string `yaml:"extension"`

	OutputDir  string `yaml:"output_dir"`
	OutputName string `yaml:"output_name"`

	// MaxSizeMB is the approximate per-output-file size ceiling.
	MaxSizeMB int64 `yaml:"max_size_mb"`

	// Seed makes both shuffle phases reproducible when set.
	Seed *int64 `yaml:"seed"`

	// WriteManifest controls whether a manifest.json describing the run is
	// written next to the outputs.
	WriteManifest bool `yaml:"write_manifest"`

	Storage StorageConfig `yaml:"storage"`
	Tuning  TuningConfig  `yaml:"tuning"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// StorageConfig configures where final outputs land.
type StorageConfig struct {
	// DestURL selects a blob bucket destination for outputs
	// (file://, gs://, s3://). Empty means plain files in OutputDir.
	DestURL string `yaml:"dest_url"`
}

// TuningConfig bounds the engine's resource usage.
type TuningConfig struct {
	// MaxOpenReaders caps concurrently open input readers during distribution.
	MaxOpenReaders int `yaml:"max_open_readers"`

	// MaxOpenWriters caps concurrently open bucket writers during a flush.
	MaxOpenWriters int `yaml:"max_open_writers"`

	// FlushBytes is the buffered-line byte ceiling that forces a flush.
	FlushBytes int64 `yaml:"flush_bytes"`
}

// MetricsConfig configures Prometheus exposition.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		Extension:  ".jsonl",
		OutputDir:  ".",
		OutputName: "shuffled",
		MaxSizeMB:  100,
		Tuning: TuningConfig{
			MaxOpenReaders: 16,
			MaxOpenWriters: 128,
			FlushBytes:     64 << 20,
		},
		Metrics: MetricsConfig{
			Address: ":9090",
		},
		Log: LogConfig{
			Format: getenvDefault("SHUFFLY_LOG_FORMAT", "text"),
			Level:  getenvDefault("SHUFFLY_LOG_LEVEL", "info"),
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path.
// An empty path loads defaults only.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SplitInputList splits a colon-separated input list into paths,
// dropping empty entries.
func SplitInputList(list string) []string {
	var paths []string
	for _, p := range strings.Split(list, ":") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// DiscoverInputs scans InputDir for record files and appends them, sorted,
// to Inputs. Plain files and their compressed variants are both recognized.
func (c *Config) DiscoverInputs() error {
	if c.InputDir == "" {
		return nil
	}

	entries, err := os.ReadDir(c.InputDir)
	if err != nil {
		return fmt.Errorf("scan input directory %s: %w", c.InputDir, err)
	}

	suffixes := []string{c.Extension, c.Extension + ".gz", c.Extension + ".zst"}

	var found []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		for _, suffix := range suffixes {
			if strings.HasSuffix(name, suffix) {
				found = append(found, filepath.Join(c.InputDir, entry.Name()))
				break
			}
		}
	}
	sort.Strings(found)
	c.Inputs = append(c.Inputs, found...)
	return nil
}

// MaxOutputBytes returns the per-output size ceiling in bytes.
func (c Config) MaxOutputBytes() int64 {
	return c.MaxSizeMB << 20
}

// Validate performs the preflight checks the engine relies on: every input
// exists and is a regular file, the size ceiling is positive, and the output
// directory exists (it is created here if absent).
func (c Config) Validate() error {
	if len(c.Inputs) == 0 {
		return fmt.Errorf("no input files configured")
	}
	for _, path := range c.Inputs {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("input file %s: %w", path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("input file %s is a directory", path)
		}
	}

	if c.OutputName == "" {
		return fmt.Errorf("output name must not be empty")
	}
	if c.MaxSizeMB <= 0 {
		return fmt.Errorf("max size must be positive, got %d MB", c.MaxSizeMB)
	}

	if err := os.MkdirAll(c.OutputDir, 0755); err != nil {
		return fmt.Errorf("create output directory %s: %w", c.OutputDir, err)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// ParseSeed parses an optional seed value from its string form.
func ParseSeed(v string) (*int64, error) {
	if v == "" {
		return nil, nil
	}
	seed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid seed %q: %w", v, err)
	}
	return &seed, nil
}
