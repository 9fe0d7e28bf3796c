// Package config holds the settings of a refalign run. Settings come from
// built-in defaults, an optional TOML file, the environment (optionally
// seeded from a .env file) and finally the command line.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

var ErrInvalid = errors.New("invalid configuration")

// Environment variables read by ApplyEnv
const (
	EnvMinimap2 = "REFALIGN_MINIMAP2"
	EnvWorkDir  = "REFALIGN_WORKDIR"
	EnvJobs     = "REFALIGN_JOBS"
)

type FilterConfig struct {
	MinVariationLength int    `toml:"min_variation_length"`
	MinMappingQuality  int    `toml:"min_mapq"`
	MinAlignmentLength int    `toml:"min_alignment_length"`
	ExcludeBed         string `toml:"exclude_bed"`
}

type AlignerConfig struct {
	Path    string `toml:"path"`
	Threads int    `toml:"threads"`
}

type RunConfig struct {
	Jobs           int    `toml:"jobs"`
	WorkDir        string `toml:"workdir"`
	DebugExportDir string `toml:"debug_export_dir"`
}

type Config struct {
	Filters FilterConfig  `toml:"filters"`
	Aligner AlignerConfig `toml:"aligner"`
	Run     RunConfig     `toml:"run"`
}

// Default returns the built-in settings
func Default() *Config {
	return &Config{
		Filters: FilterConfig{
			MinVariationLength: 50000,
			MinMappingQuality:  5,
			MinAlignmentLength: 10000,
		},
		Aligner: AlignerConfig{
			Path:    "minimap2",
			Threads: 1,
		},
		Run: RunConfig{
			Jobs:           runtime.NumCPU(),
			DebugExportDir: "debug_export_dir",
		},
	}
}

// Load returns the defaults overlaid with the settings in the TOML file at path
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides settings from the environment. If envFile exists it is
// loaded first; variables already set in the environment take precedence
// over the file.
func (cfg *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load '%s': %w", envFile, err)
		}
	}

	if v, ok := os.LookupEnv(EnvMinimap2); ok && v != "" {
		cfg.Aligner.Path = v
	}
	if v, ok := os.LookupEnv(EnvWorkDir); ok && v != "" {
		cfg.Run.WorkDir = v
	}
	if v, ok := os.LookupEnv(EnvJobs); ok && v != "" {
		jobs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalid, EnvJobs, v)
		}
		cfg.Run.Jobs = jobs
	}

	return nil
}

// Validate checks that every setting is usable
func (cfg *Config) Validate() error {
	switch {
	case cfg.Filters.MinVariationLength < 0:
		return fmt.Errorf("%w: min_variation_length must not be negative", ErrInvalid)
	case cfg.Filters.MinMappingQuality < 0:
		return fmt.Errorf("%w: min_mapq must not be negative", ErrInvalid)
	case cfg.Filters.MinAlignmentLength < 0:
		return fmt.Errorf("%w: min_alignment_length must not be negative", ErrInvalid)
	case cfg.Aligner.Path == "":
		return fmt.Errorf("%w: no minimap2 path", ErrInvalid)
	case cfg.Aligner.Threads < 1:
		return fmt.Errorf("%w: threads must be at least 1", ErrInvalid)
	case cfg.Run.Jobs < 1:
		return fmt.Errorf("%w: jobs must be at least 1", ErrInvalid)
	}
	return nil
}
