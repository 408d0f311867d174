package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tailscale/hujson"
)

// fileConfig is the shape of an optional HuJSON config file: every field
// is a default, overridden by any flag the caller passed explicitly.
type fileConfig struct {
	Out            string `json:"out,omitempty"`
	BlockSizeBytes int    `json:"block_size_bytes,omitempty"`
	Tick           string `json:"tick,omitempty"`
}

// recorderConfig is the resolved configuration the recorder runs with.
type recorderConfig struct {
	Out            string
	BlockSizeBytes int
	Tick           time.Duration
}

func defaultConfig() recorderConfig {
	return recorderConfig{
		BlockSizeBytes: 100 << 20,
		Tick:           99 * time.Millisecond,
	}
}

// loadFileConfig reads and parses an optional HuJSON config file. A path
// that does not exist is not an error (the file layer is all-default);
// an explicitly-given path that fails to parse is.
func loadFileConfig(path string) (fileConfig, error) {
	if path == "" {
		return fileConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fileConfig{}, nil
		}
		return fileConfig{}, fmt.Errorf("reading config %q: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSONC in %q: %w", path, err)
	}

	var cfg fileConfig
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return fileConfig{}, fmt.Errorf("invalid JSON in %q: %w", path, err)
	}
	return cfg, nil
}

// resolveConfig layers the file config beneath explicit flag overrides,
// per spec.md §9: flags are the highest-precedence layer, the config
// file supplies defaults beneath them.
func resolveConfig(f fileConfig, flags *flagValues) (recorderConfig, error) {
	cfg := defaultConfig()

	if f.Out != "" {
		cfg.Out = f.Out
	}
	if f.BlockSizeBytes != 0 {
		cfg.BlockSizeBytes = f.BlockSizeBytes
	}
	if f.Tick != "" {
		d, err := time.ParseDuration(f.Tick)
		if err != nil {
			return recorderConfig{}, fmt.Errorf("config: invalid tick %q: %w", f.Tick, err)
		}
		cfg.Tick = d
	}

	if flags.outSet {
		cfg.Out = flags.out
	}
	if flags.blockSizeSet {
		cfg.BlockSizeBytes = flags.blockSizeBytes
	}
	if flags.tickSet {
		cfg.Tick = flags.tick
	}

	if cfg.Out == "" {
		return recorderConfig{}, fmt.Errorf("--out is required (or set \"out\" in --config)")
	}
	if cfg.BlockSizeBytes <= 0 {
		return recorderConfig{}, fmt.Errorf("--block-size-bytes must be positive, got %d", cfg.BlockSizeBytes)
	}
	if cfg.Tick <= 0 {
		return recorderConfig{}, fmt.Errorf("--tick must be positive, got %s", cfg.Tick)
	}
	return cfg, nil
}
