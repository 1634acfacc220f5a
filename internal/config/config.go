package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds the trashshred configuration file layout.
type Config struct {
	Security struct {
		RequireConfirmation bool     `yaml:"require_confirmation"`
		ProtectedPaths      []string `yaml:"protected_paths"`
	} `yaml:"security"`

	Erase struct {
		Protocol      string  `yaml:"protocol"`
		Encrypt       bool    `yaml:"encrypt"`
		Verify        bool    `yaml:"verify"`
		ChunkSize     int     `yaml:"chunk_size"`
		MaxConcurrent int     `yaml:"max_concurrent"`
		MaxSpeedMBps  float64 `yaml:"max_speed_mbps"`
	} `yaml:"erase"`

	Trash struct {
		Root          string   `yaml:"root"`
		WindowsDrives []string `yaml:"windows_drives"`
	} `yaml:"trash"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`

	Reporting struct {
		Enabled   bool   `yaml:"enabled"`
		LocalPath string `yaml:"local_path"`
	} `yaml:"reporting"`
}

// Limits enforced by Validate.
const (
	MinChunkSize     = 512
	MaxChunkSize     = 64 * 1024 * 1024
	DefaultChunkSize = 64 * 1024
	MaxSpeedMBps     = 10000
)

var validProtocols = map[string]bool{
	"zeros":     true,
	"zero":      true,
	"ones":      true,
	"one":       true,
	"random":    true,
	"dod7":      true,
	"dod":       true,
	"gutmann":   true,
	"gutmann35": true,
	"none":      true,
}

var validLevels = map[string]bool{
	"DEBUG": true,
	"INFO":  true,
	"WARN":  true,
	"ERROR": true,
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{}

	cfg.Security.RequireConfirmation = true
	cfg.Security.ProtectedPaths = defaultProtectedPaths()

	cfg.Erase.Protocol = "random"
	cfg.Erase.Encrypt = false
	cfg.Erase.Verify = false
	cfg.Erase.ChunkSize = DefaultChunkSize
	cfg.Erase.MaxConcurrent = 0 // no cap
	cfg.Erase.MaxSpeedMBps = 0

	cfg.Logging.Level = "INFO"
	cfg.Logging.File = ""

	cfg.Reporting.Enabled = false
	cfg.Reporting.LocalPath = "./reports"

	return cfg
}

// Load reads a YAML file on top of Default. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks value ranges and enumerations.
func Validate(config *Config) error {
	if !validProtocols[config.Erase.Protocol] {
		return fmt.Errorf("invalid erase protocol: %q", config.Erase.Protocol)
	}

	if config.Erase.ChunkSize < MinChunkSize || config.Erase.ChunkSize > MaxChunkSize {
		return fmt.Errorf("chunk size must be between %d and %d, got %d", MinChunkSize, MaxChunkSize, config.Erase.ChunkSize)
	}

	if config.Erase.MaxConcurrent < 0 {
		return fmt.Errorf("max concurrent cannot be negative, got %d", config.Erase.MaxConcurrent)
	}

	if config.Erase.MaxSpeedMBps < 0 {
		return fmt.Errorf("max speed cannot be negative, got %f", config.Erase.MaxSpeedMBps)
	}
	if config.Erase.MaxSpeedMBps > MaxSpeedMBps {
		return fmt.Errorf("max speed too high (max %dMB/s), got %f", MaxSpeedMBps, config.Erase.MaxSpeedMBps)
	}

	if !validLevels[config.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	if config.Reporting.Enabled && config.Reporting.LocalPath == "" {
		return fmt.Errorf("reporting enabled without local_path")
	}

	for _, path := range config.Security.ProtectedPaths {
		if path == "" {
			return fmt.Errorf("empty protected path")
		}
		if filepath.Clean(path) == "." {
			return fmt.Errorf("invalid protected path: %s", path)
		}
	}

	return nil
}

// Save validates and writes the configuration as YAML.
func Save(config *Config, path string) error {
	if err := Validate(config); err != nil {
		return fmt.Errorf("cannot save invalid config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// defaultProtectedPaths returns system locations that must never be erased.
func defaultProtectedPaths() []string {
	if runtime.GOOS == "windows" {
		systemDrive := os.Getenv("SystemDrive")
		if systemDrive == "" {
			systemDrive = "C:"
		}
		return []string{
			filepath.Join(systemDrive+`\`, "Windows"),
			filepath.Join(systemDrive+`\`, "Program Files"),
			filepath.Join(systemDrive+`\`, "Program Files (x86)"),
		}
	}

	return []string{"/bin", "/boot", "/dev", "/etc", "/lib", "/lib64", "/proc", "/sbin", "/sys", "/usr"}
}
