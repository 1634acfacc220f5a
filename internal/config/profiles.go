package config

import (
	"fmt"
	"sort"
)

var profiles = map[string]func(cfg *Config){
	"quick": func(cfg *Config) {
		cfg.Erase.Protocol = "random"
		cfg.Erase.Encrypt = false
		cfg.Erase.Verify = false
	},
	"standard": func(cfg *Config) {
		cfg.Erase.Protocol = "dod7"
		cfg.Erase.Encrypt = false
		cfg.Erase.Verify = false
	},
	"paranoid": func(cfg *Config) {
		cfg.Erase.Protocol = "gutmann"
		cfg.Erase.Encrypt = true
		cfg.Erase.Verify = true
	},
	"fast": func(cfg *Config) {
		cfg.Erase.Protocol = "zeros"
		cfg.Erase.Encrypt = false
		cfg.Erase.MaxSpeedMBps = 0 // unlimited
		cfg.Erase.ChunkSize = 4 * 1024 * 1024
	},
}

// ApplyProfile applies a named erase profile on top of cfg.
func ApplyProfile(cfg *Config, profile string) error {
	apply, ok := profiles[profile]
	if !ok {
		return fmt.Errorf("unknown profile: %s", profile)
	}
	apply(cfg)
	return nil
}

// Profiles returns the profile names in sorted order.
func Profiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
