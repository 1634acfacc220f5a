package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"trashshred/internal/config"
	"trashshred/internal/erase"
)

// loadConfig reads the configuration, applies the profile and then the
// flags the user set explicitly.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if profile != "" {
		if err := config.ApplyProfile(cfg, profile); err != nil {
			return nil, fmt.Errorf("failed to apply profile %s: %w", profile, err)
		}
	}

	applyFlags(flags, cfg)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyFlags(flags *pflag.FlagSet, cfg *config.Config) {
	if flags.Changed("protocol") {
		cfg.Erase.Protocol = strings.ToLower(strings.TrimSpace(protocolName))
	}
	if flags.Changed("encrypt") {
		cfg.Erase.Encrypt = encrypt
	}
	if flags.Changed("verify") {
		cfg.Erase.Verify = verify
	}
	if flags.Changed("max-concurrent") {
		cfg.Erase.MaxConcurrent = maxConcurrent
	}
	if flags.Changed("force") && force {
		cfg.Security.RequireConfirmation = false
	}
}

func eraseOptions(cfg *config.Config) (erase.Options, error) {
	protocol, err := erase.ParseProtocol(cfg.Erase.Protocol)
	if err != nil {
		return erase.Options{}, err
	}
	return erase.Options{
		Protocol:      protocol,
		Encrypt:       cfg.Erase.Encrypt,
		Verify:        cfg.Erase.Verify,
		ChunkSize:     cfg.Erase.ChunkSize,
		MaxConcurrent: cfg.Erase.MaxConcurrent,
		MaxSpeedMBps:  cfg.Erase.MaxSpeedMBps,
	}, nil
}
