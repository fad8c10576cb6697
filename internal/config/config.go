// Package config loads models.Config via viper (spec.md §4/§6), mirroring
// the teacher's internal/config layer: YAML file, environment overrides,
// sane defaults when no file is present.
package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/lanscope/upnprecon/internal/models"
)

// Load reads configuration from configPath (if non-empty) or the standard
// search locations (./reconctl.yaml, $HOME/.reconctl/reconctl.yaml, /etc/reconctl/),
// falling back to models.DefaultConfig() when no file is found.
func Load(configPath string) (*models.Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("reconctl")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.reconctl")
		v.AddConfigPath("/etc/reconctl")
	}

	v.SetEnvPrefix("RECONCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	applyDefaults(v, models.DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := models.DefaultConfig()
	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) { dc.TagName = "yaml" }); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// applyDefaults seeds viper with models.DefaultConfig() so values absent
// from both the file and the environment still resolve sensibly.
func applyDefaults(v *viper.Viper, def *models.Config) {
	v.SetDefault("discovery.timeout_seconds", def.Discovery.TimeoutSeconds)
	v.SetDefault("discovery.aggressive", def.Discovery.Aggressive)
	v.SetDefault("discovery.ports", def.Discovery.Ports)
	v.SetDefault("discovery.port_sweep_concurrency", def.Discovery.PortSweepConcurrency)
	v.SetDefault("discovery.description_fetch_concurrency", def.Discovery.DescriptionFetchConcurrency)
	v.SetDefault("discovery.description_fetch_timeout", def.Discovery.DescriptionFetchTimeout)

	v.SetDefault("profiling.http_timeout", def.Profiling.HTTPTimeout)
	v.SetDefault("profiling.per_device_concurrency", def.Profiling.PerDeviceConcurrency)
	v.SetDefault("profiling.mass_concurrency", def.Profiling.MassConcurrency)

	v.SetDefault("control.timeout", def.Control.Timeout)
	v.SetDefault("control.use_ssl", def.Control.UseSSL)
	v.SetDefault("control.verify_tls", def.Control.VerifyTLS)
	v.SetDefault("control.stealth", def.Control.Stealth)
	v.SetDefault("control.stealth_jitter_min_ms", def.Control.StealthJitterMinMS)
	v.SetDefault("control.stealth_jitter_max_ms", def.Control.StealthJitterMaxMS)
	v.SetDefault("control.max_attempts", def.Control.MaxAttempts)
	v.SetDefault("control.truncate_bytes", def.Control.TruncateBytes)
	v.SetDefault("control.verbose_truncate_bytes", def.Control.VerboseTruncateBytes)

	v.SetDefault("profile_store.dir", def.ProfileStore.Dir)

	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.file", def.Log.File)

	v.SetDefault("network.auto_detect_subnet", def.Network.AutoDetectSubnet)
	v.SetDefault("network.interface", def.Network.Interface)

	v.SetDefault("cache.path", def.Cache.Path)
	v.SetDefault("cache.max_age", def.Cache.MaxAge)
}
