package models

import "time"

// Config - конфигурация приложения, загружаемая viper'ом из YAML (spec.md §4, §6).
type Config struct {
	Discovery    DiscoveryConfig    `yaml:"discovery" json:"discovery"`
	Profiling    ProfilingConfig    `yaml:"profiling" json:"profiling"`
	Control      ControlConfig      `yaml:"control" json:"control"`
	ProfileStore ProfileStoreConfig `yaml:"profile_store" json:"profile_store"`
	Log          LogConfig          `yaml:"log" json:"log"`
	Network      NetworkConfig      `yaml:"network" json:"network"`
	Cache        CacheConfig        `yaml:"cache" json:"cache"`
}

// DiscoveryConfig - настройки Discovery Engine (spec.md §4.1).
type DiscoveryConfig struct {
	CIDR                string        `yaml:"cidr" json:"cidr"`
	TimeoutSeconds      int           `yaml:"timeout_seconds" json:"timeout_seconds"`
	Aggressive          bool          `yaml:"aggressive" json:"aggressive"`
	Ports               []int         `yaml:"ports" json:"ports"`
	PortSweepConcurrency int          `yaml:"port_sweep_concurrency" json:"port_sweep_concurrency"`
	DescriptionFetchConcurrency int   `yaml:"description_fetch_concurrency" json:"description_fetch_concurrency"`
	DescriptionFetchTimeout time.Duration `yaml:"description_fetch_timeout" json:"description_fetch_timeout"`
}

// ProfilingConfig - настройки Profiling Engine (spec.md §4.3).
type ProfilingConfig struct {
	HTTPTimeout         time.Duration `yaml:"http_timeout" json:"http_timeout"`
	PerDeviceConcurrency int          `yaml:"per_device_concurrency" json:"per_device_concurrency"`
	MassConcurrency     int           `yaml:"mass_concurrency" json:"mass_concurrency"`
}

// ControlConfig - настройки по умолчанию для Control Engine invoke options (spec.md §4.4).
type ControlConfig struct {
	Timeout            time.Duration `yaml:"timeout" json:"timeout"`
	UseSSL             bool          `yaml:"use_ssl" json:"use_ssl"`
	VerifyTLS          bool          `yaml:"verify_tls" json:"verify_tls"`
	Stealth            bool          `yaml:"stealth" json:"stealth"`
	StealthJitterMinMS int           `yaml:"stealth_jitter_min_ms" json:"stealth_jitter_min_ms"`
	StealthJitterMaxMS int           `yaml:"stealth_jitter_max_ms" json:"stealth_jitter_max_ms"`
	MaxAttempts        int           `yaml:"max_attempts" json:"max_attempts"`
	TruncateBytes      int           `yaml:"truncate_bytes" json:"truncate_bytes"`
	VerboseTruncateBytes int         `yaml:"verbose_truncate_bytes" json:"verbose_truncate_bytes"`
}

// ProfileStoreConfig - откуда грузить каталог DeviceProfile.
type ProfileStoreConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}

// LogConfig - настройки логирования.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// NetworkConfig - настройки сети.
type NetworkConfig struct {
	AutoDetectSubnet bool   `yaml:"auto_detect_subnet" json:"auto_detect_subnet"`
	Interface        string `yaml:"interface" json:"interface"`
}

// CacheConfig - настройки персистентного кэша устройств (внешний коллаборатор, spec.md §6).
type CacheConfig struct {
	Path   string        `yaml:"path" json:"path"`
	MaxAge time.Duration `yaml:"max_age" json:"max_age"`
}

// DefaultPorts - порты по умолчанию для port-sweep фазы (spec.md §4.1).
var DefaultPorts = []int{80, 443, 1400, 7000, 8008, 8060, 8443, 9080, 49200}

// DefaultConfig возвращает конфигурацию по умолчанию.
func DefaultConfig() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			TimeoutSeconds:              5,
			Aggressive:                  false,
			Ports:                       append([]int(nil), DefaultPorts...),
			PortSweepConcurrency:        256,
			DescriptionFetchConcurrency: 32,
			DescriptionFetchTimeout:     5 * time.Second,
		},
		Profiling: ProfilingConfig{
			HTTPTimeout:          5 * time.Second,
			PerDeviceConcurrency: 8,
			MassConcurrency:      16,
		},
		Control: ControlConfig{
			Timeout:              10 * time.Second,
			UseSSL:               false,
			VerifyTLS:            true,
			Stealth:              false,
			StealthJitterMinMS:   50,
			StealthJitterMaxMS:   400,
			MaxAttempts:          3,
			TruncateBytes:        300,
			VerboseTruncateBytes: 1000,
		},
		ProfileStore: ProfileStoreConfig{
			Dir: "profiles",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
			File:   "",
		},
		Network: NetworkConfig{
			AutoDetectSubnet: true,
			Interface:        "",
		},
		Cache: CacheConfig{
			Path:   "",
			MaxAge: 24 * time.Hour,
		},
	}
}
