// Package config loads the cache's core options plus the ambient
// settings the CLI and HTTP layers need: viper binds defaults, env vars,
// and an optional config file into one typed struct.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/orderlots/matchcache/pkg/matchcache"
)

// Settings holds every tunable of the repository: the core cache
// options, plus the HTTP listen address and metrics push settings the
// ambient layer (pkg/server, cmd/matchcache) uses.
type Settings struct {
	EagerMatch              bool          `mapstructure:"eager_match"`
	StrictValidation        bool          `mapstructure:"strict_validation"`
	ParallelCancellation    bool          `mapstructure:"parallel_cancellation"`
	EnableMatchLog          bool          `mapstructure:"enable_match_log"`
	CancelChunkSize         int           `mapstructure:"cancel_chunk_size"`
	CancelParallelThreshold int           `mapstructure:"cancel_parallel_threshold"`
	ListenAddr              string        `mapstructure:"listen_addr"`
	MetricsEnabled          bool          `mapstructure:"metrics_enabled"`
	MetricsPushURL          string        `mapstructure:"metrics_push_url"`
	MetricsPushInterval     time.Duration `mapstructure:"metrics_push_interval"`
}

// Defaults returns the settings this repository ships with: the core
// defaults from matchcache.DefaultConfig, plus a local listen address
// and metrics disabled by default.
func Defaults() Settings {
	core := matchcache.DefaultConfig()
	return Settings{
		EagerMatch:              core.EagerMatch,
		StrictValidation:        core.StrictValidation,
		ParallelCancellation:    core.ParallelCancellation,
		EnableMatchLog:          core.EnableMatchLog,
		CancelChunkSize:         core.CancelChunkSize,
		CancelParallelThreshold: core.CancelParallelThreshold,
		ListenAddr:              ":1323",
		MetricsEnabled:          false,
		MetricsPushURL:          "http://localhost:8428/write",
		MetricsPushInterval:     500 * time.Millisecond,
	}
}

// Load reads settings from configPath (if non-empty) and the
// environment, falling back to Defaults for anything unset. An empty
// configPath is not an error; viper simply has nothing to read beyond
// env vars and defaults.
func Load(configPath string) (Settings, error) {
	defaults := Defaults()

	v := viper.New()
	v.SetDefault("eager_match", defaults.EagerMatch)
	v.SetDefault("strict_validation", defaults.StrictValidation)
	v.SetDefault("parallel_cancellation", defaults.ParallelCancellation)
	v.SetDefault("enable_match_log", defaults.EnableMatchLog)
	v.SetDefault("cancel_chunk_size", defaults.CancelChunkSize)
	v.SetDefault("cancel_parallel_threshold", defaults.CancelParallelThreshold)
	v.SetDefault("listen_addr", defaults.ListenAddr)
	v.SetDefault("metrics_enabled", defaults.MetricsEnabled)
	v.SetDefault("metrics_push_url", defaults.MetricsPushURL)
	v.SetDefault("metrics_push_interval", defaults.MetricsPushInterval)

	v.SetEnvPrefix("MATCHCACHE")
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return defaults, err
		}
	}

	var out Settings
	if err := v.Unmarshal(&out); err != nil {
		return defaults, err
	}
	return out, nil
}

// CacheConfig projects the subset of Settings the core cache needs.
func (s Settings) CacheConfig() matchcache.Config {
	return matchcache.Config{
		EagerMatch:              s.EagerMatch,
		StrictValidation:        s.StrictValidation,
		ParallelCancellation:    s.ParallelCancellation,
		EnableMatchLog:          s.EnableMatchLog,
		CancelChunkSize:         s.CancelChunkSize,
		CancelParallelThreshold: s.CancelParallelThreshold,
	}
}
