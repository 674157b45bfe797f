package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable override, for example
// TABULA_WRITE_MAX_DECIMAL.
const EnvPrefix = "TABULA"

// LoadWithViper layers defaults, an optional YAML file, TABULA_* environment
// variables and any flags already bound on v, then validates the result.
func LoadWithViper(v *viper.Viper, path string) (*Config, error) {
	cfg := NewConfig("tabula")
	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply even when
// the key is absent from the file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("name", cfg.Name)
	v.SetDefault("version", cfg.Version)

	v.SetDefault("read.split_char", cfg.Read.SplitChar)
	v.SetDefault("read.ignore_lines", cfg.Read.IgnoreLines)

	v.SetDefault("write.empty_char", cfg.Write.EmptyChar)
	v.SetDefault("write.spacing", cfg.Write.Spacing)
	v.SetDefault("write.max_decimal", cfg.Write.MaxDecimal)
	v.SetDefault("write.scientific", cfg.Write.Scientific)
	v.SetDefault("write.flush_every", cfg.Write.FlushEvery)
	v.SetDefault("write.append", cfg.Write.Append)

	v.SetDefault("storage.region", cfg.Storage.Region)
	v.SetDefault("storage.endpoint", cfg.Storage.Endpoint)
	v.SetDefault("storage.credentials_file", cfg.Storage.CredentialsFile)
	v.SetDefault("storage.compression_level", cfg.Storage.CompressionLevel)
	v.SetDefault("storage.mmap_threshold", cfg.Storage.MmapThreshold)

	v.SetDefault("pipeline.workers", cfg.Pipeline.Workers)
	v.SetDefault("pipeline.timeout", cfg.Pipeline.Timeout)

	v.SetDefault("observability.log_level", cfg.Observability.LogLevel)
	v.SetDefault("observability.log_encoding", cfg.Observability.LogEncoding)
	v.SetDefault("observability.enable_tracing", cfg.Observability.EnableTracing)
	v.SetDefault("observability.tracing_sample_rate", cfg.Observability.TracingSampleRate)
	v.SetDefault("observability.metrics_file", cfg.Observability.MetricsFile)
}
