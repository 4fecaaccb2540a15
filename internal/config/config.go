package config

import (
	"os"
	"strconv"

	"crashlens/domain/risk"
	"crashlens/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Analysis risk.Params
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// DataConfig holds data source settings
type DataConfig struct {
	// File is the CSV/XLSX collision export. Empty means the server runs
	// on the synthetic demo dataset.
	File string
	// MappingFile optionally overrides the default column mapping.
	MappingFile string
	// GeoCellDegrees is the density-map grid cell size.
	GeoCellDegrees float64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Data: DataConfig{
			File:           getEnvOrDefault("CRASHLENS_DATA_FILE", ""),
			MappingFile:    getEnvOrDefault("CRASHLENS_MAPPING_FILE", ""),
			GeoCellDegrees: getEnvFloatOrDefault("GEO_CELL_DEGREES", 0.005),
		},
		Analysis: loadAnalysisParams(),
	}

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// loadAnalysisParams starts from the production defaults and applies any
// per-constant environment overrides.
func loadAnalysisParams() risk.Params {
	p := risk.DefaultParams()
	p.PriorStrength = getEnvFloatOrDefault("PRIOR_STRENGTH", p.PriorStrength)
	p.MinGroupSize = getEnvIntOrDefault("MIN_GROUP_SIZE", p.MinGroupSize)
	p.TopN = getEnvIntOrDefault("TOP_N", p.TopN)
	p.OddsClampLow = getEnvFloatOrDefault("ODDS_CLAMP_LOW", p.OddsClampLow)
	p.OddsClampHigh = getEnvFloatOrDefault("ODDS_CLAMP_HIGH", p.OddsClampHigh)
	p.ExactMatchThreshold = getEnvIntOrDefault("EXACT_MATCH_THRESHOLD", p.ExactMatchThreshold)
	p.BlendPrior = getEnvFloatOrDefault("BLEND_PRIOR", p.BlendPrior)
	return p
}

func validate(cfg *Config) error {
	if cfg.Analysis.PriorStrength <= 0 {
		return errors.ConfigInvalid("PRIOR_STRENGTH must be positive")
	}
	if cfg.Analysis.TopN <= 0 {
		return errors.ConfigInvalid("TOP_N must be positive")
	}
	if cfg.Analysis.OddsClampLow <= 0 || cfg.Analysis.OddsClampLow > cfg.Analysis.OddsClampHigh {
		return errors.ConfigInvalid("odds clamp bounds must satisfy 0 < low <= high")
	}
	if cfg.Data.GeoCellDegrees <= 0 {
		return errors.ConfigInvalid("GEO_CELL_DEGREES must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
