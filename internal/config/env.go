package config

import (
	"os"
	"strconv"
)

// FromEnv loads balance configuration from environment variables.
// Falls back to defaults if variables are not set.
func FromEnv() Balance {
	cfg := Default()

	if val := getEnvFloat("HEALTH_DECAY_PER_HOUR"); val > 0 {
		cfg.HealthDecayPerHour = val
	}
	if val := getEnvFloat("SOIL_DECAY_PER_HOUR"); val > 0 {
		cfg.SoilDecayPerHour = val
	}
	if val := getEnvInt("XP_PER_LEVEL"); val > 0 {
		cfg.XPPerLevel = val
	}
	if val := getEnvInt("START_HEALTH"); val > 0 {
		cfg.StartHealth = val
	}
	if val := getEnvInt("START_SOIL"); val > 0 {
		cfg.StartSoil = val
	}
	return cfg
}

func getEnvInt(key string) int {
	raw := os.Getenv(key)
	if raw == "" {
		return -1
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return val
}

func getEnvFloat(key string) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return -1
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return -1
	}
	return val
}
