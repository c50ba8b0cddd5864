package env

import (
	"os"
	"strconv"
	"time"
)

// GetEnv returns the value of key or fallback when it is unset or empty.
func GetEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func GetEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(GetEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

// GetEnvDuration parses values like "30s" or "2m". Unparseable values fall back.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(GetEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}
