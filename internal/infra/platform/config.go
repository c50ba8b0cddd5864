package platform

import (
	"time"

	"github.com/Builder-Lawyers/site-provisioner/pkg/env"
)

type Config struct {
	BaseURL       string
	Token         string
	Timeout       time.Duration
	StatusRetries int
	RetryInterval time.Duration
}

func NewPlatformConfig() *Config {
	return &Config{
		BaseURL:       env.GetEnv("PLATFORM_URL", "http://localhost:3000"),
		Token:         env.GetEnv("PLATFORM_TOKEN", ""),
		Timeout:       env.GetEnvDuration("PLATFORM_TIMEOUT", 10*time.Second),
		StatusRetries: env.GetEnvInt("PLATFORM_STATUS_RETRIES", 3),
		RetryInterval: env.GetEnvDuration("PLATFORM_RETRY_INTERVAL", 500*time.Millisecond),
	}
}
