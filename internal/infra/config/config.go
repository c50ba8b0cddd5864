package config

import (
	"log/slog"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/liveness"
	"github.com/Builder-Lawyers/site-provisioner/pkg/env"
)

type ProvisionConfig struct {
	BaseDomain           string
	LivenessScheme       string
	Liveness             liveness.Policy
	CreateProjectRetries int
	CreateProjectBackoff time.Duration
	StatusWriteTimeout   time.Duration
	Defaults             entity.ResourceLimits
}

func NewProvisionConfig() *ProvisionConfig {
	cfg := &ProvisionConfig{
		BaseDomain:     env.GetEnv("P_BASE_DOMAIN", "sites.localhost"),
		LivenessScheme: env.GetEnv("P_LIVENESS_SCHEME", "https"),
		Liveness: liveness.Policy{
			Budget:          env.GetEnvDuration("P_LIVENESS_BUDGET", 60*time.Second),
			ProbeTimeout:    env.GetEnvDuration("P_LIVENESS_PROBE_TIMEOUT", 5*time.Second),
			InitialInterval: env.GetEnvDuration("P_LIVENESS_INITIAL_INTERVAL", 2*time.Second),
			MaxInterval:     env.GetEnvDuration("P_LIVENESS_MAX_INTERVAL", 15*time.Second),
		},
		CreateProjectRetries: env.GetEnvInt("P_CREATE_PROJECT_RETRIES", 0),
		CreateProjectBackoff: env.GetEnvDuration("P_CREATE_PROJECT_BACKOFF", 2*time.Second),
		StatusWriteTimeout:   env.GetEnvDuration("P_STATUS_WRITE_TIMEOUT", 5*time.Second),
		Defaults: entity.ResourceLimits{
			CPU:    env.GetEnv("P_DEFAULT_CPU", ""),
			Memory: env.GetEnv("P_DEFAULT_MEMORY", ""),
		},
	}
	slog.Debug("provision config loaded", "baseDomain", cfg.BaseDomain, "livenessBudget", cfg.Liveness.Budget)
	return cfg
}

// SiteURL is the address probed for liveness.
func (c *ProvisionConfig) SiteURL(domain string) string {
	return c.LivenessScheme + "://" + domain
}
