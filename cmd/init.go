package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Builder-Lawyers/site-provisioner/internal/application"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/commands"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/interfaces"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/query"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/credentials"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/config"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/db/memrepo"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/db/repo"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/liveness"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/metrics"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/platform"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/storage"
	"github.com/Builder-Lawyers/site-provisioner/pkg/db"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App holds the wired dependencies shared by every subcommand.
type App struct {
	Handlers *application.Handlers
	Repo     interfaces.ProvisionRepo
	Registry *prometheus.Registry
	Pool     *pgxpool.Pool
}

func Init(ctx context.Context, opts *globalOptions) (*App, error) {
	// Store
	var (
		provisionRepo interfaces.ProvisionRepo
		pool          *pgxpool.Pool
	)
	switch opts.store {
	case storeMemory:
		slog.Warn("using in-memory provision store, records are lost on exit")
		provisionRepo = memrepo.NewProvisionRepo()
	default:
		var err error
		pool, err = db.NewPool(ctx, db.NewConfig())
		if err != nil {
			return nil, fmt.Errorf("can't open provision store: %w", err)
		}
		provisionRepo = repo.NewProvisionRepo(db.NewUoWFactory(pool))
	}

	// Configs
	provisionConfig := config.NewProvisionConfig()
	platformConfig := platform.NewPlatformConfig()
	vaultConfig := storage.NewVaultConfig()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	platformClient := platform.NewClient(platformConfig, platform.WithObserver(m))
	verifier := liveness.NewVerifier()

	// AWS
	var (
		vault  interfaces.CredentialVault
		reader interfaces.CredentialReader
	)
	if vaultConfig.Enabled() {
		cfg, err := awsConfig.LoadDefaultConfig(ctx)
		if err != nil {
			if pool != nil {
				pool.Close()
			}
			return nil, fmt.Errorf("can't load aws config: %w", err)
		}
		credentialVault := storage.NewCredentialVault(cfg, vaultConfig)
		vault, reader = credentialVault, credentialVault
	} else {
		slog.Info("credential vault disabled, credentials are returned once")
	}

	handlers := &application.Handlers{
		CreateProvision:    commands.NewCreateProvision(provisionConfig, provisionRepo, platformClient, verifier, credentials.NewGenerator(), vault, m),
		CancelProvision:    commands.NewCancelProvision(provisionConfig, provisionRepo, platformClient, vault, m),
		ReconcileProvision: commands.NewReconcileProvision(provisionConfig, provisionRepo, platformClient, verifier, m),
		GetProvision:       query.NewGetProvision(provisionRepo),
		GetCredentials:     query.NewGetCredentials(provisionRepo, reader),
	}

	return &App{Handlers: handlers, Repo: provisionRepo, Registry: registry, Pool: pool}, nil
}

func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
