// Package testinfra starts the shared postgres container for integration tests.
package testinfra

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/infra/db"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	once    sync.Once
	pool    *pgxpool.Pool
	initErr error
)

// Pool returns a migrated pool backed by a postgres container started on first use.
// The test is skipped when no container runtime is available.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	once.Do(func() {
		pool, initErr = setupDB(context.Background())
	})
	if initErr != nil {
		t.Fatalf("postgres test container: %v", initErr)
	}
	return pool
}

// Truncate empties the provision tables between tests.
func Truncate(t *testing.T, p *pgxpool.Pool) {
	t.Helper()
	_, err := p.Exec(context.Background(), "TRUNCATE provisioner.provision_notes, provisioner.provisions")
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}

func setupDB(ctx context.Context) (*pgxpool.Pool, error) {
	pgReq := testcontainers.ContainerRequest{
		Image:        "postgres:17.2-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: pgReq,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("start postgres: %w", err)
	}

	pgHostPort, err := pgC.Endpoint(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("postgres endpoint: %w", err)
	}
	pgDSN := fmt.Sprintf("postgres://postgres:password@%s/testdb?sslmode=disable", pgHostPort)

	p, err := pgxpool.New(ctx, pgDSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool connect: %w", err)
	}

	ok := false
	for i := 0; i < 20; i++ {
		slog.Info("ping db", "try", i)
		ctxPing, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		err = p.Ping(ctxPing)
		cancel()
		if err == nil {
			ok = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !ok {
		return nil, fmt.Errorf("db did not respond after 20 attempts: %w", err)
	}

	if err = db.Migrate(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
