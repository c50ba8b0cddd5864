package interfaces

import (
	"context"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/credentials"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/platform"
	"github.com/google/uuid"
)

// ProvisionRepo never deletes: teardown only moves a record to CANCELLED.
type ProvisionRepo interface {
	// InsertProvision performs the admission check and the insert atomically. It returns
	// errs.ConflictError when the tenant already has a non-terminal provision or the
	// domain is bound to one.
	InsertProvision(ctx context.Context, provision *entity.Provision) error
	// UpdateProvision persists status and mutable fields only if the stored status still
	// equals from.
	UpdateProvision(ctx context.Context, provision *entity.Provision, from consts.ProvisionStatus) error
	AppendNote(ctx context.Context, id uuid.UUID, note entity.Note) error
	FindActiveByTenant(ctx context.Context, tenantID string) (*entity.Provision, error)
	GetProvisionByID(ctx context.Context, id uuid.UUID) (*entity.Provision, error)
	ListStale(ctx context.Context, updatedBefore time.Time, limit int) ([]*entity.Provision, error)
}

type PlatformClient interface {
	CreateProject(ctx context.Context, req platform.CreateProjectRequest) (platform.Project, error)
	CreateApplication(ctx context.Context, req platform.CreateApplicationRequest) (platform.Application, error)
	Deploy(ctx context.Context, applicationID string) (platform.Deployment, error)
	GetStatus(ctx context.Context, applicationID string) (platform.ApplicationStatus, error)
	DeleteApplication(ctx context.Context, applicationID string) error
}

type LivenessChecker interface {
	Check(ctx context.Context, url string, timeout time.Duration) bool
}

type CredentialGenerator interface {
	Generate() (credentials.Credentials, error)
}

type CredentialVault interface {
	Store(ctx context.Context, provisionID uuid.UUID, creds credentials.Credentials) (string, error)
	Delete(ctx context.Context, ref string) error
}

type CredentialReader interface {
	Load(ctx context.Context, ref string) (credentials.Credentials, error)
}
