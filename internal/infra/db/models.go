package db

import (
	"time"

	"github.com/google/uuid"
)

type Provision struct {
	ID             uuid.UUID `db:"id"`
	TenantID       string    `db:"tenant_id"`
	RequestedBy    string    `db:"requested_by"`
	Framework      string    `db:"framework"`
	SiteType       string    `db:"site_type"`
	Status         string    `db:"status"`
	Domain         string    `db:"domain"`
	ProjectID      *string   `db:"project_id"`
	ApplicationID  *string   `db:"application_id"`
	ServerID       *string   `db:"server_id"`
	AdminUsername  string    `db:"admin_username"`
	CredentialsRef string    `db:"credentials_ref"`
	ErrorKind      *string   `db:"error_kind"`
	ErrorMessage   *string   `db:"error_message"`
	PublicError    *string   `db:"public_error"`
	IsTest         bool      `db:"is_test"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

type ProvisionNote struct {
	ID          uint64    `db:"id"`
	ProvisionID uuid.UUID `db:"provision_id"`
	Message     string    `db:"message"`
	CreatedAt   time.Time `db:"created_at"`
}
