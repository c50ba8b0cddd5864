package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/interfaces"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/db"
	dbs "github.com/Builder-Lawyers/site-provisioner/pkg/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const provisionColumns = `id, tenant_id, requested_by, framework, site_type, status, domain, project_id,
	application_id, server_id, admin_username, credentials_ref, error_kind, error_message, public_error, is_test, created_at, updated_at`

// ProvisionRepo runs every call in its own transaction from the factory.
type ProvisionRepo struct {
	uowFactory *dbs.UOWFactory
}

var _ interfaces.ProvisionRepo = (*ProvisionRepo)(nil)

func NewProvisionRepo(uowFactory *dbs.UOWFactory) *ProvisionRepo {
	return &ProvisionRepo{uowFactory: uowFactory}
}

func (r *ProvisionRepo) InsertProvision(ctx context.Context, provision *entity.Provision) (err error) {
	uow := r.uowFactory.GetUoW()
	tx, err := uow.Begin(ctx)
	if err != nil {
		return errs.PersistenceError{Op: "insert provision", Err: err}
	}
	defer uow.Finalize(ctx, &err)

	// serializes admission per tenant; the partial unique indexes back it up
	if _, err = tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtextextended($1, 0))", provision.TenantID); err != nil {
		return errs.PersistenceError{Op: "lock tenant", Err: err}
	}

	var existing struct {
		id       uuid.UUID
		tenantID string
		status   string
	}
	err = tx.QueryRow(ctx, `SELECT id, tenant_id, status FROM provisioner.provisions
		WHERE (tenant_id = $1 OR domain = $2) AND status = ANY($3) LIMIT 1`,
		provision.TenantID, provision.Domain, db.StatusStrings(consts.NonTerminalStatuses),
	).Scan(&existing.id, &existing.tenantID, &existing.status)
	switch {
	case err == nil:
		if existing.tenantID == provision.TenantID {
			return errs.ConflictError{TenantID: provision.TenantID, Err: fmt.Errorf("provision %s is %s", existing.id, existing.status)}
		}
		return errs.ConflictError{TenantID: provision.TenantID, Err: fmt.Errorf("domain %s is bound to provision %s", provision.Domain, existing.id)}
	case !errors.Is(err, pgx.ErrNoRows):
		return errs.PersistenceError{Op: "admission check", Err: err}
	}

	m := db.MapProvisionToModel(provision)
	_, err = tx.Exec(ctx, `INSERT INTO provisioner.provisions(`+provisionColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		m.ID, m.TenantID, m.RequestedBy, m.Framework, m.SiteType, m.Status, m.Domain, m.ProjectID,
		m.ApplicationID, m.ServerID, m.AdminUsername, m.CredentialsRef, m.ErrorKind, m.ErrorMessage, m.PublicError, m.IsTest,
		m.CreatedAt, m.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errs.ConflictError{TenantID: provision.TenantID, Err: fmt.Errorf("constraint %s", pgErr.ConstraintName)}
		}
		return errs.PersistenceError{Op: "insert provision", Err: err}
	}

	for _, note := range provision.Notes {
		if err = insertNote(ctx, tx, provision.ID, note); err != nil {
			return err
		}
	}
	return nil
}

func (r *ProvisionRepo) UpdateProvision(ctx context.Context, provision *entity.Provision, from consts.ProvisionStatus) (err error) {
	uow := r.uowFactory.GetUoW()
	tx, err := uow.Begin(ctx)
	if err != nil {
		return errs.PersistenceError{Op: "update provision", Err: err}
	}
	defer uow.Finalize(ctx, &err)

	m := db.MapProvisionToModel(provision)
	tag, err := tx.Exec(ctx, `UPDATE provisioner.provisions SET status = $3, project_id = $4, application_id = $5,
		server_id = $6, admin_username = $7, credentials_ref = $8, error_kind = $9, error_message = $10, public_error = $11, updated_at = $12
		WHERE id = $1 AND status = $2`,
		m.ID, string(from), m.Status, m.ProjectID, m.ApplicationID, m.ServerID, m.AdminUsername, m.CredentialsRef,
		m.ErrorKind, m.ErrorMessage, m.PublicError, m.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errs.ConflictError{TenantID: provision.TenantID, Err: fmt.Errorf("constraint %s", pgErr.ConstraintName)}
		}
		return errs.PersistenceError{Op: "update provision", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return errs.PersistenceError{Op: "update provision", Err: fmt.Errorf("provision %s expected %s: %w", provision.ID, from, errs.ErrStatusChanged)}
	}
	return nil
}

func (r *ProvisionRepo) AppendNote(ctx context.Context, id uuid.UUID, note entity.Note) (err error) {
	uow := r.uowFactory.GetUoW()
	tx, err := uow.Begin(ctx)
	if err != nil {
		return errs.PersistenceError{Op: "append note", Err: err}
	}
	defer uow.Finalize(ctx, &err)
	return insertNote(ctx, tx, id, note)
}

func (r *ProvisionRepo) FindActiveByTenant(ctx context.Context, tenantID string) (*entity.Provision, error) {
	uow := r.uowFactory.GetUoW()
	tx, err := uow.Begin(ctx)
	if err != nil {
		return nil, errs.PersistenceError{Op: "find active provision", Err: err}
	}
	defer uow.Rollback(ctx)

	m, err := scanProvision(tx.QueryRow(ctx, `SELECT `+provisionColumns+` FROM provisioner.provisions
		WHERE tenant_id = $1 AND status = ANY($2) LIMIT 1`, tenantID, db.StatusStrings(consts.NonTerminalStatuses)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.PersistenceError{Op: "find active provision", Err: err}
	}
	notes, err := selectNotes(ctx, tx, m.ID)
	if err != nil {
		return nil, err
	}
	return db.MapModelToProvision(m, notes), nil
}

func (r *ProvisionRepo) GetProvisionByID(ctx context.Context, id uuid.UUID) (*entity.Provision, error) {
	uow := r.uowFactory.GetUoW()
	tx, err := uow.Begin(ctx)
	if err != nil {
		return nil, errs.PersistenceError{Op: "get provision", Err: err}
	}
	defer uow.Rollback(ctx)

	m, err := scanProvision(tx.QueryRow(ctx, `SELECT `+provisionColumns+` FROM provisioner.provisions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFoundError{Resource: "provision", ID: id.String()}
	}
	if err != nil {
		return nil, errs.PersistenceError{Op: "get provision", Err: err}
	}
	notes, err := selectNotes(ctx, tx, m.ID)
	if err != nil {
		return nil, err
	}
	return db.MapModelToProvision(m, notes), nil
}

// ListStale returns PENDING and PROVISIONING records untouched since updatedBefore, oldest first.
// Notes are not loaded.
func (r *ProvisionRepo) ListStale(ctx context.Context, updatedBefore time.Time, limit int) ([]*entity.Provision, error) {
	uow := r.uowFactory.GetUoW()
	tx, err := uow.Begin(ctx)
	if err != nil {
		return nil, errs.PersistenceError{Op: "list stale provisions", Err: err}
	}
	defer uow.Rollback(ctx)

	rows, err := tx.Query(ctx, `SELECT `+provisionColumns+` FROM provisioner.provisions
		WHERE status = ANY($1) AND updated_at < $2 ORDER BY updated_at LIMIT $3`,
		[]string{string(consts.ProvisionStatusPending), string(consts.ProvisionStatusProvisioning)}, updatedBefore, limit)
	if err != nil {
		return nil, errs.PersistenceError{Op: "list stale provisions", Err: err}
	}
	defer rows.Close()

	var out []*entity.Provision
	for rows.Next() {
		m, err := scanProvision(rows)
		if err != nil {
			return nil, errs.PersistenceError{Op: "list stale provisions", Err: err}
		}
		out = append(out, db.MapModelToProvision(m, nil))
	}
	if err = rows.Err(); err != nil {
		return nil, errs.PersistenceError{Op: "list stale provisions", Err: err}
	}
	return out, nil
}

func scanProvision(row pgx.Row) (db.Provision, error) {
	var m db.Provision
	err := row.Scan(&m.ID, &m.TenantID, &m.RequestedBy, &m.Framework, &m.SiteType, &m.Status, &m.Domain,
		&m.ProjectID, &m.ApplicationID, &m.ServerID, &m.AdminUsername, &m.CredentialsRef, &m.ErrorKind,
		&m.ErrorMessage, &m.PublicError, &m.IsTest, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func insertNote(ctx context.Context, tx pgx.Tx, id uuid.UUID, note entity.Note) error {
	_, err := tx.Exec(ctx, "INSERT INTO provisioner.provision_notes(provision_id, message, created_at) VALUES ($1,$2,$3)",
		id, note.Message, note.CreatedAt)
	if err != nil {
		return errs.PersistenceError{Op: "append note", Err: err}
	}
	return nil
}

func selectNotes(ctx context.Context, tx pgx.Tx, id uuid.UUID) ([]db.ProvisionNote, error) {
	rows, err := tx.Query(ctx, "SELECT id, provision_id, message, created_at FROM provisioner.provision_notes WHERE provision_id = $1 ORDER BY id", id)
	if err != nil {
		return nil, errs.PersistenceError{Op: "select notes", Err: err}
	}
	notes, err := pgx.CollectRows(rows, pgx.RowToStructByName[db.ProvisionNote])
	if err != nil {
		return nil, errs.PersistenceError{Op: "select notes", Err: err}
	}
	return notes, nil
}
