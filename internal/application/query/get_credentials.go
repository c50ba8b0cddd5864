package query

import (
	"context"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/interfaces"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/credentials"
	"github.com/google/uuid"
)

// GetCredentials reads back credentials kept in the vault. It is an operator tool: the
// API never exposes it.
type GetCredentials struct {
	repo   interfaces.ProvisionRepo
	reader interfaces.CredentialReader
}

func NewGetCredentials(repo interfaces.ProvisionRepo, reader interfaces.CredentialReader) *GetCredentials {
	return &GetCredentials{repo: repo, reader: reader}
}

func (c *GetCredentials) Query(ctx context.Context, id uuid.UUID) (credentials.Credentials, error) {
	p, err := c.repo.GetProvisionByID(ctx, id)
	if err != nil {
		return credentials.Credentials{}, err
	}
	if c.reader == nil || p.CredentialsRef == "" || p.CredentialsRef == consts.CredentialsReturnedOnce {
		return credentials.Credentials{}, errs.NotFoundError{Resource: "stored credentials for provision", ID: id.String()}
	}
	creds, err := c.reader.Load(ctx, p.CredentialsRef)
	if err != nil {
		return credentials.Credentials{}, errs.PersistenceError{Op: "load credentials", Err: err}
	}
	return creds, nil
}
