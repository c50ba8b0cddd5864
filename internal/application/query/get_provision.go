package query

import (
	"context"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/interfaces"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"github.com/google/uuid"
)

type GetProvision struct {
	interfaces.ProvisionRepo
}

func NewGetProvision(provisionRepo interfaces.ProvisionRepo) *GetProvision {
	return &GetProvision{provisionRepo}
}

func (c *GetProvision) Query(ctx context.Context, id uuid.UUID) (*entity.Provision, error) {
	return c.ProvisionRepo.GetProvisionByID(ctx, id)
}
