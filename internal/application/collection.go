package application

import (
	"github.com/Builder-Lawyers/site-provisioner/internal/application/commands"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/query"
)

type Handlers struct {
	CreateProvision    *commands.CreateProvision
	CancelProvision    *commands.CancelProvision
	ReconcileProvision *commands.ReconcileProvision
	GetProvision       *query.GetProvision
	GetCredentials     *query.GetCredentials
}
