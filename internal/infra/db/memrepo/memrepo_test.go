package memrepo_test

import (
	"testing"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/interfaces"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/db/memrepo"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/db/repotest"
)

func TestProvisionRepo(t *testing.T) {
	repotest.Run(t, func(t *testing.T) interfaces.ProvisionRepo {
		return memrepo.NewProvisionRepo()
	})
}
