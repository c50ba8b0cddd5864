package commands

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Builder-Lawyers/site-provisioner/internal/application/errs"
	"github.com/Builder-Lawyers/site-provisioner/internal/application/interfaces"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/consts"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/credentials"
	"github.com/Builder-Lawyers/site-provisioner/internal/domain/entity"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/config"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/db/memrepo"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/liveness"
	"github.com/Builder-Lawyers/site-provisioner/internal/infra/platform"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakePlatform struct {
	mu                sync.Mutex
	createProjectErrs []error
	createAppErr      error
	deployErr         error
	deleteErr         error
	status            platform.ApplicationStatus
	statusErr         error
	lastApplication   platform.CreateApplicationRequest
	calls             map[string]int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		status: platform.ApplicationStatus{ApplicationID: "app-1", Status: platform.StatusRunning},
		calls:  map[string]int{},
	}
}

func (f *fakePlatform) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakePlatform) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakePlatform) CreateProject(_ context.Context, _ platform.CreateProjectRequest) (platform.Project, error) {
	f.record(platform.OpCreateProject)
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createProjectErrs) > 0 {
		err := f.createProjectErrs[0]
		f.createProjectErrs = f.createProjectErrs[1:]
		if err != nil {
			return platform.Project{}, err
		}
	}
	return platform.Project{ProjectID: "proj-1"}, nil
}

func (f *fakePlatform) CreateApplication(_ context.Context, req platform.CreateApplicationRequest) (platform.Application, error) {
	f.record(platform.OpCreateApplication)
	f.mu.Lock()
	f.lastApplication = req
	f.mu.Unlock()
	if f.createAppErr != nil {
		return platform.Application{}, f.createAppErr
	}
	return platform.Application{ApplicationID: "app-1", ServerID: "srv-1"}, nil
}

func (f *fakePlatform) Deploy(_ context.Context, _ string) (platform.Deployment, error) {
	f.record(platform.OpDeploy)
	if f.deployErr != nil {
		return platform.Deployment{}, f.deployErr
	}
	return platform.Deployment{DeploymentID: "dep-1"}, nil
}

func (f *fakePlatform) GetStatus(_ context.Context, _ string) (platform.ApplicationStatus, error) {
	f.record(platform.OpGetStatus)
	return f.status, f.statusErr
}

func (f *fakePlatform) DeleteApplication(_ context.Context, _ string) error {
	f.record(platform.OpDeleteApplication)
	return f.deleteErr
}

type fakeChecker struct {
	live  bool
	calls atomic.Int32
	mu    sync.Mutex
	urls  []string
}

func (f *fakeChecker) Check(ctx context.Context, url string, timeout time.Duration) bool {
	f.calls.Add(1)
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.mu.Unlock()
	if f.live {
		return true
	}
	select {
	case <-ctx.Done():
	case <-time.After(timeout):
	}
	return false
}

type fakeVault struct {
	storeErr  error
	deleteErr error
	stored    map[uuid.UUID]credentials.Credentials
	deleted   []string
	// afterStore runs once the object is written, before Store returns.
	afterStore func(id uuid.UUID)
}

func (f *fakeVault) Store(_ context.Context, id uuid.UUID, creds credentials.Credentials) (string, error) {
	if f.storeErr != nil {
		return "", f.storeErr
	}
	if f.stored == nil {
		f.stored = map[uuid.UUID]credentials.Credentials{}
	}
	f.stored[id] = creds
	if f.afterStore != nil {
		f.afterStore(id)
	}
	return "s3://vault/credentials/" + id.String() + ".json", nil
}

func (f *fakeVault) Delete(_ context.Context, ref string) error {
	f.deleted = append(f.deleted, ref)
	return f.deleteErr
}

// failedWriteRepo refuses to persist FAILED, as if the database went away mid-failure.
type failedWriteRepo struct {
	*memrepo.ProvisionRepo
}

func (r failedWriteRepo) UpdateProvision(ctx context.Context, p *entity.Provision, from consts.ProvisionStatus) error {
	if p.Status == consts.ProvisionStatusFailed {
		return errs.PersistenceError{Op: "update provision", Err: context.DeadlineExceeded}
	}
	return r.ProvisionRepo.UpdateProvision(ctx, p, from)
}

func testConfig() *config.ProvisionConfig {
	return &config.ProvisionConfig{
		BaseDomain:     "sites.example.net",
		LivenessScheme: "https",
		Liveness: liveness.Policy{
			Budget:          time.Second,
			ProbeTimeout:    50 * time.Millisecond,
			InitialInterval: 5 * time.Millisecond,
			MaxInterval:     20 * time.Millisecond,
		},
		CreateProjectBackoff: time.Millisecond,
		StatusWriteTimeout:   time.Second,
	}
}

func janesPottery() entity.ProvisionRequest {
	return entity.ProvisionRequest{
		TenantID:     "t1",
		RequestedBy:  "u1",
		Framework:    consts.FrameworkContentManagement,
		SiteType:     consts.SiteTypeStorefront,
		BusinessName: "Jane's Pottery",
		ContactEmail: "jane@example.com",
		Subdomain:    "janes-pottery",
	}
}

type harness struct {
	cfg      *config.ProvisionConfig
	repo     *memrepo.ProvisionRepo
	platform *fakePlatform
	checker  *fakeChecker
	vault    *fakeVault
	id       uuid.UUID
}

func newHarness() *harness {
	return &harness{
		cfg:      testConfig(),
		repo:     memrepo.NewProvisionRepo(),
		platform: newFakePlatform(),
		checker:  &fakeChecker{live: true},
		id:       uuid.New(),
	}
}

func (h *harness) credentialVault() interfaces.CredentialVault {
	if h.vault == nil {
		return nil
	}
	return h.vault
}

func (h *harness) create() *CreateProvision {
	return NewCreateProvision(h.cfg, h.repo, h.platform, h.checker, credentials.NewGenerator(), h.credentialVault(), nil,
		WithIDs(func() uuid.UUID { return h.id }))
}

func (h *harness) cancel() *CancelProvision {
	return NewCancelProvision(h.cfg, h.repo, h.platform, h.credentialVault(), nil)
}

// stored returns the record written by the last create.
func (h *harness) stored(t *testing.T) *entity.Provision {
	t.Helper()
	p, err := h.repo.GetProvisionByID(context.Background(), h.id)
	require.NoError(t, err)
	return p
}

// requireMonotonic checks that every stored status change is an edge of the state machine.
func requireMonotonic(t *testing.T, repo *memrepo.ProvisionRepo, id uuid.UUID) {
	t.Helper()
	history := repo.History(id)
	require.NotEmpty(t, history)
	require.Equal(t, consts.ProvisionStatusPending, history[0])
	for i := 1; i < len(history); i++ {
		require.True(t, entity.CanTransition(history[i-1], history[i]), "illegal step %s -> %s in %v", history[i-1], history[i], history)
	}
}
