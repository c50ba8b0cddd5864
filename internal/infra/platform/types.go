package platform

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Project struct {
	ProjectID string `json:"projectId"`
}

type CreateApplicationRequest struct {
	ProjectID   string   `json:"projectId"`
	Name        string   `json:"name"`
	ComposeFile string   `json:"composeFile"`
	Domains     []string `json:"domains"`
}

type Application struct {
	ApplicationID string `json:"applicationId"`
	ServerID      string `json:"serverId,omitempty"`
}

type Deployment struct {
	DeploymentID string `json:"deploymentId"`
}

type ApplicationStatus struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
}

const (
	StatusIdle    = "idle"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

// Deployed reports whether the platform considers the application up.
func (s ApplicationStatus) Deployed() bool {
	return s.Status == StatusRunning || s.Status == StatusDone
}
