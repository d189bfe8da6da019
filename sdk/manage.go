package vocalis

import (
	"context"
	"fmt"
	"net/url"

	"github.com/vocalis-ai/vocalis-go/pkg/core"
)

const projectsPath = "/v1/projects"

// ProjectsService manages projects.
type ProjectsService struct {
	client *Client
}

// Project is one project within the account.
type Project struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Company   string `json:"company,omitempty"`
}

// ProjectUpdate carries the mutable project fields. Empty fields are left
// unchanged.
type ProjectUpdate struct {
	Name    string `json:"name,omitempty"`
	Company string `json:"company,omitempty"`
}

// List returns all projects the credential can access.
func (s *ProjectsService) List(ctx context.Context) ([]Project, error) {
	var out struct {
		Projects []Project `json:"projects"`
	}
	if err := s.client.getJSON(ctx, projectsPath, nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// Get returns one project.
func (s *ProjectsService) Get(ctx context.Context, projectID string) (*Project, error) {
	if projectID == "" {
		return nil, core.NewConfigurationError("project id is required")
	}
	var out Project
	if err := s.client.getJSON(ctx, projectPath(projectID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update changes a project's fields.
func (s *ProjectsService) Update(ctx context.Context, projectID string, update *ProjectUpdate) error {
	if projectID == "" {
		return core.NewConfigurationError("project id is required")
	}
	return s.client.patchJSON(ctx, projectPath(projectID), update, nil)
}

// Delete removes a project.
func (s *ProjectsService) Delete(ctx context.Context, projectID string) error {
	if projectID == "" {
		return core.NewConfigurationError("project id is required")
	}
	return s.client.deleteJSON(ctx, projectPath(projectID))
}

func projectPath(projectID string) string {
	return projectsPath + "/" + url.PathEscape(projectID)
}

// KeysService manages API keys within a project.
type KeysService struct {
	client *Client
}

// Key is one API key. The secret is only present in the Create response.
type Key struct {
	KeyID   string   `json:"key_id"`
	Key     string   `json:"key,omitempty"`
	Comment string   `json:"comment,omitempty"`
	Scopes  []string `json:"scopes,omitempty"`
	Created string   `json:"created,omitempty"`
}

// KeyRequest configures a new API key.
type KeyRequest struct {
	Comment string   `json:"comment"`
	Scopes  []string `json:"scopes"`
}

// List returns a project's keys. Secrets are not included.
func (s *KeysService) List(ctx context.Context, projectID string) ([]Key, error) {
	if projectID == "" {
		return nil, core.NewConfigurationError("project id is required")
	}
	var out struct {
		Keys []Key `json:"keys"`
	}
	if err := s.client.getJSON(ctx, keysPath(projectID), nil, &out); err != nil {
		return nil, err
	}
	return out.Keys, nil
}

// Create makes a new API key. The returned Key carries the secret; it is
// not retrievable afterwards.
func (s *KeysService) Create(ctx context.Context, projectID string, req *KeyRequest) (*Key, error) {
	if projectID == "" {
		return nil, core.NewConfigurationError("project id is required")
	}
	if req == nil || req.Comment == "" {
		return nil, core.NewConfigurationError("key comment is required")
	}
	var out Key
	if err := s.client.postJSON(ctx, keysPath(projectID), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete revokes an API key.
func (s *KeysService) Delete(ctx context.Context, projectID, keyID string) error {
	if projectID == "" || keyID == "" {
		return core.NewConfigurationError("project id and key id are required")
	}
	return s.client.deleteJSON(ctx, fmt.Sprintf("%s/keys/%s", projectPath(projectID), url.PathEscape(keyID)))
}

func keysPath(projectID string) string {
	return projectPath(projectID) + "/keys"
}
