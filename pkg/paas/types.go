/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package paas

// Wire types for the Coolify-style PaaS API. Field names follow the
// backend's snake_case JSON.

// Environment is a named scope inside a project.
type Environment struct {
	ID        int    `json:"id,omitempty"`
	UUID      string `json:"uuid,omitempty"`
	Name      string `json:"name,omitempty"`
	ProjectID int    `json:"project_id,omitempty"`
}

// Project is the PaaS-side grouping container for apps and databases.
type Project struct {
	ID           int           `json:"id,omitempty"`
	UUID         string        `json:"uuid,omitempty"`
	Name         string        `json:"name,omitempty"`
	Description  string        `json:"description,omitempty"`
	Environments []Environment `json:"environments,omitempty"`
	CreatedAt    string        `json:"created_at,omitempty"`
	UpdatedAt    string        `json:"updated_at,omitempty"`
}

// ProjectRef identifies a freshly created project together with its default
// environment, required for subsequent application creation.
type ProjectRef struct {
	ProjectUUID     string
	EnvironmentUUID string
}

// Application is a runnable unit deployed from a git reference.
type Application struct {
	ID            int    `json:"id,omitempty"`
	UUID          string `json:"uuid,omitempty"`
	Name          string `json:"name,omitempty"`
	FQDN          string `json:"fqdn,omitempty"`
	GitRepository string `json:"git_repository,omitempty"`
	GitBranch     string `json:"git_branch,omitempty"`
	BuildPack     string `json:"build_pack,omitempty"`
	ProjectUUID   string `json:"project_uuid,omitempty"`
	Status        string `json:"status,omitempty"`
}

// Database is a backing datastore attached to a project.
type Database struct {
	ID          int    `json:"id,omitempty"`
	UUID        string `json:"uuid,omitempty"`
	Name        string `json:"name,omitempty"`
	ProjectUUID string `json:"project_uuid,omitempty"`
	Status      string `json:"status,omitempty"`
}

// AppCreateRequest carries everything the backend needs to create a
// git-based application.
type AppCreateRequest struct {
	ProjectUUID     string `json:"project_uuid"`
	EnvironmentUUID string `json:"environment_uuid"`
	ServerUUID      string `json:"server_uuid"`
	Name            string `json:"name"`
	GitRepository   string `json:"git_repository"`
	GitBranch       string `json:"git_branch"`
	BuildPack       string `json:"build_pack"`
	PortsExposes    string `json:"ports_exposes"`
	InstantDeploy   bool   `json:"instant_deploy"`
}

// AppStatus is a point-in-time view of a running application.
type AppStatus struct {
	State  string `json:"state"`
	Status string `json:"status"`
}

// Application states reported by the backend.
const (
	StateBuilding  = "building"
	StateStarting  = "starting"
	StateDeploying = "deploying"
	StateRunning   = "running"
	StateHealthy   = "healthy"
	StateExited    = "exited"
	StateFailed    = "failed"
	StateError     = "error"
	StateUnknown   = "unknown"
)

// EnvVarEntry is the wire form of one environment variable.
type EnvVarEntry struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	IsBuildTime bool   `json:"is_build_time"`
}

// EnvVarResult records the backend outcome for one pushed variable.
type EnvVarResult struct {
	Key     string
	Success bool
	Error   string
}
