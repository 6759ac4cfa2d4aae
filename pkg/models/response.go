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

package models

import (
	"time"

	"github.com/launchpad-sh/launchpad/pkg/credentials"
)

// CoolifyInfo points the user at the realized PaaS resources.
type CoolifyInfo struct {
	ProjectUUID     string `json:"projectUuid"`
	ApplicationUUID string `json:"applicationUuid"`
	DashboardURL    string `json:"dashboardUrl"`
}

// DatabaseCredentials is the credential block returned per database,
// including the derived connection URL.
type DatabaseCredentials struct {
	Kind          string `json:"kind"`
	Host          string `json:"host"`
	Port          int    `json:"port"`
	User          string `json:"user,omitempty"`
	Password      string `json:"password,omitempty"`
	Database      string `json:"database,omitempty"`
	ConnectionURL string `json:"connectionUrl"`
}

// NewDatabaseCredentials flattens synthesized credentials for the response.
func NewDatabaseCredentials(c credentials.Credentials) DatabaseCredentials {
	return DatabaseCredentials{
		Kind:          string(c.Kind),
		Host:          c.Host,
		Port:          c.Port,
		User:          c.User,
		Password:      c.Password,
		Database:      c.Database,
		ConnectionURL: c.ConnectionURL(),
	}
}

// DatabaseInfo describes one realized database in the response.
type DatabaseInfo struct {
	Name        string              `json:"name"`
	Type        string              `json:"type"`
	UUID        string              `json:"uuid"`
	Status      string              `json:"status"`
	Credentials DatabaseCredentials `json:"credentials"`
}

// Instructions are the fixed user-oriented hints returned with every
// deployment, regardless of partial outcomes.
type Instructions struct {
	Access    string `json:"access"`
	Dashboard string `json:"dashboard"`
	DNS       string `json:"dns"`
}

// DeploymentResponse is the success/partial response shape for
// POST /api/deploy/complete.
type DeploymentResponse struct {
	Success       bool           `json:"success"`
	DeploymentID  string         `json:"deploymentId"`
	ProjectName   string         `json:"projectName"`
	Domain        string         `json:"domain"`
	URL           string         `json:"url"`
	Coolify       CoolifyInfo    `json:"coolify"`
	Databases     []DatabaseInfo `json:"databases"`
	DeploymentLog []StepLogEntry `json:"deploymentLog"`
	Results       Results        `json:"results"`
	DeployedAt    time.Time      `json:"deployedAt"`
	Instructions  Instructions   `json:"instructions"`
}

// DeploymentFailureResponse is the HTTP 500 shape for a hard pipeline
// failure. The full log up to the failure is included.
type DeploymentFailureResponse struct {
	Error         string         `json:"error"`
	DeploymentID  string         `json:"deploymentId"`
	Details       string         `json:"details"`
	DeploymentLog []StepLogEntry `json:"deploymentLog"`
	Results       Results        `json:"results"`
}

// ProjectSummary is one row of GET /api/projects. The fqdn is synthesized
// from the project name and may not reflect an actual binding.
type ProjectSummary struct {
	Name      string `json:"name"`
	UUID      string `json:"uuid"`
	FQDN      string `json:"fqdn"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// ServiceHealth is the per-backend reachability map in the health response.
type ServiceHealth struct {
	API  string `json:"api"`
	PaaS string `json:"paas"`
	DNS  string `json:"dns"`
}

// HealthResponse is the GET /api/health response.
type HealthResponse struct {
	Status    string        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Services  ServiceHealth `json:"services"`
	Version   string        `json:"version"`
}
