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

package pipeline

import (
	"context"
	"time"

	"github.com/launchpad-sh/launchpad/pkg/paas"
)

// PaaSAdapter is the slice of the PaaS client the pipeline drives.
type PaaSAdapter interface {
	CreateProject(ctx context.Context, name, description string) (*paas.ProjectRef, error)
	GetProject(ctx context.Context, uuid string) (*paas.Project, error)
	CreateApplication(ctx context.Context, req paas.AppCreateRequest) (string, error)
	SetApplicationDomain(ctx context.Context, appUUID, fqdn string) error
	SetEnvVars(ctx context.Context, appUUID string, entries []paas.EnvVarEntry) []paas.EnvVarResult
	StartApplication(ctx context.Context, appUUID string) error
	ApplicationStatus(ctx context.Context, appUUID string) (*paas.AppStatus, error)
	CreateDatabase(ctx context.Context, req paas.DatabaseCreateRequest) (string, error)
	StartDatabase(ctx context.Context, uuid string) error
	ListApplications(ctx context.Context, projectUUID string) ([]paas.Application, error)
	ListDatabases(ctx context.Context, projectUUID string) ([]paas.Database, error)
	DeleteApplication(ctx context.Context, uuid string) error
	DeleteDatabase(ctx context.Context, uuid string) error
	DeleteProject(ctx context.Context, uuid string) error
}

// DNSAdapter manages the A record for auto-generated domains.
type DNSAdapter interface {
	UpsertARecord(ctx context.Context, zone, name, ipv4 string, ttl int) error
	DeleteRecord(ctx context.Context, zone, name, rtype string) error
}

// DNSVerifier optionally confirms a record resolves against the
// authoritative server after creation.
type DNSVerifier interface {
	VerifyARecord(ctx context.Context, fqdn, expectedIP string) error
}

// ProxyAdapter optionally publishes a reverse-proxy site for the deployed
// domain.
type ProxyAdapter interface {
	PublishSite(ctx context.Context, domain, upstreamPort string) error
	RemoveSite(ctx context.Context, domain string) error
}

// StorageAdapter optionally mirrors PostgreSQL databases onto the shared
// storage server.
type StorageAdapter interface {
	EnsureDatabase(ctx context.Context, name, owner, password string) error
}

// Adapters is the explicit dependency record passed to the pipeline.
// PaaS and DNS are required; the rest are nil-checked optional integrations.
type Adapters struct {
	PaaS     PaaSAdapter
	DNS      DNSAdapter
	Verifier DNSVerifier
	Proxy    ProxyAdapter
	Storage  StorageAdapter
}

// Options carry the static deployment environment plus timing knobs. Tests
// shrink the durations and substitute Sleep.
type Options struct {
	BaseDomain     string
	ServerIP       string
	DefaultGitRepo string
	DashboardURL   string

	PollInterval time.Duration
	WaitBudget   time.Duration
	DBStartDelay time.Duration

	TeardownSpacing      time.Duration
	ProjectDeleteRetries int
	ProjectDeleteSpacing time.Duration

	// Sleep is the cancelable sleep used between polls, backoffs and
	// teardown deletes.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o *Options) withDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = 15 * time.Second
	}
	if o.WaitBudget <= 0 {
		o.WaitBudget = 8 * time.Minute
	}
	if o.DBStartDelay <= 0 {
		o.DBStartDelay = 3 * time.Second
	}
	if o.TeardownSpacing <= 0 {
		o.TeardownSpacing = 2 * time.Second
	}
	if o.ProjectDeleteRetries <= 0 {
		o.ProjectDeleteRetries = 3
	}
	if o.ProjectDeleteSpacing <= 0 {
		o.ProjectDeleteSpacing = 3 * time.Second
	}
	if o.Sleep == nil {
		o.Sleep = sleepContext
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
