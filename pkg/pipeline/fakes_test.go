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
	"fmt"
	"time"

	"github.com/launchpad-sh/launchpad/pkg/paas"
)

// fakePaaS is an in-memory PaaSAdapter with per-operation error knobs and a
// recorded call sequence.
type fakePaaS struct {
	calls []string

	projectErr  error
	appErr      error
	dbErr       error
	domainErr   error
	startAppErr error
	startDBErr  error
	envVarErr   string // keys matching this fail

	// statusFn is invoked per poll; defaults to running:healthy.
	statusFn    func(call int) (*paas.AppStatus, error)
	statusCalls int

	envPushed [][]paas.EnvVarEntry
	domains   []string

	// teardown-side state
	project           *paas.Project
	apps              []paas.Application
	dbs               []paas.Database
	listAppsErr       error
	listDBsErr        error
	deleteAppErr      error
	deleteDBErr       error
	projectDeleteErrs []error // consumed per attempt; nil means success
}

func newFakePaaS() *fakePaaS {
	return &fakePaaS{}
}

func (f *fakePaaS) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakePaaS) CreateProject(ctx context.Context, name, description string) (*paas.ProjectRef, error) {
	f.record("CreateProject %s", name)
	if f.projectErr != nil {
		return nil, f.projectErr
	}
	return &paas.ProjectRef{ProjectUUID: "proj-1", EnvironmentUUID: "env-1"}, nil
}

func (f *fakePaaS) GetProject(ctx context.Context, uuid string) (*paas.Project, error) {
	f.record("GetProject %s", uuid)
	if f.project == nil {
		return nil, paas.ErrNotFound
	}
	return f.project, nil
}

func (f *fakePaaS) CreateApplication(ctx context.Context, req paas.AppCreateRequest) (string, error) {
	f.record("CreateApplication %s", req.Name)
	if f.appErr != nil {
		return "", f.appErr
	}
	return "app-1", nil
}

func (f *fakePaaS) SetApplicationDomain(ctx context.Context, appUUID, fqdn string) error {
	f.record("SetApplicationDomain %s", fqdn)
	if f.domainErr != nil {
		return f.domainErr
	}
	f.domains = append(f.domains, fqdn)
	return nil
}

func (f *fakePaaS) SetEnvVars(ctx context.Context, appUUID string, entries []paas.EnvVarEntry) []paas.EnvVarResult {
	f.record("SetEnvVars %d", len(entries))
	f.envPushed = append(f.envPushed, entries)
	results := make([]paas.EnvVarResult, 0, len(entries))
	for _, e := range entries {
		if f.envVarErr != "" && e.Key == f.envVarErr {
			results = append(results, paas.EnvVarResult{Key: e.Key, Error: "rejected"})
			continue
		}
		results = append(results, paas.EnvVarResult{Key: e.Key, Success: true})
	}
	return results
}

func (f *fakePaaS) StartApplication(ctx context.Context, appUUID string) error {
	f.record("StartApplication %s", appUUID)
	return f.startAppErr
}

func (f *fakePaaS) ApplicationStatus(ctx context.Context, appUUID string) (*paas.AppStatus, error) {
	f.statusCalls++
	f.record("ApplicationStatus %d", f.statusCalls)
	if f.statusFn != nil {
		return f.statusFn(f.statusCalls)
	}
	return &paas.AppStatus{State: paas.StateRunning, Status: "healthy"}, nil
}

func (f *fakePaaS) CreateDatabase(ctx context.Context, req paas.DatabaseCreateRequest) (string, error) {
	f.record("CreateDatabase %s %s", req.Kind, req.Name)
	if f.dbErr != nil {
		return "", f.dbErr
	}
	return "db-" + req.Name, nil
}

func (f *fakePaaS) StartDatabase(ctx context.Context, uuid string) error {
	f.record("StartDatabase %s", uuid)
	return f.startDBErr
}

func (f *fakePaaS) ListApplications(ctx context.Context, projectUUID string) ([]paas.Application, error) {
	f.record("ListApplications %s", projectUUID)
	return f.apps, f.listAppsErr
}

func (f *fakePaaS) ListDatabases(ctx context.Context, projectUUID string) ([]paas.Database, error) {
	f.record("ListDatabases %s", projectUUID)
	return f.dbs, f.listDBsErr
}

func (f *fakePaaS) DeleteApplication(ctx context.Context, uuid string) error {
	f.record("DeleteApplication %s", uuid)
	return f.deleteAppErr
}

func (f *fakePaaS) DeleteDatabase(ctx context.Context, uuid string) error {
	f.record("DeleteDatabase %s", uuid)
	return f.deleteDBErr
}

func (f *fakePaaS) DeleteProject(ctx context.Context, uuid string) error {
	f.record("DeleteProject %s", uuid)
	if len(f.projectDeleteErrs) == 0 {
		return nil
	}
	err := f.projectDeleteErrs[0]
	f.projectDeleteErrs = f.projectDeleteErrs[1:]
	return err
}

type fakeDNS struct {
	upserts   []string
	deletes   []string
	upsertErr error
	deleteErr error
}

func (f *fakeDNS) UpsertARecord(ctx context.Context, zone, name, ipv4 string, ttl int) error {
	f.upserts = append(f.upserts, name+"."+zone+"->"+ipv4)
	return f.upsertErr
}

func (f *fakeDNS) DeleteRecord(ctx context.Context, zone, name, rtype string) error {
	f.deletes = append(f.deletes, name+"."+zone)
	return f.deleteErr
}

type fakeProxy struct {
	published []string
	removed   []string
	pubErr    error
}

func (f *fakeProxy) PublishSite(ctx context.Context, domain, upstreamPort string) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.published = append(f.published, domain+":"+upstreamPort)
	return nil
}

func (f *fakeProxy) RemoveSite(ctx context.Context, domain string) error {
	f.removed = append(f.removed, domain)
	return nil
}

type fakeStorage struct {
	ensured []string
	err     error
}

func (f *fakeStorage) EnsureDatabase(ctx context.Context, name, owner, password string) error {
	if f.err != nil {
		return f.err
	}
	f.ensured = append(f.ensured, name)
	return nil
}

// instantSleep makes every pipeline wait return immediately so tests run the
// real loops without wall-clock delays.
func instantSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func testOptions() Options {
	return Options{
		BaseDomain:           "apps.example.com",
		ServerIP:             "203.0.113.10",
		DefaultGitRepo:       "https://github.com/acme/starter",
		DashboardURL:         "https://paas.example.com",
		PollInterval:         time.Millisecond,
		WaitBudget:           50 * time.Millisecond,
		DBStartDelay:         time.Millisecond,
		TeardownSpacing:      time.Millisecond,
		ProjectDeleteRetries: 3,
		ProjectDeleteSpacing: time.Millisecond,
		Sleep:                instantSleep,
	}
}
