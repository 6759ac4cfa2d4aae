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

package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/launchpad-sh/launchpad/pkg/models"
	"github.com/launchpad-sh/launchpad/pkg/paas"
	"github.com/launchpad-sh/launchpad/pkg/pipeline"
)

// stubPaaS is a success-path pipeline.PaaSAdapter with a project-create
// failure knob, enough to exercise the service layer.
type stubPaaS struct {
	projectErr error
	projects   []paas.Project
	healthErr  error
}

func (s *stubPaaS) CreateProject(ctx context.Context, name, description string) (*paas.ProjectRef, error) {
	if s.projectErr != nil {
		return nil, s.projectErr
	}
	return &paas.ProjectRef{ProjectUUID: "proj-1", EnvironmentUUID: "env-1"}, nil
}

func (s *stubPaaS) GetProject(ctx context.Context, uuid string) (*paas.Project, error) {
	return &paas.Project{UUID: uuid, Name: "demo-a"}, nil
}

func (s *stubPaaS) CreateApplication(ctx context.Context, req paas.AppCreateRequest) (string, error) {
	return "app-1", nil
}

func (s *stubPaaS) SetApplicationDomain(ctx context.Context, appUUID, fqdn string) error {
	return nil
}

func (s *stubPaaS) SetEnvVars(ctx context.Context, appUUID string, entries []paas.EnvVarEntry) []paas.EnvVarResult {
	results := make([]paas.EnvVarResult, 0, len(entries))
	for _, e := range entries {
		results = append(results, paas.EnvVarResult{Key: e.Key, Success: true})
	}
	return results
}

func (s *stubPaaS) StartApplication(ctx context.Context, appUUID string) error { return nil }

func (s *stubPaaS) ApplicationStatus(ctx context.Context, appUUID string) (*paas.AppStatus, error) {
	return &paas.AppStatus{State: paas.StateRunning, Status: "healthy"}, nil
}

func (s *stubPaaS) CreateDatabase(ctx context.Context, req paas.DatabaseCreateRequest) (string, error) {
	return "db-1", nil
}

func (s *stubPaaS) StartDatabase(ctx context.Context, uuid string) error { return nil }

func (s *stubPaaS) ListApplications(ctx context.Context, projectUUID string) ([]paas.Application, error) {
	return nil, nil
}

func (s *stubPaaS) ListDatabases(ctx context.Context, projectUUID string) ([]paas.Database, error) {
	return nil, nil
}

func (s *stubPaaS) DeleteApplication(ctx context.Context, uuid string) error { return nil }
func (s *stubPaaS) DeleteDatabase(ctx context.Context, uuid string) error    { return nil }
func (s *stubPaaS) DeleteProject(ctx context.Context, uuid string) error     { return nil }

func (s *stubPaaS) ListProjects(ctx context.Context) ([]paas.Project, error) {
	if s.projectErr != nil {
		return nil, s.projectErr
	}
	return s.projects, nil
}

func (s *stubPaaS) Healthz(ctx context.Context) error { return s.healthErr }

type stubDNS struct {
	healthErr error
}

func (s *stubDNS) UpsertARecord(ctx context.Context, zone, name, ipv4 string, ttl int) error {
	return nil
}

func (s *stubDNS) DeleteRecord(ctx context.Context, zone, name, rtype string) error { return nil }

func (s *stubDNS) Healthz(ctx context.Context) error { return s.healthErr }

func newTestDeploymentService(sp *stubPaaS) *DeploymentService {
	pipe := pipeline.New(pipeline.Adapters{PaaS: sp, DNS: &stubDNS{}}, pipeline.Options{
		BaseDomain:           "apps.example.com",
		ServerIP:             "203.0.113.10",
		DefaultGitRepo:       "https://github.com/acme/starter",
		PollInterval:         time.Millisecond,
		WaitBudget:           50 * time.Millisecond,
		DBStartDelay:         time.Millisecond,
		TeardownSpacing:      time.Millisecond,
		ProjectDeleteSpacing: time.Millisecond,
		Sleep:                func(ctx context.Context, d time.Duration) error { return ctx.Err() },
	}, zap.NewNop())
	return NewDeploymentService(pipe, "apps.example.com", "https://paas.example.com", zap.NewNop())
}

func TestDeploySuccessResponse(t *testing.T) {
	g := gomega.NewWithT(t)

	svc := newTestDeploymentService(&stubPaaS{})
	req := models.DeploymentRequest{
		ProjectName: "demo-a",
		Databases:   []models.DatabaseSpec{{Name: "main", Type: "postgresql"}},
	}
	req.Normalize()

	resp, failure := svc.Deploy(context.Background(), req)

	g.Expect(failure).To(gomega.BeNil())
	g.Expect(resp).NotTo(gomega.BeNil())
	g.Expect(resp.Success).To(gomega.BeTrue())
	g.Expect(resp.DeploymentID).NotTo(gomega.BeEmpty())
	g.Expect(resp.Domain).To(gomega.Equal("demo-a.apps.example.com"))
	g.Expect(resp.URL).To(gomega.Equal("https://demo-a.apps.example.com"))
	g.Expect(resp.Coolify.ProjectUUID).To(gomega.Equal("proj-1"))
	g.Expect(resp.Coolify.ApplicationUUID).To(gomega.Equal("app-1"))
	g.Expect(resp.Coolify.DashboardURL).To(gomega.Equal("https://paas.example.com"))
	g.Expect(resp.DeploymentLog).NotTo(gomega.BeEmpty())
	g.Expect(resp.Instructions.Access).To(gomega.ContainSubstring("demo-a.apps.example.com"))

	g.Expect(resp.Databases).To(gomega.HaveLen(1))
	db := resp.Databases[0]
	g.Expect(db.Name).To(gomega.Equal("main"))
	g.Expect(db.Status).To(gomega.Equal("deployed"))
	g.Expect(db.Credentials.Host).To(gomega.Equal("demo-a-main"))
	g.Expect(db.Credentials.ConnectionURL).To(gomega.HavePrefix("postgresql://dbuser:"))
}

func TestDeployFailureResponse(t *testing.T) {
	g := gomega.NewWithT(t)

	svc := newTestDeploymentService(&stubPaaS{projectErr: paas.ErrNameTaken})
	req := models.DeploymentRequest{ProjectName: "demo-a"}
	req.Normalize()

	resp, failure := svc.Deploy(context.Background(), req)

	g.Expect(resp).To(gomega.BeNil())
	g.Expect(failure).NotTo(gomega.BeNil())
	g.Expect(failure.Error).To(gomega.Equal("Deployment failed"))
	g.Expect(failure.DeploymentID).NotTo(gomega.BeEmpty())
	g.Expect(failure.Details).To(gomega.ContainSubstring("name already taken"))
	g.Expect(failure.DeploymentLog).NotTo(gomega.BeEmpty())
	g.Expect(failure.Results.Project).To(gomega.BeFalse())
}

func TestDeploySurvivesRequestCancellation(t *testing.T) {
	g := gomega.NewWithT(t)

	svc := newTestDeploymentService(&stubPaaS{})
	req := models.DeploymentRequest{ProjectName: "demo-a"}
	req.Normalize()

	reqCtx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, failure := svc.Deploy(reqCtx, req)

	g.Expect(failure).To(gomega.BeNil())
	g.Expect(resp).NotTo(gomega.BeNil())
	g.Expect(resp.Success).To(gomega.BeTrue(), "pipeline is detached from the request context")
}

func TestListProjectsSynthesizesFQDN(t *testing.T) {
	g := gomega.NewWithT(t)

	sp := &stubPaaS{projects: []paas.Project{
		{UUID: "proj-1", Name: "demo-a", CreatedAt: "2026-08-01T00:00:00Z"},
		{UUID: "proj-2", Name: "demo-b"},
	}}
	svc := NewProjectService(sp, &stubDNS{}, "apps.example.com", "dev", zap.NewNop())

	summaries, err := svc.ListProjects(context.Background())

	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(summaries).To(gomega.HaveLen(2))
	g.Expect(summaries[0].FQDN).To(gomega.Equal("demo-a.apps.example.com"))
	g.Expect(summaries[0].Status).To(gomega.Equal("running"))
	g.Expect(summaries[1].FQDN).To(gomega.Equal("demo-b.apps.example.com"))
}

func TestListProjectsBackendError(t *testing.T) {
	g := gomega.NewWithT(t)

	sp := &stubPaaS{projectErr: errors.New("backend down")}
	svc := NewProjectService(sp, &stubDNS{}, "apps.example.com", "dev", zap.NewNop())

	_, err := svc.ListProjects(context.Background())
	g.Expect(err).To(gomega.HaveOccurred())
}

func TestHealthAllHealthy(t *testing.T) {
	g := gomega.NewWithT(t)

	svc := NewProjectService(&stubPaaS{}, &stubDNS{}, "apps.example.com", "dev", zap.NewNop())
	health := svc.Health(context.Background())

	g.Expect(health.Status).To(gomega.Equal("ok"))
	g.Expect(health.Services.API).To(gomega.Equal("healthy"))
	g.Expect(health.Services.PaaS).To(gomega.Equal("healthy"))
	g.Expect(health.Services.DNS).To(gomega.Equal("healthy"))
	g.Expect(health.Version).To(gomega.Equal("dev"))
}

func TestHealthDegradedWhenDNSUnreachable(t *testing.T) {
	g := gomega.NewWithT(t)

	svc := NewProjectService(&stubPaaS{}, &stubDNS{healthErr: errors.New("refused")}, "apps.example.com", "dev", zap.NewNop())
	health := svc.Health(context.Background())

	g.Expect(health.Status).To(gomega.Equal("degraded"))
	g.Expect(health.Services.PaaS).To(gomega.Equal("healthy"))
	g.Expect(health.Services.DNS).To(gomega.Equal("unreachable"))
}
