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
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/launchpad-sh/launchpad/pkg/models"
	"github.com/launchpad-sh/launchpad/pkg/paas"
)

// PaaSDirectory is the read-only slice of the PaaS client the project
// service needs.
type PaaSDirectory interface {
	ListProjects(ctx context.Context) ([]paas.Project, error)
	Healthz(ctx context.Context) error
}

// DNSProbe is the reachability probe for the DNS backend.
type DNSProbe interface {
	Healthz(ctx context.Context) error
}

const probeTimeout = 5 * time.Second

// ProjectService serves project listings and backend health.
type ProjectService struct {
	paas       PaaSDirectory
	dns        DNSProbe
	baseDomain string
	version    string
	log        *zap.Logger
}

// NewProjectService builds the project/health service.
func NewProjectService(paasDir PaaSDirectory, dnsProbe DNSProbe, baseDomain, version string, log *zap.Logger) *ProjectService {
	return &ProjectService{
		paas:       paasDir,
		dns:        dnsProbe,
		baseDomain: baseDomain,
		version:    version,
		log:        log.With(zap.String("component", "projects")),
	}
}

// ListProjects returns all projects known to the PaaS. The fqdn is
// synthesized from the project name; it may not reflect an actual domain
// binding.
func (s *ProjectService) ListProjects(ctx context.Context) ([]models.ProjectSummary, error) {
	projects, err := s.paas.ListProjects(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, models.ProjectSummary{
			Name:      p.Name,
			UUID:      p.UUID,
			FQDN:      p.Name + "." + s.baseDomain,
			Status:    "running",
			CreatedAt: p.CreatedAt,
		})
	}
	return summaries, nil
}

// Health probes both backends concurrently and reports per-service
// reachability.
func (s *ProjectService) Health(ctx context.Context) models.HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	paasStatus, dnsStatus := "healthy", "healthy"

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := s.paas.Healthz(ctx); err != nil {
			s.log.Warn("paas backend unreachable", zap.Error(err))
			paasStatus = "unreachable"
		}
	}()
	go func() {
		defer wg.Done()
		if err := s.dns.Healthz(ctx); err != nil {
			s.log.Warn("dns backend unreachable", zap.Error(err))
			dnsStatus = "unreachable"
		}
	}()
	wg.Wait()

	status := "ok"
	if paasStatus != "healthy" || dnsStatus != "healthy" {
		status = "degraded"
	}

	return models.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Services: models.ServiceHealth{
			API:  "healthy",
			PaaS: paasStatus,
			DNS:  dnsStatus,
		},
		Version: s.version,
	}
}
