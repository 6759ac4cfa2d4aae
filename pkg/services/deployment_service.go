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
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/launchpad-sh/launchpad/pkg/models"
	"github.com/launchpad-sh/launchpad/pkg/pipeline"
)

// defaultWallBudget bounds one deployment end to end: the sum of step
// timeouts plus the readiness budget, rounded up.
const defaultWallBudget = 12 * time.Minute

// DeploymentService orchestrates deployments: it owns deployment id
// generation, drives the pipeline to a terminal state, and renders the
// audit structure for the client.
type DeploymentService struct {
	pipe         *pipeline.Pipeline
	baseDomain   string
	dashboardURL string
	wallBudget   time.Duration
	log          *zap.Logger
}

// NewDeploymentService builds the orchestrator over a constructed pipeline.
func NewDeploymentService(pipe *pipeline.Pipeline, baseDomain, dashboardURL string, log *zap.Logger) *DeploymentService {
	return &DeploymentService{
		pipe:         pipe,
		baseDomain:   baseDomain,
		dashboardURL: dashboardURL,
		wallBudget:   defaultWallBudget,
		log:          log.With(zap.String("component", "deployments")),
	}
}

// Deploy runs one deployment to completion or documented failure. Exactly
// one of the two responses is non-nil. Client-side cancellation does not
// cancel the pipeline: allocated resources stay put until an explicit
// teardown, so the run is detached from the request context.
func (s *DeploymentService) Deploy(reqCtx context.Context, req models.DeploymentRequest) (*models.DeploymentResponse, *models.DeploymentFailureResponse) {
	deploymentID := uuid.New().String()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(reqCtx), s.wallBudget)
	defer cancel()

	dctx := pipeline.NewContext(deploymentID, req, s.baseDomain)
	state := s.pipe.Run(ctx, dctx)

	if state == pipeline.StateFailed {
		return nil, &models.DeploymentFailureResponse{
			Error:         "Deployment failed",
			DeploymentID:  deploymentID,
			Details:       dctx.LastError,
			DeploymentLog: dctx.Log,
			Results:       dctx.Results,
		}
	}

	return s.successResponse(dctx), nil
}

func (s *DeploymentService) successResponse(dctx *pipeline.Context) *models.DeploymentResponse {
	databases := make([]models.DatabaseInfo, 0, len(dctx.Databases))
	for _, db := range dctx.Databases {
		databases = append(databases, models.DatabaseInfo{
			Name:        db.LogicalName,
			Type:        string(db.Kind),
			UUID:        db.UUID,
			Status:      "deployed",
			Credentials: models.NewDatabaseCredentials(db.Credentials),
		})
	}

	return &models.DeploymentResponse{
		Success:      true,
		DeploymentID: dctx.ID,
		ProjectName:  dctx.Spec.ProjectName,
		Domain:       dctx.FullDomain,
		URL:          "https://" + dctx.FullDomain,
		Coolify: models.CoolifyInfo{
			ProjectUUID:     dctx.ProjectUUID,
			ApplicationUUID: dctx.AppUUID,
			DashboardURL:    s.dashboardURL,
		},
		Databases:     databases,
		DeploymentLog: dctx.Log,
		Results:       dctx.Results,
		DeployedAt:    time.Now().UTC(),
		Instructions: models.Instructions{
			Access:    fmt.Sprintf("Your application will be available at https://%s once the build completes", dctx.FullDomain),
			Dashboard: fmt.Sprintf("Manage the deployment at %s", s.dashboardURL),
			DNS:       "DNS changes can take a few minutes to propagate; resolver caching is the usual wait",
		},
	}
}

// Teardown removes a project and everything under it via the reverse
// pipeline.
func (s *DeploymentService) Teardown(ctx context.Context, projectUUID string) (*pipeline.TeardownReport, error) {
	return s.pipe.Teardown(ctx, projectUUID)
}
