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

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/launchpad-sh/launchpad/pkg/models"
	"github.com/launchpad-sh/launchpad/pkg/services"
)

// DeploymentHandler handles deployment-related HTTP requests
type DeploymentHandler struct {
	deploymentService *services.DeploymentService
}

// NewDeploymentHandler creates a new deployment handler
func NewDeploymentHandler(deploymentService *services.DeploymentService) *DeploymentHandler {
	return &DeploymentHandler{
		deploymentService: deploymentService,
	}
}

// Deploy handles POST /api/deploy/complete
// @Summary Execute a complete deployment
// @Description Create a project, its databases and application on the PaaS, wire credentials, attach the domain and wait for readiness. Partial outcomes still return 200 with the full deployment log.
// @Tags deployments
// @Accept json
// @Produce json
// @Param deployment body models.DeploymentRequest true "Deployment spec"
// @Success 200 {object} models.DeploymentResponse "Deployment succeeded or partially succeeded"
// @Failure 400 {object} models.ValidationErrors "Validation errors in request data"
// @Failure 500 {object} models.DeploymentFailureResponse "Deployment failed"
// @Security BearerAuth
// @Router /api/deploy/complete [post]
func (h *DeploymentHandler) Deploy(c *gin.Context) {
	var req models.DeploymentRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ValidationErrors{
			Errors: []models.ValidationError{
				{
					Field:   "request",
					Message: "Invalid JSON format: " + err.Error(),
				},
			},
		})
		return
	}

	req.Normalize()
	if validationErrors := req.Validate(); validationErrors != nil {
		c.JSON(http.StatusBadRequest, validationErrors)
		return
	}

	resp, failure := h.deploymentService.Deploy(c.Request.Context(), req)
	if failure != nil {
		c.JSON(http.StatusInternalServerError, failure)
		return
	}

	c.JSON(http.StatusOK, resp)
}
