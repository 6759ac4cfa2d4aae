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
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/launchpad-sh/launchpad/pkg/services"
)

// ProjectHandler handles project-related HTTP requests
type ProjectHandler struct {
	projectService    *services.ProjectService
	deploymentService *services.DeploymentService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService *services.ProjectService, deploymentService *services.DeploymentService) *ProjectHandler {
	return &ProjectHandler{
		projectService:    projectService,
		deploymentService: deploymentService,
	}
}

// ListProjects handles GET /api/projects
// @Summary List projects
// @Description List every project known to the PaaS backend
// @Tags projects
// @Produce json
// @Success 200 {array} models.ProjectSummary "Projects"
// @Failure 500 {object} auth.ErrorResponse "Backend error"
// @Security BearerAuth
// @Router /api/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projectService.ListProjects(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to list projects: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, projects)
}

// DeleteProject handles DELETE /api/projects/:uuid
// @Summary Delete a project
// @Description Tear down a project: applications first, then databases, then the project itself. DNS cleanup is best-effort.
// @Tags projects
// @Produce json
// @Param uuid path string true "Project UUID"
// @Success 200 {object} map[string]string "Deleted"
// @Failure 500 {object} auth.ErrorResponse "Teardown failed"
// @Security BearerAuth
// @Router /api/projects/{uuid} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	projectUUID := c.Param("uuid")
	if projectUUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": "Project UUID is required",
		})
		return
	}

	report, err := h.deploymentService.Teardown(c.Request.Context(), projectUUID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Failed to delete project: " + err.Error(),
			"report":  report,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("Project %s deleted successfully", projectUUID),
	})
}
