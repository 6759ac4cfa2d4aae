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

	"github.com/launchpad-sh/launchpad/pkg/services"
)

// HealthHandler handles liveness and backend reachability probes
type HealthHandler struct {
	projectService *services.ProjectService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(projectService *services.ProjectService) *HealthHandler {
	return &HealthHandler{projectService: projectService}
}

// Health handles GET /api/health
// @Summary Health check
// @Description Liveness plus per-backend reachability for the PaaS and DNS APIs
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /api/health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, h.projectService.Health(c.Request.Context()))
}
