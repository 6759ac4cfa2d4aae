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
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/launchpad-sh/launchpad/pkg/credentials"
	"github.com/launchpad-sh/launchpad/pkg/utils"
)

// Build packs the PaaS backend knows how to run.
const (
	BuildPackNixpacks   = "nixpacks"
	BuildPackDockerfile = "dockerfile"
	BuildPackStatic     = "static"
)

// Request defaults.
const (
	DefaultGitBranch = "main"
	DefaultBuildPack = BuildPackNixpacks
	DefaultPort      = "3000"
)

var validate = validator.New()

// DatabaseSpec declares one backing database in a deployment request.
type DatabaseSpec struct {
	Name string `json:"name" example:"main"`
	Type string `json:"type" example:"postgresql"`
}

// EnvVarSpec is one user-provided environment variable.
type EnvVarSpec struct {
	Key   string `json:"key" example:"NODE_ENV"`
	Value string `json:"value" example:"production"`
}

// DeploymentRequest is the immutable client-provided deployment spec.
type DeploymentRequest struct {
	ProjectName          string         `json:"projectName" example:"my-app"`
	GitRepository        string         `json:"gitRepository,omitempty" example:"https://github.com/acme/my-app"`
	GitBranch            string         `json:"gitBranch,omitempty" example:"main"`
	BuildPack            string         `json:"buildPack,omitempty" validate:"omitempty,oneof=nixpacks dockerfile static" example:"nixpacks"`
	Port                 string         `json:"port,omitempty" example:"3000"`
	GenerateDomain       *bool          `json:"generateDomain,omitempty" example:"true"`
	CustomDomain         string         `json:"customDomain,omitempty" validate:"omitempty,fqdn" example:"myapp.example.com"`
	Databases            []DatabaseSpec `json:"databases,omitempty"`
	EnvironmentVariables []EnvVarSpec   `json:"environmentVariables,omitempty"`
}

// Normalize applies request defaults in place. Call before Validate.
func (r *DeploymentRequest) Normalize() {
	if r.GitBranch == "" {
		r.GitBranch = DefaultGitBranch
	}
	if r.BuildPack == "" {
		r.BuildPack = DefaultBuildPack
	}
	if r.Port == "" {
		r.Port = DefaultPort
	}
	if r.GenerateDomain == nil {
		t := true
		r.GenerateDomain = &t
	}
}

// ShouldGenerateDomain reports whether the auto-generated DNS record is
// wanted. A custom domain disables it.
func (r *DeploymentRequest) ShouldGenerateDomain() bool {
	return r.CustomDomain == "" && r.GenerateDomain != nil && *r.GenerateDomain
}

// FullDomain returns the domain the deployment is addressed by: the custom
// domain when set, otherwise <projectName>.<baseDomain>.
func (r *DeploymentRequest) FullDomain(baseDomain string) string {
	if r.CustomDomain != "" {
		return r.CustomDomain
	}
	return r.ProjectName + "." + baseDomain
}

// Validate checks the request and returns all problems found, or nil. No
// external call is made before this passes.
func (r *DeploymentRequest) Validate() *ValidationErrors {
	var errs []ValidationError

	if r.ProjectName == "" {
		errs = append(errs, ValidationError{Field: "projectName", Message: "projectName is required"})
	} else if !utils.ValidProjectName(r.ProjectName) {
		errs = append(errs, ValidationError{
			Field:   "projectName",
			Message: fmt.Sprintf("projectName must match [a-z0-9]([-a-z0-9]*[a-z0-9])? and be at most %d characters", utils.MaxProjectNameLength),
		})
	}

	if r.Port != "" {
		if p, err := strconv.Atoi(r.Port); err != nil || p < 1 || p > 65535 {
			errs = append(errs, ValidationError{Field: "port", Message: "port must be a number between 1 and 65535"})
		}
	}

	for i, db := range r.Databases {
		if db.Name == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("databases[%d].name", i), Message: "database name is required"})
		} else if !utils.ValidProjectName(db.Name) {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("databases[%d].name", i), Message: "database name must be a lowercase DNS label"})
		}
		if !credentials.ValidKind(db.Type) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("databases[%d].type", i),
				Message: "database type must be one of postgresql, mysql, redis, mongodb",
			})
		}
	}

	for i, ev := range r.EnvironmentVariables {
		if ev.Key == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("environmentVariables[%d].key", i), Message: "environment variable key is required"})
		}
	}

	if err := validate.Struct(r); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				switch fe.Field() {
				case "BuildPack":
					errs = append(errs, ValidationError{Field: "buildPack", Message: "buildPack must be one of nixpacks, dockerfile, static"})
				case "CustomDomain":
					errs = append(errs, ValidationError{Field: "customDomain", Message: "customDomain must be a fully qualified domain name"})
				default:
					errs = append(errs, ValidationError{Field: fe.Field(), Message: "invalid value"})
				}
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

// ValidationError represents a validation error with field and message
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}
