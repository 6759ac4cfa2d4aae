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
	"github.com/launchpad-sh/launchpad/pkg/credentials"
	"github.com/launchpad-sh/launchpad/pkg/models"
)

// State is the pipeline terminal classification.
type State string

const (
	StateInit      State = "INIT"
	StateRunning   State = "RUNNING"
	StateSucceeded State = "SUCCEEDED"
	StatePartial   State = "PARTIAL"
	StateFailed    State = "FAILED"
)

// RealizedDatabase records one successfully created database together with
// its synthesized credentials, in declaration order.
type RealizedDatabase struct {
	LogicalName string
	Kind        credentials.Kind
	UUID        string
	Credentials credentials.Credentials
}

// Context is the mutable per-run deployment state. One Context per request;
// it shares nothing with other deployments. Only the pipeline driver
// appends to Log.
type Context struct {
	ID         string
	Spec       models.DeploymentRequest
	FullDomain string

	ProjectUUID     string
	EnvironmentUUID string
	AppUUID         string
	Databases       []RealizedDatabase

	Log       []models.StepLogEntry
	Results   models.Results
	LastError string

	// WaitTimedOut distinguishes a readiness-budget exhaustion (PARTIAL)
	// from an explicit terminal failure (FAILED).
	WaitTimedOut bool

	state State
}

// NewContext builds the per-run state for a normalized, validated spec.
func NewContext(deploymentID string, spec models.DeploymentRequest, baseDomain string) *Context {
	return &Context{
		ID:         deploymentID,
		Spec:       spec,
		FullDomain: spec.FullDomain(baseDomain),
		Results:    models.Results{Databases: []models.DatabaseOutcome{}},
		state:      StateInit,
	}
}

// State returns the pipeline state for this context.
func (c *Context) State() State {
	return c.state
}

func (c *Context) appendLog(step string, status models.StepStatus, details, errMsg string) {
	c.Log = append(c.Log, models.StepLogEntry{
		Step:    step,
		Status:  status,
		Details: details,
		Error:   errMsg,
	})
}
