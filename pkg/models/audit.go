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

// StepStatus is the outcome vocabulary for a pipeline step.
type StepStatus string

const (
	StepStarting  StepStatus = "starting"
	StepCompleted StepStatus = "completed"
	StepWarning   StepStatus = "warning"
	StepFailed    StepStatus = "failed"
)

// StepLogEntry is one audit row in the deployment log. Entries are
// append-only and reflect step execution order.
type StepLogEntry struct {
	Step    string     `json:"step"`
	Status  StepStatus `json:"status"`
	Details string     `json:"details,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// DatabaseOutcome records whether one declared database was realized.
type DatabaseOutcome struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
}

// Results is the flat map of boolean step outcomes returned to the client.
type Results struct {
	DNS         bool              `json:"dns"`
	Project     bool              `json:"project"`
	Databases   []DatabaseOutcome `json:"databases"`
	Application bool              `json:"application"`
	EnvVars     bool              `json:"envVars"`
	Start       bool              `json:"start"`
}
