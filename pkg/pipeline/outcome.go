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
	"fmt"

	"github.com/launchpad-sh/launchpad/pkg/models"
)

// Outcome is the discriminated step result. Step handlers return an
// Outcome; the driver writes the log entry and decides whether to
// short-circuit. Panics are reserved for programmer errors.
type Outcome struct {
	Status  models.StepStatus
	Details string
	Err     error
}

// Completed builds a successful outcome.
func Completed(format string, args ...any) Outcome {
	return Outcome{Status: models.StepCompleted, Details: fmt.Sprintf(format, args...)}
}

// Warning builds a soft-failure outcome: the step degraded but the
// pipeline continues.
func Warning(err error, format string, args ...any) Outcome {
	return Outcome{Status: models.StepWarning, Details: fmt.Sprintf(format, args...), Err: err}
}

// Failed builds a hard-failure outcome.
func Failed(err error, format string, args ...any) Outcome {
	return Outcome{Status: models.StepFailed, Details: fmt.Sprintf(format, args...), Err: err}
}

func (o Outcome) errString() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
