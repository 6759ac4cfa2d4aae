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
	"context"
	"fmt"
	"time"

	"github.com/launchpad-sh/launchpad/pkg/paas"
)

// waitReady polls the application status until it is running, terminally
// failed, or the budget is exhausted. Pure observation: it never mutates
// remote state. Transient poll errors are tolerated up to half the budget;
// budget exhaustion is soft (the app may still be building), an explicit
// terminal state is hard.
func (p *Pipeline) waitReady(ctx context.Context, dctx *Context) Outcome {
	deadline := time.Now().Add(p.opts.WaitBudget)
	transientBudget := p.opts.WaitBudget / 2
	var transientSpent time.Duration

	for {
		if time.Now().After(deadline) {
			return p.waitTimeout(dctx)
		}

		status, err := p.adapters.PaaS.ApplicationStatus(ctx, dctx.AppUUID)
		if err != nil {
			transientSpent += p.opts.PollInterval
			if transientSpent > transientBudget {
				return p.waitTimeout(dctx)
			}
		} else {
			switch status.State {
			case paas.StateRunning, paas.StateHealthy:
				return Completed("Application is %s", status.State)
			case paas.StateExited, paas.StateFailed, paas.StateError:
				return Failed(fmt.Errorf("application entered terminal state %s", status.State),
					"Deployment failed: application is %s", status.State)
			}
		}

		if err := p.opts.Sleep(ctx, p.opts.PollInterval); err != nil {
			return p.waitTimeout(dctx)
		}
	}
}

func (p *Pipeline) waitTimeout(dctx *Context) Outcome {
	dctx.WaitTimedOut = true
	return Failed(fmt.Errorf("readiness wait timeout after %s", p.opts.WaitBudget),
		"Readiness timeout after %s; deployment may still be progressing", p.opts.WaitBudget)
}
