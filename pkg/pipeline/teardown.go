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

	"go.uber.org/zap"
)

// TeardownReport summarizes a reverse-pipeline run. Partial failures are
// reported, not thrown; only a project that cannot be deleted at all is an
// error.
type TeardownReport struct {
	AppsDeleted      int      `json:"appsDeleted"`
	DatabasesDeleted int      `json:"databasesDeleted"`
	ProjectDeleted   bool     `json:"projectDeleted"`
	Partial          bool     `json:"partial"`
	Errors           []string `json:"errors,omitempty"`
}

// Teardown deletes a project and its dependent resources in reverse
// dependency order: applications, then databases, then the project itself.
// Deletes are spaced out because the backend is eventually consistent on
// dependent-resource cleanup; the project delete is retried for the same
// reason. A 404 anywhere is success. Running teardown twice is safe.
func (p *Pipeline) Teardown(ctx context.Context, projectUUID string) (*TeardownReport, error) {
	report := &TeardownReport{}
	tlog := p.log.With(zap.String("projectUuid", projectUUID))

	// Capture the project name before resources disappear; needed for
	// best-effort DNS cleanup afterwards.
	projectName := ""
	if project, err := p.adapters.PaaS.GetProject(ctx, projectUUID); err == nil {
		projectName = project.Name
	}

	apps, err := p.adapters.PaaS.ListApplications(ctx, projectUUID)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("list applications: %v", err))
		report.Partial = true
	}
	for _, app := range apps {
		if err := p.adapters.PaaS.DeleteApplication(ctx, app.UUID); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("delete application %s: %v", app.UUID, err))
			report.Partial = true
		} else {
			report.AppsDeleted++
		}
		if err := p.opts.Sleep(ctx, p.opts.TeardownSpacing); err != nil {
			return report, err
		}
	}

	dbs, err := p.adapters.PaaS.ListDatabases(ctx, projectUUID)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("list databases: %v", err))
		report.Partial = true
	}
	for _, db := range dbs {
		if err := p.adapters.PaaS.DeleteDatabase(ctx, db.UUID); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("delete database %s: %v", db.UUID, err))
			report.Partial = true
		} else {
			report.DatabasesDeleted++
		}
		if err := p.opts.Sleep(ctx, p.opts.TeardownSpacing); err != nil {
			return report, err
		}
	}

	var deleteErr error
	for attempt := 1; attempt <= p.opts.ProjectDeleteRetries; attempt++ {
		deleteErr = p.adapters.PaaS.DeleteProject(ctx, projectUUID)
		if deleteErr == nil {
			report.ProjectDeleted = true
			break
		}
		tlog.Warn("project delete failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(deleteErr))
		if attempt < p.opts.ProjectDeleteRetries {
			if err := p.opts.Sleep(ctx, p.opts.ProjectDeleteSpacing); err != nil {
				return report, err
			}
		}
	}
	if deleteErr != nil {
		report.Partial = true
		report.Errors = append(report.Errors, fmt.Sprintf("delete project: %v", deleteErr))
		return report, fmt.Errorf("failed to delete project %s: %w", projectUUID, deleteErr)
	}

	// DNS and proxy cleanup are best-effort and non-fatal.
	if projectName != "" {
		if err := p.adapters.DNS.DeleteRecord(ctx, p.opts.BaseDomain, projectName, "A"); err != nil {
			tlog.Warn("dns record cleanup failed", zap.Error(err))
			report.Errors = append(report.Errors, fmt.Sprintf("dns cleanup: %v", err))
		}
		if p.adapters.Proxy != nil {
			domain := projectName + "." + p.opts.BaseDomain
			if err := p.adapters.Proxy.RemoveSite(ctx, domain); err != nil {
				tlog.Warn("proxy site cleanup failed", zap.Error(err))
			}
		}
	}

	tlog.Info("teardown finished",
		zap.Int("appsDeleted", report.AppsDeleted),
		zap.Int("databasesDeleted", report.DatabasesDeleted),
		zap.Bool("partial", report.Partial))
	return report, nil
}
