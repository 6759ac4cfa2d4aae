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

// Package pipeline is the deployment state machine: an ordered sequence of
// named steps executed against a per-request Context. Hard step failures
// short-circuit to FAILED; soft failures record a warning and continue.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/launchpad-sh/launchpad/pkg/credentials"
	"github.com/launchpad-sh/launchpad/pkg/models"
	"github.com/launchpad-sh/launchpad/pkg/paas"
	"github.com/launchpad-sh/launchpad/pkg/utils"
)

// Step names as they appear verbatim in the deployment log.
const (
	StepValidation  = "Validation"
	StepDNS         = "DNS Setup"
	StepProject     = "Project Creation"
	StepApplication = "Application Creation"
	StepDomain      = "Domain Configuration"
	StepEnvVars     = "Environment Variables"
	StepStart       = "Application Start"
	StepProxy       = "Proxy Publication"
	StepMonitoring  = "Deployment Monitoring"
)

// databaseStepName labels the per-database log entries.
func databaseStepName(logicalName string) string {
	return "Database " + logicalName
}

// Pipeline drives one deployment through its steps. Stateless across runs;
// all per-run state lives in the Context.
type Pipeline struct {
	adapters Adapters
	opts     Options
	log      *zap.Logger
}

// New builds a pipeline over the given adapters.
func New(adapters Adapters, opts Options, log *zap.Logger) *Pipeline {
	opts.withDefaults()
	return &Pipeline{
		adapters: adapters,
		opts:     opts,
		log:      log.With(zap.String("component", "pipeline")),
	}
}

// Options exposes the effective options, defaults applied.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Run executes the deployment pipeline to a terminal state. Steps are
// strictly sequential; the driver alone appends to the log.
func (p *Pipeline) Run(ctx context.Context, dctx *Context) State {
	dctx.state = StateRunning
	partial := false

	runLog := p.log.With(zap.String("deploymentId", dctx.ID), zap.String("project", dctx.Spec.ProjectName))
	runLog.Info("starting deployment", zap.String("domain", dctx.FullDomain))

	// VALIDATE
	p.begin(dctx, StepValidation)
	out := p.stepValidate(dctx)
	p.finish(runLog, dctx, StepValidation, out)
	if out.Status == models.StepFailed {
		return p.fail(dctx, out)
	}

	// DNS — skipped entirely when a custom domain is used or generation
	// is disabled; a skipped step emits no log entries.
	if dctx.Spec.ShouldGenerateDomain() {
		p.begin(dctx, StepDNS)
		out = p.stepDNS(ctx, dctx)
		p.finish(runLog, dctx, StepDNS, out)
		dctx.Results.DNS = out.Status == models.StepCompleted
		if out.Status != models.StepCompleted {
			partial = true
		}
	}

	// PROJECT — hard precondition for everything below.
	p.begin(dctx, StepProject)
	out = p.stepProject(ctx, dctx)
	p.finish(runLog, dctx, StepProject, out)
	if out.Status == models.StepFailed {
		return p.fail(dctx, out)
	}
	dctx.Results.Project = true

	// DATABASES — sequential, each independently soft.
	for _, db := range dctx.Spec.Databases {
		step := databaseStepName(db.Name)
		p.begin(dctx, step)
		out = p.stepDatabase(ctx, dctx, db)
		p.finish(runLog, dctx, step, out)

		ok := p.databaseRealized(dctx, db.Name)
		dctx.Results.Databases = append(dctx.Results.Databases, models.DatabaseOutcome{Name: db.Name, Success: ok})
		if !ok || out.Status != models.StepCompleted {
			partial = true
		}
	}

	// APPLICATION — hard.
	p.begin(dctx, StepApplication)
	out = p.stepApplication(ctx, dctx)
	p.finish(runLog, dctx, StepApplication, out)
	if out.Status == models.StepFailed {
		return p.fail(dctx, out)
	}
	dctx.Results.Application = true

	// DOMAIN_ATTACH — soft; the app keeps going without its domain.
	if dctx.Spec.CustomDomain != "" || dctx.Spec.ShouldGenerateDomain() {
		p.begin(dctx, StepDomain)
		out = p.stepDomain(ctx, dctx)
		p.finish(runLog, dctx, StepDomain, out)
		if out.Status != models.StepCompleted {
			partial = true
		}
	}

	// ENV_VARS — per-entry partial success permitted.
	p.begin(dctx, StepEnvVars)
	out = p.stepEnvVars(ctx, dctx)
	p.finish(runLog, dctx, StepEnvVars, out)
	dctx.Results.EnvVars = out.Status == models.StepCompleted
	if out.Status != models.StepCompleted {
		partial = true
	}

	// START — soft.
	p.begin(dctx, StepStart)
	out = p.stepStart(ctx, dctx)
	p.finish(runLog, dctx, StepStart, out)
	dctx.Results.Start = out.Status == models.StepCompleted
	if out.Status != models.StepCompleted {
		partial = true
	}

	// WAIT_READY — explicit terminal failure is hard, budget exhaustion
	// is soft because the app may still be building.
	p.begin(dctx, StepMonitoring)
	out = p.waitReady(ctx, dctx)
	p.finish(runLog, dctx, StepMonitoring, out)
	if out.Status == models.StepFailed {
		if !dctx.WaitTimedOut {
			return p.fail(dctx, out)
		}
		dctx.Results.Application = false
		dctx.Results.Start = false
		partial = true
	}

	// Proxy publication — optional integration, soft.
	if p.adapters.Proxy != nil && (dctx.Spec.CustomDomain != "" || dctx.Spec.ShouldGenerateDomain()) {
		p.begin(dctx, StepProxy)
		out = p.stepProxy(ctx, dctx)
		p.finish(runLog, dctx, StepProxy, out)
		if out.Status != models.StepCompleted {
			partial = true
		}
	}

	if partial {
		dctx.state = StatePartial
	} else {
		dctx.state = StateSucceeded
	}
	runLog.Info("deployment finished", zap.String("state", string(dctx.state)))
	return dctx.state
}

func (p *Pipeline) fail(dctx *Context, out Outcome) State {
	dctx.state = StateFailed
	if out.Err != nil {
		dctx.LastError = out.Err.Error()
	} else {
		dctx.LastError = out.Details
	}
	return StateFailed
}

func (p *Pipeline) begin(dctx *Context, step string) {
	dctx.appendLog(step, models.StepStarting, "", "")
}

func (p *Pipeline) finish(runLog *zap.Logger, dctx *Context, step string, out Outcome) {
	dctx.appendLog(step, out.Status, out.Details, out.errString())
	switch out.Status {
	case models.StepCompleted:
		runLog.Info(step, zap.String("details", out.Details))
	case models.StepWarning:
		runLog.Warn(step, zap.String("details", out.Details), zap.Error(out.Err))
	case models.StepFailed:
		runLog.Error(step, zap.String("details", out.Details), zap.Error(out.Err))
	}
}

func (p *Pipeline) databaseRealized(dctx *Context, logicalName string) bool {
	for _, db := range dctx.Databases {
		if db.LogicalName == logicalName {
			return true
		}
	}
	return false
}

// stepValidate re-checks the local invariants. The handler already
// rejected bad requests with a 400; this guards programmatic callers.
func (p *Pipeline) stepValidate(dctx *Context) Outcome {
	if verrs := dctx.Spec.Validate(); verrs != nil {
		return Failed(fmt.Errorf("invalid deployment spec: %s", verrs.Errors[0].Message), "Validation failed")
	}
	return Completed("Validated deployment request for %s", dctx.Spec.ProjectName)
}

func (p *Pipeline) stepDNS(ctx context.Context, dctx *Context) Outcome {
	err := p.adapters.DNS.UpsertARecord(ctx, p.opts.BaseDomain, dctx.Spec.ProjectName, p.opts.ServerIP, 0)
	if err != nil {
		return Warning(err, "DNS creation failed but continuing")
	}

	if p.adapters.Verifier != nil {
		if verr := p.adapters.Verifier.VerifyARecord(ctx, dctx.FullDomain, p.opts.ServerIP); verr != nil {
			return Completed("Created A record %s -> %s (authoritative verification pending)", dctx.FullDomain, p.opts.ServerIP)
		}
	}
	return Completed("Created A record %s -> %s", dctx.FullDomain, p.opts.ServerIP)
}

func (p *Pipeline) stepProject(ctx context.Context, dctx *Context) Outcome {
	ref, err := p.adapters.PaaS.CreateProject(ctx, dctx.Spec.ProjectName, "Deployed by launchpad")
	if err != nil {
		return Failed(err, "Project creation failed")
	}
	dctx.ProjectUUID = ref.ProjectUUID
	dctx.EnvironmentUUID = ref.EnvironmentUUID
	return Completed("Project %s created (environment %s)", ref.ProjectUUID, ref.EnvironmentUUID)
}

func (p *Pipeline) stepDatabase(ctx context.Context, dctx *Context, spec models.DatabaseSpec) Outcome {
	kind := credentials.Kind(spec.Type)
	name := utils.DatabaseHostname(dctx.Spec.ProjectName, spec.Name)

	password, err := utils.GeneratePassword()
	if err != nil {
		return Warning(err, "Database %s skipped: password generation failed", name)
	}

	uuid, err := p.adapters.PaaS.CreateDatabase(ctx, paas.DatabaseCreateRequest{
		ProjectUUID:     dctx.ProjectUUID,
		EnvironmentUUID: dctx.EnvironmentUUID,
		Kind:            kind,
		Name:            name,
		Password:        password,
	})
	if err != nil {
		return Warning(err, "Database %s creation failed", name)
	}

	creds := credentials.New(kind, dctx.Spec.ProjectName, spec.Name, password)
	dctx.Databases = append(dctx.Databases, RealizedDatabase{
		LogicalName: spec.Name,
		Kind:        kind,
		UUID:        uuid,
		Credentials: creds,
	})

	// Settle before the explicit start; instant_deploy may already have
	// brought the instance up, so a failed start stays a note.
	if err := p.opts.Sleep(ctx, p.opts.DBStartDelay); err != nil {
		return Warning(err, "Database %s created but start interrupted", name)
	}
	startNote := ""
	if err := p.adapters.PaaS.StartDatabase(ctx, uuid); err != nil {
		startNote = "; explicit start failed, instance may already be running"
	}

	mirrorNote := ""
	if kind == credentials.KindPostgreSQL && p.adapters.Storage != nil {
		if err := p.adapters.Storage.EnsureDatabase(ctx, creds.Database, creds.User, password); err != nil {
			mirrorNote = "; storage-server mirror failed"
		} else {
			mirrorNote = "; mirrored on storage server"
		}
	}

	return Completed("Database %s (%s) created as %s%s%s", name, kind, uuid, startNote, mirrorNote)
}

func (p *Pipeline) stepApplication(ctx context.Context, dctx *Context) Outcome {
	repo := dctx.Spec.GitRepository
	if repo == "" {
		repo = p.opts.DefaultGitRepo
	}

	uuid, err := p.adapters.PaaS.CreateApplication(ctx, paas.AppCreateRequest{
		ProjectUUID:     dctx.ProjectUUID,
		EnvironmentUUID: dctx.EnvironmentUUID,
		Name:            dctx.Spec.ProjectName,
		GitRepository:   repo,
		GitBranch:       dctx.Spec.GitBranch,
		BuildPack:       dctx.Spec.BuildPack,
		PortsExposes:    dctx.Spec.Port,
	})
	if err != nil {
		return Failed(err, "Application creation failed")
	}
	dctx.AppUUID = uuid
	return Completed("Application %s created from %s@%s", uuid, repo, dctx.Spec.GitBranch)
}

func (p *Pipeline) stepDomain(ctx context.Context, dctx *Context) Outcome {
	if err := p.adapters.PaaS.SetApplicationDomain(ctx, dctx.AppUUID, dctx.FullDomain); err != nil {
		return Warning(err, "Domain attachment failed; application continues without %s", dctx.FullDomain)
	}
	return Completed("Domain %s attached", dctx.FullDomain)
}

func (p *Pipeline) stepEnvVars(ctx context.Context, dctx *Context) Outcome {
	userVars := make([]credentials.EnvVar, 0, len(dctx.Spec.EnvironmentVariables))
	for _, ev := range dctx.Spec.EnvironmentVariables {
		userVars = append(userVars, credentials.EnvVar{Key: ev.Key, Value: ev.Value})
	}
	realized := make([]credentials.Realized, 0, len(dctx.Databases))
	for _, db := range dctx.Databases {
		realized = append(realized, credentials.Realized{LogicalName: db.LogicalName, Credentials: db.Credentials})
	}

	merged := credentials.MergeEnv(userVars, realized)
	if len(merged) == 0 {
		return Completed("0 variables processed")
	}

	entries := make([]paas.EnvVarEntry, 0, len(merged))
	for _, ev := range merged {
		entries = append(entries, paas.EnvVarEntry{Key: ev.Key, Value: ev.Value, IsBuildTime: ev.IsBuildTime})
	}

	results := p.adapters.PaaS.SetEnvVars(ctx, dctx.AppUUID, entries)
	failures := 0
	var firstErr string
	for _, r := range results {
		if !r.Success {
			failures++
			if firstErr == "" {
				firstErr = r.Error
			}
		}
	}
	if failures > 0 {
		return Warning(fmt.Errorf("%d of %d variables failed: %s", failures, len(results), firstErr),
			"%d variables processed, %d failed", len(results), failures)
	}
	return Completed("%d variables processed", len(results))
}

func (p *Pipeline) stepStart(ctx context.Context, dctx *Context) Outcome {
	if err := p.adapters.PaaS.StartApplication(ctx, dctx.AppUUID); err != nil {
		return Warning(err, "Application start failed; it may start on its own after build")
	}
	return Completed("Application start issued")
}

func (p *Pipeline) stepProxy(ctx context.Context, dctx *Context) Outcome {
	if err := p.adapters.Proxy.PublishSite(ctx, dctx.FullDomain, dctx.Spec.Port); err != nil {
		return Warning(err, "Proxy site publication failed")
	}
	return Completed("Proxy site published for %s", dctx.FullDomain)
}
