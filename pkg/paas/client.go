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

// Package paas is the typed adapter for the Coolify-style PaaS API. It owns
// retry, timeout and error-classification policy; nothing above this layer
// sees raw HTTP.
package paas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/launchpad-sh/launchpad/pkg/credentials"
	"github.com/launchpad-sh/launchpad/pkg/utils"
)

// Per-operation timeouts.
const (
	createTimeout = 60 * time.Second
	readTimeout   = 30 * time.Second
	deleteTimeout = 30 * time.Second
	pollTimeout   = 30 * time.Second
)

// Client talks to the PaaS backend. It is safe for concurrent use; the
// underlying HTTP client pools connections across deployments.
type Client struct {
	http       *retryablehttp.Client
	baseURL    string
	token      string
	serverUUID string
	breaker    *gobreaker.CircuitBreaker
	log        *zap.Logger
}

// NewClient constructs a PaaS client.
// Retry policy: transient network errors and HTTP 5xx retried up to 3 times
// with exponential backoff (500ms, 1s, 2s). 4xx is never retried.
func NewClient(baseURL, token, serverUUID string, log *zap.Logger) *Client {
	c := retryablehttp.NewClient()
	c.RetryMax = 3
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 2 * time.Second
	c.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil || resp == nil {
			return true, nil
		}
		return resp.StatusCode >= 500, nil
	}
	c.Logger = nil

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "paas",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		http:       c,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		serverUUID: serverUUID,
		breaker:    breaker,
		log:        log.With(zap.String("component", "paas")),
	}
}

// do performs one backend request inside the circuit breaker. Transport
// errors and 5xx responses count as breaker failures; 4xx does not.
func (c *Client) do(ctx context.Context, timeout time.Duration, method, path string, payload any) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	type result struct {
		status int
		body   []byte
	}

	res, err := c.breaker.Execute(func() (any, error) {
		req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return result{resp.StatusCode, respBody}, classifyStatus(resp.StatusCode, string(respBody))
		}
		return result{resp.StatusCode, respBody}, nil
	})
	if err != nil {
		if r, ok := res.(result); ok {
			return r.status, r.body, err
		}
		return 0, nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	r := res.(result)
	return r.status, r.body, nil
}

// CreateProject creates a project and discovers its default environment.
// The environment UUID is required for application creation, so a project
// without one is treated as a failed create.
func (c *Client) CreateProject(ctx context.Context, name, description string) (*ProjectRef, error) {
	status, body, err := c.do(ctx, createTimeout, http.MethodPost, "/api/v1/projects", map[string]string{
		"name":        name,
		"description": description,
	})
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, classifyStatus(status, string(body))
	}

	var created struct {
		UUID string `json:"uuid"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.UUID == "" {
		return nil, fmt.Errorf("%w: create project returned no uuid", ErrValidation)
	}

	project, err := c.GetProject(ctx, created.UUID)
	if err != nil {
		return nil, fmt.Errorf("project %s created but environment discovery failed: %w", created.UUID, err)
	}
	env := defaultEnvironment(project)
	if env == nil {
		return nil, fmt.Errorf("%w: project %s has no environments", ErrValidation, created.UUID)
	}

	return &ProjectRef{ProjectUUID: created.UUID, EnvironmentUUID: env.UUID}, nil
}

func defaultEnvironment(p *Project) *Environment {
	for i := range p.Environments {
		if p.Environments[i].Name == "production" {
			return &p.Environments[i]
		}
	}
	if len(p.Environments) > 0 {
		return &p.Environments[0]
	}
	return nil
}

// GetProject fetches project details including its environments.
func (c *Client) GetProject(ctx context.Context, uuid string) (*Project, error) {
	status, body, err := c.do(ctx, readTimeout, http.MethodGet, "/api/v1/projects/"+uuid, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, classifyStatus(status, string(body))
	}
	var p Project
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}
	return &p, nil
}

// ListProjects returns every project on the backend.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	status, body, err := c.do(ctx, readTimeout, http.MethodGet, "/api/v1/projects", nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, classifyStatus(status, string(body))
	}
	var projects []Project
	if err := json.Unmarshal(body, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

// CreateApplication creates a git-based application and returns its UUID.
func (c *Client) CreateApplication(ctx context.Context, req AppCreateRequest) (string, error) {
	req.ServerUUID = c.serverUUID
	status, body, err := c.do(ctx, createTimeout, http.MethodPost, "/api/v1/applications/public", req)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", classifyStatus(status, string(body))
	}
	var created struct {
		UUID string `json:"uuid"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.UUID == "" {
		return "", fmt.Errorf("%w: create application returned no uuid", ErrValidation)
	}
	return created.UUID, nil
}

// SetApplicationDomain attaches a fully qualified domain to an application.
// A 409 for the identical fqdn is a no-op, not a conflict.
func (c *Client) SetApplicationDomain(ctx context.Context, appUUID, fqdn string) error {
	status, body, err := c.do(ctx, createTimeout, http.MethodPatch, "/api/v1/applications/"+appUUID, map[string]string{
		"domains": "https://" + fqdn,
	})
	if err != nil {
		return err
	}
	if status == http.StatusConflict {
		if app, getErr := c.getApplication(ctx, appUUID); getErr == nil && strings.Contains(app.FQDN, fqdn) {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrDomainConflict, string(body))
	}
	if status < 200 || status >= 300 {
		return classifyStatus(status, string(body))
	}
	return nil
}

func (c *Client) getApplication(ctx context.Context, appUUID string) (*Application, error) {
	status, body, err := c.do(ctx, readTimeout, http.MethodGet, "/api/v1/applications/"+appUUID, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, classifyStatus(status, string(body))
	}
	var app Application
	if err := json.Unmarshal(body, &app); err != nil {
		return nil, fmt.Errorf("failed to decode application: %w", err)
	}
	return &app, nil
}

// SetEnvVars pushes environment variables one at a time. Partial success is
// permitted; the per-entry results record which keys landed.
func (c *Client) SetEnvVars(ctx context.Context, appUUID string, entries []EnvVarEntry) []EnvVarResult {
	results := make([]EnvVarResult, 0, len(entries))
	for _, entry := range entries {
		status, body, err := c.do(ctx, createTimeout, http.MethodPost, "/api/v1/applications/"+appUUID+"/envs", entry)
		switch {
		case err != nil:
			results = append(results, EnvVarResult{Key: entry.Key, Error: err.Error()})
		case status < 200 || status >= 300:
			results = append(results, EnvVarResult{Key: entry.Key, Error: classifyStatus(status, string(body)).Error()})
		default:
			results = append(results, EnvVarResult{Key: entry.Key, Success: true})
		}
	}
	return results
}

// StartApplication issues a start. The backend historically accepted GET;
// newer versions want POST, so GET is tried first with POST as fallback.
// Only both failing constitutes a start failure.
func (c *Client) StartApplication(ctx context.Context, appUUID string) error {
	path := "/api/v1/applications/" + appUUID + "/start"

	status, _, err := c.do(ctx, createTimeout, http.MethodGet, path, nil)
	if err == nil && status >= 200 && status < 300 {
		return nil
	}

	status, body, err := c.do(ctx, createTimeout, http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return classifyStatus(status, string(body))
	}
	return nil
}

// ApplicationStatus polls the current application state. The backend
// reports a combined "state:status" string, e.g. "running:healthy".
func (c *Client) ApplicationStatus(ctx context.Context, appUUID string) (*AppStatus, error) {
	app, err := c.pollApplication(ctx, appUUID)
	if err != nil {
		return nil, err
	}
	state, detail := app.Status, ""
	if idx := strings.IndexByte(app.Status, ':'); idx >= 0 {
		state, detail = app.Status[:idx], app.Status[idx+1:]
	}
	if state == "" {
		state = StateUnknown
	}
	return &AppStatus{State: state, Status: detail}, nil
}

func (c *Client) pollApplication(ctx context.Context, appUUID string) (*Application, error) {
	status, body, err := c.do(ctx, pollTimeout, http.MethodGet, "/api/v1/applications/"+appUUID, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, classifyStatus(status, string(body))
	}
	var app Application
	if err := json.Unmarshal(body, &app); err != nil {
		return nil, fmt.Errorf("failed to decode application: %w", err)
	}
	return &app, nil
}

// DatabaseCreateRequest carries the common fields for database creation.
// Kind-specific credentials are filled in from the generated password.
type DatabaseCreateRequest struct {
	ProjectUUID     string
	EnvironmentUUID string
	Kind            credentials.Kind
	Name            string
	Password        string
}

// CreateDatabase creates a database of the given kind under a project and
// returns its UUID. The redis create endpoint rejects any password field
// (backend bug), so the payload omits it and the instance comes up
// unauthenticated.
func (c *Client) CreateDatabase(ctx context.Context, req DatabaseCreateRequest) (string, error) {
	payload := map[string]any{
		"project_uuid":     req.ProjectUUID,
		"environment_uuid": req.EnvironmentUUID,
		"server_uuid":      c.serverUUID,
		"name":             req.Name,
		"instant_deploy":   true,
	}
	sqlName := utils.SanitizeDatabaseName(req.Name)
	switch req.Kind {
	case credentials.KindPostgreSQL:
		payload["postgres_user"] = "dbuser"
		payload["postgres_password"] = req.Password
		payload["postgres_db"] = sqlName
	case credentials.KindMySQL:
		payload["mysql_root_password"] = req.Password
		payload["mysql_user"] = "dbuser"
		payload["mysql_password"] = req.Password
		payload["mysql_database"] = sqlName
	case credentials.KindRedis:
		// no password field, deliberately
	case credentials.KindMongoDB:
		payload["mongo_initdb_root_username"] = "admin"
		payload["mongo_initdb_root_password"] = req.Password
		payload["mongo_initdb_database"] = sqlName
	default:
		return "", fmt.Errorf("%w: unsupported database kind %q", ErrValidation, req.Kind)
	}

	status, body, err := c.do(ctx, createTimeout, http.MethodPost, "/api/v1/databases/"+string(req.Kind), payload)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", classifyStatus(status, string(body))
	}
	var created struct {
		UUID string `json:"uuid"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.UUID == "" {
		return "", fmt.Errorf("%w: create database returned no uuid", ErrValidation)
	}
	return created.UUID, nil
}

// StartDatabase issues an explicit start. Callers treat failure as soft:
// instant_deploy on create may already have started the instance.
func (c *Client) StartDatabase(ctx context.Context, dbUUID string) error {
	status, body, err := c.do(ctx, createTimeout, http.MethodPost, "/api/v1/databases/"+dbUUID+"/start", nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return classifyStatus(status, string(body))
	}
	return nil
}

// ListApplications returns the applications belonging to a project.
func (c *Client) ListApplications(ctx context.Context, projectUUID string) ([]Application, error) {
	status, body, err := c.do(ctx, readTimeout, http.MethodGet, "/api/v1/applications", nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, classifyStatus(status, string(body))
	}
	var apps []Application
	if err := json.Unmarshal(body, &apps); err != nil {
		return nil, fmt.Errorf("failed to decode applications: %w", err)
	}
	filtered := apps[:0]
	for _, app := range apps {
		if app.ProjectUUID == projectUUID {
			filtered = append(filtered, app)
		}
	}
	return filtered, nil
}

// ListDatabases returns the databases belonging to a project.
func (c *Client) ListDatabases(ctx context.Context, projectUUID string) ([]Database, error) {
	status, body, err := c.do(ctx, readTimeout, http.MethodGet, "/api/v1/databases", nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, classifyStatus(status, string(body))
	}
	var dbs []Database
	if err := json.Unmarshal(body, &dbs); err != nil {
		return nil, fmt.Errorf("failed to decode databases: %w", err)
	}
	filtered := dbs[:0]
	for _, db := range dbs {
		if db.ProjectUUID == projectUUID {
			filtered = append(filtered, db)
		}
	}
	return filtered, nil
}

// DeleteApplication removes an application. NotFound is success.
func (c *Client) DeleteApplication(ctx context.Context, uuid string) error {
	return c.delete(ctx, "/api/v1/applications/"+uuid)
}

// DeleteDatabase removes a database. NotFound is success.
func (c *Client) DeleteDatabase(ctx context.Context, uuid string) error {
	return c.delete(ctx, "/api/v1/databases/"+uuid)
}

// DeleteProject removes a project. NotFound is success. The backend is
// eventually consistent on dependent-resource cleanup, so callers retry
// conflicts.
func (c *Client) DeleteProject(ctx context.Context, uuid string) error {
	return c.delete(ctx, "/api/v1/projects/"+uuid)
}

func (c *Client) delete(ctx context.Context, path string) error {
	status, body, err := c.do(ctx, deleteTimeout, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return nil
	}
	if status < 200 || status >= 300 {
		return classifyStatus(status, string(body))
	}
	return nil
}

// Healthz probes backend reachability for the health endpoint.
func (c *Client) Healthz(ctx context.Context) error {
	status, body, err := c.do(ctx, readTimeout, http.MethodGet, "/api/v1/version", nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return classifyStatus(status, string(body))
	}
	return nil
}
