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

package paas

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/launchpad-sh/launchpad/pkg/credentials"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-token", "srv-0", zap.NewNop()), server
}

func TestCreateProjectDiscoversProductionEnvironment(t *testing.T) {
	g := gomega.NewWithT(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/projects", func(w http.ResponseWriter, r *http.Request) {
		g.Expect(r.Header.Get("Authorization")).To(gomega.Equal("Bearer test-token"))
		var body map[string]string
		g.Expect(json.NewDecoder(r.Body).Decode(&body)).To(gomega.Succeed())
		g.Expect(body["name"]).To(gomega.Equal("demo-a"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"uuid":"proj-1"}`))
	})
	mux.HandleFunc("GET /api/v1/projects/proj-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"uuid":"proj-1","environments":[
			{"uuid":"env-stg","name":"staging"},
			{"uuid":"env-prod","name":"production"}]}`))
	})

	client, _ := newTestClient(t, mux)
	ref, err := client.CreateProject(context.Background(), "demo-a", "created by launchpad")

	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(ref.ProjectUUID).To(gomega.Equal("proj-1"))
	g.Expect(ref.EnvironmentUUID).To(gomega.Equal("env-prod"))
}

func TestCreateProjectNameTaken(t *testing.T) {
	g := gomega.NewWithT(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/projects", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"name already in use"}`))
	})

	client, _ := newTestClient(t, mux)
	_, err := client.CreateProject(context.Background(), "demo-a", "")

	g.Expect(errors.Is(err, ErrNameTaken)).To(gomega.BeTrue(), "got: %v", err)
}

func TestCreateProjectRetriesOn5xx(t *testing.T) {
	g := gomega.NewWithT(t)

	var attempts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/projects", func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"uuid":"proj-1"}`))
	})
	mux.HandleFunc("GET /api/v1/projects/proj-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"uuid":"proj-1","environments":[{"uuid":"env-1","name":"production"}]}`))
	})

	client, _ := newTestClient(t, mux)
	ref, err := client.CreateProject(context.Background(), "demo-a", "")

	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(ref.EnvironmentUUID).To(gomega.Equal("env-1"))
	g.Expect(attempts.Load()).To(gomega.BeNumerically(">=", 2))
}

func TestCreateApplicationDoesNotRetry4xx(t *testing.T) {
	g := gomega.NewWithT(t)

	var attempts atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/applications/public", func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"git repository could not be reached"}`))
	})

	client, _ := newTestClient(t, mux)
	_, err := client.CreateApplication(context.Background(), AppCreateRequest{Name: "demo-a"})

	g.Expect(errors.Is(err, ErrRepoUnreachable)).To(gomega.BeTrue(), "got: %v", err)
	g.Expect(attempts.Load()).To(gomega.Equal(int32(1)))
}

func TestCreateApplicationInjectsServerUUID(t *testing.T) {
	g := gomega.NewWithT(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/applications/public", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		g.Expect(json.NewDecoder(r.Body).Decode(&body)).To(gomega.Succeed())
		g.Expect(body["server_uuid"]).To(gomega.Equal("srv-0"))
		g.Expect(body["ports_exposes"]).To(gomega.Equal("3000"))
		g.Expect(body["instant_deploy"]).To(gomega.Equal(true))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"uuid":"app-1"}`))
	})

	client, _ := newTestClient(t, mux)
	uuid, err := client.CreateApplication(context.Background(), AppCreateRequest{
		ProjectUUID:     "proj-1",
		EnvironmentUUID: "env-1",
		Name:            "demo-a",
		GitRepository:   "https://github.com/acme/demo",
		GitBranch:       "main",
		BuildPack:       "nixpacks",
		PortsExposes:    "3000",
		InstantDeploy:   true,
	})

	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(uuid).To(gomega.Equal("app-1"))
}

func TestCreateDatabaseRedisOmitsPassword(t *testing.T) {
	g := gomega.NewWithT(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/databases/redis", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		g.Expect(json.NewDecoder(r.Body).Decode(&body)).To(gomega.Succeed())
		for key := range body {
			g.Expect(key).NotTo(gomega.ContainSubstring("password"), "redis payload must not carry a password")
		}
		g.Expect(body["instant_deploy"]).To(gomega.Equal(true))
		g.Expect(body["name"]).To(gomega.Equal("demo-a-cache"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"uuid":"db-redis-1"}`))
	})

	client, _ := newTestClient(t, mux)
	uuid, err := client.CreateDatabase(context.Background(), DatabaseCreateRequest{
		ProjectUUID:     "proj-1",
		EnvironmentUUID: "env-1",
		Kind:            credentials.KindRedis,
		Name:            "demo-a-cache",
		Password:        "ignored",
	})

	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(uuid).To(gomega.Equal("db-redis-1"))
}

func TestCreateDatabasePostgresPayload(t *testing.T) {
	g := gomega.NewWithT(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/databases/postgresql", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		g.Expect(json.NewDecoder(r.Body).Decode(&body)).To(gomega.Succeed())
		g.Expect(body["postgres_user"]).To(gomega.Equal("dbuser"))
		g.Expect(body["postgres_password"]).To(gomega.Equal("pw123"))
		g.Expect(body["postgres_db"]).To(gomega.Equal("demo_a_main"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"uuid":"db-pg-1"}`))
	})

	client, _ := newTestClient(t, mux)
	uuid, err := client.CreateDatabase(context.Background(), DatabaseCreateRequest{
		ProjectUUID:     "proj-1",
		EnvironmentUUID: "env-1",
		Kind:            credentials.KindPostgreSQL,
		Name:            "demo-a-main",
		Password:        "pw123",
	})

	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(uuid).To(gomega.Equal("db-pg-1"))
}

func TestStartApplicationFallsBackToPost(t *testing.T) {
	g := gomega.NewWithT(t)

	var posted atomic.Bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/applications/app-1/start", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
	mux.HandleFunc("POST /api/v1/applications/app-1/start", func(w http.ResponseWriter, r *http.Request) {
		posted.Store(true)
		w.WriteHeader(http.StatusOK)
	})

	client, _ := newTestClient(t, mux)
	err := client.StartApplication(context.Background(), "app-1")

	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(posted.Load()).To(gomega.BeTrue())
}

func TestSetApplicationDomainIdenticalConflictIsNoop(t *testing.T) {
	g := gomega.NewWithT(t)

	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/v1/applications/app-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"domain already configured"}`))
	})
	mux.HandleFunc("GET /api/v1/applications/app-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"uuid":"app-1","fqdn":"https://demo-a.apps.example.com"}`))
	})

	client, _ := newTestClient(t, mux)
	err := client.SetApplicationDomain(context.Background(), "app-1", "demo-a.apps.example.com")

	g.Expect(err).NotTo(gomega.HaveOccurred())
}

func TestSetApplicationDomainForeignConflict(t *testing.T) {
	g := gomega.NewWithT(t)

	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /api/v1/applications/app-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"domain already configured"}`))
	})
	mux.HandleFunc("GET /api/v1/applications/app-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"uuid":"app-1","fqdn":"https://other.apps.example.com"}`))
	})

	client, _ := newTestClient(t, mux)
	err := client.SetApplicationDomain(context.Background(), "app-1", "demo-a.apps.example.com")

	g.Expect(errors.Is(err, ErrDomainConflict)).To(gomega.BeTrue(), "got: %v", err)
}

func TestSetEnvVarsPartialSuccess(t *testing.T) {
	g := gomega.NewWithT(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/applications/app-1/envs", func(w http.ResponseWriter, r *http.Request) {
		var entry EnvVarEntry
		g.Expect(json.NewDecoder(r.Body).Decode(&entry)).To(gomega.Succeed())
		if entry.Key == "BROKEN" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"invalid key"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	client, _ := newTestClient(t, mux)
	results := client.SetEnvVars(context.Background(), "app-1", []EnvVarEntry{
		{Key: "NODE_ENV", Value: "production"},
		{Key: "BROKEN", Value: "x"},
		{Key: "MAIN_URL", Value: "postgresql://..."},
	})

	g.Expect(results).To(gomega.HaveLen(3))
	g.Expect(results[0].Success).To(gomega.BeTrue())
	g.Expect(results[1].Success).To(gomega.BeFalse())
	g.Expect(results[1].Error).NotTo(gomega.BeEmpty())
	g.Expect(results[2].Success).To(gomega.BeTrue())
}

func TestApplicationStatusParsesCombinedState(t *testing.T) {
	g := gomega.NewWithT(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/applications/app-1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"uuid":"app-1","status":"running:healthy"}`))
	})

	client, _ := newTestClient(t, mux)
	status, err := client.ApplicationStatus(context.Background(), "app-1")

	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(status.State).To(gomega.Equal(StateRunning))
	g.Expect(status.Status).To(gomega.Equal("healthy"))
}

func TestDeleteNotFoundIsSuccess(t *testing.T) {
	g := gomega.NewWithT(t)

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /api/v1/projects/proj-1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	client, _ := newTestClient(t, mux)
	g.Expect(client.DeleteProject(context.Background(), "proj-1")).To(gomega.Succeed())
}

func TestListApplicationsFiltersByProject(t *testing.T) {
	g := gomega.NewWithT(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/applications", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"uuid":"app-1","project_uuid":"proj-1"},
			{"uuid":"app-2","project_uuid":"proj-2"},
			{"uuid":"app-3","project_uuid":"proj-1"}]`))
	})

	client, _ := newTestClient(t, mux)
	apps, err := client.ListApplications(context.Background(), "proj-1")

	g.Expect(err).NotTo(gomega.HaveOccurred())
	g.Expect(apps).To(gomega.HaveLen(2))
	g.Expect(apps[0].UUID).To(gomega.Equal("app-1"))
	g.Expect(apps[1].UUID).To(gomega.Equal("app-3"))
}

func TestClassifyStatus(t *testing.T) {
	g := gomega.NewWithT(t)

	g.Expect(errors.Is(classifyStatus(404, ""), ErrNotFound)).To(gomega.BeTrue())
	g.Expect(errors.Is(classifyStatus(409, "Domain in use"), ErrDomainConflict)).To(gomega.BeTrue())
	g.Expect(errors.Is(classifyStatus(409, "duplicate name"), ErrNameTaken)).To(gomega.BeTrue())
	g.Expect(errors.Is(classifyStatus(422, "git clone failed"), ErrRepoUnreachable)).To(gomega.BeTrue())
	g.Expect(errors.Is(classifyStatus(400, "bad field"), ErrValidation)).To(gomega.BeTrue())
	g.Expect(errors.Is(classifyStatus(503, "down"), ErrBackendUnavailable)).To(gomega.BeTrue())
}
