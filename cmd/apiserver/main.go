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

// The launchpad API server: accepts deployment specs over HTTP/JSON and
// drives the PaaS, DNS and reverse-proxy backends to a running, publicly
// reachable application.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/launchpad-sh/launchpad/pkg/auth"
	"github.com/launchpad-sh/launchpad/pkg/config"
	"github.com/launchpad-sh/launchpad/pkg/dns"
	"github.com/launchpad-sh/launchpad/pkg/executor"
	"github.com/launchpad-sh/launchpad/pkg/handlers"
	"github.com/launchpad-sh/launchpad/pkg/paas"
	"github.com/launchpad-sh/launchpad/pkg/pipeline"
	"github.com/launchpad-sh/launchpad/pkg/proxy"
	"github.com/launchpad-sh/launchpad/pkg/services"
	"github.com/launchpad-sh/launchpad/pkg/storage"
)

var version = "dev"

func main() {
	var configFile string

	root := &cobra.Command{
		Use:          "apiserver",
		Short:        "launchpad deployment API server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configFile)
		},
	}
	root.Flags().StringVar(&configFile, "config", "", "optional YAML config file; environment variables take precedence")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(configFile string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(configFile)
	if err != nil {
		logger.Error("configuration error", zap.Error(err))
		return err
	}

	paasClient := paas.NewClient(cfg.PaaSURL, cfg.PaaSAPIToken, cfg.ServerUUID, logger)
	dnsClient := dns.NewClient(cfg.DNSURL, cfg.DNSAPIKey, logger)

	adapters := pipeline.Adapters{
		PaaS:     paasClient,
		DNS:      dnsClient,
		Verifier: dns.NewVerifier(cfg.ServerIP + ":53"),
	}

	if cfg.ProxySitesDir != "" {
		exec := executor.New([]string{cfg.ProxySitesDir, "/etc/containers", "/var/log/launchpad", os.TempDir()}, logger)
		adapters.Proxy = proxy.NewPublisher(exec, cfg.ProxySitesDir, logger)
	}

	if cfg.StorageDSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		provisioner, err := storage.New(ctx, cfg.StorageDSN, logger)
		cancel()
		if err != nil {
			logger.Error("storage server connection failed", zap.Error(err))
			return err
		}
		defer provisioner.Close()
		adapters.Storage = provisioner
	}

	pipe := pipeline.New(adapters, pipeline.Options{
		BaseDomain:     cfg.BaseDomain,
		ServerIP:       cfg.ServerIP,
		DefaultGitRepo: cfg.DefaultGitRepo,
		DashboardURL:   cfg.DashboardURL(),
	}, logger)

	deploymentService := services.NewDeploymentService(pipe, cfg.BaseDomain, cfg.DashboardURL(), logger)
	projectService := services.NewProjectService(paasClient, dnsClient, cfg.BaseDomain, version, logger)

	router := buildRouter(cfg, deploymentService, projectService)

	server := &http.Server{
		Addr:    ":" + cfg.ListenPort,
		Handler: router,
	}

	go func() {
		logger.Info("starting API server", zap.String("port", cfg.ListenPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("server exited")
	return nil
}

func buildRouter(cfg *config.Config, deployments *services.DeploymentService, projects *services.ProjectService) *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	healthHandler := handlers.NewHealthHandler(projects)
	deploymentHandler := handlers.NewDeploymentHandler(deployments)
	projectHandler := handlers.NewProjectHandler(projects, deployments)

	router.GET("/api/health", healthHandler.Health)

	authenticated := router.Group("/api")
	authenticated.Use(auth.NewAPIKeyAuthenticator(cfg.APIKey).Middleware())
	{
		authenticated.POST("/deploy/complete", deploymentHandler.Deploy)
		authenticated.GET("/projects", projectHandler.ListProjects)
		authenticated.DELETE("/projects/:uuid", projectHandler.DeleteProject)
	}

	return router
}
