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

// Package proxy publishes per-site reverse-proxy config files. Publication
// is backup, write, validate, reload; a failed validation restores the
// pre-write state so the global proxy config never stays broken.
package proxy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Executor is the slice of the local executor the publisher needs.
type Executor interface {
	WriteFile(path string, data []byte, perm os.FileMode) error
	ReadFile(path string) ([]byte, error)
	Remove(path string) error
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// Publisher writes Caddy site files and reloads the proxy service.
// Writes to the same site file are serialized by a per-file lock.
type Publisher struct {
	exec     Executor
	sitesDir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	log *zap.Logger
}

// NewPublisher builds a publisher rooted at sitesDir. The directory must be
// inside the executor's allowlist.
func NewPublisher(exec Executor, sitesDir string, log *zap.Logger) *Publisher {
	return &Publisher{
		exec:     exec,
		sitesDir: filepath.Clean(sitesDir),
		locks:    make(map[string]*sync.Mutex),
		log:      log.With(zap.String("component", "proxy")),
	}
}

func (p *Publisher) fileLock(path string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[path]
	if !ok {
		l = &sync.Mutex{}
		p.locks[path] = l
	}
	return l
}

// sitePath maps a domain to its config file. Domains were validated as
// FQDNs upstream; the separator replacement is belt and braces.
func (p *Publisher) sitePath(domain string) string {
	name := strings.ReplaceAll(domain, string(filepath.Separator), "_")
	return filepath.Join(p.sitesDir, name+".caddy")
}

// siteConfig renders the Caddy site block routing the domain to a local
// upstream port.
func siteConfig(domain, upstreamPort string) string {
	return fmt.Sprintf("%s {\n\treverse_proxy localhost:%s\n\tencode gzip\n}\n", domain, upstreamPort)
}

// PublishSite writes the site file for domain, validates the global proxy
// config and reloads the service. On validation failure the previous file
// content is restored (or the new file removed if none existed).
func (p *Publisher) PublishSite(ctx context.Context, domain, upstreamPort string) error {
	path := p.sitePath(domain)

	lock := p.fileLock(path)
	lock.Lock()
	defer lock.Unlock()

	backup, backupErr := p.exec.ReadFile(path)
	hadPrevious := backupErr == nil

	if err := p.exec.WriteFile(path, []byte(siteConfig(domain, upstreamPort)), 0o644); err != nil {
		return fmt.Errorf("failed to write site config: %w", err)
	}

	if out, err := p.exec.Run(ctx, "caddy", "validate", "--config", "/etc/caddy/Caddyfile"); err != nil {
		p.log.Error("proxy config validation failed, reverting",
			zap.String("domain", domain),
			zap.String("output", out))
		if hadPrevious {
			if restoreErr := p.exec.WriteFile(path, backup, 0o644); restoreErr != nil {
				return fmt.Errorf("validation failed and restore failed: %v (validation: %w)", restoreErr, err)
			}
		} else {
			if rmErr := p.exec.Remove(path); rmErr != nil {
				return fmt.Errorf("validation failed and cleanup failed: %v (validation: %w)", rmErr, err)
			}
		}
		return fmt.Errorf("proxy config validation failed: %w", err)
	}

	if _, err := p.exec.Run(ctx, "systemctl", "reload", "caddy"); err != nil {
		return fmt.Errorf("proxy reload failed: %w", err)
	}

	p.log.Info("published site", zap.String("domain", domain), zap.String("upstream", "localhost:"+upstreamPort))
	return nil
}

// RemoveSite deletes the site file for domain and reloads the proxy.
// A missing file is success.
func (p *Publisher) RemoveSite(ctx context.Context, domain string) error {
	path := p.sitePath(domain)

	lock := p.fileLock(path)
	lock.Lock()
	defer lock.Unlock()

	if err := p.exec.Remove(path); err != nil {
		return err
	}
	if _, err := p.exec.Run(ctx, "systemctl", "reload", "caddy"); err != nil {
		return fmt.Errorf("proxy reload failed: %w", err)
	}
	return nil
}
