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

// Package executor runs local commands and file operations against the
// host with path-allowlist enforcement. Filesystem writes are permitted
// only under a fixed set of prefixes; traversal and out-of-prefix paths
// are rejected before any syscall.
package executor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrPathNotAllowed is returned for any file operation whose resolved path
// falls outside the configured prefix set.
var ErrPathNotAllowed = errors.New("path outside allowed prefixes")

const healthCheckTimeout = 5 * time.Second

// Local executes commands and file writes on the host.
type Local struct {
	allowedPrefixes []string
	healthClient    *http.Client
	log             *zap.Logger
}

// New builds a Local executor. Prefixes are cleaned at construction; an
// empty set denies all file operations.
func New(allowedPrefixes []string, log *zap.Logger) *Local {
	cleaned := make([]string, 0, len(allowedPrefixes))
	for _, p := range allowedPrefixes {
		if p == "" {
			continue
		}
		cleaned = append(cleaned, filepath.Clean(p))
	}
	return &Local{
		allowedPrefixes: cleaned,
		healthClient:    &http.Client{Timeout: healthCheckTimeout},
		log:             log.With(zap.String("component", "executor")),
	}
}

// CheckPath validates a path against the allowlist. The raw path is
// rejected on any ".." element before resolution; the cleaned path must be
// absolute and sit under one of the allowed prefixes.
func (l *Local) CheckPath(path string) error {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("%w: traversal in %q", ErrPathNotAllowed, path)
		}
	}

	resolved := filepath.Clean(path)
	if !filepath.IsAbs(resolved) {
		return fmt.Errorf("%w: %q is not absolute", ErrPathNotAllowed, path)
	}
	for _, prefix := range l.allowedPrefixes {
		if resolved == prefix || strings.HasPrefix(resolved, prefix+string(filepath.Separator)) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrPathNotAllowed, path)
}

// WriteFile writes data to an allowlisted path.
func (l *Local) WriteFile(path string, data []byte, perm os.FileMode) error {
	if err := l.CheckPath(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads an allowlisted path.
func (l *Local) ReadFile(path string) ([]byte, error) {
	if err := l.CheckPath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// Remove deletes an allowlisted path. A missing file is success.
func (l *Local) Remove(path string) error {
	if err := l.CheckPath(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// Run executes a host command and returns its combined output.
func (l *Local) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("%s %s failed: %w: %s", name, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// HealthCheck performs a native HTTP GET against a localhost endpoint with
// a 5s timeout. Any 2xx or 3xx status is healthy.
func (l *Local) HealthCheck(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("invalid health check url %s: %w", url, err)
	}
	resp, err := l.healthClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check %s failed: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("health check %s returned status %d", url, resp.StatusCode)
	}
	return nil
}
