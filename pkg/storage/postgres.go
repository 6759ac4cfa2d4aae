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

// Package storage provisions databases on the shared storage server over a
// native PostgreSQL connection, replacing shelled psql invocations.
package storage

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// identifierPattern limits role and database names to what we generate
// ourselves: lowercase alphanumerics and underscores.
var identifierPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Provisioner creates roles and databases on the storage server.
type Provisioner struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// New connects to the storage server. The pool is shared and thread-safe.
func New(ctx context.Context, dsn string, log *zap.Logger) (*Provisioner, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage server: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage server unreachable: %w", err)
	}
	return &Provisioner{pool: pool, log: log.With(zap.String("component", "storage"))}, nil
}

// Close releases the connection pool.
func (p *Provisioner) Close() {
	p.pool.Close()
}

// EnsureDatabase creates the role and database if they do not exist. Names
// are validated against the generated-identifier pattern; DDL cannot take
// bind parameters, so validation is the injection boundary.
func (p *Provisioner) EnsureDatabase(ctx context.Context, name, owner, password string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid database name %q", name)
	}
	if !identifierPattern.MatchString(owner) {
		return fmt.Errorf("invalid role name %q", owner)
	}

	var roleExists bool
	if err := p.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_roles WHERE rolname = $1)", owner).Scan(&roleExists); err != nil {
		return fmt.Errorf("failed to check role %s: %w", owner, err)
	}
	if !roleExists {
		if _, err := p.pool.Exec(ctx, fmt.Sprintf("CREATE ROLE %q LOGIN PASSWORD '%s'", owner, sanitizeLiteral(password))); err != nil {
			return fmt.Errorf("failed to create role %s: %w", owner, err)
		}
	}

	var dbExists bool
	if err := p.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", name).Scan(&dbExists); err != nil {
		return fmt.Errorf("failed to check database %s: %w", name, err)
	}
	if !dbExists {
		if _, err := p.pool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %q OWNER %q", name, owner)); err != nil {
			return fmt.Errorf("failed to create database %s: %w", name, err)
		}
		p.log.Info("provisioned storage database", zap.String("database", name), zap.String("owner", owner))
	}

	return nil
}

// DropDatabase removes a database during teardown. Missing databases are
// success.
func (p *Provisioner) DropDatabase(ctx context.Context, name string) error {
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid database name %q", name)
	}
	if _, err := p.pool.Exec(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS %q", name)); err != nil {
		return fmt.Errorf("failed to drop database %s: %w", name, err)
	}
	return nil
}

// sanitizeLiteral escapes single quotes in a string literal.
func sanitizeLiteral(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\'' {
			out = append(out, '\'')
		}
		out = append(out, s[i])
	}
	return string(out)
}
