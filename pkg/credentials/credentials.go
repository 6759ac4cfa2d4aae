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

// Package credentials models access parameters for backing databases and
// derives the environment variables an application needs to reach them.
package credentials

import (
	"fmt"

	"github.com/launchpad-sh/launchpad/pkg/utils"
)

// Kind identifies a supported database engine.
type Kind string

const (
	KindPostgreSQL Kind = "postgresql"
	KindMySQL      Kind = "mysql"
	KindRedis      Kind = "redis"
	KindMongoDB    Kind = "mongodb"
)

// SupportedKinds lists every database kind the deploy API accepts.
var SupportedKinds = []Kind{KindPostgreSQL, KindMySQL, KindRedis, KindMongoDB}

// ValidKind reports whether k names a supported database engine.
func ValidKind(k string) bool {
	for _, s := range SupportedKinds {
		if Kind(k) == s {
			return true
		}
	}
	return false
}

// DefaultPort returns the conventional port for a database kind.
func DefaultPort(k Kind) int {
	switch k {
	case KindPostgreSQL:
		return 5432
	case KindMySQL:
		return 3306
	case KindRedis:
		return 6379
	case KindMongoDB:
		return 27017
	}
	return 0
}

// defaultUser returns the user provisioned at database creation. Redis has
// no user concept and the backend's redis create endpoint rejects password
// fields, so redis credentials carry neither.
func defaultUser(k Kind) string {
	switch k {
	case KindPostgreSQL, KindMySQL:
		return "dbuser"
	case KindMongoDB:
		return "admin"
	}
	return ""
}

// Credentials holds synthesized access parameters for one database.
// Instances are immutable once created; ConnectionURL is always derived from
// the other fields and never stored.
type Credentials struct {
	Kind     Kind   `json:"kind"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`
	Database string `json:"database,omitempty"`
}

// New derives credentials for a database from the project and logical names
// plus the generated password. The host is the database container hostname,
// reachable over the internal network.
func New(kind Kind, projectName, logicalName, password string) Credentials {
	c := Credentials{
		Kind: kind,
		Host: utils.DatabaseHostname(projectName, logicalName),
		Port: DefaultPort(kind),
		User: defaultUser(kind),
	}
	switch kind {
	case KindRedis:
		// Backend bug: the redis create endpoint rejects a password field,
		// so the instance comes up unauthenticated.
		c.Password = ""
	default:
		c.Password = password
		c.Database = utils.SanitizeDatabaseName(c.Host)
	}
	return c
}

// ConnectionURL builds the kind-specific DSN. It is a pure function of the
// remaining credential fields.
func (c Credentials) ConnectionURL() string {
	switch c.Kind {
	case KindPostgreSQL:
		return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database)
	case KindMySQL:
		return fmt.Sprintf("mysql://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database)
	case KindRedis:
		if c.Password == "" {
			return fmt.Sprintf("redis://%s:%d", c.Host, c.Port)
		}
		return fmt.Sprintf("redis://:%s@%s:%d", c.Password, c.Host, c.Port)
	case KindMongoDB:
		return fmt.Sprintf("mongodb://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database)
	}
	return ""
}
