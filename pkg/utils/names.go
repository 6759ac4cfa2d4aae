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

package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// Naming conventions shared between the pipeline and the credential
// synthesizer. The database container hostname doubles as its in-network
// DNS name, so these must stay consistent.

// MaxProjectNameLength is the longest project name the API accepts.
const MaxProjectNameLength = 63

// projectNamePattern is the DNS-label rule: lowercase alphanumerics and
// hyphens, no leading or trailing hyphen.
var projectNamePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// ValidProjectName reports whether name satisfies the project naming rule.
func ValidProjectName(name string) bool {
	return len(name) <= MaxProjectNameLength && projectNamePattern.MatchString(name)
}

// DatabaseHostname returns the container hostname for a database, which is
// also how the application reaches it over the internal network.
func DatabaseHostname(projectName, logicalName string) string {
	return fmt.Sprintf("%s-%s", projectName, logicalName)
}

// SanitizeDatabaseName converts a hostname-style name into a valid SQL
// database name by replacing hyphens with underscores.
func SanitizeDatabaseName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// EnvVarPrefix derives the env-var prefix for a logical database name:
// uppercased, hyphens replaced with underscores.
func EnvVarPrefix(logicalName string) string {
	return strings.ToUpper(strings.ReplaceAll(logicalName, "-", "_"))
}
