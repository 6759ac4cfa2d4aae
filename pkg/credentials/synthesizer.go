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

package credentials

import (
	"strconv"

	"github.com/launchpad-sh/launchpad/pkg/utils"
)

// EnvVar is one key/value pair injected into the application environment.
type EnvVar struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	IsBuildTime bool   `json:"isBuildTime"`
}

// EnvEntries synthesizes the environment variables for one realized
// database. Keys are prefixed with the uppercased logical name. Redis omits
// the user, password and database entries when empty.
func EnvEntries(logicalName string, c Credentials) []EnvVar {
	prefix := utils.EnvVarPrefix(logicalName)

	entries := []EnvVar{
		{Key: prefix + "_HOST", Value: c.Host},
		{Key: prefix + "_PORT", Value: strconv.Itoa(c.Port)},
	}
	if c.User != "" {
		entries = append(entries, EnvVar{Key: prefix + "_USER", Value: c.User})
	}
	if c.Password != "" {
		entries = append(entries, EnvVar{Key: prefix + "_PASSWORD", Value: c.Password})
	}
	if c.Kind != KindRedis {
		entries = append(entries, EnvVar{Key: prefix + "_DATABASE", Value: c.Database})
	}
	entries = append(entries, EnvVar{Key: prefix + "_URL", Value: c.ConnectionURL()})

	return entries
}

// Realized pairs a logical database name with its synthesized credentials,
// in declaration order.
type Realized struct {
	LogicalName string
	Credentials Credentials
}

// MergeEnv builds the full env-var list pushed to the application:
// user-provided entries first, then synthesized entries in database
// declaration order. The backend upserts per key, so a synthesized entry
// overrides a colliding user-provided one.
func MergeEnv(userVars []EnvVar, realized []Realized) []EnvVar {
	merged := make([]EnvVar, 0, len(userVars)+len(realized)*6)
	merged = append(merged, userVars...)
	for _, r := range realized {
		merged = append(merged, EnvEntries(r.LogicalName, r.Credentials)...)
	}
	return merged
}

// Flatten resolves the effective value per key from an ordered env list,
// later entries winning.
func Flatten(entries []EnvVar) map[string]string {
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		out[e.Key] = e.Value
	}
	return out
}
