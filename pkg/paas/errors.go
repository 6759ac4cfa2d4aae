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
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds surfaced by the adapter. Callers branch with errors.Is; raw
// HTTP details never leave this package.
var (
	ErrNameTaken          = errors.New("name already taken")
	ErrNotFound           = errors.New("resource not found")
	ErrValidation         = errors.New("backend rejected request")
	ErrRepoUnreachable    = errors.New("git repository unreachable")
	ErrDomainConflict     = errors.New("domain already bound")
	ErrResourceBusy       = errors.New("resource busy")
	ErrBackendUnavailable = errors.New("paas backend unavailable")
)

// classifyStatus maps a non-2xx backend response to an error kind.
func classifyStatus(status int, body string) error {
	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, body)
	case status == http.StatusConflict:
		if strings.Contains(strings.ToLower(body), "domain") {
			return fmt.Errorf("%w: %s", ErrDomainConflict, body)
		}
		return fmt.Errorf("%w: %s", ErrNameTaken, body)
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		lower := strings.ToLower(body)
		if strings.Contains(lower, "repository") || strings.Contains(lower, "git") {
			return fmt.Errorf("%w: %s", ErrRepoUnreachable, body)
		}
		return fmt.Errorf("%w: %s", ErrValidation, body)
	case status == http.StatusLocked || status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrResourceBusy, body)
	case status >= 500:
		return fmt.Errorf("%w: status %d: %s", ErrBackendUnavailable, status, body)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrValidation, status, body)
	}
}
