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
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// PasswordLength is the length of generated database passwords
	PasswordLength = 16
	// PasswordCharset contains allowed characters for password generation
	PasswordCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// GeneratePassword returns a cryptographically secure alphanumeric password
// of PasswordLength characters.
func GeneratePassword() (string, error) {
	result := make([]byte, PasswordLength)
	charsetLen := big.NewInt(int64(len(PasswordCharset)))

	for i := range result {
		idx, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		result[i] = PasswordCharset[idx.Int64()]
	}

	return string(result), nil
}
