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

package storage

import (
	"testing"

	"github.com/onsi/gomega"
)

func TestIdentifierPattern(t *testing.T) {
	g := gomega.NewWithT(t)

	for _, name := range []string{"demo_a_main", "db1", "a"} {
		g.Expect(identifierPattern.MatchString(name)).To(gomega.BeTrue(), "expected %q to be valid", name)
	}
	for _, name := range []string{"", "Demo", "demo-a", "demo a", `demo"a`, "demo;drop"} {
		g.Expect(identifierPattern.MatchString(name)).To(gomega.BeFalse(), "expected %q to be rejected", name)
	}
}

func TestSanitizeLiteral(t *testing.T) {
	g := gomega.NewWithT(t)

	g.Expect(sanitizeLiteral("plain")).To(gomega.Equal("plain"))
	g.Expect(sanitizeLiteral("o'brien")).To(gomega.Equal("o''brien"))
	g.Expect(sanitizeLiteral("''")).To(gomega.Equal("''''"))
}
