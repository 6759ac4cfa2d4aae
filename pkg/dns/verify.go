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

package dns

import (
	"context"
	"fmt"
	"time"

	mdns "github.com/miekg/dns"
)

// Verifier checks that a record actually resolves against the
// authoritative server, independent of the HTTP API's view.
type Verifier struct {
	// ServerAddr is the authoritative server's host:port, e.g. "10.0.0.2:53".
	ServerAddr string
	Timeout    time.Duration
}

// NewVerifier builds a verifier against the given authoritative server.
func NewVerifier(serverAddr string) *Verifier {
	return &Verifier{ServerAddr: serverAddr, Timeout: 5 * time.Second}
}

// VerifyARecord queries the authoritative server for fqdn and reports
// whether it answers with the expected IPv4 address.
func (v *Verifier) VerifyARecord(ctx context.Context, fqdn, expectedIP string) error {
	m := new(mdns.Msg)
	m.SetQuestion(mdns.Fqdn(fqdn), mdns.TypeA)

	client := &mdns.Client{Timeout: v.Timeout}
	resp, _, err := client.ExchangeContext(ctx, m, v.ServerAddr)
	if err != nil {
		return fmt.Errorf("authoritative query for %s failed: %w", fqdn, err)
	}
	if resp.Rcode != mdns.RcodeSuccess {
		return fmt.Errorf("authoritative server returned %s for %s", mdns.RcodeToString[resp.Rcode], fqdn)
	}

	for _, rr := range resp.Answer {
		if a, ok := rr.(*mdns.A); ok && a.A.String() == expectedIP {
			return nil
		}
	}
	return fmt.Errorf("no A record for %s pointing at %s", fqdn, expectedIP)
}
