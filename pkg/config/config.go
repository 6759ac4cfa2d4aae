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

package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variable keys. A YAML config file (see LoadFile) may supply the
// same values; environment variables take precedence.
const (
	EnvServerIP       = "SERVER_IP"
	EnvPaaSURL        = "PAAS_URL"
	EnvPaaSAPIToken   = "PAAS_API_TOKEN"
	EnvDNSURL         = "DNS_URL"
	EnvDNSAPIKey      = "DNS_API_KEY"
	EnvBaseDomain     = "BASE_DOMAIN"
	EnvServerUUID     = "SERVER_UUID"
	EnvDefaultGitRepo = "DEFAULT_GIT_REPO"
	EnvAPIKey         = "API_KEY"
	EnvListenPort     = "PORT"
	EnvStorageDSN     = "STORAGE_DSN"
	EnvProxySitesDir  = "PROXY_SITES_DIR"
)

// DefaultListenPort is used when PORT is not set.
const DefaultListenPort = "8080"

// Config holds the process configuration. All values are immutable after
// Load returns.
type Config struct {
	ServerIP       string `yaml:"serverIp"`
	PaaSURL        string `yaml:"paasUrl"`
	PaaSAPIToken   string `yaml:"paasApiToken"`
	DNSURL         string `yaml:"dnsUrl"`
	DNSAPIKey      string `yaml:"dnsApiKey"`
	BaseDomain     string `yaml:"baseDomain"`
	ServerUUID     string `yaml:"serverUuid"`
	DefaultGitRepo string `yaml:"defaultGitRepo"`
	APIKey         string `yaml:"apiKey"`
	ListenPort     string `yaml:"listenPort"`

	// Optional integrations.
	StorageDSN    string `yaml:"storageDsn"`
	ProxySitesDir string `yaml:"proxySitesDir"`
}

// Load builds the configuration from an optional YAML file overlaid with
// environment variables. Missing required values are collected and reported
// together so operators see every problem at once.
func Load(filePath string) (*Config, error) {
	cfg := &Config{}

	if filePath != "" {
		if err := loadFile(filePath, cfg); err != nil {
			return nil, err
		}
	}

	overlayEnv(cfg)

	if cfg.ListenPort == "" {
		cfg.ListenPort = DefaultListenPort
	}

	var missing []string
	for _, req := range []struct {
		key   string
		value string
	}{
		{EnvServerIP, cfg.ServerIP},
		{EnvPaaSURL, cfg.PaaSURL},
		{EnvPaaSAPIToken, cfg.PaaSAPIToken},
		{EnvDNSURL, cfg.DNSURL},
		{EnvDNSAPIKey, cfg.DNSAPIKey},
		{EnvBaseDomain, cfg.BaseDomain},
		{EnvServerUUID, cfg.ServerUUID},
		{EnvDefaultGitRepo, cfg.DefaultGitRepo},
		{EnvAPIKey, cfg.APIKey},
	} {
		if req.value == "" {
			missing = append(missing, req.key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	cfg.PaaSURL = strings.TrimSuffix(cfg.PaaSURL, "/")
	cfg.DNSURL = strings.TrimSuffix(cfg.DNSURL, "/")

	return cfg, nil
}

// DashboardURL returns the PaaS dashboard address shown to users in the
// deployment response.
func (c *Config) DashboardURL() string {
	return c.PaaSURL
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func overlayEnv(cfg *Config) {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.ServerIP, EnvServerIP)
	set(&cfg.PaaSURL, EnvPaaSURL)
	set(&cfg.PaaSAPIToken, EnvPaaSAPIToken)
	set(&cfg.DNSURL, EnvDNSURL)
	set(&cfg.DNSAPIKey, EnvDNSAPIKey)
	set(&cfg.BaseDomain, EnvBaseDomain)
	set(&cfg.ServerUUID, EnvServerUUID)
	set(&cfg.DefaultGitRepo, EnvDefaultGitRepo)
	set(&cfg.APIKey, EnvAPIKey)
	set(&cfg.ListenPort, EnvListenPort)
	set(&cfg.StorageDSN, EnvStorageDSN)
	set(&cfg.ProxySitesDir, EnvProxySitesDir)
}
