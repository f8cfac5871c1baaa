package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "abuse-rec/internal/platform/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]string{"example.com"})
	require.NoError(t, err)

	assert.Equal(t, "example.com", cfg.Domain)
	assert.Equal(t, DefaultTimeoutMS, cfg.TimeoutMS)
	assert.Equal(t, 15*time.Second, cfg.Timeout())
	assert.Equal(t, DefaultRDAPBase, cfg.RDAPBase)
	assert.Equal(t, DefaultAltAPIBase, cfg.AltAPIBase)
	assert.Equal(t, DefaultScrapeBase, cfg.ScrapeBase)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.Equal(t, float64(DefaultScanRate), cfg.ScanRate)
	assert.Empty(t, cfg.Disable)
	assert.NoError(t, cfg.Validate())
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]string{
		"-domain", "evil.pages.dev",
		"-timeout", "2500",
		"-disable", " scraped, alt-api ,",
		"-whois-server", "whois.example:4343",
		"-subdomains",
		"-v", "2",
	})
	require.NoError(t, err)

	assert.Equal(t, "evil.pages.dev", cfg.Domain)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout())
	assert.Equal(t, []string{"scraped", "alt-api"}, cfg.Disable)
	assert.Equal(t, "whois.example:4343", cfg.WhoisServer)
	assert.True(t, cfg.Subdomains)
	assert.Equal(t, 2, cfg.Verbosity)
}

func TestParseUnknownFlag(t *testing.T) {
	t.Parallel()

	_, err := Parse([]string{"-nope"})
	require.Error(t, err)
	assert.True(t, perrors.IsConfiguration(err))
}

func TestParseYAMLFileFillsUnsetFlags(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "abuse-rec.yaml", `
domain: from-file.com
timeout: 4000
disable:
  - scraped
rdap_base: https://rdap.example/
log_json: true
`)

	cfg, err := Parse([]string{"-config", path, "-timeout", "900"})
	require.NoError(t, err)

	assert.Equal(t, "from-file.com", cfg.Domain)
	assert.Equal(t, 900, cfg.TimeoutMS, "el flag explícito gana al archivo")
	assert.Equal(t, []string{"scraped"}, cfg.Disable)
	assert.Equal(t, "https://rdap.example/", cfg.RDAPBase)
	assert.True(t, cfg.LogJSON)
}

func TestParseJSONFileWithCSVDisable(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "cfg.json", `{"serve": ":8080", "disable": "alt-api,scraped", "scan_rate": 5}`)

	cfg, err := Parse([]string{"-config", path})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Serve)
	assert.Equal(t, []string{"alt-api", "scraped"}, cfg.Disable)
	assert.Equal(t, 5.0, cfg.ScanRate)
	assert.NoError(t, cfg.Validate())
}

func TestParseConfigFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cases := map[string]string{
		"missing":   filepath.Join(dir, "nope.yaml"),
		"directory": dir,
		"invalid":   writeFile(t, "bad.json", `{"timeout": "x"`),
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]string{"-config", path})
			require.Error(t, err)
			assert.True(t, perrors.IsConfiguration(err))
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() Config {
		return Config{
			Domain:     "example.com",
			TimeoutMS:  DefaultTimeoutMS,
			RDAPBase:   DefaultRDAPBase,
			AltAPIBase: DefaultAltAPIBase,
			ScrapeBase: DefaultScrapeBase,
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "sin dominio", mutate: func(c *Config) { c.Domain = "" }, field: "domain"},
		{name: "dominio inválido", mutate: func(c *Config) { c.Domain = "not a domain" }, field: "domain"},
		{name: "timeout cero", mutate: func(c *Config) { c.TimeoutMS = 0 }, field: "timeout"},
		{name: "scan rate negativo", mutate: func(c *Config) { c.ScanRate = -1 }, field: "scan-rate"},
		{name: "base relativa", mutate: func(c *Config) { c.RDAPBase = "rdap.org" }, field: "rdap-base"},
		{name: "esquema ftp", mutate: func(c *Config) { c.ScrapeBase = "ftp://whois.com/" }, field: "scrape-base"},
		{name: "resolver con espacios", mutate: func(c *Config) { c.Resolver = "1.1.1.1 53" }, field: "resolver"},
		{name: "serve sin puerto", mutate: func(c *Config) { c.Serve = "localhost" }, field: "serve"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var cfgErr *perrors.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}

	t.Run("serve sin dominio", func(t *testing.T) {
		t.Parallel()
		cfg := base()
		cfg.Domain = ""
		cfg.Serve = ":8080"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("resolver sin puerto", func(t *testing.T) {
		t.Parallel()
		cfg := base()
		cfg.Resolver = "9.9.9.9"
		assert.NoError(t, cfg.Validate())
	})
}

func TestApplyProxyRejectsBadURLs(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ApplyProxy(""))
	assert.NoError(t, ConfigureRootCAs(""))
	for _, proxy := range []string{"127.0.0.1:8080", "socks5://127.0.0.1:1080"} {
		err := ApplyProxy(proxy)
		require.Error(t, err, proxy)
		assert.True(t, perrors.IsConfiguration(err), proxy)
	}
}

func TestConfigureRootCAsInvalidFile(t *testing.T) {
	t.Parallel()

	err := ConfigureRootCAs(writeFile(t, "ca.pem", "not a certificate"))
	require.Error(t, err)
	assert.True(t, perrors.IsConfiguration(err))

	err = ConfigureRootCAs(filepath.Join(t.TempDir(), "missing.pem"))
	assert.True(t, perrors.IsConfiguration(err))
}
