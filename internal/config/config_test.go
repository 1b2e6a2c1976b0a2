package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromYAMLAppliesDefaults(t *testing.T) {
	cfg, err := FromYAML([]byte("remote:\n  base_url: http://localhost:3000/api\n"))
	require.NoError(t, err)
	require.Equal(t, 15, cfg.Remote.TimeoutSeconds)
	require.Equal(t, "localhost:8090", cfg.Server.Address)
	require.Equal(t, "/v0", cfg.Server.BasePath)
	require.Equal(t, 30, cfg.Invoicing.DefaultPaymentTermsDays)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "console", cfg.Logging.Format)
	require.Equal(t, 15*time.Second, cfg.RemoteTimeout())
}

func TestFromYAMLValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing base url", "server:\n  address: localhost:1\n"},
		{"negative timeout", "remote:\n  base_url: http://x\n  timeout_seconds: -1\n"},
		{"negative retries", "remote:\n  base_url: http://x\n  retry_count: -1\n"},
		{"markup too high", "remote:\n  base_url: http://x\npricing:\n  default_markup_percentage: 300\n"},
		{"bad log level", "remote:\n  base_url: http://x\nlogging:\n  level: loud\n"},
		{"bad log format", "remote:\n  base_url: http://x\nlogging:\n  format: xml\n"},
		{"not yaml", "{{{"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := FromYAML([]byte(c.yaml))
			require.Error(t, err)
		})
	}
}

func TestGenerateDefaultRoundTrips(t *testing.T) {
	cfg, err := FromYAML([]byte(GenerateDefault("http://ops.example/api")))
	require.NoError(t, err)
	require.Equal(t, "http://ops.example/api", cfg.Remote.BaseURL)
	require.Equal(t, 2, cfg.Remote.RetryCount)
	require.Equal(t, 20, cfg.Pricing.DefaultMarkupPercentage)
	require.True(t, cfg.Invoicing.NotifyPilots)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "sky init")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "skyops.yml"),
		[]byte(GenerateDefault("http://localhost:3000/api")), 0o644))
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3000/api", cfg.Remote.BaseURL)
}

func TestDefault(t *testing.T) {
	cfg := Default("http://x")
	require.NoError(t, cfg.Validate())
	require.Equal(t, "http://x", cfg.Remote.BaseURL)
}
