package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
app:
  name: furniture-checkout
  env: dev
  http_addr: ":8080"

http:
  read_timeout: 10s
  write_timeout: 15s
  idle_timeout: 60s

gateway:
  base_url: "http://localhost:9090/api"
  timeout: 15s

poller:
  grace_delay: 5s
  poll_interval: 3s
  max_polls: 10
  optimistic_delay: 20s
  no_handle_policy: assume_success
`

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", baseYAML)

	cfg, err := Load(dir, "dev")
	require.NoError(t, err)

	assert.Equal(t, "furniture-checkout", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, "http://localhost:9090/api", cfg.Gateway.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Poller.GraceDelay)
	assert.Equal(t, 10, cfg.Poller.MaxPolls)
	assert.Equal(t, "assume_success", cfg.Poller.NoHandlePolicy)
}

func TestLoadEnvOverlayFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", baseYAML)
	writeConfig(t, dir, "prod.yaml", `
app:
  env: prod
poller:
  no_handle_policy: time_out
`)

	cfg, err := Load(dir, "prod")
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, "time_out", cfg.Poller.NoHandlePolicy)
	// untouched keys keep their base values
	assert.Equal(t, ":8080", cfg.App.HTTPAddr)
}

func TestLoadEnvVarsOverride(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "base.yaml", baseYAML)

	t.Setenv("CHECKOUT_GATEWAY__AUTH_TOKEN", "secret-token")
	t.Setenv("CHECKOUT_APP__HTTP_ADDR", ":9999")

	cfg, err := Load(dir, "dev")
	require.NoError(t, err)

	assert.Equal(t, "secret-token", cfg.Gateway.AuthToken)
	assert.Equal(t, ":9999", cfg.App.HTTPAddr)
}

func TestLoadMissingBase(t *testing.T) {
	_, err := Load(t.TempDir(), "dev")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{}
	valid.App.HTTPAddr = ":8080"
	valid.Gateway.BaseURL = "http://example.com"
	require.NoError(t, valid.Validate())

	missingAddr := valid
	missingAddr.App.HTTPAddr = ""
	assert.Error(t, missingAddr.Validate())

	missingGateway := valid
	missingGateway.Gateway.BaseURL = ""
	assert.Error(t, missingGateway.Validate())

	negativePolls := valid
	negativePolls.Poller.MaxPolls = -1
	assert.Error(t, negativePolls.Validate())

	badPolicy := valid
	badPolicy.Poller.NoHandlePolicy = "maybe"
	assert.Error(t, badPolicy.Validate())

	timeOutPolicy := valid
	timeOutPolicy.Poller.NoHandlePolicy = "time_out"
	assert.NoError(t, timeOutPolicy.Validate())
}
