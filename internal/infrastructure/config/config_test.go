package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("test", writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "test", cfg.Server.Mode)
	assert.Equal(t, 5, cfg.Poller.IntervalSeconds)
	assert.Equal(t, "B2", cfg.Document.Cells.Status)
	assert.Equal(t, "A14:G", cfg.Document.Cells.RawListing)
	assert.Equal(t, "substring", cfg.Reconcile.TenantMatchStrategy)
	assert.Same(t, cfg, Get())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("LICENSESYNC_DOCUMENT_DOCUMENT_ID", "sheet-from-env")

	cfg, err := Load("", writeConfig(t, "document:\n  document_id: from-file\n"))
	require.NoError(t, err)
	assert.Equal(t, "sheet-from-env", cfg.Document.DocumentID)
}

func TestLoad_RejectsOutOfRangeInterval(t *testing.T) {
	_, err := Load("", writeConfig(t, "poller:\n  interval_seconds: 120\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid poller config")
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	_, err := Load("", writeConfig(t, "document:\n  backend: ftp\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid document config")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load("", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
