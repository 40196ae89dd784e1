package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("TEST_BUCKET", "my-datasets")

	raw := `
server:
  address: ":9090"
  cors_origins:
    - http://localhost:5173
auth:
  issuer: https://issuer.example.com
  audience: my-client
storage:
  backend: s3
  bucket: ${TEST_BUCKET}
  region: us-east-1
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "https://issuer.example.com", cfg.Auth.Issuer)
	assert.Equal(t, "my-datasets", cfg.Storage.Bucket, "env var expanded")
	assert.Equal(t, "us-east-1", cfg.Storage.Region)

	// Defaults fill unset fields.
	assert.Equal(t, time.Hour, cfg.Auth.KeyTTL)
	assert.Equal(t, 30*time.Second, cfg.Storage.RequestTimeout)
	assert.Equal(t, time.Hour, cfg.Storage.PresignTTL)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server: [not a map"), 0o600))
		_, err := Load(path)
		assert.Error(t, err)
	})
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "s3", cfg.Storage.Backend)
	assert.Equal(t, "eu-north-1", cfg.Storage.Region)
}
