package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "halal.db", cfg.DB)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Empty(t, cfg.Chaincode.Address)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HALAL_DB", "/tmp/ledger.db")
	t.Setenv("HALAL_LOG_LEVEL", "debug")
	t.Setenv("HALAL_ADMIN", "0xAD01")
	t.Setenv("CHAINCODE_ID", "halal:abc123")
	t.Setenv("CHAINCODE_SERVER_ADDRESS", "0.0.0.0:9999")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ledger.db", cfg.DB)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "0xAD01", cfg.Admin)
	assert.Equal(t, "halal:abc123", cfg.Chaincode.ID)
	assert.Equal(t, "0.0.0.0:9999", cfg.Chaincode.Address)
}

func TestPrefixedChaincodeVariablesWin(t *testing.T) {
	t.Setenv("CHAINCODE_ID", "from-builder")
	t.Setenv("HALAL_CHAINCODE_ID", "from-operator")

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "from-operator", cfg.Chaincode.ID)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "halal.yaml")
	require.NoError(t, os.WriteFile(file, []byte("listen: localhost:9000\nlog:\n  format: console\n"), 0o600))

	cfg, err := Load(New(), file)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", cfg.Listen)
	assert.Equal(t, "console", cfg.Log.Format)

	_, err = Load(New(), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	t.Run("bad level", func(t *testing.T) {
		v := New()
		v.Set("log.level", "loud")
		_, err := Load(v, "")
		assert.ErrorContains(t, err, "invalid config")
	})

	t.Run("address without id", func(t *testing.T) {
		v := New()
		v.Set("chaincode.address", "0.0.0.0:9999")
		_, err := Load(v, "")
		assert.Error(t, err)
	})

	t.Run("tls needs key material", func(t *testing.T) {
		v := New()
		v.Set("chaincode.tls.enabled", true)
		_, err := Load(v, "")
		assert.Error(t, err)

		dir := t.TempDir()
		key := filepath.Join(dir, "key.pem")
		cert := filepath.Join(dir, "cert.pem")
		require.NoError(t, os.WriteFile(key, []byte("key"), 0o600))
		require.NoError(t, os.WriteFile(cert, []byte("cert"), 0o600))
		v.Set("chaincode.tls.key", key)
		v.Set("chaincode.tls.cert", cert)
		cfg, err := Load(v, "")
		require.NoError(t, err)
		assert.True(t, cfg.Chaincode.TLS.Enabled)
	})
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadDotEnv(filepath.Join(dir, ".env")))

	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("HALAL_LISTEN=localhost:7000\n"), 0o600))
	t.Setenv("HALAL_LISTEN", "")
	require.NoError(t, os.Unsetenv("HALAL_LISTEN"))
	require.NoError(t, LoadDotEnv(file))

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "localhost:7000", cfg.Listen)
}
