package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aimanaqimie/halal-supply-chain-dapp/internal/config"
)

func TestTLSProperties(t *testing.T) {
	props, err := tlsProperties(config.TLS{})
	require.NoError(t, err)
	assert.True(t, props.Disabled)

	dir := t.TempDir()
	write := func(name, content string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
		return p
	}
	props, err = tlsProperties(config.TLS{
		Enabled:  true,
		Key:      write("key.pem", "KEY"),
		Cert:     write("cert.pem", "CERT"),
		ClientCA: write("ca.pem", "CA"),
	})
	require.NoError(t, err)
	assert.False(t, props.Disabled)
	assert.Equal(t, []byte("KEY"), props.Key)
	assert.Equal(t, []byte("CERT"), props.Cert)
	assert.Equal(t, []byte("CA"), props.ClientCACerts)

	_, err = tlsProperties(config.TLS{Enabled: true, Key: filepath.Join(dir, "missing.pem")})
	assert.ErrorContains(t, err, "TLS key")
}

func TestNewServer(t *testing.T) {
	server, err := newServer(config.Chaincode{ID: "halal:1234", Address: "0.0.0.0:9999"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "halal:1234", server.CCID)
	assert.Equal(t, "0.0.0.0:9999", server.Address)
	assert.True(t, server.TLSProps.Disabled)
}
