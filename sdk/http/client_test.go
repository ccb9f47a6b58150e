package http

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("no-ca", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		client, err := NewClient("")
		require.NoError(err)
		require.NotNil(client)
		assert.NotNil(client.Transport)
	})
	t.Run("valid-ca", func(t *testing.T) {
		t.Parallel()
		require := require.New(t)
		client, err := NewClient(testCertPEM(t))
		require.NoError(err)
		require.NotNil(client)
	})
	t.Run("invalid-ca", func(t *testing.T) {
		t.Parallel()
		assert, require := assert.New(t), require.New(t)
		client, err := NewClient("not a pem")
		require.Error(err)
		assert.ErrorIs(err, ErrInvalidCertificatePem)
		assert.Nil(client)
	})
}

func testCertPEM(t *testing.T) string {
	t.Helper()
	require := require.New(t)
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(err)

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test ca"},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}
	derBytes, err := x509.CreateCertificate(rand.Reader, &template, &template, key.Public(), key)
	require.NoError(err)

	return string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: derBytes}))
}
