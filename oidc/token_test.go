package oidc

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToken_redaction(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)

	tk := &Token{
		AccessToken: "shhh-access",
		IDToken:     "shhh-id",
	}
	assert.Equal(RedactedAccessToken, tk.AccessToken.String())
	assert.Equal(RedactedIDToken, tk.IDToken.String())

	b, err := json.Marshal(tk)
	require.NoError(err)
	assert.NotContains(string(b), "shhh-access")
	assert.NotContains(string(b), "shhh-id")
}

func TestToken_Expired(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		expiry time.Time
		want   bool
	}{
		{name: "not-expired", expiry: time.Now().Add(1 * time.Hour), want: false},
		{name: "expired", expiry: time.Now().Add(-1 * time.Hour), want: true},
		{name: "within-skew", expiry: time.Now().Add(5 * time.Second), want: true},
		{name: "no-expiry-reported", expiry: time.Time{}, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tk := &Token{AccessToken: "access", Expiry: tt.expiry}
			assert.Equal(t, tt.want, tk.Expired())
		})
	}
}

func TestToken_Valid(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)

	var nilToken *Token
	assert.False(nilToken.Valid())
	assert.False((&Token{}).Valid())
	assert.False((&Token{AccessToken: "access", Expiry: time.Now().Add(-time.Minute)}).Valid())
	assert.True((&Token{AccessToken: "access", Expiry: time.Now().Add(time.Hour)}).Valid())
}
