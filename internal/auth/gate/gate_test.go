package gate

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/civicdash/internal/auth/password"
	"github.com/smallbiznis/civicdash/internal/clock"
	"github.com/smallbiznis/civicdash/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newGate(t *testing.T, dash config.DashboardConfig) *Gate {
	t.Helper()
	g, err := New(config.Config{Dashboard: dash}, clock.NewFakeClock(time.UnixMilli(1718000000000)), zaptest.NewLogger(t))
	require.NoError(t, err)
	return g
}

func TestValidatePasswordIssuesVerifiableToken(t *testing.T) {
	g := newGate(t, config.DashboardConfig{Password: "hunter2"})

	token, err := g.ValidatePassword("hunter2")
	require.NoError(t, err)

	parts := strings.Split(token, ":")
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 64)
	assert.Equal(t, "1718000000000", parts[1])
	assert.Len(t, parts[2], 64)
	assert.True(t, g.Verify(token))
}

func TestTokenFormatMatchesHMAC(t *testing.T) {
	g := newGate(t, config.DashboardConfig{Password: "pw", TokenSecret: "s3cret"})
	g.random = bytes.NewReader(bytes.Repeat([]byte{0xab}, nonceBytes))

	token, err := g.IssueToken()
	require.NoError(t, err)

	nonce := strings.Repeat("ab", nonceBytes)
	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write([]byte(nonce + ":1718000000000"))
	assert.Equal(t, nonce+":1718000000000:"+hex.EncodeToString(mac.Sum(nil)), token)
}

func TestValidatePasswordErrors(t *testing.T) {
	g := newGate(t, config.DashboardConfig{Password: "hunter2"})

	_, err := g.ValidatePassword("")
	assert.ErrorIs(t, err, ErrPasswordRequired)

	_, err = g.ValidatePassword("hunter3")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	unconfigured := newGate(t, config.DashboardConfig{})
	_, err = unconfigured.ValidatePassword("anything")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, unconfigured.Verify("a:b:c"))
}

func TestValidatePasswordWithHash(t *testing.T) {
	encoded, err := password.Hash("from-hash")
	require.NoError(t, err)
	g := newGate(t, config.DashboardConfig{PasswordHash: encoded, TokenSecret: "secret"})

	token, err := g.ValidatePassword("from-hash")
	require.NoError(t, err)
	assert.True(t, g.Verify(token))

	_, err = g.ValidatePassword(encoded)
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestNewWarnsWhenSecretFallsBackToHash(t *testing.T) {
	encoded, err := password.Hash("from-hash")
	require.NoError(t, err)

	core, logs := observer.New(zapcore.WarnLevel)
	_, err = New(config.Config{Dashboard: config.DashboardConfig{PasswordHash: encoded}}, nil, zap.New(core))
	require.NoError(t, err)
	warnings := logs.FilterMessageSnippet("DASHBOARD_TOKEN_SECRET")
	assert.Equal(t, 1, warnings.Len())

	core, logs = observer.New(zapcore.WarnLevel)
	_, err = New(config.Config{Dashboard: config.DashboardConfig{PasswordHash: encoded, TokenSecret: "dedicated"}}, nil, zap.New(core))
	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}

func TestNewRejectsMalformedHash(t *testing.T) {
	_, err := New(config.Config{Dashboard: config.DashboardConfig{PasswordHash: "nope"}}, nil, nil)
	assert.ErrorIs(t, err, password.ErrMalformedHash)
}

func TestVerifyRejectsTampering(t *testing.T) {
	g := newGate(t, config.DashboardConfig{Password: "hunter2"})
	token, err := g.IssueToken()
	require.NoError(t, err)
	parts := strings.Split(token, ":")

	cases := map[string]string{
		"empty":         "",
		"two parts":     parts[0] + ":" + parts[1],
		"four parts":    token + ":x",
		"timestamp":     parts[0] + ":1718000000001:" + parts[2],
		"nonce":         strings.Repeat("0", 64) + ":" + parts[1] + ":" + parts[2],
		"signature":     parts[0] + ":" + parts[1] + ":" + strings.Repeat("f", 64),
		"short sig":     parts[0] + ":" + parts[1] + ":" + parts[2][:10],
		"empty members": "::",
	}
	for name, candidate := range cases {
		assert.False(t, g.Verify(candidate), name)
	}

	other := newGate(t, config.DashboardConfig{Password: "different"})
	assert.False(t, other.Verify(token), "token signed with another secret")
}
