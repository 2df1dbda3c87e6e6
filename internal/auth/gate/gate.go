package gate

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/smallbiznis/civicdash/internal/auth/password"
	"github.com/smallbiznis/civicdash/internal/clock"
	"github.com/smallbiznis/civicdash/internal/config"
	"go.uber.org/zap"
)

var (
	ErrPasswordRequired = errors.New("password_required")
	ErrNotConfigured    = errors.New("password_gate_not_configured")
	ErrInvalidPassword  = errors.New("invalid_password")
)

const nonceBytes = 32

// Gate checks the shared dashboard password and issues HMAC-signed tokens of
// the form hex(nonce):unix-millis:hex(hmac-sha256(secret, nonce:millis)).
type Gate struct {
	password     string
	passwordHash string
	secret       []byte
	clock        clock.Clock
	random       io.Reader
}

func New(cfg config.Config, clk clock.Clock, log *zap.Logger) (*Gate, error) {
	dash := cfg.Dashboard
	if dash.PasswordHash != "" {
		if err := password.Validate(dash.PasswordHash); err != nil {
			return nil, err
		}
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}

	secret := dash.TokenSecret
	if secret == "" {
		secret = dash.Password
	}
	if secret == "" && dash.PasswordHash != "" {
		secret = dash.PasswordHash
		if log != nil {
			log.Named("auth.gate").Warn("session tokens are signed with the password hash; set DASHBOARD_TOKEN_SECRET to a dedicated secret")
		}
	}

	return &Gate{
		password:     dash.Password,
		passwordHash: dash.PasswordHash,
		secret:       []byte(secret),
		clock:        clk,
		random:       rand.Reader,
	}, nil
}

// Configured reports whether a password or password hash is set.
func (g *Gate) Configured() bool {
	return g != nil && (g.password != "" || g.passwordHash != "")
}

// ValidatePassword checks candidate and returns a fresh session token.
func (g *Gate) ValidatePassword(candidate string) (string, error) {
	if candidate == "" {
		return "", ErrPasswordRequired
	}
	if !g.Configured() {
		return "", ErrNotConfigured
	}
	if !g.matches(candidate) {
		return "", ErrInvalidPassword
	}
	return g.IssueToken()
}

func (g *Gate) matches(candidate string) bool {
	if g.passwordHash != "" {
		return password.Verify(candidate, g.passwordHash)
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(g.password)) == 1
}

func (g *Gate) IssueToken() (string, error) {
	if len(g.secret) == 0 {
		return "", ErrNotConfigured
	}
	nonce := make([]byte, nonceBytes)
	if _, err := io.ReadFull(g.random, nonce); err != nil {
		return "", err
	}
	nonceHex := hex.EncodeToString(nonce)
	ts := strconv.FormatInt(g.clock.Now().UnixMilli(), 10)
	return nonceHex + ":" + ts + ":" + g.sign(nonceHex, ts), nil
}

// Verify recomputes the signature of token. Expiry is left to the cookie max-age.
func (g *Gate) Verify(token string) bool {
	if g == nil || len(g.secret) == 0 {
		return false
	}
	parts := strings.Split(token, ":")
	if len(parts) != 3 {
		return false
	}
	nonce, ts, sig := parts[0], parts[1], parts[2]
	if nonce == "" || ts == "" || sig == "" {
		return false
	}
	expected := g.sign(nonce, ts)
	return subtle.ConstantTimeCompare([]byte(sig), []byte(expected)) == 1
}

func (g *Gate) sign(nonce, ts string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(nonce + ":" + ts))
	return hex.EncodeToString(mac.Sum(nil))
}
