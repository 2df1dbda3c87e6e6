package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("AUTH_COOKIE_SECURE", "")
	t.Setenv("STRIPE_API_BASE_URL", "")
	t.Setenv("RATE_LIMIT_ENABLED", "")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "")

	cfg := Load()

	assert.Equal(t, "civicdash", cfg.AppName)
	assert.False(t, cfg.AuthCookieSecure)
	assert.Equal(t, "https://api.stripe.com", cfg.Stripe.BaseURL)
	assert.Equal(t, 100, cfg.Stripe.PageSize)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 5, cfg.RateLimit.LoginBurst)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoadProductionForcesSecureCookie(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_COOKIE_SECURE", "false")

	cfg := Load()

	assert.True(t, cfg.AuthCookieSecure)
	assert.True(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STRIPE_API_BASE_URL", "http://localhost:12111/")
	t.Setenv("STRIPE_PAGE_SIZE", "25")
	t.Setenv("RATE_LIMIT_ENABLED", "yes")
	t.Setenv("RATE_LIMIT_LOGIN_RATE", "1.5")
	t.Setenv("DATABASE_MAX_OPEN_CONN", "not-a-number")
	t.Setenv("HTTP_ALLOWED_ORIGINS", " http://localhost:3000, ,https://dash.example.org")

	cfg := Load()

	assert.Equal(t, "http://localhost:12111", cfg.Stripe.BaseURL)
	assert.Equal(t, 25, cfg.Stripe.PageSize)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 1.5, cfg.RateLimit.LoginRate)
	assert.Equal(t, 20, cfg.DBMaxOpenConn)
	assert.Equal(t, []string{"http://localhost:3000", "https://dash.example.org"}, cfg.AllowedOrigins)
}

func TestDashboardLocation(t *testing.T) {
	loc, err := DashboardConfig{}.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	loc, err = DashboardConfig{Timezone: "UTC"}.Location()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())
}

func TestDashboardLocationRejectsUnknownZone(t *testing.T) {
	loc, err := DashboardConfig{Timezone: "Not/AZone"}.Location()
	require.Error(t, err)
	assert.Nil(t, loc)
	assert.Contains(t, err.Error(), "DASHBOARD_TIMEZONE")
}
