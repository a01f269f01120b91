package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTServiceRoundTrip(t *testing.T) {
	svc := NewJWTService(&JWTConfig{SecretKey: "secreto", ExpirationTime: time.Hour, Issuer: "estanteria"})

	token, err := svc.GenerateToken(5, "paul", "paul@arrakis.io", "ordinary")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(5), claims.UserID)
	assert.Equal(t, "paul", claims.Username)
	assert.Equal(t, "ordinary", claims.Role)
}

func TestJWTServiceRejectsForeignToken(t *testing.T) {
	a := NewJWTService(&JWTConfig{SecretKey: "uno", ExpirationTime: time.Hour, Issuer: "estanteria"})
	b := NewJWTService(&JWTConfig{SecretKey: "dos", ExpirationTime: time.Hour, Issuer: "estanteria"})

	token, err := a.GenerateToken(1, "a", "a@b.c", "ordinary")
	require.NoError(t, err)

	_, err = b.ValidateToken(token)
	assert.Error(t, err)
}

func TestJWTServiceRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService(&JWTConfig{SecretKey: "secreto", ExpirationTime: -time.Minute, Issuer: "estanteria"})

	token, err := svc.GenerateToken(1, "a", "a@b.c", "ordinary")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("ESTANTERIA_INT", "42")
	t.Setenv("ESTANTERIA_BOOL", "true")
	t.Setenv("ESTANTERIA_LIST", " a@b.c , ,x@y.z")
	t.Setenv("ESTANTERIA_BAD_INT", "cuarenta")

	assert.Equal(t, 42, GetEnvInt("ESTANTERIA_INT", 1))
	assert.Equal(t, 1, GetEnvInt("ESTANTERIA_BAD_INT", 1))
	assert.True(t, GetEnvBool("ESTANTERIA_BOOL", false))
	assert.Equal(t, []string{"a@b.c", "x@y.z"}, GetEnvList("ESTANTERIA_LIST", nil))
	assert.Equal(t, "def", GetEnv("ESTANTERIA_MISSING", "def"))
}

func TestConfigIsAdminEmail(t *testing.T) {
	cfg := &Config{AdminEmails: []string{"Admin@Estanteria.io"}}
	assert.True(t, cfg.IsAdminEmail("admin@estanteria.io"))
	assert.False(t, cfg.IsAdminEmail("otro@estanteria.io"))
}

func TestServerConfigMarketMode(t *testing.T) {
	t.Setenv("MARKET_MODE", "hardened")
	assert.Equal(t, ModeHardened, GetServerConfig().MarketMode)

	t.Setenv("MARKET_MODE", "cualquiera")
	assert.Equal(t, ModeStrict, GetServerConfig().MarketMode)
}
