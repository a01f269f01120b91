package services

import (
	"context"
	"testing"
	"time"

	"estanteria_go/config"
	"estanteria_go/models"
	"estanteria_go/repository/repositorytest"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthService(t *testing.T, rdb *redis.Client) (*AuthService, *repositorytest.Store) {
	t.Helper()
	store := repositorytest.New()
	cfg := &config.Config{AdminEmails: []string{"admin@estanteria.io"}}
	jwtService := config.NewJWTService(&config.JWTConfig{
		SecretKey:      "test-secret",
		ExpirationTime: time.Hour,
		Issuer:         "estanteria",
	})
	as := NewAuthService(store.Users(), jwtService, rdb, &AuthConfig{
		MaxLoginAttempts: 3,
		IsAdminEmail:     cfg.IsAdminEmail,
	}, nil)
	return as, store
}

func TestRegister(t *testing.T) {
	as, _ := newAuthService(t, nil)
	ctx := context.Background()

	user, err := as.Register(ctx, &RegisterRequest{Username: "ana", Email: "ana@example.com", Password: "secreto"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleOrdinary, user.Role)
	assert.NotEqual(t, "secreto", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secreto")))

	_, err = as.Register(ctx, &RegisterRequest{Username: "ana", Email: "otra@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrUserExists)

	admin, err := as.Register(ctx, &RegisterRequest{Username: "root", Email: "ADMIN@estanteria.io", Password: "x"})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
}

func TestLoginAndResolveSession(t *testing.T) {
	as, _ := newAuthService(t, nil)
	ctx := context.Background()

	registered, err := as.Register(ctx, &RegisterRequest{Username: "ana", Email: "ana@example.com", Password: "secreto"})
	require.NoError(t, err)

	_, _, err = as.Login(ctx, &LoginRequest{Email: "ana@example.com", Password: "mal"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = as.Login(ctx, &LoginRequest{Email: "nadie@example.com", Password: "secreto"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, token, err := as.Login(ctx, &LoginRequest{Email: "ana@example.com", Password: "secreto"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)

	resolved, err := as.ResolveSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "ana", resolved.Username)

	_, err = as.ResolveSession(ctx, "not-a-token")
	assert.Error(t, err)
}

func TestLogout_BlacklistsToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	as, _ := newAuthService(t, rdb)
	ctx := context.Background()

	_, err := as.Register(ctx, &RegisterRequest{Username: "ana", Email: "ana@example.com", Password: "secreto"})
	require.NoError(t, err)
	_, token, err := as.Login(ctx, &LoginRequest{Email: "ana@example.com", Password: "secreto"})
	require.NoError(t, err)

	require.NoError(t, as.Logout(ctx, token))
	assert.True(t, mr.Exists("token:blacklist:"+token))
	assert.Greater(t, mr.TTL("token:blacklist:"+token), time.Duration(0))

	_, err = as.ResolveSession(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestLogin_TooManyAttempts(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	as, _ := newAuthService(t, rdb)
	ctx := context.Background()

	_, err := as.Register(ctx, &RegisterRequest{Username: "ana", Email: "ana@example.com", Password: "secreto"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, _, err := as.Login(ctx, &LoginRequest{Email: "ana@example.com", Password: "mal"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, _, err = as.Login(ctx, &LoginRequest{Email: "ana@example.com", Password: "secreto"})
	assert.ErrorIs(t, err, ErrTooManyAttempts)

	mr.FastForward(16 * time.Minute)
	_, _, err = as.Login(ctx, &LoginRequest{Email: "ana@example.com", Password: "secreto"})
	assert.NoError(t, err)
	assert.False(t, mr.Exists("login:limit:ana@example.com"))
}
