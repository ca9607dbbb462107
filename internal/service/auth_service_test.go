package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"govchat-server/pkg/jwt"
	"govchat-server/pkg/util"
)

func TestSignupThenLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	signup, err := env.auth.Signup(ctx, &SignupRequest{Name: "Alice", Email: "A@X.com ", Password: "pw1"})
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", signup.User.Email)
	assert.NotEmpty(t, signup.Token)

	login, err := env.auth.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)
	assert.Equal(t, signup.User.ID, login.User.ID)
	assert.Equal(t, "Alice", login.User.Name)
	assert.Equal(t, int64(time.Hour.Seconds()), login.ExpiresIn)
	assert.Equal(t, int64((24 * time.Hour).Seconds()), login.RefreshExpiresIn)

	claims, err := env.jwt.ValidateToken(login.Token)
	require.NoError(t, err)
	assert.Equal(t, signup.User.ID, claims.UserID)

	stored, err := env.store.Users.GetByID(ctx, signup.User.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", stored.PasswordHash)
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Signup(ctx, &SignupRequest{Name: "Alice", Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	_, err = env.auth.Signup(ctx, &SignupRequest{Name: "Other", Email: "A@x.COM", Password: "pw2"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Signup(ctx, &SignupRequest{Name: "Alice", Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	_, wrongPassword := env.auth.Login(ctx, &LoginRequest{Email: "a@x.com", Password: "nope"})
	_, unknownEmail := env.auth.Login(ctx, &LoginRequest{Email: "b@x.com", Password: "pw1"})

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
}

func TestLogoutBlacklistsToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Signup(ctx, &SignupRequest{Name: "Alice", Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, resp.Token, time.Now().Add(time.Hour)))
	assert.True(t, env.blacklist.IsTokenBlacklisted(ctx, util.HashToken(resp.Token)))
}

func TestRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	resp, err := env.auth.Signup(ctx, &SignupRequest{Name: "Alice", Email: "a@x.com", Password: "pw1"})
	require.NoError(t, err)

	refreshed, err := env.auth.RefreshToken(ctx, resp.RefreshToken)
	require.NoError(t, err)
	claims, err := env.jwt.ValidateToken(refreshed.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, err = env.auth.RefreshToken(ctx, resp.Token)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}

func TestGetProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.createUser(t, "p@x.com")

	profile, err := env.users.GetProfile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, UserSummary{ID: u.ID, Name: "User", Email: "p@x.com"}, *profile)

	_, err = env.users.GetProfile(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSignupRejectsPasswordOverByteLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 40 个字符、80 个字节
	_, err := env.auth.Signup(ctx, &SignupRequest{Name: "M", Email: "m@x.com", Password: strings.Repeat("é", 40)})
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	exists, err := env.store.Users.ExistsByEmail(ctx, "m@x.com")
	require.NoError(t, err)
	assert.False(t, exists)

	// 恰好 72 字节仍然可以注册
	_, err = env.auth.Signup(ctx, &SignupRequest{Name: "M", Email: "m@x.com", Password: strings.Repeat("é", 36)})
	assert.NoError(t, err)
}
