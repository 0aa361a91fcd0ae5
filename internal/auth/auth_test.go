package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k4sper1love/school-service/internal/config"
	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/repositories/repotest"
)

func TestJWTRoundTrip(t *testing.T) {
	store := repotest.NewStore()
	user := store.SeedUser("teacher@example.com", models.RoleTeacher)
	m := NewJWTManager(config.JWTConfig{Secret: "test-secret", TTL: time.Hour}, store.User())

	token, err := m.Issue(user)
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)

	got, err := m.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "teacher@example.com", got.Email)
}

func TestJWTRejects(t *testing.T) {
	store := repotest.NewStore()
	user := store.SeedUser("u@example.com", models.RoleStudent)
	m := NewJWTManager(config.JWTConfig{Secret: "test-secret", TTL: time.Hour}, store.User())

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTManager(config.JWTConfig{Secret: "other", TTL: time.Hour}, store.User())
		token, err := other.Issue(user)
		require.NoError(t, err)
		_, err = m.Parse(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("expired", func(t *testing.T) {
		past := NewJWTManager(config.JWTConfig{Secret: "test-secret", TTL: time.Minute}, store.User())
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := past.Issue(user)
		require.NoError(t, err)
		_, err = m.Parse(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("other algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
			UserID: user.ID,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = m.Parse(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not-a-token")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("deleted user", func(t *testing.T) {
		token, err := m.Issue(user)
		require.NoError(t, err)
		require.NoError(t, store.User().Delete(context.Background(), user.ID))
		_, err = m.Authenticate(context.Background(), token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})
}

type stubAuthenticator struct {
	user *models.User
	err  error
}

func (s stubAuthenticator) Authenticate(context.Context, string) (*models.User, error) {
	return s.user, s.err
}

func TestChain(t *testing.T) {
	want := &models.User{ID: 7, Email: "x@example.com", Role: models.RoleAdmin}
	failing := stubAuthenticator{err: errors.New("nope")}

	got, err := Chain{failing, nil, stubAuthenticator{user: want}}.Authenticate(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Chain{failing, failing}.Authenticate(context.Background(), "t")
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = Chain{}.Authenticate(context.Background(), "t")
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestRoleFromCasdoorUser(t *testing.T) {
	cases := []struct {
		name string
		user casdoorsdk.User
		want models.UserRole
	}{
		{"admin flag wins", casdoorsdk.User{IsAdmin: true, Type: "student"}, models.RoleAdmin},
		{"admin role wins", casdoorsdk.User{Roles: []*casdoorsdk.Role{{Name: "teacher"}, {Name: "Administrator"}}}, models.RoleAdmin},
		{"first known role", casdoorsdk.User{Roles: []*casdoorsdk.Role{{Name: "janitor"}, {Name: "Instructor"}, {Name: "student"}}}, models.RoleTeacher},
		{"type fallback", casdoorsdk.User{Type: "educator"}, models.RoleTeacher},
		{"default student", casdoorsdk.User{Type: "normal-user"}, models.RoleStudent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, roleFromCasdoorUser(&tc.user))
		})
	}
}

func TestIdentityFromClaims(t *testing.T) {
	_, _, _, err := identityFromClaims(&casdoorsdk.Claims{})
	assert.True(t, errors.Is(err, ErrInvalidToken))

	email, username, role, err := identityFromClaims(&casdoorsdk.Claims{User: casdoorsdk.User{
		Email: " sso@example.com ", Name: "sso", Type: "teacher",
	}})
	require.NoError(t, err)
	assert.Equal(t, "sso@example.com", email)
	assert.Equal(t, "sso", username)
	assert.Equal(t, models.RoleTeacher, role)
}
