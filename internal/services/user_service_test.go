package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/policy"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.deps)
	ctx := context.Background()

	u, err := svc.Register(ctx, &models.UserCreateRequest{Email: "Jane.Doe@Example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "jane.doe@example.com", u.Email)
	assert.Equal(t, "jane.doe", u.Username)
	assert.Equal(t, models.RoleStudent, u.Role)
	assert.NotEqual(t, "s3cret-pass", u.PasswordHash)

	_, err = svc.Register(ctx, &models.UserCreateRequest{Email: "jane.doe@example.com", Password: "another-pass"})
	var verr ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"user with this email already exists."}, verr["email"])

	_, err = svc.Register(ctx, &models.UserCreateRequest{Email: "x@example.com", Password: "long-enough", Role: "principal"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "role")

	got, err := svc.Authenticate(ctx, "JANE.DOE@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "jane.doe@example.com", "wrong")
	assert.True(t, errors.Is(err, ErrUnauthorized))
	_, err = svc.Authenticate(ctx, "nobody@example.com", "s3cret-pass")
	assert.True(t, errors.Is(err, ErrUnauthorized))

	// provisioned accounts have no local password
	sso, err := svc.Provision(ctx, "sso@example.com", "", models.RoleTeacher)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "sso@example.com", "")
	assert.True(t, errors.Is(err, ErrUnauthorized))

	again, err := svc.Provision(ctx, "SSO@example.com", "ignored", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, sso.ID, again.ID)
	assert.Equal(t, models.RoleTeacher, again.Role)
	assert.Equal(t, "sso", again.Username)
}

func TestUserListScopes(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.deps)
	ctx := context.Background()

	admin := f.store.SeedUser("admin@example.com", models.RoleAdmin)
	teacher := f.store.SeedUser("teacher@example.com", models.RoleTeacher)
	student := f.store.SeedStudent("student@example.com")

	all, err := svc.List(ctx, actorOf(admin))
	require.NoError(t, err)
	assert.Len(t, all, 3)

	students, err := svc.List(ctx, actorOf(teacher))
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, student.UserID, students[0].ID)

	none, err := svc.List(ctx, policy.Actor{UserID: student.UserID, Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestUserListSharedCacheIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.deps)
	ctx := context.Background()

	admin := f.store.SeedUser("admin@example.com", models.RoleAdmin)
	teacher := f.store.SeedUser("teacher@example.com", models.RoleTeacher)

	_, err := svc.List(ctx, actorOf(admin))
	require.NoError(t, err)
	teacherView, err := svc.List(ctx, actorOf(teacher))
	require.NoError(t, err)
	assert.Empty(t, teacherView)

	f.store.SeedUser("late@example.com", models.RoleStudent)

	adminView, err := svc.List(ctx, actorOf(admin))
	require.NoError(t, err)
	assert.Len(t, adminView, 2, "admin is served the cached list")

	teacherView, err = svc.List(ctx, actorOf(teacher))
	require.NoError(t, err)
	assert.Len(t, teacherView, 1, "teachers never read the shared entry")
}

func TestUserGetVisibility(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.deps)
	ctx := context.Background()

	teacher := f.store.SeedUser("teacher@example.com", models.RoleTeacher)
	colleague := f.store.SeedUser("colleague@example.com", models.RoleTeacher)
	student := f.store.SeedUser("student@example.com", models.RoleStudent)

	got, err := svc.Get(ctx, actorOf(teacher), student.ID)
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", got.Email)

	_, err = svc.Get(ctx, actorOf(teacher), colleague.ID)
	var perr *PermissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, reasonNotPermitted, perr.Reason)

	self, err := svc.Get(ctx, actorOf(student), student.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, self.Role)

	_, err = svc.Get(ctx, actorOf(student), 999)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "User not found", nf.Error())
}

func TestUserUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	svc := NewUserService(f.deps)
	ctx := context.Background()

	admin := f.store.SeedUser("admin@example.com", models.RoleAdmin)
	teacher := f.store.SeedUser("teacher@example.com", models.RoleTeacher)
	victim := f.store.SeedStudent("victim@example.com")

	_, err := svc.Update(ctx, actorOf(teacher), victim.UserID, &models.UserUpdateRequest{Email: "v@example.com", Username: "v", Role: "teacher"})
	var perr *PermissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonUpdateUser, perr.Reason)

	// warm the detail cache, then make sure the update is visible
	_, err = svc.Get(ctx, actorOf(admin), victim.UserID)
	require.NoError(t, err)
	_, err = svc.Update(ctx, actorOf(admin), victim.UserID, &models.UserUpdateRequest{Email: "v@example.com", Username: "v", Role: "teacher"})
	require.NoError(t, err)
	got, err := svc.Get(ctx, actorOf(admin), victim.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, got.Role)
	assert.Equal(t, "v@example.com", got.Email)

	_, err = svc.Update(ctx, actorOf(admin), victim.UserID, &models.UserUpdateRequest{Email: "teacher@example.com", Username: "v", Role: "teacher"})
	var verr ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "email")

	err = svc.Delete(ctx, actorOf(teacher), victim.UserID)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Only administrators can delete users.", perr.Reason)

	require.NoError(t, svc.Delete(ctx, actorOf(admin), victim.UserID))
	_, err = svc.Get(ctx, actorOf(admin), victim.UserID)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = f.store.Student().GetByID(ctx, victim.ID)
	assert.Error(t, err, "profile cascades with the user")

	err = svc.Delete(ctx, actorOf(admin), victim.UserID)
	assert.True(t, errors.Is(err, ErrNotFound))
}
