package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k4sper1love/school-service/internal/events"
	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/policy"
)

func TestStudentCreate(t *testing.T) {
	f := newFixture(t)
	svc := NewStudentService(f.deps)
	ctx := context.Background()

	admin := f.store.SeedUser("admin@example.com", models.RoleAdmin)
	pupil := f.store.SeedUser("pupil@example.com", models.RoleStudent)
	teacher := f.store.SeedUser("teacher@example.com", models.RoleTeacher)

	st, err := svc.Create(ctx, actorOf(admin), &models.StudentCreateRequest{User: pupil.ID, DOB: ptr("2010-04-01")})
	require.NoError(t, err)
	require.NotNil(t, st.DOB)
	assert.Equal(t, "2010-04-01", time.Time(*st.DOB).Format(time.DateOnly))
	assert.Equal(t, models.Today(), st.RegistrationDate)
	assert.Equal(t, "pupil@example.com", st.User.Email)

	_, err = svc.Create(ctx, actorOf(admin), &models.StudentCreateRequest{User: pupil.ID})
	var verr ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"student with this user already exists."}, verr["user"])

	_, err = svc.Create(ctx, actorOf(admin), &models.StudentCreateRequest{User: teacher.ID})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"User must have the student role."}, verr["user"])

	_, err = svc.Create(ctx, actorOf(admin), &models.StudentCreateRequest{User: pupil.ID, DOB: ptr("01/04/2010")})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "dob")

	_, err = svc.Create(ctx, actorOf(pupil), &models.StudentCreateRequest{User: pupil.ID})
	var perr *PermissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonManageStudent, perr.Reason)
}

func TestStudentListScopes(t *testing.T) {
	f := newFixture(t)
	svc := NewStudentService(f.deps)
	ctx := context.Background()

	admin := f.store.SeedUser("admin@example.com", models.RoleAdmin)
	teacher := f.store.SeedUser("teacher@example.com", models.RoleTeacher)
	s1 := f.store.SeedStudent("one@example.com")
	f.store.SeedStudent("two@example.com")

	all, err := svc.List(ctx, actorOf(admin))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byTeacher, err := svc.List(ctx, actorOf(teacher))
	require.NoError(t, err)
	assert.Len(t, byTeacher, 2)

	mine, err := svc.List(ctx, policy.Actor{UserID: s1.UserID, Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Empty(t, mine)
	assert.NotNil(t, mine)
}

func TestStudentUpdateNotifiesTheStudent(t *testing.T) {
	f := newFixture(t)
	svc := NewStudentService(f.deps)
	ctx := context.Background()

	teacher := f.store.SeedUser("teacher@example.com", models.RoleTeacher)
	st := f.store.SeedStudent("kid@example.com")

	_, err := svc.Get(ctx, actorOf(teacher), st.ID)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, actorOf(teacher), st.ID, &models.StudentUpdateRequest{DOB: ptr("2011-09-15")})
	require.NoError(t, err)
	require.NotNil(t, updated.DOB)

	got, err := svc.Get(ctx, actorOf(teacher), st.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DOB)
	assert.Equal(t, "2011-09-15", time.Time(*got.DOB).Format(time.DateOnly))

	tasks := f.dispatcher.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, events.KindStudentProfileUpdated, tasks[0].Kind)
	assert.Equal(t, []events.Recipient{{UserID: st.UserID, Email: "kid@example.com"}}, tasks[0].Recipients)
}

func TestStudentDeleteIsAdminOnly(t *testing.T) {
	f := newFixture(t)
	svc := NewStudentService(f.deps)
	ctx := context.Background()

	admin := f.store.SeedUser("admin@example.com", models.RoleAdmin)
	teacher := f.store.SeedUser("teacher@example.com", models.RoleTeacher)
	st := f.store.SeedStudent("kid@example.com")

	err := svc.Delete(ctx, actorOf(teacher), st.ID)
	var perr *PermissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonDeleteStudent, perr.Reason)

	require.NoError(t, svc.Delete(ctx, actorOf(admin), st.ID))
	_, err = svc.Get(ctx, actorOf(admin), st.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}
