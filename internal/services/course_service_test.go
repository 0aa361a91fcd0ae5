package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k4sper1love/school-service/internal/events"
	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/policy"
)

func TestCourseCreateRequiresTeacher(t *testing.T) {
	f := newFixture(t)
	svc := NewCourseService(f.deps)
	ctx := context.Background()

	for _, role := range []models.UserRole{models.RoleStudent, models.RoleAdmin} {
		t.Run(string(role), func(t *testing.T) {
			u := f.store.SeedUser(string(role)+"@example.com", role)

			_, err := svc.Create(ctx, actorOf(u), &models.CourseRequest{Name: "Physics"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrForbidden))

			var perr *PermissionError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "Only teachers can create courses.", perr.Reason)
		})
	}

	courses, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, courses)
	assert.Empty(t, f.dispatcher.Tasks())
}

func TestCourseCreateAnnouncesToEveryStudent(t *testing.T) {
	f := newFixture(t)
	svc := NewCourseService(f.deps)
	ctx := context.Background()
	teacher := f.store.SeedUser("teacher@example.com", models.RoleTeacher)

	t.Run("no students", func(t *testing.T) {
		course, err := svc.Create(ctx, actorOf(teacher), &models.CourseRequest{Name: "Empty Room"})
		require.NoError(t, err)
		assert.Equal(t, teacher.ID, course.InstructorID)
		assert.True(t, course.IsActive)
		assert.Empty(t, f.dispatcher.Tasks())
	})

	t.Run("many students", func(t *testing.T) {
		f.dispatcher.Reset()
		emails := []string{"a@example.com", "b@example.com", "c@example.com", "d@example.com"}
		for _, e := range emails {
			f.store.SeedStudent(e)
		}

		_, err := svc.Create(ctx, actorOf(teacher), &models.CourseRequest{Name: "Biology 101"})
		require.NoError(t, err)

		tasks := f.dispatcher.Tasks()
		require.Len(t, tasks, 1, "one bulk task regardless of the number of students")
		assert.Equal(t, events.KindCourseCreated, tasks[0].Kind)
		assert.Equal(t, `A new course "Biology 101" has been added.`, tasks[0].Body)

		var got []string
		for _, r := range tasks[0].Recipients {
			got = append(got, r.Email)
		}
		assert.ElementsMatch(t, emails, got)
	})
}

func TestCourseUpdateAndDeleteOwnership(t *testing.T) {
	f := newFixture(t)
	svc := NewCourseService(f.deps)
	ctx := context.Background()

	owner := f.store.SeedUser("owner@example.com", models.RoleTeacher)
	other := f.store.SeedUser("other@example.com", models.RoleTeacher)
	student := f.store.SeedUser("s@example.com", models.RoleStudent)
	course := f.store.SeedCourse(owner, "Chemistry", true)
	req := &models.CourseRequest{Name: "Chemistry II"}

	_, err := svc.Update(ctx, actorOf(other), course.ID, req)
	var perr *PermissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonOwnCourse, perr.Reason)

	err = svc.Delete(ctx, actorOf(other), course.ID)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonOwnCourse, perr.Reason)

	_, err = svc.Update(ctx, actorOf(student), course.ID, req)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonUpdateCourse, perr.Reason)

	_, err = svc.Update(ctx, actorOf(student), 999, req)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonUpdateCourse, perr.Reason)

	err = svc.Delete(ctx, actorOf(student), 999)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonDeleteCourse, perr.Reason)

	_, err = svc.Update(ctx, actorOf(owner), 999, req)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Course not found", nf.Error())

	updated, err := svc.Update(ctx, actorOf(owner), course.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Chemistry II", updated.Name)

	require.NoError(t, svc.Delete(ctx, actorOf(owner), course.ID))
	_, err = svc.Get(ctx, course.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCourseListIsCachedAndInvalidatedOnWrite(t *testing.T) {
	f := newFixture(t)
	svc := NewCourseService(f.deps)
	ctx := context.Background()
	teacher := f.store.SeedUser("teacher@example.com", models.RoleTeacher)
	f.store.SeedCourse(teacher, "Active", true)
	f.store.SeedCourse(teacher, "Archived", false)

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "Active", first[0].Name)
	assert.True(t, f.redis.Exists("school:course_list"))

	// a write that bypasses the service is not visible while the entry lives
	f.store.SeedCourse(teacher, "Sneaky", true)
	second, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 1)

	created, err := svc.Create(ctx, actorOf(teacher), &models.CourseRequest{Name: "Fresh"})
	require.NoError(t, err)
	third, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, third, 3)

	_, err = svc.Update(ctx, actorOf(teacher), created.ID, &models.CourseRequest{Name: "Fresh", IsActive: ptr(false)})
	require.NoError(t, err)
	fourth, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, fourth, 2)
}

func TestCourseListFallsBackWhenCacheIsDown(t *testing.T) {
	f := newFixture(t)
	svc := NewCourseService(f.deps)
	teacher := f.store.SeedUser("teacher@example.com", models.RoleTeacher)
	f.store.SeedCourse(teacher, "Physics", true)

	f.redis.Close()

	courses, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, courses, 1)
}

func TestCourseCreateValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewCourseService(f.deps)
	teacher := f.store.SeedUser("teacher@example.com", models.RoleTeacher)

	_, err := svc.Create(context.Background(), actorOf(teacher), &models.CourseRequest{})
	var verr ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "name")
	assert.True(t, errors.Is(err, ErrValidationFailed))
}
