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

func TestGradeCreateNotifiesStudent(t *testing.T) {
	f := newFixture(t)
	svc := NewGradeService(f.deps)
	ctx := context.Background()

	owner := f.store.SeedUser("owner@example.com", models.RoleTeacher)
	// grading is not restricted to the course instructor
	substitute := f.store.SeedUser("sub@example.com", models.RoleTeacher)
	course := f.store.SeedCourse(owner, "History", true)
	st := f.store.SeedStudent("kid@example.com")

	grade, err := svc.Create(ctx, actorOf(substitute), &models.GradeRequest{
		Student: st.ID, Course: course.ID, Grade: "A+", Comment: ptr("well done"),
	})
	require.NoError(t, err)
	assert.Equal(t, substitute.ID, grade.TeacherID)
	assert.Equal(t, models.Today(), grade.Date)

	tasks := f.dispatcher.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, events.KindGradeCreated, tasks[0].Kind)
	assert.Equal(t, `You received a new grade "A+" in History.`, tasks[0].Body)
	assert.Equal(t, "kid@example.com", tasks[0].Recipients[0].Email)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "A+", list[0].Grade)
}

func TestGradeRoleChecks(t *testing.T) {
	f := newFixture(t)
	svc := NewGradeService(f.deps)
	ctx := context.Background()

	teacher := f.store.SeedUser("t@example.com", models.RoleTeacher)
	course := f.store.SeedCourse(teacher, "Art", true)
	st := f.store.SeedStudent("s@example.com")
	studentActor := policy.Actor{UserID: st.UserID, Role: models.RoleStudent}
	req := &models.GradeRequest{Student: st.ID, Course: course.ID, Grade: "B"}

	_, err := svc.Create(ctx, studentActor, req)
	var perr *PermissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "Only teachers can add grades", perr.Reason)

	grade, err := svc.Create(ctx, actorOf(teacher), req)
	require.NoError(t, err)

	_, err = svc.Update(ctx, studentActor, grade.ID, req)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonUpdateGrade, perr.Reason)

	err = svc.Delete(ctx, studentActor, grade.ID)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonDeleteGrade, perr.Reason)

	// role is checked before existence
	err = svc.Delete(ctx, studentActor, 4242)
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestGradeValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewGradeService(f.deps)
	ctx := context.Background()

	teacher := f.store.SeedUser("t@example.com", models.RoleTeacher)
	course := f.store.SeedCourse(teacher, "Art", true)
	st := f.store.SeedStudent("s@example.com")

	cases := []struct {
		name  string
		req   models.GradeRequest
		field string
	}{
		{"grade too long", models.GradeRequest{Student: st.ID, Course: course.ID, Grade: "ABC"}, "grade"},
		{"grade missing", models.GradeRequest{Student: st.ID, Course: course.ID}, "grade"},
		{"unknown student", models.GradeRequest{Student: 999, Course: course.ID, Grade: "C"}, "student"},
		{"unknown course", models.GradeRequest{Student: st.ID, Course: 999, Grade: "C"}, "course"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			_, err := svc.Create(ctx, actorOf(teacher), &req)
			var verr ValidationErrors
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr, tc.field)
		})
	}
	assert.Empty(t, f.dispatcher.Tasks())
}

func TestGradeUpdateAndDeleteRefreshCache(t *testing.T) {
	f := newFixture(t)
	svc := NewGradeService(f.deps)
	ctx := context.Background()

	teacher := f.store.SeedUser("t@example.com", models.RoleTeacher)
	course := f.store.SeedCourse(teacher, "Art", true)
	st := f.store.SeedStudent("s@example.com")

	grade, err := svc.Create(ctx, actorOf(teacher), &models.GradeRequest{Student: st.ID, Course: course.ID, Grade: "C"})
	require.NoError(t, err)

	cached, err := svc.Get(ctx, grade.ID)
	require.NoError(t, err)
	assert.Equal(t, "C", cached.Grade)

	_, err = svc.Update(ctx, actorOf(teacher), grade.ID, &models.GradeRequest{Student: st.ID, Course: course.ID, Grade: "B"})
	require.NoError(t, err)

	fresh, err := svc.Get(ctx, grade.ID)
	require.NoError(t, err)
	assert.Equal(t, "B", fresh.Grade)

	require.NoError(t, svc.Delete(ctx, actorOf(teacher), grade.ID))
	_, err = svc.Get(ctx, grade.ID)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Grade not found", nf.Error())

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
