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

type attendanceWorld struct {
	teacherA, teacherB *models.User
	courseA, courseB   *models.Course
	alice, bob         *models.Student
	recA, recB         *models.Attendance
}

// two teachers, one course each, one student attending each course
func seedAttendanceWorld(f *fixture) attendanceWorld {
	var w attendanceWorld
	w.teacherA = f.store.SeedUser("ta@example.com", models.RoleTeacher)
	w.teacherB = f.store.SeedUser("tb@example.com", models.RoleTeacher)
	w.courseA = f.store.SeedCourse(w.teacherA, "Algebra", true)
	w.courseB = f.store.SeedCourse(w.teacherB, "Botany", true)
	w.alice = f.store.SeedStudent("alice@example.com")
	w.bob = f.store.SeedStudent("bob@example.com")
	w.recA = f.store.SeedAttendance(w.alice, w.courseA, true)
	w.recB = f.store.SeedAttendance(w.bob, w.courseB, false)
	return w
}

func attendanceIDs(records []models.Attendance) []uint {
	ids := make([]uint, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestAttendanceListIsScopedPerActor(t *testing.T) {
	f := newFixture(t)
	svc := NewAttendanceService(f.deps)
	ctx := context.Background()
	w := seedAttendanceWorld(f)

	got, err := svc.List(ctx, actorOf(w.teacherA))
	require.NoError(t, err)
	assert.Equal(t, []uint{w.recA.ID}, attendanceIDs(got))

	got, err = svc.List(ctx, actorOf(w.teacherB))
	require.NoError(t, err)
	assert.Equal(t, []uint{w.recB.ID}, attendanceIDs(got))

	got, err = svc.List(ctx, policy.Actor{UserID: w.alice.UserID, Role: models.RoleStudent})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, w.recA.ID, got[0].ID)
	assert.Equal(t, "Algebra", got[0].Course.Name)
	assert.Equal(t, "alice@example.com", got[0].Student.User.Email)

	admin := f.store.SeedUser("root@example.com", models.RoleAdmin)
	_, err = svc.List(ctx, actorOf(admin))
	var perr *PermissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonViewAttendance, perr.Reason)
}

func TestAttendanceCreateNotifiesOnlyOnAbsence(t *testing.T) {
	f := newFixture(t)
	svc := NewAttendanceService(f.deps)
	ctx := context.Background()
	w := seedAttendanceWorld(f)

	present, err := svc.Create(ctx, actorOf(w.teacherA), &models.AttendanceCreateRequest{
		Student: w.alice.ID, Course: w.courseA.ID, Status: ptr(true),
	})
	require.NoError(t, err)
	assert.True(t, present.Status)
	assert.Equal(t, "Present", present.StatusLabel())
	assert.Empty(t, f.dispatcher.Tasks())

	absent, err := svc.Create(ctx, actorOf(w.teacherA), &models.AttendanceCreateRequest{
		Student: w.alice.ID, Course: w.courseA.ID, Status: ptr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, "Absent", absent.StatusLabel())
	assert.Equal(t, models.Today(), absent.Date)

	tasks := f.dispatcher.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, events.KindAttendanceAbsent, tasks[0].Kind)
	require.Len(t, tasks[0].Recipients, 1)
	assert.Equal(t, events.Recipient{UserID: w.alice.UserID, Email: "alice@example.com"}, tasks[0].Recipients[0])
	assert.Contains(t, tasks[0].Body, "Algebra")
}

func TestAttendanceCreateRejections(t *testing.T) {
	f := newFixture(t)
	svc := NewAttendanceService(f.deps)
	ctx := context.Background()
	w := seedAttendanceWorld(f)

	_, err := svc.Create(ctx, policy.Actor{UserID: w.alice.UserID, Role: models.RoleStudent}, &models.AttendanceCreateRequest{
		Student: w.alice.ID, Course: w.courseA.ID, Status: ptr(false),
	})
	var perr *PermissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonCreateAttendance, perr.Reason)

	_, err = svc.Create(ctx, actorOf(w.teacherA), &models.AttendanceCreateRequest{Student: w.alice.ID, Course: w.courseA.ID})
	var verr ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "status")

	_, err = svc.Create(ctx, actorOf(w.teacherA), &models.AttendanceCreateRequest{Student: 9999, Course: w.courseA.ID, Status: ptr(true)})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{`Invalid pk "9999" - object does not exist.`}, verr["student"])

	assert.Empty(t, f.dispatcher.Tasks())
}

func TestAttendanceGetOwnership(t *testing.T) {
	f := newFixture(t)
	svc := NewAttendanceService(f.deps)
	ctx := context.Background()
	w := seedAttendanceWorld(f)
	bob := policy.Actor{UserID: w.bob.UserID, Role: models.RoleStudent}

	_, err := svc.Get(ctx, bob, w.recA.ID)
	var perr *PermissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonOwnAttendance, perr.Reason)

	_, err = svc.Get(ctx, actorOf(w.teacherB), w.recA.ID)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonOwnCourseRecords, perr.Reason)

	rec, err := svc.Get(ctx, bob, w.recB.ID)
	require.NoError(t, err)
	assert.False(t, rec.Status)

	_, err = svc.Get(ctx, bob, 12345)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAttendanceUpdateInvalidatesEveryList(t *testing.T) {
	f := newFixture(t)
	svc := NewAttendanceService(f.deps)
	ctx := context.Background()
	w := seedAttendanceWorld(f)
	alice := policy.Actor{UserID: w.alice.UserID, Role: models.RoleStudent}

	before, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, before, 1)
	require.True(t, before[0].Status)
	_, err = svc.List(ctx, actorOf(w.teacherA))
	require.NoError(t, err)

	_, err = svc.Update(ctx, actorOf(w.teacherB), w.recA.ID, &models.AttendanceUpdateRequest{Status: ptr(false)})
	var perr *PermissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonOwnCourseRecords, perr.Reason)

	updated, err := svc.Update(ctx, actorOf(w.teacherA), w.recA.ID, &models.AttendanceUpdateRequest{Status: ptr(false)})
	require.NoError(t, err)
	assert.False(t, updated.Status)

	after, err := svc.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.False(t, after[0].Status)

	teacherView, err := svc.List(ctx, actorOf(w.teacherA))
	require.NoError(t, err)
	require.Len(t, teacherView, 1)
	assert.False(t, teacherView[0].Status)
}

func TestAttendanceDelete(t *testing.T) {
	f := newFixture(t)
	svc := NewAttendanceService(f.deps)
	ctx := context.Background()
	w := seedAttendanceWorld(f)

	err := svc.Delete(ctx, policy.Actor{UserID: w.alice.UserID, Role: models.RoleStudent}, w.recA.ID)
	var perr *PermissionError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonDeleteAttendance, perr.Reason)

	err = svc.Delete(ctx, policy.Actor{UserID: w.alice.UserID, Role: models.RoleStudent}, 777)
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonDeleteAttendance, perr.Reason)

	_, err = svc.Update(ctx, policy.Actor{UserID: w.alice.UserID, Role: models.RoleStudent}, 777, &models.AttendanceUpdateRequest{Status: ptr(true)})
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, policy.ReasonUpdateAttendance, perr.Reason)

	err = svc.Delete(ctx, actorOf(w.teacherA), 777)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Attendance not found", nf.Error())

	require.NoError(t, svc.Delete(ctx, actorOf(w.teacherA), w.recA.ID))
	got, err := svc.List(ctx, actorOf(w.teacherA))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}
