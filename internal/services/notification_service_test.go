package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k4sper1love/school-service/internal/models"
)

func TestNotificationInbox(t *testing.T) {
	f := newFixture(t)
	svc := NewNotificationService(f.deps)
	ctx := context.Background()

	me := actorOf(f.store.SeedUser("me@example.com", models.RoleStudent))
	other := actorOf(f.store.SeedUser("other@example.com", models.RoleStudent))

	first, err := svc.Create(ctx, me, &models.NotificationCreateRequest{Message: "first"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, me, &models.NotificationCreateRequest{Message: "second"})
	require.NoError(t, err)
	foreign, err := svc.Create(ctx, other, &models.NotificationCreateRequest{Message: "not yours"})
	require.NoError(t, err)

	inbox, err := svc.List(ctx, me)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, second.ID, inbox[0].ID, "newest first")
	assert.Equal(t, first.ID, inbox[1].ID)

	_, err = svc.Get(ctx, me, foreign.ID)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Notification not found", nf.Error())

	_, err = svc.Update(ctx, me, foreign.ID, &models.NotificationUpdateRequest{Read: ptr(true)})
	require.ErrorAs(t, err, &nf)
	require.ErrorAs(t, svc.Delete(ctx, me, foreign.ID), &nf)

	read, err := svc.Update(ctx, me, first.ID, &models.NotificationUpdateRequest{Read: ptr(true)})
	require.NoError(t, err)
	assert.True(t, read.Read)

	inbox, err = svc.List(ctx, me)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.True(t, inbox[1].Read)

	require.NoError(t, svc.Delete(ctx, me, second.ID))
	inbox, err = svc.List(ctx, me)
	require.NoError(t, err)
	assert.Len(t, inbox, 1)

	theirs, err := svc.List(ctx, other)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}

func TestNotificationValidation(t *testing.T) {
	f := newFixture(t)
	svc := NewNotificationService(f.deps)
	me := actorOf(f.store.SeedUser("me@example.com", models.RoleTeacher))

	_, err := svc.Create(context.Background(), me, &models.NotificationCreateRequest{})
	var verr ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"This field is required."}, verr["message"])
}

func TestNotificationUpdateIsPartial(t *testing.T) {
	f := newFixture(t)
	svc := NewNotificationService(f.deps)
	ctx := context.Background()
	me := actorOf(f.store.SeedUser("me@example.com", models.RoleStudent))

	n, err := svc.Create(ctx, me, &models.NotificationCreateRequest{Message: "draft"})
	require.NoError(t, err)

	edited, err := svc.Update(ctx, me, n.ID, &models.NotificationUpdateRequest{Message: ptr("final")})
	require.NoError(t, err)
	assert.Equal(t, "final", edited.Message)
	assert.False(t, edited.Read)

	read, err := svc.Update(ctx, me, n.ID, &models.NotificationUpdateRequest{Read: ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, "final", read.Message)
	assert.True(t, read.Read)

	unchanged, err := svc.Update(ctx, me, n.ID, &models.NotificationUpdateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "final", unchanged.Message)
	assert.True(t, unchanged.Read)

	_, err = svc.Update(ctx, me, n.ID, &models.NotificationUpdateRequest{Message: ptr("")})
	var verr ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"This field is required."}, verr["message"])

	inbox, err := svc.List(ctx, me)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "final", inbox[0].Message)
}
