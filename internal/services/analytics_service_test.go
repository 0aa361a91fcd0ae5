package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/k4sper1love/school-service/internal/models"
)

func seedTraffic(f *fixture) (uint, uint) {
	u1 := f.store.SeedUser("u1@example.com", models.RoleStudent).ID
	u2 := f.store.SeedUser("u2@example.com", models.RoleTeacher).ID

	f.store.SeedRequestLog(&u1, "/api/courses/", "GET", 200)
	f.store.SeedRequestLog(&u1, "/api/courses/", "GET", 200)
	f.store.SeedRequestLog(&u2, "/api/courses/", "GET", 200)
	f.store.SeedRequestLog(&u2, "/api/grades/", "POST", 201)
	f.store.SeedRequestLog(nil, "/api/token/", "POST", 401)
	f.store.SeedRequestLog(&u1, "/api/grades/", "GET", 200)
	return u1, u2
}

func TestCountsByEndpoint(t *testing.T) {
	f := newFixture(t)
	svc := NewAnalyticsService(f.deps)
	ctx := context.Background()
	u1, u2 := seedTraffic(f)

	all, err := svc.CountsByEndpoint(ctx, models.AnalyticsFilter{})
	require.NoError(t, err)
	assert.Equal(t, []models.EndpointCount{
		{Endpoint: "/api/courses/", RequestCount: 3},
		{Endpoint: "/api/grades/", RequestCount: 2},
		{Endpoint: "/api/token/", RequestCount: 1},
	}, all)

	byUser, err := svc.CountsByEndpoint(ctx, models.AnalyticsFilter{UserID: &u2})
	require.NoError(t, err)
	assert.Equal(t, []models.EndpointCount{
		{Endpoint: "/api/courses/", RequestCount: 1},
		{Endpoint: "/api/grades/", RequestCount: 1},
	}, byUser)

	byMethod, err := svc.CountsByEndpoint(ctx, models.AnalyticsFilter{Method: " post "})
	require.NoError(t, err)
	assert.Equal(t, []models.EndpointCount{
		{Endpoint: "/api/grades/", RequestCount: 1},
		{Endpoint: "/api/token/", RequestCount: 1},
	}, byMethod)

	both, err := svc.CountsByEndpoint(ctx, models.AnalyticsFilter{UserID: &u1, Method: "GET"})
	require.NoError(t, err)
	assert.Equal(t, []models.EndpointCount{
		{Endpoint: "/api/courses/", RequestCount: 2},
		{Endpoint: "/api/grades/", RequestCount: 1},
	}, both)

	nobody := uint(9999)
	empty, err := svc.CountsByEndpoint(ctx, models.AnalyticsFilter{UserID: &nobody})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestRecordAppendsLog(t *testing.T) {
	f := newFixture(t)
	svc := NewAnalyticsService(f.deps)

	require.NoError(t, svc.Record(context.Background(), &models.APIRequestLog{Endpoint: "/api/users/", Method: "GET", StatusCode: 403}))

	logs := f.store.RequestLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, 403, logs[0].StatusCode)
	assert.Nil(t, logs[0].UserID)
	assert.False(t, logs[0].Timestamp.IsZero())
}

func TestExportWritesWorkbook(t *testing.T) {
	f := newFixture(t)
	svc := NewAnalyticsService(f.deps)
	seedTraffic(f)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(context.Background(), models.AnalyticsFilter{}, &buf))

	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Analytics")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Endpoint", "Request Count"},
		{"/api/courses/", "3"},
		{"/api/grades/", "2"},
		{"/api/token/", "1"},
	}, rows)
}
