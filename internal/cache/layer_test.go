package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/k4sper1love/school-service/internal/utils"
)

type course struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func newTestLayer(t *testing.T) (*Layer, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLayer(NewCacheHelper(client, DefaultPrefix), DefaultTTL, utils.NewNopLogger()), mr
}

func TestFetchMissThenHit(t *testing.T) {
	layer, mr := newTestLayer(t)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) (interface{}, error) {
		loads++
		return []course{{ID: 1, Name: "Physics"}}, nil
	}

	var first []course
	require.NoError(t, layer.Fetch(ctx, CourseListKey, &first, load))
	assert.Equal(t, 1, loads)
	assert.True(t, mr.Exists("school:course_list"))

	var second []course
	require.NoError(t, layer.Fetch(ctx, CourseListKey, &second, load))
	assert.Equal(t, 1, loads, "second read should be served from cache")
	assert.Equal(t, first, second)
}

func TestFetchExpiresAfterTTL(t *testing.T) {
	layer, mr := newTestLayer(t)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) (interface{}, error) {
		loads++
		return course{ID: 1, Name: "Physics"}, nil
	}

	var out course
	require.NoError(t, layer.Fetch(ctx, CourseKey(1), &out, load))
	assert.Equal(t, DefaultTTL, mr.TTL("school:course_1"))

	mr.FastForward(DefaultTTL + time.Second)

	require.NoError(t, layer.Fetch(ctx, CourseKey(1), &out, load))
	assert.Equal(t, 2, loads)
}

func TestFetchFallsThroughWhenCacheIsDown(t *testing.T) {
	layer, mr := newTestLayer(t)
	mr.Close()

	var out course
	err := layer.Fetch(context.Background(), CourseKey(1), &out, func(context.Context) (interface{}, error) {
		return course{ID: 1, Name: "Physics"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Physics", out.Name)

	layer.Invalidate(context.Background(), CourseKey(1))
	layer.InvalidatePattern(context.Background(), AttendanceListAll)
}

func TestFetchWithoutRedis(t *testing.T) {
	layer := NewLayer(nil, 0, utils.NewNopLogger())
	assert.Equal(t, DefaultTTL, layer.TTL())

	loads := 0
	for i := 0; i < 2; i++ {
		var out course
		require.NoError(t, layer.Fetch(context.Background(), "k", &out, func(context.Context) (interface{}, error) {
			loads++
			return course{ID: 2}, nil
		}))
	}
	assert.Equal(t, 2, loads)
}

func TestFetchPropagatesLoadError(t *testing.T) {
	layer, mr := newTestLayer(t)

	var out course
	err := layer.Fetch(context.Background(), CourseKey(9), &out, func(context.Context) (interface{}, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, mr.Exists("school:course_9"))
}

func TestInvalidate(t *testing.T) {
	layer, mr := newTestLayer(t)
	ctx := context.Background()

	layer.Set(ctx, CourseKey(1), course{ID: 1})
	layer.Set(ctx, CourseListKey, []course{{ID: 1}})
	layer.Set(ctx, AttendanceListKey(3), []int{1})
	layer.Set(ctx, AttendanceListKey(4), []int{2})
	layer.Set(ctx, NotificationsKey(3), []int{})

	layer.Invalidate(ctx, CourseKey(1), CourseListKey)
	assert.False(t, mr.Exists("school:course_1"))
	assert.False(t, mr.Exists("school:course_list"))

	layer.InvalidatePattern(ctx, AttendanceListAll)
	assert.False(t, mr.Exists("school:attendance_list_3"))
	assert.False(t, mr.Exists("school:attendance_list_4"))
	assert.True(t, mr.Exists("school:notifications_3"))
}

func TestCacheHelperHealthCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	assert.NoError(t, NewCacheHelper(client, DefaultPrefix).HealthCheck(context.Background()))
	assert.ErrorIs(t, NewCacheHelper(nil, "").HealthCheck(context.Background()), ErrCacheNotAvailable)

	var v string
	assert.ErrorIs(t, NewCacheHelper(client, DefaultPrefix).Get(context.Background(), "missing", &v), ErrCacheNotFound)
}
