package services

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/k4sper1love/school-service/internal/cache"
	"github.com/k4sper1love/school-service/internal/events"
	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/policy"
	"github.com/k4sper1love/school-service/internal/repositories/repotest"
	"github.com/k4sper1love/school-service/internal/utils"
	"github.com/k4sper1love/school-service/internal/validator"
)

type fixture struct {
	store      *repotest.Store
	redis      *miniredis.Miniredis
	dispatcher *events.RecordingDispatcher
	deps       Dependencies
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger := utils.NewNopLogger()
	store := repotest.NewStore()
	dispatcher := &events.RecordingDispatcher{}

	return &fixture{
		store:      store,
		redis:      mr,
		dispatcher: dispatcher,
		deps: Dependencies{
			Repo:       store,
			Cache:      cache.NewLayer(cache.NewCacheHelper(client, cache.DefaultPrefix), cache.DefaultTTL, logger),
			Dispatcher: dispatcher,
			Logger:     logger,
			Validator:  validator.NewBusinessValidator(),
		},
	}
}

func actorOf(u *models.User) policy.Actor {
	return policy.Actor{UserID: u.ID, Role: u.Role}
}

func ptr[T any](v T) *T {
	return &v
}
