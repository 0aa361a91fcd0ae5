package services

import (
	"context"

	"github.com/k4sper1love/school-service/internal/cache"
	"github.com/k4sper1love/school-service/internal/events"
	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/repositories"
	"github.com/k4sper1love/school-service/internal/utils"
	"github.com/k4sper1love/school-service/internal/validator"
)

// reasonNotPermitted is the generic denial for reads outside the actor's scope.
const reasonNotPermitted = "You do not have permission to perform this action."

// Dependencies shared by every service.
type Dependencies struct {
	Repo       repositories.Repository
	Cache      *cache.Layer
	Dispatcher events.NotificationDispatcher
	Logger     utils.Logger
	Validator  *validator.BusinessValidator
}

type base struct {
	repo       repositories.Repository
	cache      *cache.Layer
	dispatcher events.NotificationDispatcher
	logger     utils.Logger
	validator  *validator.BusinessValidator
}

func newBase(d Dependencies) base {
	if d.Logger == nil {
		d.Logger = utils.NewNopLogger()
	}
	if d.Cache == nil {
		d.Cache = cache.NewLayer(nil, 0, d.Logger)
	}
	if d.Validator == nil {
		d.Validator = validator.NewBusinessValidator()
	}
	return base{
		repo:       d.Repo,
		cache:      d.Cache,
		dispatcher: d.Dispatcher,
		logger:     d.Logger,
		validator:  d.Validator,
	}
}

// log returns the request scoped logger when present.
func (b *base) log(ctx context.Context) utils.Logger {
	return utils.LoggerFromContext(ctx, b.logger)
}

// notify enqueues task if a dispatcher is wired. It never fails the caller.
func (b *base) notify(ctx context.Context, task events.Task) {
	if b.dispatcher == nil {
		return
	}
	b.dispatcher.Enqueue(ctx, task)
}

func recipientOf(st *models.Student) events.Recipient {
	return events.Recipient{UserID: st.UserID, Email: st.User.Email}
}

// orEmpty keeps empty lists rendering as [] rather than null.
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
