// Package auth resolves bearer tokens to local users.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/k4sper1love/school-service/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Authenticator maps a raw bearer token to a local user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// UserLookup loads users by primary key.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// UserProvisioner returns the local user for an external identity, creating it on first sight.
type UserProvisioner interface {
	Provision(ctx context.Context, email, username string, role models.UserRole) (*models.User, error)
}

// Chain tries each authenticator in order and returns the first match.
type Chain []Authenticator

func (c Chain) Authenticate(ctx context.Context, token string) (*models.User, error) {
	var errs []error
	for _, a := range c {
		if a == nil {
			continue
		}
		user, err := a.Authenticate(ctx, token)
		if err == nil {
			return user, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no authenticator configured", ErrInvalidToken)
	}
	return nil, fmt.Errorf("%w: %w", ErrInvalidToken, errors.Join(errs...))
}
