package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/k4sper1love/school-service/internal/config"
	"github.com/k4sper1love/school-service/internal/models"
)

// CasdoorAuthenticator accepts tokens signed by the configured Casdoor
// application and maps them to local users by email.
type CasdoorAuthenticator struct {
	client *casdoorsdk.Client
	users  UserProvisioner
}

func NewCasdoorAuthenticator(cfg config.CasdoorConfig, users UserProvisioner) *CasdoorAuthenticator {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorAuthenticator{client: client, users: users}
}

func (a *CasdoorAuthenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := a.client.ParseJwtToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	email, username, role, err := identityFromClaims(claims)
	if err != nil {
		return nil, err
	}

	user, err := a.users.Provision(ctx, email, username, role)
	if err != nil {
		return nil, fmt.Errorf("failed to provision casdoor user: %w", err)
	}
	return user, nil
}

func identityFromClaims(claims *casdoorsdk.Claims) (email, username string, role models.UserRole, err error) {
	email = strings.TrimSpace(claims.User.Email)
	if email == "" {
		return "", "", "", fmt.Errorf("%w: token carries no email", ErrInvalidToken)
	}
	return email, claims.User.Name, roleFromCasdoorUser(&claims.User), nil
}

// roleFromCasdoorUser prefers admin, then the first mapped role, then the user type.
func roleFromCasdoorUser(u *casdoorsdk.User) models.UserRole {
	if u.IsAdmin {
		return models.RoleAdmin
	}

	var first models.UserRole
	for _, r := range u.Roles {
		if r == nil {
			continue
		}
		mapped, ok := mapCasdoorRole(r.Name)
		if !ok {
			continue
		}
		if mapped == models.RoleAdmin {
			return models.RoleAdmin
		}
		if first == "" {
			first = mapped
		}
	}
	if first != "" {
		return first
	}

	if mapped, ok := mapCasdoorRole(u.Type); ok {
		return mapped
	}
	return models.RoleStudent
}

func mapCasdoorRole(name string) (models.UserRole, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "admin", "administrator":
		return models.RoleAdmin, true
	case "teacher", "instructor", "educator":
		return models.RoleTeacher, true
	case "student", "learner":
		return models.RoleStudent, true
	}
	return "", false
}
