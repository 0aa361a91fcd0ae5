package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/k4sper1love/school-service/internal/cache"
	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/policy"
	"github.com/k4sper1love/school-service/internal/repositories"
	"github.com/k4sper1love/school-service/internal/validator"
)

const msgEmailTaken = "user with this email already exists."

type userService struct {
	base
}

func NewUserService(deps Dependencies) UserService {
	return &userService{base: newBase(deps)}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) Register(ctx context.Context, req *models.UserCreateRequest) (*models.User, error) {
	l := s.log(ctx)
	l.Info("Registering user", "email", req.Email)

	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	role := models.RoleStudent
	if req.Role != "" {
		role, _ = models.ParseRole(req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        normalizeEmail(req.Email),
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: string(hash),
		Role:         role,
	}
	if user.Username == "" {
		user.Username = models.DefaultUsername(user.Email)
	}

	if err := s.repo.User().Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, validator.Field("email", msgEmailTaken)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.cache.Invalidate(ctx, cache.UserListKey)
	l.Info("User registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.User().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown email", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.PasswordHash == "" {
		return nil, fmt.Errorf("%w: password login disabled", ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: password mismatch", ErrUnauthorized)
	}
	return user, nil
}

func (s *userService) Provision(ctx context.Context, email, username string, role models.UserRole) (*models.User, error) {
	email = normalizeEmail(email)
	user, err := s.repo.User().GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !role.Valid() {
		role = models.RoleStudent
	}
	if username == "" {
		username = models.DefaultUsername(email)
	}
	user = &models.User{Email: email, Username: username, Role: role}
	if err := s.repo.User().Create(ctx, user); err != nil {
		// lost a race with a concurrent first request
		if errors.Is(err, repositories.ErrDuplicate) {
			return s.repo.User().GetByEmail(ctx, email)
		}
		return nil, fmt.Errorf("failed to provision user: %w", err)
	}

	s.cache.Invalidate(ctx, cache.UserListKey)
	s.log(ctx).Info("Provisioned user from identity provider", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *userService) List(ctx context.Context, actor policy.Actor) ([]models.User, error) {
	l := s.log(ctx)
	l.Info("Fetching user list")

	switch policy.UserListScope(actor) {
	case policy.ScopeAll:
		if policy.UsesSharedListCache(actor) {
			var users []models.User
			err := s.cache.Fetch(ctx, cache.UserListKey, &users, func(ctx context.Context) (interface{}, error) {
				all, err := s.repo.User().List(ctx, repositories.UserFilters{})
				return orEmpty(all), err
			})
			if err != nil {
				return nil, fmt.Errorf("failed to list users: %w", err)
			}
			return orEmpty(users), nil
		}
		users, err := s.repo.User().List(ctx, repositories.UserFilters{})
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		return orEmpty(users), nil

	case policy.ScopeStudentsOnly:
		role := models.RoleStudent
		users, err := s.repo.User().List(ctx, repositories.UserFilters{Role: &role})
		if err != nil {
			return nil, fmt.Errorf("failed to list users: %w", err)
		}
		return orEmpty(users), nil
	}

	return []models.User{}, nil
}

func (s *userService) Get(ctx context.Context, actor policy.Actor, id uint) (*models.User, error) {
	s.log(ctx).Info("Fetching user", "user_id", id)

	var user models.User
	err := s.cache.Fetch(ctx, cache.UserKey(id), &user, func(ctx context.Context) (interface{}, error) {
		u, err := s.repo.User().GetByID(ctx, id)
		if err != nil {
			return nil, notFoundOr(err, "User", id)
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}

	if !policy.CanViewUser(actor, &user) {
		return nil, NewPermissionError(actor, "user", "read", reasonNotPermitted)
	}
	return &user, nil
}

func (s *userService) Update(ctx context.Context, actor policy.Actor, id uint, req *models.UserUpdateRequest) (*models.User, error) {
	l := s.log(ctx)
	l.Info("Updating user", "user_id", id)

	if err := deny(actor, "user", "update", policy.CanUpdateUser(actor)); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "User", id)
	}

	user.Email = normalizeEmail(req.Email)
	user.Username = strings.TrimSpace(req.Username)
	user.Role, _ = models.ParseRole(req.Role)

	if err := s.repo.User().Update(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, validator.Field("email", msgEmailTaken)
		}
		return nil, notFoundOr(err, "User", id)
	}

	s.invalidateUser(ctx, id, false)
	l.Info("User updated", "user_id", id)
	return user, nil
}

func (s *userService) Delete(ctx context.Context, actor policy.Actor, id uint) error {
	l := s.log(ctx)
	l.Info("Deleting user", "user_id", id)

	if err := deny(actor, "user", "delete", policy.CanDeleteUser(actor)); err != nil {
		return err
	}

	// read the profile first: the cascade removes it
	var studentID uint
	if st, err := s.repo.Student().GetByUserID(ctx, id); err == nil {
		studentID = st.ID
	}

	if err := s.repo.User().Delete(ctx, id); err != nil {
		return notFoundOr(err, "User", id)
	}

	if studentID != 0 {
		s.cache.Invalidate(ctx, cache.StudentKey(studentID))
	}
	s.invalidateUser(ctx, id, true)
	l.Info("User deleted", "user_id", id)
	return nil
}

// invalidateUser drops every cached view that embeds the user. A delete
// cascades to courses, grades and notifications too.
func (s *userService) invalidateUser(ctx context.Context, id uint, deleted bool) {
	keys := []string{cache.UserKey(id), cache.UserListKey, cache.StudentListKey}
	if st, err := s.repo.Student().GetByUserID(ctx, id); err == nil {
		keys = append(keys, cache.StudentKey(st.ID))
	}
	if deleted {
		keys = append(keys, cache.CourseListKey, cache.GradeListKey, cache.NotificationsKey(id))
	}
	s.cache.Invalidate(ctx, keys...)
	s.cache.InvalidatePattern(ctx, cache.AttendanceAll)
	if deleted {
		s.cache.InvalidatePattern(ctx, cache.CourseAll, cache.GradeAll)
	}
}
