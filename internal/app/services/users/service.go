// Package users implements registration, authentication, and profile
// management.
package users

import (
	"context"
	"errors"
	"strings"

	"github.com/openboard/openboard/internal/apperr"
	"github.com/openboard/openboard/internal/app/domain/user"
	"github.com/openboard/openboard/internal/app/storage"
	"github.com/openboard/openboard/internal/auth"
	"github.com/openboard/openboard/pkg/logger"
)

const minPasswordLen = 8

// Service manages user accounts.
type Service struct {
	store  storage.UserStore
	issuer *auth.TokenIssuer
	log    *logger.Logger
}

// New constructs a user service.
func New(store storage.UserStore, issuer *auth.TokenIssuer, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{store: store, issuer: issuer, log: log}
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, password, nickname, imageURL string) (user.User, error) {
	email = strings.TrimSpace(email)
	nickname = strings.TrimSpace(nickname)

	if email == "" || !strings.Contains(email, "@") {
		return user.User{}, apperr.BadRequest(apperr.CodeInvalidRequest, "a valid email is required")
	}
	if nickname == "" {
		return user.User{}, apperr.BadRequest(apperr.CodeInvalidRequest, "nickname is required")
	}
	if len(password) < minPasswordLen {
		return user.User{}, apperr.BadRequest(apperr.CodeInvalidRequest, "password must be at least 8 characters")
	}

	taken, err := s.store.EmailTaken(ctx, email)
	if err != nil {
		return user.User{}, err
	}
	if taken {
		return user.User{}, apperr.Conflict(apperr.CodeUserDuplicate, "email is already registered")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return user.User{}, err
	}

	created, err := s.store.CreateUser(ctx, user.User{
		Email:    email,
		Password: hash,
		Nickname: nickname,
		ImageURL: imageURL,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return user.User{}, apperr.Conflict(apperr.CodeUserDuplicate, "email is already registered")
	}
	if err != nil {
		return user.User{}, err
	}

	s.log.WithField("user_id", created.ID).Info("user registered")
	return created, nil
}

// Authenticate verifies credentials and returns a signed access token.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, user.User, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return "", user.User{}, apperr.Unauthorized(apperr.CodeInvalidCredentials, "email or password does not match")
	}
	if err != nil {
		return "", user.User{}, err
	}

	if !auth.VerifyPassword(password, u.Password) {
		return "", user.User{}, apperr.Unauthorized(apperr.CodeInvalidCredentials, "email or password does not match")
	}

	token, err := s.issuer.Issue(u.ID, u.Email)
	if err != nil {
		return "", user.User{}, err
	}

	s.log.WithField("user_id", u.ID).Info("user authenticated")
	return token, u, nil
}

// Get resolves an active user.
func (s *Service) Get(ctx context.Context, id int64) (user.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return user.User{}, apperr.NotFound(apperr.CodeUserNotFound, "user not found")
	}
	return u, err
}

// UpdateProfile applies the non-nil profile fields. Only the user
// themselves may update their profile.
func (s *Service) UpdateProfile(ctx context.Context, id, actorID int64, nickname, imageURL *string) (user.User, error) {
	if id != actorID {
		return user.User{}, apperr.Forbidden(apperr.CodeUserForbidden, "cannot modify another user's profile")
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return user.User{}, err
	}

	u.ChangeProfile(nickname, imageURL)
	updated, err := s.store.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, err
	}

	s.log.WithField("user_id", id).Info("profile updated")
	return updated, nil
}

// ChangePassword verifies the current password and stores a new hash.
func (s *Service) ChangePassword(ctx context.Context, id, actorID int64, current, next string) error {
	if id != actorID {
		return apperr.Forbidden(apperr.CodeUserForbidden, "cannot change another user's password")
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if !auth.VerifyPassword(current, u.Password) {
		return apperr.Unauthorized(apperr.CodeInvalidCredentials, "current password does not match")
	}
	if current == next {
		return apperr.BadRequest(apperr.CodeInvalidRequest, "new password must differ from the current one")
	}
	if len(next) < minPasswordLen {
		return apperr.BadRequest(apperr.CodeInvalidRequest, "password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}

	u.ChangePassword(hash)
	if _, err := s.store.UpdateUser(ctx, u); err != nil {
		return err
	}

	s.log.WithField("user_id", id).Info("password changed")
	return nil
}

// Deactivate soft-deletes the account. The row stays so authored posts
// and comments keep a resolvable author.
func (s *Service) Deactivate(ctx context.Context, id, actorID int64) error {
	if id != actorID {
		return apperr.Forbidden(apperr.CodeUserForbidden, "cannot delete another user")
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	u.Delete()
	if _, err := s.store.UpdateUser(ctx, u); err != nil {
		return err
	}

	s.log.WithField("user_id", id).Info("user deactivated")
	return nil
}
