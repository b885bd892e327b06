// Package account syncs the profile document the frontend keeps for each
// identity-provider user.
package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"storefront-backend/internal/apperr"
	"storefront-backend/internal/identity"
	"storefront-backend/internal/models"
	"storefront-backend/internal/store"
)

type Profile struct {
	FirstName    string `json:"firstname" binding:"required,min=1,max=100"`
	LastName     string `json:"lastname" binding:"required,min=1,max=100"`
	MobileNumber string `json:"mobilenumber" binding:"required,min=10,max=20"`
}

type Service struct {
	users store.Users
	log   *slog.Logger
	now   func() time.Time
}

func NewService(users store.Users, log *slog.Logger) *Service {
	return &Service{users: users, log: log, now: time.Now}
}

// Me returns the stored profile. Email always comes from the verified token.
func (s *Service) Me(ctx context.Context, who identity.User) (*models.User, error) {
	user, err := s.users.Get(ctx, who.UID)
	if errors.Is(err, store.ErrNotFound) {
		s.log.Warn("profile not found", "user_id", who.UID)
		return nil, apperr.NotFound("User profile")
	}
	if err != nil {
		s.log.Error("fetch profile failed", "user_id", who.UID, "error", err)
		return nil, apperr.Internal("Error fetching user profile", err)
	}
	user.Email = who.Email
	return user, nil
}

// Save creates the profile on first call and overwrites it afterwards. It
// reports whether the profile was created.
func (s *Service) Save(ctx context.Context, who identity.User, p Profile) (created bool, err error) {
	now := s.now().UTC().Truncate(time.Millisecond)

	existing, err := s.users.Get(ctx, who.UID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		created = true
	case err != nil:
		s.log.Error("fetch profile failed", "user_id", who.UID, "error", err)
		return false, apperr.Internal("Error updating profile", err)
	}

	user := &models.User{
		UID:          who.UID,
		Email:        who.Email,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		MobileNumber: p.MobileNumber,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if existing != nil {
		user.CreatedAt = existing.CreatedAt
	}

	if err := s.users.Put(ctx, user); err != nil {
		s.log.Error("save profile failed", "user_id", who.UID, "error", err)
		return false, apperr.Internal("Error updating profile", err)
	}

	s.log.Info("profile saved", "user_id", who.UID, "created", created)
	return created, nil
}
