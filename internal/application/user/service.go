package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redditnobility/backend/internal/domain"
	"github.com/redditnobility/backend/internal/pkg/id"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Profile property keys a moderator (or the user) may change.
const (
	PropertyAvatar      = "avatar"
	PropertyDescription = "description"
)

const defaultTitle = "No Title Identified"

type Service interface {
	Get(ctx context.Context, username string) (*domain.User, error)
	Submit(ctx context.Context, username, discoverer string) (*domain.User, error)
	UpdateProperty(ctx context.Context, username, key, value string) (*domain.User, error)
	ChangePassword(ctx context.Context, userID int64, current, newPassword string) error
	Stats(ctx context.Context, username string) (*domain.ReviewStats, error)
}

type userStore interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, userID int64) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	UpdateProperties(ctx context.Context, userID int64, props domain.UserProperties) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	CountDiscovered(ctx context.Context, discoverer string, since time.Time) (int64, error)
	CountReviewed(ctx context.Context, reviewer string, since time.Time) (int64, error)
}

type service struct {
	repo userStore
}

func NewService(repo userStore) Service {
	return &service{repo: repo}
}

func (s *service) Get(ctx context.Context, username string) (*domain.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// Submit records a newly discovered Reddit account as a Found user awaiting
// review. Submitting a username that already exists is not an error; the
// existing record is returned unchanged so discovery imports can be replayed.
func (s *service) Submit(ctx context.Context, username, discoverer string) (*domain.User, error) {
	existing, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	u := &domain.User{
		ID:         id.New(),
		Username:   username,
		Status:     domain.StatusFound,
		Discoverer: discoverer,
		Title:      defaultTitle,
		Permissions: domain.UserPermissions{
			Submit: true,
			Login:  true,
		},
		Created: time.Now().UTC(),
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}
	log.Info().Str("username", username).Str("discoverer", discoverer).Msg("discovered user submitted")
	return u, nil
}

// UpdateProperty changes a single profile property. Only avatar and
// description are settable; anything else is a validation failure.
func (s *service) UpdateProperty(ctx context.Context, username, key, value string) (*domain.User, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	switch key {
	case PropertyAvatar:
		u.Properties.Avatar = value
	case PropertyDescription:
		u.Properties.Description = value
	default:
		return nil, fmt.Errorf("only avatar or description can be changed: %w", domain.ErrBadRequest)
	}
	if err := s.repo.UpdateProperties(ctx, u.ID, u.Properties); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) ChangePassword(ctx context.Context, userID int64, current, newPassword string) error {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	// A user who has never set a password (OTP-only so far) has no hash to
	// check against.
	if u.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
			return fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash))
}

// Stats returns discovery/review counters attributed to one user, total and
// for the current calendar month.
func (s *service) Stats(ctx context.Context, username string) (*domain.ReviewStats, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	stats := &domain.ReviewStats{}
	if stats.UsersDiscovered, err = s.repo.CountDiscovered(ctx, u.Username, time.Time{}); err != nil {
		return nil, err
	}
	if stats.UsersDiscoveredThisMonth, err = s.repo.CountDiscovered(ctx, u.Username, monthStart); err != nil {
		return nil, err
	}
	if stats.UsersReviewed, err = s.repo.CountReviewed(ctx, u.Username, time.Time{}); err != nil {
		return nil, err
	}
	if stats.UsersReviewedThisMonth, err = s.repo.CountReviewed(ctx, u.Username, monthStart); err != nil {
		return nil, err
	}
	return stats, nil
}
