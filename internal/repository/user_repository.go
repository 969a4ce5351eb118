package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ecowatch/api/internal/ecoerr"
	"ecowatch/api/internal/models"
	"ecowatch/api/internal/store"
)

const userPrefix = "user_"

// UserRepository enforces username (case-insensitive) and email uniqueness
// on top of the generic core.
type UserRepository struct {
	*Repository[models.UserProfile]
}

func NewUserRepository(ctx context.Context, kv store.KV, logger zerolog.Logger) (*UserRepository, error) {
	core, err := New(ctx, kv, logger, Config[models.UserProfile]{
		Prefix: userPrefix,
		ID:     func(u *models.UserProfile) string { return u.ID },
		SetID:  func(u *models.UserProfile, id string) { u.ID = id },
		CreatedAt: func(u *models.UserProfile) time.Time { return u.CreatedAt },
		SetCreatedAt: func(u *models.UserProfile, t time.Time) { u.CreatedAt = t },
		Normalize: func(u *models.UserProfile) {
			if u.Status == "" {
				u.Status = models.UserStatusActive
			}
			if u.Role == models.RoleNone {
				u.Role = models.RoleUser
			}
		},
		ConflictsWith: func(candidate, existing *models.UserProfile) bool {
			if strings.EqualFold(candidate.Username, existing.Username) {
				return true
			}
			return candidate.Email != "" && candidate.Email == existing.Email
		},
	})
	if err != nil {
		return nil, err
	}
	return &UserRepository{Repository: core}, nil
}

// Update rejects patches whose username or email would collide with
// another profile; uniqueness holds across updates, not just adds.
func (r *UserRepository) Update(ctx context.Context, id string, patch map[string]any) (models.UserProfile, error) {
	username, _ := patch["username"].(string)
	email, _ := patch["email"].(string)
	if username != "" || email != "" {
		for _, existing := range r.List() {
			if existing.ID == id {
				continue
			}
			if username != "" && strings.EqualFold(existing.Username, username) {
				return models.UserProfile{}, fmt.Errorf("%supdate username: %w", userPrefix, ecoerr.ErrDuplicate)
			}
			if email != "" && existing.Email == email {
				return models.UserProfile{}, fmt.Errorf("%supdate email: %w", userPrefix, ecoerr.ErrDuplicate)
			}
		}
	}
	return r.Repository.Update(ctx, id, patch)
}

// FindByUsername matches case-insensitively.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (models.UserProfile, error) {
	for _, user := range r.List() {
		if strings.EqualFold(user.Username, username) {
			return user, nil
		}
	}
	return models.UserProfile{}, fmt.Errorf("user %q: %w", username, ecoerr.ErrNotFound)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.UserProfile, error) {
	for _, user := range r.List() {
		if user.Email == email {
			return user, nil
		}
	}
	return models.UserProfile{}, fmt.Errorf("user by email: %w", ecoerr.ErrNotFound)
}

// Rescuers returns the profiles eligible for report assignment.
func (r *UserRepository) Rescuers() []models.UserProfile {
	var out []models.UserProfile
	for _, user := range r.List() {
		if user.Role == models.RoleRescuer {
			out = append(out, user)
		}
	}
	return out
}
