package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/campus/services/events/internal/database"
	"example.com/campus/services/events/internal/models"
)

// ProfileRepository provides access to user profile data
type ProfileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) error
	IsAdmin(ctx context.Context, id uuid.UUID) (bool, error)
}

// profileRepository implements ProfileRepository
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// FindByID finds a profile by id
func (r *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find profile")
	}
	return &profile, nil
}

// Upsert creates or refreshes a profile row from the identity headers. The
// is_admin flag is managed out of band and never written here.
func (r *profileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"email":      profile.Email,
				"full_name":  profile.FullName,
				"updated_at": time.Now(),
			}),
		}).
		Create(profile).Error
	if err != nil {
		return errors.Wrap(err, "failed to upsert profile")
	}
	return nil
}

// IsAdmin reports whether the profile exists and carries the admin flag
func (r *profileRepository) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	profile, err := r.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return profile.IsAdmin, nil
}
