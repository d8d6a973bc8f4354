package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/campus/services/events/internal/database"
	"example.com/campus/services/events/internal/models"
)

// TagRepository provides access to tag and followed-tag data
type TagRepository interface {
	GetOrCreate(ctx context.Context, name string) (*models.Tag, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error)
	FindByName(ctx context.Context, name string) (*models.Tag, error)
	List(ctx context.Context) ([]models.Tag, error)

	Follow(ctx context.Context, userID, tagID uuid.UUID) error
	Unfollow(ctx context.Context, userID, tagID uuid.UUID) error
	IsFollowed(ctx context.Context, userID, tagID uuid.UUID) (bool, error)
	ListFollowedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// tagRepository implements TagRepository
type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

// GetOrCreate returns the tag with the given name, inserting it first if it
// does not exist. The insert carries ON CONFLICT DO NOTHING on the unique
// name, so two near-simultaneous creators of a brand-new tag both converge on
// the single stored row instead of racing a lookup-then-insert sequence.
// Names are matched case-sensitively and are not trimmed here.
func (r *tagRepository) GetOrCreate(ctx context.Context, name string) (*models.Tag, error) {
	return getOrCreateTag(r.db.WithContext(ctx), name)
}

// getOrCreateTag is shared with the event repository's transactional writes
func getOrCreateTag(tx *gorm.DB, name string) (*models.Tag, error) {
	tag := &models.Tag{ID: uuid.New(), Name: name}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(tag).Error
	if err != nil && !database.IsDuplicateKeyError(err) {
		return nil, errors.Wrap(err, "failed to insert tag")
	}

	// A conflicting insert is a no-op; fetch the stored row either way so the
	// caller always sees the canonical id.
	var stored models.Tag
	if err := tx.Where("name = ?", name).First(&stored).Error; err != nil {
		return nil, errors.Wrap(err, "failed to fetch tag after insert")
	}
	return &stored, nil
}

// FindByID finds a tag by ID
func (r *tagRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.WithContext(ctx).First(&tag, "id = ?", id).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find tag by id")
	}
	return &tag, nil
}

// FindByName finds a tag by its exact name
func (r *tagRepository) FindByName(ctx context.Context, name string) (*models.Tag, error) {
	var tag models.Tag
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&tag).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to find tag by name")
	}
	return &tag, nil
}

// List returns all tags ordered by name
func (r *tagRepository) List(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list tags")
	}
	return tags, nil
}

// Follow inserts a followed-tag row. A duplicate insert is a no-op, which
// keeps a double-submitted follow idempotent.
func (r *tagRepository) Follow(ctx context.Context, userID, tagID uuid.UUID) error {
	row := &models.FollowedTag{UserID: userID, TagID: tagID}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
	if err != nil && !database.IsDuplicateKeyError(err) {
		return errors.Wrap(err, "failed to follow tag")
	}
	return nil
}

// Unfollow deletes the followed-tag row. Deleting an absent row is a no-op.
func (r *tagRepository) Unfollow(ctx context.Context, userID, tagID uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND tag_id = ?", userID, tagID).
		Delete(&models.FollowedTag{}).Error
	if err != nil {
		return errors.Wrap(err, "failed to unfollow tag")
	}
	return nil
}

// IsFollowed reports whether a followed-tag row exists for (user, tag)
func (r *tagRepository) IsFollowed(ctx context.Context, userID, tagID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FollowedTag{}).
		Where("user_id = ? AND tag_id = ?", userID, tagID).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "failed to check followed tag")
	}
	return count > 0, nil
}

// ListFollowedIDs returns the tag ids a user follows
func (r *tagRepository) ListFollowedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.FollowedTag{}).
		Where("user_id = ?", userID).
		Pluck("tag_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to list followed tags")
	}
	return ids, nil
}
