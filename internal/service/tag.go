package service

import (
	"context"
	"time"

	"example.com/campus/services/events/internal/cache"
	"example.com/campus/services/events/internal/models"
	"example.com/campus/services/events/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// TagWithFollowState pairs a tag with whether the caller follows it
type TagWithFollowState struct {
	models.Tag
	Followed bool `json:"followed"`
}

// TagService handles tag and tag-follow business logic
type TagService interface {
	ListWithFollowState(ctx context.Context, userID uuid.UUID) ([]TagWithFollowState, error)
	ToggleFollow(ctx context.Context, userID, tagID uuid.UUID) (bool, error)
}

type tagService struct {
	tagRepo repository.TagRepository
	cache   *cache.RedisCache
}

// NewTagService creates a new tag service
func NewTagService(tagRepo repository.TagRepository, cache *cache.RedisCache) TagService {
	return &tagService{tagRepo: tagRepo, cache: cache}
}

// ListWithFollowState returns every tag annotated with the caller's follow
// flag. The tag list itself is cached; follow state is always read fresh.
func (s *tagService) ListWithFollowState(ctx context.Context, userID uuid.UUID) ([]TagWithFollowState, error) {
	var tags []models.Tag
	cacheKey := cache.GetTagListCacheKey()

	if s.cache.Enabled() {
		if err := s.cache.Get(ctx, cacheKey, &tags); err != nil {
			tags = nil
		}
	}

	if tags == nil {
		var err error
		tags, err = s.tagRepo.List(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "failed to list tags")
		}
		if s.cache.Enabled() {
			if err := s.cache.Set(ctx, cacheKey, tags, time.Minute); err != nil {
				log.Warn().Err(err).Msg("failed to cache tag list")
			}
		}
	}

	followedIDs, err := s.tagRepo.ListFollowedIDs(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list followed tags")
	}
	followed := make(map[uuid.UUID]bool, len(followedIDs))
	for _, id := range followedIDs {
		followed[id] = true
	}

	out := make([]TagWithFollowState, 0, len(tags))
	for _, tag := range tags {
		out = append(out, TagWithFollowState{Tag: tag, Followed: followed[tag.ID]})
	}
	return out, nil
}

// ToggleFollow flips the caller's follow state for a tag and returns the new
// state. Both directions are single idempotent writes.
func (s *tagService) ToggleFollow(ctx context.Context, userID, tagID uuid.UUID) (bool, error) {
	if _, err := s.tagRepo.FindByID(ctx, tagID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}

	isFollowed, err := s.tagRepo.IsFollowed(ctx, userID, tagID)
	if err != nil {
		return false, errors.Wrap(err, "failed to read follow state")
	}

	if isFollowed {
		if err := s.tagRepo.Unfollow(ctx, userID, tagID); err != nil {
			return false, errors.Wrap(err, "failed to unfollow tag")
		}
		return false, nil
	}

	if err := s.tagRepo.Follow(ctx, userID, tagID); err != nil {
		return false, errors.Wrap(err, "failed to follow tag")
	}
	return true, nil
}
