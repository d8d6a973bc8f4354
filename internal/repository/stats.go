package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"example.com/campus/services/events/internal/models"
)

// Stats is a point-in-time row count summary for the admin view
type Stats struct {
	Events        int64 `json:"events"`
	Tags          int64 `json:"tags"`
	RSVPs         int64 `json:"rsvps"`
	Attending     int64 `json:"attending"`
	FollowedTags  int64 `json:"followed_tags"`
	Notifications int64 `json:"notifications"`
	Profiles      int64 `json:"profiles"`
}

// StatsRepository reads aggregate counts across the schema
type StatsRepository interface {
	Collect(ctx context.Context) (*Stats, error)
}

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

// Collect counts the rows behind each admin stat
func (r *statsRepository) Collect(ctx context.Context) (*Stats, error) {
	db := r.db.WithContext(ctx)
	var stats Stats

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.Event{}, &stats.Events},
		{&models.Tag{}, &stats.Tags},
		{&models.UserEvent{}, &stats.RSVPs},
		{&models.FollowedTag{}, &stats.FollowedTags},
		{&models.EventNotificationPreference{}, &stats.Notifications},
		{&models.Profile{}, &stats.Profiles},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, errors.Wrap(err, "failed to collect stats")
		}
	}

	err := db.Model(&models.UserEvent{}).
		Where("status = ?", models.RSVPAttending).
		Count(&stats.Attending).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to count attending RSVPs")
	}

	return &stats, nil
}
