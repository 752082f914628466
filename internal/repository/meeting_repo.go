package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/agentmeet/agentmeet-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMeetingRepository implements MeetingRepository using GORM.
type GormMeetingRepository struct {
	db *gorm.DB
}

// NewGormMeetingRepository creates a new GORM meeting repository.
func NewGormMeetingRepository(db *gorm.DB) *GormMeetingRepository {
	return &GormMeetingRepository{db: db}
}

// Create creates a new meeting, assigning an ID when the caller left it
// empty. The ID is also the platform call identifier.
func (r *GormMeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	if meeting.ID == "" {
		meeting.ID = uuid.NewString()
	}
	if meeting.Status == "" {
		meeting.Status = domain.MeetingStatusUpcoming
	}
	if err := r.db.WithContext(ctx).Create(meeting).Error; err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}
	return nil
}

// GetByID retrieves a meeting by ID. Returns (nil, nil) when no row exists.
func (r *GormMeetingRepository) GetByID(ctx context.Context, id string) (*domain.Meeting, error) {
	var meeting domain.Meeting
	if err := r.db.WithContext(ctx).First(&meeting, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return &meeting, nil
}

// GetByName retrieves a meeting by its unique name. Returns (nil, nil) when
// no row exists.
func (r *GormMeetingRepository) GetByName(ctx context.Context, name string) (*domain.Meeting, error) {
	var meeting domain.Meeting
	if err := r.db.WithContext(ctx).First(&meeting, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meeting by name: %w", err)
	}
	return &meeting, nil
}

// GetByIDAndStatus retrieves a meeting only when it currently has the given
// status. Returns (nil, nil) when no row matches.
func (r *GormMeetingRepository) GetByIDAndStatus(ctx context.Context, id string, status domain.MeetingStatus) (*domain.Meeting, error) {
	var meeting domain.Meeting
	err := r.db.WithContext(ctx).First(&meeting, "id = ? AND status = ?", id, status).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meeting by status: %w", err)
	}
	return &meeting, nil
}

// GetByUserID retrieves all meetings owned by a user, newest first.
func (r *GormMeetingRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.Meeting, error) {
	var meetings []*domain.Meeting
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&meetings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get meetings by user ID: %w", err)
	}
	return meetings, nil
}

// UpdateIfStatus applies the update with an expected-status filter so a
// delivery that raced another one affects zero rows instead of clobbering
// the newer state. RowsAffected is surfaced to the caller, which decides
// whether zero rows means not-found or already-advanced.
func (r *GormMeetingRepository) UpdateIfStatus(ctx context.Context, id string, expected domain.MeetingStatus, update domain.MeetingUpdate) (bool, error) {
	values := map[string]interface{}{}
	if update.Status != nil {
		values["status"] = *update.Status
	}
	if update.StartedAt != nil {
		values["started_at"] = *update.StartedAt
	}
	if update.EndedAt != nil {
		values["ended_at"] = *update.EndedAt
	}
	if update.TranscriptURL != nil {
		values["transcript_url"] = *update.TranscriptURL
	}
	if update.RecordingURL != nil {
		values["recording_url"] = *update.RecordingURL
	}
	if len(values) == 0 {
		return false, fmt.Errorf("empty meeting update for %s", id)
	}

	res := r.db.WithContext(ctx).
		Model(&domain.Meeting{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(values)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update meeting: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
