package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classcaption-team/classcaption/internal/domain/entities"
)

// TranscriptionRepository handles transcription data operations
type TranscriptionRepository struct {
	db *gorm.DB
}

// NewTranscriptionRepository creates a new transcription repository
func NewTranscriptionRepository(db *gorm.DB) *TranscriptionRepository {
	return &TranscriptionRepository{db: db}
}

// Upsert inserts the transcription or, when a row for the same upstream job
// id already exists, overwrites its mutable fields. The conflict target is
// the unique index on job_id, not the primary key: the provider delivers
// webhooks at least once and the latest delivery is authoritative.
func (r *TranscriptionRepository) Upsert(ctx context.Context, t *entities.Transcription) error {
	if t == nil {
		return errors.New("transcription cannot be nil")
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "job_id"}},
			UpdateAll: true,
		}).
		Create(t).Error
	if err != nil {
		return fmt.Errorf("failed to upsert transcription: %w", err)
	}
	return nil
}

// GetByJobID retrieves a transcription by its upstream job id
func (r *TranscriptionRepository) GetByJobID(ctx context.Context, jobID string) (*entities.Transcription, error) {
	var t entities.Transcription
	if err := r.db.WithContext(ctx).Where("job_id = ?", jobID).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find transcription by job id: %w", err)
	}
	return &t, nil
}

// ListBySessionID lists transcriptions for a session, newest first
func (r *TranscriptionRepository) ListBySessionID(ctx context.Context, sessionID uuid.UUID) ([]*entities.Transcription, error) {
	var transcriptions []*entities.Transcription
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&transcriptions).Error; err != nil {
		return nil, fmt.Errorf("failed to list transcriptions: %w", err)
	}
	return transcriptions, nil
}
