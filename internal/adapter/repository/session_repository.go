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

// SessionRepository implements session storage using GORM
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// EnsureSession guarantees a session row exists for id, creating a minimal
// placeholder if none does. Concurrent first-webhook deliveries race on the
// check-then-insert, so the insert carries ON CONFLICT DO NOTHING: losing
// the race is success, not failure.
func (r *SessionRepository) EnsureSession(ctx context.Context, id uuid.UUID) error {
	var existing entities.Session
	err := r.db.WithContext(ctx).Select("id").Where("id = ?", id).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to look up session: %w", err)
	}

	session := entities.NewPlaceholderSession(id)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(session).Error; err != nil {
		return fmt.Errorf("failed to create placeholder session: %w", err)
	}
	return nil
}

// FindByID finds a session by ID
func (r *SessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Session, error) {
	var session entities.Session
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find session by ID: %w", err)
	}
	return &session, nil
}
