package entities

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle state of a captioning session
type SessionStatus string

const (
	SessionStatusActive SessionStatus = "active"
	SessionStatusEnded  SessionStatus = "ended"
)

// Session represents a classroom captioning session. Normally created by the
// session flow when a class starts; the ingestion pipeline also creates a
// minimal placeholder when a webhook arrives for a session it has never seen,
// so transcript data is captured instead of rejected.
type Session struct {
	ID        uuid.UUID     `json:"id" gorm:"type:uuid;primary_key"`
	Status    SessionStatus `json:"status" gorm:"type:varchar(50);not null;default:'active'"`
	CreatedAt time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Session) TableName() string {
	return "sessions"
}

// NewPlaceholderSession creates the minimal session row the pipeline inserts
// when a webhook references an unknown session id
func NewPlaceholderSession(id uuid.UUID) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Status:    SessionStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
