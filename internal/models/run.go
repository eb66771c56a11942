package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Run status values
const (
	RunStatusCompleted  = "completed"
	RunStatusInfeasible = "infeasible"
	RunStatusFailed     = "failed"
)

// ArrangementRun is one persisted arrangement request with its result and
// analysis report. Request, Result and Report hold JSON documents.
type ArrangementRun struct {
	ID          uint           `gorm:"primarykey" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	PublicID    uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"id"`
	Fingerprint string         `gorm:"index;not null" json:"fingerprint"`
	Status      string         `gorm:"default:'completed';index" json:"status"`
	Style       string         `json:"style,omitempty"`
	Seed        uint64         `json:"seed"`
	Sections    int            `json:"sections"`
	Notes       int            `json:"notes"`
	Errors      int            `json:"errors"`
	Warnings    int            `json:"warnings"`
	DurationMS  int64          `json:"duration_ms"`
	Request     string         `gorm:"type:text" json:"-"`
	Result      string         `gorm:"type:text" json:"-"`
	Report      string         `gorm:"type:text" json:"-"`
}

// BeforeCreate assigns a public ID when none is set
func (r *ArrangementRun) BeforeCreate(_ *gorm.DB) error {
	if r.PublicID == uuid.Nil {
		r.PublicID = uuid.New()
	}
	return nil
}
