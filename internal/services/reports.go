package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Conceptual-Machines/magda-harmony/internal/models"
)

var (
	ErrPersistenceDisabled = errors.New("persistence is not configured")
	ErrNotFound            = errors.New("arrangement not found")
)

const maxRecentRuns = 100

// ReportService stores arrangement runs. A nil database disables it.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

func (s *ReportService) Enabled() bool { return s != nil && s.db != nil }

// Save inserts a run and fills its IDs
func (s *ReportService) Save(ctx context.Context, run *models.ArrangementRun) error {
	if !s.Enabled() {
		return ErrPersistenceDisabled
	}
	return s.db.WithContext(ctx).Create(run).Error
}

// Get retrieves a run by public ID
func (s *ReportService) Get(ctx context.Context, id uuid.UUID) (*models.ArrangementRun, error) {
	if !s.Enabled() {
		return nil, ErrPersistenceDisabled
	}
	var run models.ArrangementRun
	if err := s.db.WithContext(ctx).Where("public_id = ?", id).First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// FindCompleted returns the latest completed run for a fingerprint
func (s *ReportService) FindCompleted(ctx context.Context, fingerprint string) (*models.ArrangementRun, error) {
	if !s.Enabled() {
		return nil, ErrPersistenceDisabled
	}
	var run models.ArrangementRun
	err := s.db.WithContext(ctx).
		Where("fingerprint = ? AND status = ?", fingerprint, models.RunStatusCompleted).
		Order("created_at DESC").
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

// Recent lists the newest runs without their documents
func (s *ReportService) Recent(ctx context.Context, limit int) ([]models.ArrangementRun, error) {
	if !s.Enabled() {
		return nil, ErrPersistenceDisabled
	}
	if limit <= 0 || limit > maxRecentRuns {
		limit = maxRecentRuns
	}
	var runs []models.ArrangementRun
	err := s.db.WithContext(ctx).
		Omit("request", "result", "report").
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}
