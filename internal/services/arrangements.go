package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Conceptual-Machines/magda-harmony/internal/logger"
	"github.com/Conceptual-Machines/magda-harmony/internal/models"
	"github.com/Conceptual-Machines/magda-harmony/internal/voicing"
)

// StoredArrangement is an arrangement document as served to clients. ID is
// set only when the run was persisted.
type StoredArrangement struct {
	ID          *uuid.UUID      `json:"id,omitempty"`
	Fingerprint string          `json:"fingerprint"`
	Status      string          `json:"status"`
	Cached      bool            `json:"cached"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
	Result      json.RawMessage `json:"result"`
}

// ArrangementService runs arrangements through the cache and the report
// store around the composer.
type ArrangementService struct {
	composer *Composer
	reports  *ReportService
	cache    *Cache
}

func NewArrangementService(composer *Composer, reports *ReportService, cache *Cache) *ArrangementService {
	return &ArrangementService{composer: composer, reports: reports, cache: cache}
}

// Create returns the arrangement for req, from the cache when an identical
// request was rendered before.
func (s *ArrangementService) Create(ctx context.Context, req models.ArrangementRequest) (*StoredArrangement, error) {
	fingerprint, err := s.composer.RequestFingerprint(req)
	if err != nil {
		return nil, err
	}
	fields := logger.Fields{"fingerprint": fingerprint[:12]}

	data, hit, err := s.cache.Get(ctx, fingerprint)
	if err != nil {
		logger.Warn("Cache lookup failed", fields.With(logger.Fields{"error": err.Error()}))
	}
	if hit {
		stored := &StoredArrangement{Fingerprint: fingerprint, Status: models.RunStatusCompleted, Cached: true, Result: data}
		if run, err := s.reports.FindCompleted(ctx, fingerprint); err == nil {
			stored.ID = &run.PublicID
			stored.CreatedAt = &run.CreatedAt
		}
		logger.Debug("Arrangement served from cache", fields)
		return stored, nil
	}

	start := time.Now()
	result, arrangeErr := s.composer.Arrange(ctx, req)
	duration := time.Since(start)

	if arrangeErr != nil {
		if errors.Is(arrangeErr, voicing.ErrInfeasible) {
			s.persist(ctx, newRun(fingerprint, req, models.RunStatusInfeasible, duration), fields)
		}
		return nil, arrangeErr
	}

	data, err = json.Marshal(result)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, fingerprint, data); err != nil {
		logger.Warn("Cache store failed", fields.With(logger.Fields{"error": err.Error()}))
	}

	stored := &StoredArrangement{Fingerprint: fingerprint, Status: models.RunStatusCompleted, Result: data}

	run := newRun(fingerprint, req, models.RunStatusCompleted, duration)
	run.Result = string(data)
	if report, err := json.Marshal(result.Report); err == nil {
		run.Report = string(report)
	}
	if sections, err := req.FormSpec.Resolve(); err == nil {
		run.Sections = len(sections)
	}
	run.Notes = result.Arrangement.Score.NoteCount()
	run.Errors = len(result.Report.Counterpoint.Errors())
	run.Warnings = len(result.Report.Counterpoint.Warnings())
	run.Style = result.Style

	if s.persist(ctx, run, fields) {
		stored.ID = &run.PublicID
		stored.CreatedAt = &run.CreatedAt
	}
	return stored, nil
}

func newRun(fingerprint string, req models.ArrangementRequest, status string, duration time.Duration) *models.ArrangementRun {
	run := &models.ArrangementRun{
		Fingerprint: fingerprint,
		Status:      status,
		Style:       req.Style,
		Seed:        req.Seed,
		DurationMS:  duration.Milliseconds(),
	}
	if data, err := json.Marshal(req); err == nil {
		run.Request = string(data)
	}
	return run
}

// persist stores run when persistence is on; failures are logged, never
// returned, since the arrangement itself succeeded.
func (s *ArrangementService) persist(ctx context.Context, run *models.ArrangementRun, fields logger.Fields) bool {
	if !s.reports.Enabled() {
		return false
	}
	if err := s.reports.Save(ctx, run); err != nil {
		logger.Error("Failed to store arrangement run", err, fields)
		return false
	}
	return true
}

// Get loads a stored arrangement by public ID
func (s *ArrangementService) Get(ctx context.Context, id uuid.UUID) (*StoredArrangement, error) {
	run, err := s.reports.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	stored := &StoredArrangement{
		ID:          &run.PublicID,
		Fingerprint: run.Fingerprint,
		Status:      run.Status,
		CreatedAt:   &run.CreatedAt,
	}
	if run.Result != "" {
		stored.Result = json.RawMessage(run.Result)
	}
	return stored, nil
}

// Recent lists stored runs, newest first
func (s *ArrangementService) Recent(ctx context.Context, limit int) ([]models.ArrangementRun, error) {
	return s.reports.Recent(ctx, limit)
}

func (s *ArrangementService) Composer() *Composer { return s.composer }
