package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"tender-scout-go/internal/models"
)

// ErrInvalidField is returned by UpdateField for a column outside the
// mutable whitelist. The record is left untouched.
var ErrInvalidField = errors.New("invalid field name")

// mutableFields lists the columns UpdateField may touch.
var mutableFields = map[string]struct{}{
	"title":          {},
	"organization":   {},
	"posted_date":    {},
	"closing_date":   {},
	"location":       {},
	"url":            {},
	"source":         {},
	"tender_content": {},
	"state":          {},
	"is_sent":        {},
}

// TenderStore provides persistence and query primitives over tenders.
// Each operation is a single independently-atomic statement; callers that
// compose check-then-act sequences own the resulting races.
type TenderStore struct {
	db *gorm.DB
}

// New creates a new tender store
func New(db *gorm.DB) *TenderStore {
	return &TenderStore{db: db}
}

// Create inserts a new tender with pipeline defaults and assigns its ID.
func (s *TenderStore) Create(t *models.Tender) error {
	if t.State == "" {
		t.State = models.StateWaitingForFiltering
	}
	t.IsSent = false
	if err := s.db.Create(t).Error; err != nil {
		return fmt.Errorf("failed to create tender: %w", err)
	}
	return nil
}

// Exists reports whether a tender with the given dedup key
// (title, posted_date) is already stored.
func (s *TenderStore) Exists(title, postedDate string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Tender{}).
		Where("title = ? AND posted_date = ?", title, postedDate).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check tender existence: %w", err)
	}
	return count > 0, nil
}

// GetByState returns tenders in the given state, up to limit records.
// A limit of zero or less means no cap. Order is unspecified.
func (s *TenderStore) GetByState(state string, limit int) ([]models.Tender, error) {
	var tenders []models.Tender
	query := s.db.Where("state = ?", state)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&tenders).Error; err != nil {
		return nil, fmt.Errorf("failed to get tenders by state: %w", err)
	}
	return tenders, nil
}

// GetByStateAndSent returns tenders matching both the state and the sent
// flag, most recently posted first so delivery order is deterministic.
func (s *TenderStore) GetByStateAndSent(state string, isSent bool) ([]models.Tender, error) {
	var tenders []models.Tender
	err := s.db.Where("state = ? AND is_sent = ?", state, isSent).
		Order("posted_date DESC").
		Find(&tenders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get tenders by state and sent status: %w", err)
	}
	return tenders, nil
}

// CountByState counts tenders in the given state.
func (s *TenderStore) CountByState(state string) (int64, error) {
	var count int64
	err := s.db.Model(&models.Tender{}).Where("state = ?", state).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count tenders by state: %w", err)
	}
	return count, nil
}

// UpdateField updates a single whitelisted column of a tender and reports
// whether a record was actually affected (false for an unknown id).
func (s *TenderStore) UpdateField(id uint, field string, value interface{}) (bool, error) {
	if _, ok := mutableFields[field]; !ok {
		return false, fmt.Errorf("%w: %s", ErrInvalidField, field)
	}
	result := s.db.Model(&models.Tender{}).Where("id = ?", id).Update(field, value)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update tender field: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// MarkNotified flips the sent flag and advances a qualified tender to the
// notified state in one statement, so the two writes cannot diverge.
func (s *TenderStore) MarkNotified(id uint) (bool, error) {
	result := s.db.Model(&models.Tender{}).
		Where("id = ? AND state = ?", id, models.StateQualified).
		Updates(map[string]interface{}{
			"is_sent": true,
			"state":   models.StateNotified,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark tender as notified: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// GetByID returns a single tender by its id, or gorm.ErrRecordNotFound.
func (s *TenderStore) GetByID(id uint) (*models.Tender, error) {
	var tender models.Tender
	if err := s.db.First(&tender, id).Error; err != nil {
		return nil, err
	}
	return &tender, nil
}
