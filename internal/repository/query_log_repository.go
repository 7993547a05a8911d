package repository

import (
	"gorm.io/gorm"

	"github.com/mustafamaahir/Meeting-Minutes/internal/model"
)

// QueryLogRepository defines persistence operations for the query audit log.
type QueryLogRepository interface {
	Create(entry *model.QueryLog) error
	// FindRecent returns up to limit entries, newest first.
	FindRecent(limit int) ([]model.QueryLog, error)
}

// queryLogRepository is the GORM implementation of QueryLogRepository.
type queryLogRepository struct {
	db *gorm.DB
}

// NewQueryLogRepository creates a new QueryLogRepository instance.
func NewQueryLogRepository(db *gorm.DB) QueryLogRepository {
	return &queryLogRepository{db: db}
}

// Create inserts one audit-log entry.
func (r *queryLogRepository) Create(entry *model.QueryLog) error {
	return r.db.Create(entry).Error
}

// FindRecent returns up to limit entries, newest first.
func (r *queryLogRepository) FindRecent(limit int) ([]model.QueryLog, error) {
	var entries []model.QueryLog
	err := r.db.Order("timestamp DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
