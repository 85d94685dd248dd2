package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/contacts-api/internal/models"
)

const logBatchSize = 50

// LogRepository persists system logs outside of any request transaction.
type LogRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

func (r *LogRepository) SaveLogs(ctx context.Context, logs []models.SystemLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(logs, logBatchSize).Error
}

func (r *LogRepository) DeleteLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
