package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/pyq-analyzer/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BatchStore records analysis requests
type BatchStore struct {
	db *gorm.DB
}

// NewBatchStore creates a new batch store
func NewBatchStore(db *gorm.DB) *BatchStore {
	return &BatchStore{db: db}
}

func jsonList(items []string) datatypes.JSON {
	if items == nil {
		items = []string{}
	}
	data, _ := json.Marshal(items)
	return datatypes.JSON(data)
}

// Start inserts a processing batch for the given files
func (s *BatchStore) Start(ctx context.Context, fileNames []string) (*model.AnalysisBatch, error) {
	batch := &model.AnalysisBatch{
		Status:      model.AnalysisBatchProcessing,
		FileNames:   jsonList(fileNames),
		FailedFiles: jsonList(nil),
	}
	if err := s.db.WithContext(ctx).Create(batch).Error; err != nil {
		return nil, fmt.Errorf("create analysis batch: %w", err)
	}
	return batch, nil
}

// BatchOutcome summarises a finished batch
type BatchOutcome struct {
	QuestionCount int
	UniqueCount   int
	StoredCount   int
	FailedFiles   []string
	ArchivePrefix string
	Err           error
}

// Finish marks a batch completed, or failed when outcome.Err is set
func (s *BatchStore) Finish(ctx context.Context, batch *model.AnalysisBatch, outcome BatchOutcome) error {
	now := time.Now()
	batch.Status = model.AnalysisBatchCompleted
	batch.ErrorMsg = ""
	if outcome.Err != nil {
		batch.Status = model.AnalysisBatchFailed
		batch.ErrorMsg = outcome.Err.Error()
	}
	batch.QuestionCount = outcome.QuestionCount
	batch.UniqueCount = outcome.UniqueCount
	batch.StoredCount = outcome.StoredCount
	batch.FailedFiles = jsonList(outcome.FailedFiles)
	batch.ArchivePrefix = outcome.ArchivePrefix
	batch.CompletedAt = &now

	if err := s.db.WithContext(ctx).Save(batch).Error; err != nil {
		return fmt.Errorf("finish analysis batch: %w", err)
	}
	return nil
}

// Recent returns the newest batches first
func (s *BatchStore) Recent(ctx context.Context, limit int) ([]model.AnalysisBatch, error) {
	var batches []model.AnalysisBatch
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&batches).Error
	if err != nil {
		return nil, fmt.Errorf("list analysis batches: %w", err)
	}
	return batches, nil
}

// OlderThan returns batches created before cutoff
func (s *BatchStore) OlderThan(ctx context.Context, cutoff time.Time) ([]model.AnalysisBatch, error) {
	var batches []model.AnalysisBatch
	err := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Find(&batches).Error
	if err != nil {
		return nil, fmt.Errorf("list old analysis batches: %w", err)
	}
	return batches, nil
}

// Delete removes the given batches
func (s *BatchStore) Delete(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.AnalysisBatch{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete analysis batches: %w", result.Error)
	}
	return result.RowsAffected, nil
}
