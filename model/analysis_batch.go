package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnalysisBatchStatus represents the state of one upload-and-analyze request
type AnalysisBatchStatus string

const (
	AnalysisBatchProcessing AnalysisBatchStatus = "processing"
	AnalysisBatchCompleted  AnalysisBatchStatus = "completed"
	AnalysisBatchFailed     AnalysisBatchStatus = "failed"
)

// AnalysisBatch records one POST /api/analyze call
type AnalysisBatch struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt     time.Time           `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	Status        AnalysisBatchStatus `gorm:"type:varchar(20);default:'processing'" json:"status"`
	FileNames     datatypes.JSON      `json:"file_names"`
	FailedFiles   datatypes.JSON      `json:"failed_files"`
	ArchivePrefix string              `gorm:"type:varchar(255)" json:"archive_prefix,omitempty"`
	QuestionCount int                 `gorm:"default:0" json:"question_count"` // extracted, before dedup
	UniqueCount   int                 `gorm:"default:0" json:"unique_count"`
	StoredCount   int                 `gorm:"default:0" json:"stored_count"`
	ErrorMsg      string              `gorm:"type:text" json:"error,omitempty"`
	CompletedAt   *time.Time          `json:"completed_at,omitempty"`
}

func (AnalysisBatch) TableName() string {
	return "analysis_batches"
}

// BeforeCreate assigns a random ID when none is set
func (b *AnalysisBatch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
