package model

import (
	"strings"
	"time"
)

// Importance is the ordinal bucket assigned to an analyzed question
type Importance string

const (
	ImportanceLow      Importance = "low"
	ImportanceModerate Importance = "moderate"
	ImportanceHigh     Importance = "high"
)

// Rank orders importance labels: high=3, moderate=2, low=1, unknown=0
func (i Importance) Rank() int {
	switch i {
	case ImportanceHigh:
		return 3
	case ImportanceModerate:
		return 2
	case ImportanceLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether i is one of the three known labels
func (i Importance) Valid() bool {
	return i.Rank() > 0
}

// ResourceTypeYouTube tags resources found through the video search
const ResourceTypeYouTube = "youtube"

// NormalizeQuestion returns the dedup and persistence identity of a question
func NormalizeQuestion(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// AnalyzedQuestion is a unique question aggregated across uploaded papers
type AnalyzedQuestion struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	QuestionText   string     `gorm:"type:text;not null" json:"question"`
	NormalizedKey  string     `gorm:"type:text;not null;uniqueIndex" json:"-"`
	Frequency      int        `gorm:"not null;default:1" json:"frequency"`
	Importance     Importance `gorm:"type:varchar(20);not null" json:"importance"`
	ImportanceRank int        `gorm:"not null;default:1;index" json:"-"`
	Answer         string     `gorm:"type:text" json:"answer"`

	// Relationships
	Topics    []QuestionTopic    `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"topics"`
	Resources []QuestionResource `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"resources"`
	Papers    []QuestionPaper    `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"papers"`
}

func (AnalyzedQuestion) TableName() string {
	return "analyzed_questions"
}

// QuestionTopic is a topical label produced for a question
type QuestionTopic struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	QuestionID uint    `gorm:"not null;index" json:"question_id"`
	Position   int     `gorm:"not null;default:0" json:"-"`
	Name       string  `gorm:"type:varchar(255);not null" json:"name"`
	Score      float64 `gorm:"not null;default:1" json:"score"`
}

func (QuestionTopic) TableName() string {
	return "question_topics"
}

// QuestionResource is an external learning resource attached to a question
type QuestionResource struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	QuestionID     uint    `gorm:"not null;index" json:"question_id"`
	Type           string  `gorm:"type:varchar(20);not null" json:"type"`
	Title          string  `gorm:"type:text;not null" json:"title"`
	URL            string  `gorm:"type:text;not null" json:"url"`
	RelevanceScore float64 `gorm:"not null;default:1" json:"relevance_score"`
}

func (QuestionResource) TableName() string {
	return "question_resources"
}

// QuestionPaper records a source paper a question appeared in
type QuestionPaper struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"not null;index" json:"question_id"`
	Name       string `gorm:"type:varchar(255);not null" json:"name"`
	Year       string `gorm:"type:varchar(4)" json:"year"`
}

func (QuestionPaper) TableName() string {
	return "question_papers"
}
