package services

import (
	"unicode/utf8"

	"github.com/sahilchouksey/pyq-analyzer/model"
)

const (
	importanceLengthUnit    = 50.0
	highImportanceScore     = 5.0
	moderateImportanceScore = 3.0
)

// ImportanceScore is len(text)/50 + topicCount
func ImportanceScore(text string, topicCount int) float64 {
	return float64(utf8.RuneCountInString(text))/importanceLengthUnit + float64(topicCount)
}

// ClassifyScore buckets a score: >5 high, >3 moderate, else low
func ClassifyScore(score float64) model.Importance {
	switch {
	case score > highImportanceScore:
		return model.ImportanceHigh
	case score > moderateImportanceScore:
		return model.ImportanceModerate
	default:
		return model.ImportanceLow
	}
}

// ClassifyImportance labels a question from its text length and topic count
func ClassifyImportance(text string, topicCount int) model.Importance {
	return ClassifyScore(ImportanceScore(text, topicCount))
}
