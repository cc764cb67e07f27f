package services

import (
	"context"
	"fmt"

	"github.com/sahilchouksey/pyq-analyzer/utils"
)

const (
	topicsMarker = "Topics:"
	// FallbackTopicName labels questions the AI service could not analyze
	FallbackTopicName = "general"
	// TopicRelevanceScore is the constant relevance given to every topic
	TopicRelevanceScore = 1.0

	maxTopicsPerQuestion = 3
	minTopicLength       = 2

	analyzeTopicsPrompt = `Analyze the following question and identify its main topics. A topic is a key concept or subject the question focuses on.
Return the topics in this format:
---
Topics:
- [Topic 1]
- [Topic 2]
- [Topic 3]
---
Question: "%s"`
)

// Topic is a labelled concept of a question
type Topic struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// FallbackTopics is returned when no topic could be parsed
func FallbackTopics() []Topic {
	return []Topic{{Name: FallbackTopicName, Score: TopicRelevanceScore}}
}

// TopicAnalyzer asks the AI service for up to three topics per question
type TopicAnalyzer struct {
	generator Generator
	logger    *utils.Logger
}

// NewTopicAnalyzer creates a new topic analyzer
func NewTopicAnalyzer(generator Generator, logger *utils.Logger) *TopicAnalyzer {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &TopicAnalyzer{generator: generator, logger: logger}
}

// Analyze always returns between one and three topics
func (a *TopicAnalyzer) Analyze(ctx context.Context, question string) []Topic {
	resp, err := a.generator.GenerateText(ctx, fmt.Sprintf(analyzeTopicsPrompt, question))
	if err != nil {
		a.logger.Warn("topic analysis failed, using fallback topic", "question", question, "error", err)
		return FallbackTopics()
	}

	topics := ParseTopics(resp)
	if len(topics) == 0 {
		a.logger.Warn("no topics parsed, using fallback topic", "question", question)
		return FallbackTopics()
	}
	return topics
}

// ParseTopics reads at most three topics after the "Topics:" marker
func ParseTopics(response string) []Topic {
	names := utils.FilterMinLength(utils.ExtractBulletSection(response, topicsMarker), minTopicLength)
	if len(names) > maxTopicsPerQuestion {
		names = names[:maxTopicsPerQuestion]
	}

	topics := make([]Topic, 0, len(names))
	for _, name := range names {
		topics = append(topics, Topic{Name: name, Score: TopicRelevanceScore})
	}
	return topics
}
