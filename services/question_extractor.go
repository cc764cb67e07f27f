package services

import (
	"context"
	"fmt"

	"github.com/sahilchouksey/pyq-analyzer/utils"
)

const (
	questionsMarker = "Questions:"
	// questions of this many characters or fewer are treated as noise
	minQuestionLength = 5

	extractQuestionsPrompt = `Extract all questions from this PDF. A question is a sentence ending with a question mark (?)
or a prompt asking for information (e.g., "What are...", "Differentiate...", "Explain...").
Return questions in this format:
---
Questions:
- [Question 1]
- [Question 2]
...
---`
)

// Generator is the text-generation capability the pipeline needs from the AI service
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateWithDocument(ctx context.Context, mimeType string, data []byte, prompt string) (string, error)
}

// Document is one uploaded question paper
type Document struct {
	Name     string
	MIMEType string
	Content  []byte
}

// ExtractedQuestion is a question paired with the paper it came from
type ExtractedQuestion struct {
	Text           string
	SourceDocument string
}

// QuestionExtractor turns question papers into flat question lists
type QuestionExtractor struct {
	generator Generator
	logger    *utils.Logger
}

// NewQuestionExtractor creates a new question extractor
func NewQuestionExtractor(generator Generator, logger *utils.Logger) *QuestionExtractor {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &QuestionExtractor{generator: generator, logger: logger}
}

// Extract processes documents in order. A document whose AI call fails
// contributes no questions and is reported in the failed list.
func (e *QuestionExtractor) Extract(ctx context.Context, docs []Document) (questions []ExtractedQuestion, failed []string) {
	for _, doc := range docs {
		texts, err := e.ExtractDocument(ctx, doc)
		if err != nil {
			e.logger.Error("question extraction failed", "file", doc.Name, "error", err)
			failed = append(failed, doc.Name)
			continue
		}

		e.logger.Info("questions extracted", "file", doc.Name, "count", len(texts))
		for _, text := range texts {
			questions = append(questions, ExtractedQuestion{Text: text, SourceDocument: doc.Name})
		}
	}
	return questions, failed
}

// ExtractDocument sends one PDF to the AI service and parses its question list
func (e *QuestionExtractor) ExtractDocument(ctx context.Context, doc Document) ([]string, error) {
	mimeType := doc.MIMEType
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	resp, err := e.generator.GenerateWithDocument(ctx, mimeType, doc.Content, extractQuestionsPrompt)
	if err != nil {
		return nil, fmt.Errorf("extract questions from %s: %w", doc.Name, err)
	}
	return ParseQuestions(resp), nil
}

// ParseQuestions reads the bullet list after the "Questions:" marker
func ParseQuestions(response string) []string {
	return utils.FilterMinLength(utils.ExtractBulletSection(response, questionsMarker), minQuestionLength)
}
