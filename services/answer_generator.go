package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahilchouksey/pyq-analyzer/utils"
)

// AnswerFallback is stored when no answer could be generated
const AnswerFallback = "Unable to generate answer at this time."

const answerPrompt = `Provide a concise and accurate answer to the following question: "%s"`

// AnswerGenerator produces one short answer per unique question
type AnswerGenerator struct {
	generator Generator
	logger    *utils.Logger
}

// NewAnswerGenerator creates a new answer generator
func NewAnswerGenerator(generator Generator, logger *utils.Logger) *AnswerGenerator {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &AnswerGenerator{generator: generator, logger: logger}
}

// Generate never fails; upstream errors and empty answers yield AnswerFallback
func (g *AnswerGenerator) Generate(ctx context.Context, question string) string {
	resp, err := g.generator.GenerateText(ctx, fmt.Sprintf(answerPrompt, question))
	if err != nil {
		g.logger.Warn("answer generation failed", "question", question, "error", err)
		return AnswerFallback
	}

	answer := strings.TrimSpace(resp)
	if answer == "" {
		return AnswerFallback
	}
	return answer
}
