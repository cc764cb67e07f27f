package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuestions(t *testing.T) {
	resp := "Here you go\n---\nQuestions:\n- What is a process?\n- Why?\n- Explain paging in detail.\nSome trailing text\n---"

	assert.Equal(t, []string{"What is a process?", "Explain paging in detail."}, ParseQuestions(resp))
	assert.Empty(t, ParseQuestions("no marker here\n- What is a process?"))
}

func TestExtractContinuesAfterDocumentFailure(t *testing.T) {
	gen := &fakeGenerator{documents: map[string]string{
		"paper-a": "Questions:\n- What is a deadlock?\n- Define a semaphore.",
		"paper-c": "Questions:\n- What is a deadlock?",
	}}
	extractor := NewQuestionExtractor(gen, nil)

	docs := []Document{
		{Name: "a.pdf", Content: []byte("paper-a")},
		{Name: "b.pdf", Content: []byte("paper-b")}, // unknown payload fails
		{Name: "c.pdf", Content: []byte("paper-c")},
	}
	questions, failed := extractor.Extract(context.Background(), docs)

	require.Len(t, questions, 3)
	assert.Equal(t, ExtractedQuestion{Text: "What is a deadlock?", SourceDocument: "a.pdf"}, questions[0])
	assert.Equal(t, ExtractedQuestion{Text: "Define a semaphore.", SourceDocument: "a.pdf"}, questions[1])
	assert.Equal(t, "c.pdf", questions[2].SourceDocument)
	assert.Equal(t, []string{"b.pdf"}, failed)
	assert.Equal(t, 3, gen.documentCalls)
}
