package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sahilchouksey/pyq-analyzer/services/youtube"
)

var errUpstream = errors.New("upstream unavailable")

// fakeGenerator answers document prompts by payload and text prompts by kind
type fakeGenerator struct {
	mu            sync.Mutex
	documents     map[string]string // payload -> response
	documentErr   error
	topics        func(question string) (string, error)
	answers       func(question string) (string, error)
	documentCalls int
	topicCalls    int
	answerCalls   int
}

func (f *fakeGenerator) GenerateWithDocument(ctx context.Context, mimeType string, data []byte, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.documentCalls++
	if f.documentErr != nil {
		return "", f.documentErr
	}
	resp, ok := f.documents[string(data)]
	if !ok {
		return "", errUpstream
	}
	return resp, nil
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	question := quotedQuestion(prompt)
	if strings.Contains(prompt, "Topics:") {
		f.topicCalls++
		if f.topics == nil {
			return "Topics:\n- Data Structures\n- Algorithms", nil
		}
		return f.topics(question)
	}

	f.answerCalls++
	if f.answers == nil {
		return "  An answer to " + question + "  ", nil
	}
	return f.answers(question)
}

// quotedQuestion returns the last double-quoted span of a prompt
func quotedQuestion(prompt string) string {
	end := strings.LastIndex(prompt, `"`)
	if end <= 0 {
		return ""
	}
	start := strings.LastIndex(prompt[:end], `"`)
	if start < 0 {
		return ""
	}
	return prompt[start+1 : end]
}

type searchCall struct {
	query       string
	maxResults  int64
	hasDeadline bool
}

// fakeSearcher fails the first len(errs) calls that have a non-nil entry
type fakeSearcher struct {
	mu     sync.Mutex
	videos []youtube.Video
	errs   []error
	calls  []searchCall
}

func (f *fakeSearcher) SearchVideos(ctx context.Context, query string, maxResults int64) ([]youtube.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, hasDeadline := ctx.Deadline()
	f.calls = append(f.calls, searchCall{query: query, maxResults: maxResults, hasDeadline: hasDeadline})

	if i := len(f.calls) - 1; i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return f.videos, nil
}

func (f *fakeSearcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fastFetcherConfig keeps retry waits short in tests
func fastFetcherConfig() ResourceFetcherConfig {
	config := DefaultResourceFetcherConfig()
	config.RetryUnit = time.Millisecond
	return config
}

type memoryCache struct {
	mu      sync.Mutex
	topics  map[string][]Topic
	answers map[string]string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{topics: map[string][]Topic{}, answers: map[string]string{}}
}

func (c *memoryCache) GetTopics(ctx context.Context, key string) ([]Topic, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.topics[key]
	return t, ok
}

func (c *memoryCache) SetTopics(ctx context.Context, key string, topics []Topic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics[key] = topics
}

func (c *memoryCache) GetAnswer(ctx context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.answers[key]
	return a, ok
}

func (c *memoryCache) SetAnswer(ctx context.Context, key string, answer string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answers[key] = answer
}

type fakeArchive struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (a *fakeArchive) ArchivePaper(ctx context.Context, batchID string, position int, fileName string, content []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	key := fmt.Sprintf("papers/%s/%d-%s", batchID, position, fileName)
	a.keys = append(a.keys, key)
	return key, nil
}
