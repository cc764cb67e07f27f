package services

import (
	"context"
	"strings"
	"time"

	"github.com/sahilchouksey/pyq-analyzer/model"
	"github.com/sahilchouksey/pyq-analyzer/services/youtube"
	"github.com/sahilchouksey/pyq-analyzer/utils"
	"github.com/sahilchouksey/pyq-analyzer/utils/retry"
)

// VideoSearcher is the video search capability used to find resources
type VideoSearcher interface {
	SearchVideos(ctx context.Context, query string, maxResults int64) ([]youtube.Video, error)
}

// Resource is an external learning resource
type Resource struct {
	Type           string  `json:"type"`
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	RelevanceScore float64 `json:"relevance_score"`
}

// ResourceFetcherConfig holds configuration for the resource fetcher
type ResourceFetcherConfig struct {
	MaxAttempts     int
	RetryUnit       time.Duration // wait before attempt n+1 is n × RetryUnit
	CallTimeout     time.Duration
	MaxResults      int // cap on the search page size
	ResultsPerTopic int
}

// DefaultResourceFetcherConfig returns 3 attempts, 1s linear backoff and a 5s call timeout
func DefaultResourceFetcherConfig() ResourceFetcherConfig {
	return ResourceFetcherConfig{
		MaxAttempts:     3,
		RetryUnit:       time.Second,
		CallTimeout:     5 * time.Second,
		MaxResults:      10,
		ResultsPerTopic: 2,
	}
}

// ResourceFetcher finds videos matching a question's topics
type ResourceFetcher struct {
	searcher VideoSearcher
	config   ResourceFetcherConfig
	logger   *utils.Logger
}

// NewResourceFetcher creates a new resource fetcher. A nil searcher disables
// lookups and every fetch returns no resources.
func NewResourceFetcher(searcher VideoSearcher, config ResourceFetcherConfig, logger *utils.Logger) *ResourceFetcher {
	defaults := DefaultResourceFetcherConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.RetryUnit <= 0 {
		config.RetryUnit = defaults.RetryUnit
	}
	if config.CallTimeout <= 0 {
		config.CallTimeout = defaults.CallTimeout
	}
	if config.MaxResults <= 0 {
		config.MaxResults = defaults.MaxResults
	}
	if config.ResultsPerTopic <= 0 {
		config.ResultsPerTopic = defaults.ResultsPerTopic
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &ResourceFetcher{searcher: searcher, config: config, logger: logger}
}

// Fetch issues one combined search for all topics and keeps, per topic, up to
// ResultsPerTopic videos whose title mentions the topic. Exhausted retries
// yield an empty list.
func (f *ResourceFetcher) Fetch(ctx context.Context, topics []Topic) []Resource {
	query := topicQuery(topics)
	if query == "" || f.searcher == nil {
		return []Resource{}
	}

	maxResults := 2 * len(topics)
	if maxResults > f.config.MaxResults {
		maxResults = f.config.MaxResults
	}

	policy := retry.Policy{
		MaxAttempts: f.config.MaxAttempts,
		Delay:       retry.Linear(f.config.RetryUnit),
		OnRetry: func(attempt int, err error, wait time.Duration) {
			f.logger.Warn("video search attempt failed", "query", query, "attempt", attempt, "retry_in", wait, "error", err)
		},
	}

	videos, err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) ([]youtube.Video, error) {
		callCtx, cancel := context.WithTimeout(ctx, f.config.CallTimeout)
		defer cancel()
		return f.searcher.SearchVideos(callCtx, query, int64(maxResults))
	})
	if err != nil {
		f.logger.Error("video search failed", "query", query, "attempts", f.config.MaxAttempts, "error", err)
		return []Resource{}
	}

	return matchResources(topics, videos, f.config.ResultsPerTopic, f.config.MaxResults)
}

func topicQuery(topics []Topic) string {
	names := make([]string, 0, len(topics))
	for _, t := range topics {
		if name := strings.TrimSpace(t.Name); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, " ")
}

// matchResources keeps the first occurrence of each URL so one video matching
// several topics is attached once, under the earliest topic.
func matchResources(topics []Topic, videos []youtube.Video, perTopic, limit int) []Resource {
	resources := []Resource{}
	seen := make(map[string]bool)

	for _, topic := range topics {
		name := strings.ToLower(strings.TrimSpace(topic.Name))
		if name == "" {
			continue
		}

		kept := 0
		for _, v := range videos {
			if kept == perTopic || len(resources) == limit {
				break
			}
			if !strings.Contains(strings.ToLower(v.Title), name) {
				continue
			}
			kept++
			url := v.URL()
			if seen[url] {
				continue
			}
			seen[url] = true
			resources = append(resources, Resource{
				Type:           model.ResourceTypeYouTube,
				Title:          v.Title,
				URL:            url,
				RelevanceScore: topic.Score,
			})
		}
	}
	return resources
}
