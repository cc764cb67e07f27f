package services

import (
	"context"
	"testing"

	"github.com/sahilchouksey/pyq-analyzer/model"
	"github.com/sahilchouksey/pyq-analyzer/services/youtube"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func topicsOf(names ...string) []Topic {
	topics := make([]Topic, len(names))
	for i, n := range names {
		topics[i] = Topic{Name: n, Score: TopicRelevanceScore}
	}
	return topics
}

func TestFetchEmptyQuerySkipsSearch(t *testing.T) {
	searcher := &fakeSearcher{}
	fetcher := NewResourceFetcher(searcher, fastFetcherConfig(), nil)

	assert.Empty(t, fetcher.Fetch(context.Background(), nil))
	assert.Empty(t, fetcher.Fetch(context.Background(), topicsOf("", "  ")))
	assert.Equal(t, 0, searcher.callCount())
}

func TestFetchWithoutSearcher(t *testing.T) {
	fetcher := NewResourceFetcher(nil, fastFetcherConfig(), nil)
	got := fetcher.Fetch(context.Background(), topicsOf("Graphs"))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFetchBuildsCombinedQuery(t *testing.T) {
	searcher := &fakeSearcher{}
	fetcher := NewResourceFetcher(searcher, fastFetcherConfig(), nil)

	fetcher.Fetch(context.Background(), topicsOf("Graphs", "BFS", "Shortest paths"))

	require.Len(t, searcher.calls, 1)
	assert.Equal(t, "Graphs BFS Shortest paths", searcher.calls[0].query)
	assert.Equal(t, int64(6), searcher.calls[0].maxResults)
	assert.True(t, searcher.calls[0].hasDeadline)
}

func TestFetchCapsMaxResults(t *testing.T) {
	searcher := &fakeSearcher{}
	fetcher := NewResourceFetcher(searcher, fastFetcherConfig(), nil)

	fetcher.Fetch(context.Background(), topicsOf("a1", "b2", "c3", "d4", "e5", "f6"))

	require.Len(t, searcher.calls, 1)
	assert.Equal(t, int64(10), searcher.calls[0].maxResults)
}

func TestFetchFiltersPerTopic(t *testing.T) {
	searcher := &fakeSearcher{videos: []youtube.Video{
		{ID: "1", Title: "GRAPHS for beginners"},
		{ID: "2", Title: "Graphs and BFS"},
		{ID: "3", Title: "More graphs"},
		{ID: "4", Title: "bfs walkthrough"},
		{ID: "5", Title: "Cooking pasta"},
	}}
	fetcher := NewResourceFetcher(searcher, fastFetcherConfig(), nil)

	got := fetcher.Fetch(context.Background(), []Topic{{Name: "Graphs", Score: 1}, {Name: "bfs", Score: 0.5}})

	assert.Equal(t, []Resource{
		{Type: model.ResourceTypeYouTube, Title: "GRAPHS for beginners", URL: "https://youtube.com/watch?v=1", RelevanceScore: 1},
		{Type: model.ResourceTypeYouTube, Title: "Graphs and BFS", URL: "https://youtube.com/watch?v=2", RelevanceScore: 1},
		{Type: model.ResourceTypeYouTube, Title: "bfs walkthrough", URL: "https://youtube.com/watch?v=4", RelevanceScore: 0.5},
	}, got)
}

func TestFetchNeverExceedsLimits(t *testing.T) {
	var videos []youtube.Video
	for i := 0; i < 20; i++ {
		videos = append(videos, youtube.Video{ID: string(rune('a' + i)), Title: "alpha beta gamma"})
	}
	searcher := &fakeSearcher{videos: videos}
	fetcher := NewResourceFetcher(searcher, fastFetcherConfig(), nil)

	topics := []Topic{{Name: "alpha", Score: 1}, {Name: "beta", Score: 0.5}, {Name: "gamma", Score: 0.25}}
	got := fetcher.Fetch(context.Background(), topics)

	assert.LessOrEqual(t, len(got), 10)
	perTopic := map[string]int{}
	for _, r := range got {
		for _, topic := range topics {
			if r.RelevanceScore == topic.Score {
				perTopic[topic.Name]++
			}
		}
	}
	for _, topic := range topics {
		assert.LessOrEqual(t, perTopic[topic.Name], 2)
	}
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	searcher := &fakeSearcher{
		videos: []youtube.Video{{ID: "x", Title: "Paging explained"}},
		errs:   []error{errUpstream, errUpstream},
	}
	fetcher := NewResourceFetcher(searcher, fastFetcherConfig(), nil)

	got := fetcher.Fetch(context.Background(), topicsOf("Paging"))

	assert.Equal(t, 3, searcher.callCount())
	require.Len(t, got, 1)
	assert.Equal(t, "https://youtube.com/watch?v=x", got[0].URL)
}

func TestFetchGivesUpAfterMaxAttempts(t *testing.T) {
	searcher := &fakeSearcher{errs: []error{errUpstream, errUpstream, errUpstream, errUpstream}}
	fetcher := NewResourceFetcher(searcher, fastFetcherConfig(), nil)

	got := fetcher.Fetch(context.Background(), topicsOf("Paging"))

	assert.Equal(t, 3, searcher.callCount())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
