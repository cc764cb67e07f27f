package youtube

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// WatchURLPrefix is prepended to a video ID to build its public link
const WatchURLPrefix = "https://youtube.com/watch?v="

// Video is a single search hit
type Video struct {
	ID    string
	Title string
}

// URL returns the public watch link of the video
func (v Video) URL() string {
	return WatchURLPrefix + v.ID
}

// Client searches videos through the YouTube Data API v3
type Client struct {
	service *yt.Service
}

// NewClient creates a YouTube search client. Extra options (endpoint, HTTP
// client) are applied after the API key.
func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("youtube API key is required")
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := yt.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{service: service}, nil
}

// SearchVideos runs one search.list call restricted to videos
func (c *Client) SearchVideos(ctx context.Context, query string, maxResults int64) ([]Video, error) {
	resp, err := c.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		videos = append(videos, Video{ID: item.Id.VideoId, Title: item.Snippet.Title})
	}
	return videos, nil
}
