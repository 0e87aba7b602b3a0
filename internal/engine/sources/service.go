package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cake-wakame/choco-tube-BETA/internal/engine"
)

const keyedSearchResults = 20

// var so tests can stub the endpoint.
var keyedSearchURL = "https://www.googleapis.com/youtube/v3/search"

var (
	keyedSearchTimeout = engine.Timeout{Read: 5 * time.Second}
	thumbTimeout       = engine.Timeout{Read: 3 * time.Second}
)

// Service composes the provider clients into the high level operations the
// HTTP surface exposes. Every operation degrades instead of failing where a
// usable partial answer exists.
type Service struct {
	eng *engine.Engine
}

func NewService(eng *engine.Engine) *Service {
	return &Service{eng: eng}
}

// Search runs a paged video search. Page one goes through the official API
// when a key is configured, with the mirror pool as fallback; deeper pages
// always use the mirror pool since the official endpoint is not paged here.
func (s *Service) Search(ctx context.Context, query string, page int) ([]engine.SearchResultItem, error) {
	engine.IncrSearch()
	if page <= 1 && s.eng.Config().SearchAPIKey != "" {
		results, err := s.keyedSearch(ctx, query)
		if err == nil {
			return results, nil
		}
		slog.Warn("keyed search failed, using mirror pool", "error", err)
	}
	return s.mirrorSearch(ctx, query, page)
}

type keyedSearchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
		ChannelID    string `json:"channelId"`
		PublishedAt  string `json:"publishedAt"`
		Description  string `json:"description"`
	} `json:"snippet"`
}

func (s *Service) keyedSearch(ctx context.Context, query string) ([]engine.SearchResultItem, error) {
	engine.IncrKeyedSearch()
	u := fmt.Sprintf("%s?part=snippet&type=video&q=%s&maxResults=%d&key=%s",
		keyedSearchURL, url.QueryEscape(query), keyedSearchResults, url.QueryEscape(s.eng.Config().SearchAPIKey))
	body, err := s.eng.Client().Get(ctx, u, keyedSearchTimeout, nil)
	if err != nil {
		return nil, fmt.Errorf("keyed search: %w", err)
	}
	var payload struct {
		Items []keyedSearchItem `json:"items"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode keyed search: %w", err)
	}
	return normalizeKeyedItems(payload.Items), nil
}

func normalizeKeyedItems(items []keyedSearchItem) []engine.SearchResultItem {
	results := make([]engine.SearchResultItem, 0, len(items))
	for _, item := range items {
		results = append(results, engine.SearchResultItem{
			Type:        engine.TypeVideo,
			ID:          item.ID.VideoID,
			Title:       item.Snippet.Title,
			Author:      item.Snippet.ChannelTitle,
			AuthorID:    item.Snippet.ChannelID,
			Thumbnail:   engine.ThumbnailURL(item.ID.VideoID, "hqdefault"),
			Published:   item.Snippet.PublishedAt,
			Description: item.Snippet.Description,
		})
	}
	return results
}

// Video fetches the watch record, preferring the mirror pool and degrading
// to the metadata-only provider when every mirror fails. A nil record with a
// nil error never happens; a double failure reports the mirror error.
func (s *Service) Video(ctx context.Context, videoID string) (*engine.VideoDetail, error) {
	engine.IncrVideo()
	detail, err := s.mirrorVideo(ctx, videoID)
	if err == nil {
		return detail, nil
	}
	engine.IncrEduFallback()
	slog.Warn("mirror video lookup failed, trying degraded provider", "video", videoID, "error", err)
	if fallback, eduErr := s.eduVideoDetail(ctx, videoID); eduErr == nil {
		return fallback, nil
	}
	return nil, err
}

func (s *Service) Playlist(ctx context.Context, playlistID string) (*engine.PlaylistDetail, error) {
	return s.mirrorPlaylist(ctx, playlistID)
}

func (s *Service) Channel(ctx context.Context, channelID string) (*engine.ChannelDetail, error) {
	return s.mirrorChannel(ctx, channelID)
}

// ChannelVideos pages through a channel's uploads. Failures degrade to an
// empty page so callers can keep rendering the channel shell.
func (s *Service) ChannelVideos(ctx context.Context, channelID, continuation string) *engine.ChannelVideosPage {
	page, err := s.mirrorChannelVideos(ctx, channelID, continuation)
	if err != nil {
		slog.Warn("channel videos lookup failed", "channel", channelID, "error", err)
		return &engine.ChannelVideosPage{Videos: []engine.VideoSummary{}}
	}
	return page
}

// Comments fetches the comment thread. Failures degrade to an empty list.
func (s *Service) Comments(ctx context.Context, videoID string) []engine.Comment {
	comments, err := s.mirrorComments(ctx, videoID)
	if err != nil {
		slog.Warn("comments lookup failed", "video", videoID, "error", err)
		return []engine.Comment{}
	}
	return comments
}

var errEmptyFeed = errors.New("empty trending feed")

// Trending returns the cached trending feed. Empty or failed fetches serve
// the static default list without caching it, so the next caller retries the
// pool.
func (s *Service) Trending(ctx context.Context) []engine.VideoSummary {
	engine.IncrTrending()
	feed, err := s.eng.TrendingCache().GetOrRefresh(ctx, "trending", func(ctx context.Context) ([]engine.VideoSummary, error) {
		results, err := s.mirrorPopular(ctx)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, errEmptyFeed
		}
		return results, nil
	})
	if err != nil {
		engine.IncrTrendingFallback()
		slog.Warn("trending feed unavailable, serving defaults", "error", err)
		return defaultTrending()
	}
	return feed
}

// defaultTrending is the static feed served while every mirror is down.
func defaultTrending() []engine.VideoSummary {
	rows := []struct{ id, title, author, views string }{
		{"dQw4w9WgXcQ", "Rick Astley - Never Gonna Give You Up", "Rick Astley", "17億 回視聴"},
		{"kJQP7kiw5Fk", "Luis Fonsi - Despacito ft. Daddy Yankee", "Luis Fonsi", "80億 回視聴"},
		{"JGwWNGJdvx8", "Ed Sheeran - Shape of You", "Ed Sheeran", "64億 回視聴"},
		{"RgKAFK5djSk", "Wiz Khalifa - See You Again ft. Charlie Puth", "Wiz Khalifa", "60億 回視聴"},
		{"OPf0YbXqDm0", "Mark Ronson - Uptown Funk ft. Bruno Mars", "Mark Ronson", "50億 回視聴"},
		{"9bZkp7q19f0", "PSY - Gangnam Style", "PSY", "50億 回視聴"},
		{"XqZsoesa55w", "Baby Shark Dance", "Pinkfong", "150億 回視聴"},
		{"fJ9rUzIMcZQ", "Queen - Bohemian Rhapsody", "Queen Official", "16億 回視聴"},
	}
	feed := make([]engine.VideoSummary, 0, len(rows))
	for _, r := range rows {
		feed = append(feed, engine.VideoSummary{
			Type:      engine.TypeVideo,
			ID:        r.id,
			Title:     r.title,
			Author:    r.author,
			Thumbnail: engine.ThumbnailURL(r.id, "hqdefault"),
			Views:     r.views,
		})
	}
	return feed
}

// Thumbnail fetches (and caches) the raw JPEG bytes for a video thumbnail.
func (s *Service) Thumbnail(ctx context.Context, videoID string) ([]byte, error) {
	engine.IncrThumbFetch()
	return s.eng.ThumbCache().GetOrFetch(ctx, videoID, func(ctx context.Context) ([]byte, error) {
		return s.eng.Client().Get(ctx, engine.ThumbnailURL(videoID, "hqdefault"), thumbTimeout, nil)
	})
}

// WatchPage is everything a watch view needs, assembled concurrently. Every
// part is independently degradable: an unresolvable video, a missing
// playlist, or an empty comment list leaves only that part empty, and the
// stream bundle's embed and education URLs are always present.
type WatchPage struct {
	Video    *engine.VideoDetail    `json:"video"`
	Streams  *engine.StreamBundle   `json:"streams"`
	Comments []engine.Comment       `json:"comments"`
	Playlist *engine.PlaylistDetail `json:"playlist,omitempty"`
}

func (s *Service) WatchPage(ctx context.Context, videoID, playlistID string) *WatchPage {
	page := &WatchPage{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		detail, err := s.Video(gctx, videoID)
		if err != nil {
			slog.Warn("watch page video lookup failed", "video", videoID, "error", err)
			return nil
		}
		page.Video = detail
		return nil
	})
	g.Go(func() error {
		page.Streams = s.Streams(gctx, videoID)
		return nil
	})
	g.Go(func() error {
		page.Comments = s.Comments(gctx, videoID)
		return nil
	})
	if playlistID != "" {
		g.Go(func() error {
			playlist, err := s.Playlist(gctx, playlistID)
			if err != nil {
				slog.Warn("watch page playlist lookup failed", "playlist", playlistID, "error", err)
				return nil
			}
			page.Playlist = playlist
			return nil
		})
	}
	_ = g.Wait() // no part returns an error
	return page
}
