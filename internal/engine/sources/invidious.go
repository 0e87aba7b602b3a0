package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/cake-wakame/choco-tube-BETA/internal/engine"
)

// Mirror-pool API timeouts. Metadata-heavy paths get the long pair.
var (
	mirrorQuickTimeout = engine.Timeout{Connect: 2 * time.Second, Read: 5 * time.Second}
	mirrorSlowTimeout  = engine.Timeout{Connect: 5 * time.Second, Read: 15 * time.Second}
	popularTimeout     = engine.Timeout{Connect: 2 * time.Second, Read: 4 * time.Second}
)

const (
	trendingLimit = 24
	maxRelated    = 20
)

// --- mirror schema (optional-field structs; absent fields decode to zero) ---

type invThumb struct {
	URL string `json:"url"`
}

func lastThumb(thumbs []invThumb) string {
	if len(thumbs) == 0 {
		return ""
	}
	return thumbs[len(thumbs)-1].URL
}

type invSearchItem struct {
	Type string `json:"type"`

	// video / shortVideo
	VideoID       string `json:"videoId"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	AuthorID      string `json:"authorId"`
	PublishedText string `json:"publishedText"`
	ViewCountText string `json:"viewCountText"`
	LengthSeconds int64  `json:"lengthSeconds"`

	// channel
	AuthorThumbnails []invThumb `json:"authorThumbnails"`
	SubCount         int64      `json:"subCount"`

	// playlist
	PlaylistID        string `json:"playlistId"`
	PlaylistThumbnail string `json:"playlistThumbnail"`
	VideoCount        int64  `json:"videoCount"`
}

type invRelated struct {
	VideoID       string `json:"videoId"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	AuthorID      string `json:"authorId"`
	ViewCountText string `json:"viewCountText"`
	LengthSeconds int64  `json:"lengthSeconds"`
}

type invAdaptiveFormat struct {
	Container    string `json:"container"`
	Resolution   string `json:"resolution"`
	AudioQuality string `json:"audioQuality"`
	URL          string `json:"url"`
}

type invFormatStream struct {
	URL string `json:"url"`
}

type invVideo struct {
	Title            string     `json:"title"`
	DescriptionHTML  string     `json:"descriptionHtml"`
	Author           string     `json:"author"`
	AuthorID         string     `json:"authorId"`
	ViewCount        int64      `json:"viewCount"`
	LikeCount        int64      `json:"likeCount"`
	SubCountText     string     `json:"subCountText"`
	PublishedText    string     `json:"publishedText"`
	LengthSeconds    int64      `json:"lengthSeconds"`
	AuthorThumbnails []invThumb `json:"authorThumbnails"`

	// Some instances spell the recommendation key differently.
	RecommendedVideos []invRelated `json:"recommendedVideos"`
	RecommendedAlt    []invRelated `json:"recommendedvideo"`

	AdaptiveFormats []invAdaptiveFormat `json:"adaptiveFormats"`
	FormatStreams   []invFormatStream   `json:"formatStreams"`
}

type invPlaylistItem struct {
	VideoID       string `json:"videoId"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	AuthorID      string `json:"authorId"`
	LengthSeconds int64  `json:"lengthSeconds"`
}

type invPlaylist struct {
	Title       string            `json:"title"`
	Author      string            `json:"author"`
	AuthorID    string            `json:"authorId"`
	Description string            `json:"description"`
	VideoCount  int64             `json:"videoCount"`
	ViewCount   int64             `json:"viewCount"`
	Videos      []invPlaylistItem `json:"videos"`
}

type invChannelVideo struct {
	VideoID       string `json:"videoId"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	AuthorID      string `json:"authorId"`
	PublishedText string `json:"publishedText"`
	ViewCountText string `json:"viewCountText"`
	LengthSeconds int64  `json:"lengthSeconds"`
}

type invChannel struct {
	Author           string            `json:"author"`
	AuthorID         string            `json:"authorId"`
	DescriptionHTML  string            `json:"descriptionHtml"`
	SubCount         int64             `json:"subCount"`
	Tags             []string          `json:"tags"`
	VideoCount       int64             `json:"videoCount"`
	AuthorThumbnails []invThumb        `json:"authorThumbnails"`
	AuthorBanners    []invThumb        `json:"authorBanners"`
	LatestVideos     []invChannelVideo `json:"latestVideos"`
	LatestAlt        []invChannelVideo `json:"latestvideo"`
}

type invVideosPage struct {
	Videos       []invChannelVideo `json:"videos"`
	Continuation string            `json:"continuation"`
}

type invComment struct {
	Author           string     `json:"author"`
	AuthorID         string     `json:"authorId"`
	AuthorThumbnails []invThumb `json:"authorThumbnails"`
	ContentHTML      string     `json:"contentHtml"`
	LikeCount        int64      `json:"likeCount"`
	PublishedText    string     `json:"publishedText"`
}

type invComments struct {
	Comments []invComment `json:"comments"`
}

// --- fetchers ---

func (s *Service) mirrorSearch(ctx context.Context, query string, page int) ([]engine.SearchResultItem, error) {
	if page < 1 {
		page = 1
	}
	path := fmt.Sprintf("/search?q=%s&page=%d&hl=jp", url.QueryEscape(query), page)
	raw, err := s.eng.Dispatch(ctx, path, mirrorQuickTimeout)
	if err != nil {
		return nil, err
	}
	var items []invSearchItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode mirror search: %w", err)
	}
	return normalizeSearchItems(items), nil
}

func normalizeSearchItems(items []invSearchItem) []engine.SearchResultItem {
	results := make([]engine.SearchResultItem, 0, len(items))
	for _, item := range items {
		switch item.Type {
		case engine.TypeVideo:
			results = append(results, engine.SearchResultItem{
				Type:      engine.TypeVideo,
				ID:        item.VideoID,
				Title:     item.Title,
				Author:    item.Author,
				AuthorID:  item.AuthorID,
				Thumbnail: engine.ThumbnailURL(item.VideoID, "hqdefault"),
				Published: item.PublishedText,
				Views:     item.ViewCountText,
				Length:    engine.FormatDuration(item.LengthSeconds),
			})
		case engine.TypeChannel:
			results = append(results, engine.SearchResultItem{
				Type:        engine.TypeChannel,
				ID:          item.AuthorID,
				Author:      item.Author,
				Thumbnail:   engine.EnsureHTTPS(lastThumb(item.AuthorThumbnails)),
				Subscribers: item.SubCount,
			})
		case engine.TypePlaylist:
			results = append(results, engine.SearchResultItem{
				Type:       engine.TypePlaylist,
				ID:         item.PlaylistID,
				Title:      item.Title,
				Thumbnail:  item.PlaylistThumbnail,
				VideoCount: item.VideoCount,
			})
		}
	}
	return results
}

func (s *Service) mirrorVideo(ctx context.Context, videoID string) (*engine.VideoDetail, error) {
	raw, err := s.eng.Dispatch(ctx, "/videos/"+url.PathEscape(videoID), mirrorSlowTimeout)
	if err != nil {
		return nil, err
	}
	var v invVideo
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode mirror video: %w", err)
	}
	return normalizeVideo(&v), nil
}

func normalizeVideo(v *invVideo) *engine.VideoDetail {
	recommended := v.RecommendedVideos
	if len(recommended) == 0 {
		recommended = v.RecommendedAlt
	}
	related := make([]engine.VideoSummary, 0, maxRelated)
	for _, item := range recommended {
		if len(related) == maxRelated {
			break
		}
		related = append(related, engine.VideoSummary{
			ID:        item.VideoID,
			Title:     item.Title,
			Author:    item.Author,
			AuthorID:  item.AuthorID,
			Views:     item.ViewCountText,
			Thumbnail: engine.ThumbnailURL(item.VideoID, "mqdefault"),
			Length:    engine.FormatDuration(item.LengthSeconds),
		})
	}

	var candidates []engine.StreamCandidate
	var highStream, audioURL string
	for _, f := range v.AdaptiveFormats {
		if f.Container == "webm" && f.Resolution != "" {
			candidates = append(candidates, engine.StreamCandidate{URL: f.URL, Resolution: f.Resolution})
			if highStream == "" {
				if f.Resolution == "1080p" || f.Resolution == "720p" {
					highStream = f.URL
				}
			}
		}
	}
	for _, f := range v.AdaptiveFormats {
		if f.Container == "m4a" && f.AudioQuality == "AUDIO_QUALITY_MEDIUM" {
			audioURL = f.URL
			break
		}
	}

	// Progressive streams, highest quality first, at most two.
	var fallbackURLs []string
	for i := len(v.FormatStreams) - 1; i >= 0 && len(fallbackURLs) < 2; i-- {
		fallbackURLs = append(fallbackURLs, v.FormatStreams[i].URL)
	}

	return &engine.VideoDetail{
		Title:             v.Title,
		DescriptionHTML:   engine.NewlineToBr(v.DescriptionHTML),
		Author:            v.Author,
		AuthorID:          v.AuthorID,
		AuthorThumbnail:   lastThumb(v.AuthorThumbnails),
		Views:             v.ViewCount,
		Likes:             v.LikeCount,
		SubscriberText:    v.SubCountText,
		PublishedText:     v.PublishedText,
		LengthText:        engine.FormatDuration(v.LengthSeconds),
		Related:           related,
		StreamCandidates:  candidates,
		HighStreamURL:     highStream,
		AudioURL:          audioURL,
		FallbackVideoURLs: fallbackURLs,
	}
}

func (s *Service) mirrorPlaylist(ctx context.Context, playlistID string) (*engine.PlaylistDetail, error) {
	raw, err := s.eng.Dispatch(ctx, "/playlists/"+url.PathEscape(playlistID), mirrorSlowTimeout)
	if err != nil {
		return nil, err
	}
	var p invPlaylist
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode mirror playlist: %w", err)
	}

	videos := make([]engine.VideoSummary, 0, len(p.Videos))
	for _, item := range p.Videos {
		videos = append(videos, engine.VideoSummary{
			Type:      engine.TypeVideo,
			ID:        item.VideoID,
			Title:     item.Title,
			Author:    item.Author,
			AuthorID:  item.AuthorID,
			Thumbnail: engine.ThumbnailURL(item.VideoID, "hqdefault"),
			Length:    engine.FormatDuration(item.LengthSeconds),
		})
	}
	return &engine.PlaylistDetail{
		ID:          playlistID,
		Title:       p.Title,
		Author:      p.Author,
		AuthorID:    p.AuthorID,
		Description: p.Description,
		VideoCount:  p.VideoCount,
		ViewCount:   p.ViewCount,
		Videos:      videos,
	}, nil
}

func (s *Service) mirrorChannel(ctx context.Context, channelID string) (*engine.ChannelDetail, error) {
	raw, err := s.eng.Dispatch(ctx, "/channels/"+url.PathEscape(channelID), mirrorSlowTimeout)
	if err != nil {
		return nil, err
	}
	var c invChannel
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode mirror channel: %w", err)
	}

	latest := c.LatestVideos
	if len(latest) == 0 {
		latest = c.LatestAlt
	}
	videos := make([]engine.VideoSummary, 0, len(latest))
	for _, item := range latest {
		videos = append(videos, engine.VideoSummary{
			Type:      engine.TypeVideo,
			ID:        item.VideoID,
			Title:     item.Title,
			Author:    c.Author,
			AuthorID:  c.AuthorID,
			Published: item.PublishedText,
			Views:     item.ViewCountText,
			Length:    engine.FormatDuration(item.LengthSeconds),
		})
	}

	var banner string
	if len(c.AuthorBanners) > 0 {
		banner = engine.QuoteURL(c.AuthorBanners[0].URL)
	}
	return &engine.ChannelDetail{
		Name:        c.Author,
		Icon:        lastThumb(c.AuthorThumbnails),
		ProfileHTML: c.DescriptionHTML,
		Banner:      banner,
		Subscribers: c.SubCount,
		Tags:        c.Tags,
		VideoCount:  c.VideoCount,
		Videos:      videos,
	}, nil
}

func (s *Service) mirrorChannelVideos(ctx context.Context, channelID, continuation string) (*engine.ChannelVideosPage, error) {
	path := "/channels/" + url.PathEscape(channelID) + "/videos"
	if continuation != "" {
		path += "?continuation=" + url.QueryEscape(continuation)
	}
	raw, err := s.eng.Dispatch(ctx, path, mirrorSlowTimeout)
	if err != nil {
		return nil, err
	}
	var page invVideosPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode mirror channel videos: %w", err)
	}

	videos := make([]engine.VideoSummary, 0, len(page.Videos))
	for _, item := range page.Videos {
		videos = append(videos, engine.VideoSummary{
			Type:      engine.TypeVideo,
			ID:        item.VideoID,
			Title:     item.Title,
			Author:    item.Author,
			AuthorID:  item.AuthorID,
			Published: item.PublishedText,
			Views:     item.ViewCountText,
			Length:    engine.FormatDuration(item.LengthSeconds),
		})
	}
	return &engine.ChannelVideosPage{Videos: videos, Continuation: page.Continuation}, nil
}

func (s *Service) mirrorComments(ctx context.Context, videoID string) ([]engine.Comment, error) {
	raw, err := s.eng.Dispatch(ctx, "/comments/"+url.PathEscape(videoID)+"?hl=jp", mirrorQuickTimeout)
	if err != nil {
		return nil, err
	}
	var list invComments
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode mirror comments: %w", err)
	}

	comments := make([]engine.Comment, 0, len(list.Comments))
	for _, item := range list.Comments {
		comments = append(comments, engine.Comment{
			Author:          item.Author,
			AuthorID:        item.AuthorID,
			AuthorThumbnail: lastThumb(item.AuthorThumbnails),
			ContentHTML:     engine.NewlineToBr(item.ContentHTML),
			Likes:           item.LikeCount,
			Published:       item.PublishedText,
		})
	}
	return comments, nil
}

func (s *Service) mirrorPopular(ctx context.Context) ([]engine.VideoSummary, error) {
	raw, err := s.eng.Dispatch(ctx, "/popular", popularTimeout)
	if err != nil {
		return nil, err
	}
	var items []invSearchItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode mirror popular: %w", err)
	}

	results := make([]engine.VideoSummary, 0, trendingLimit)
	for _, item := range items {
		if len(results) == trendingLimit {
			break
		}
		if item.Type != engine.TypeVideo && item.Type != "shortVideo" {
			continue
		}
		results = append(results, engine.VideoSummary{
			Type:      engine.TypeVideo,
			ID:        item.VideoID,
			Title:     item.Title,
			Author:    item.Author,
			Thumbnail: engine.ThumbnailURL(item.VideoID, "hqdefault"),
			Published: item.PublishedText,
			Views:     item.ViewCountText,
		})
	}
	return results, nil
}
