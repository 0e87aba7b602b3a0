package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cake-wakame/choco-tube-BETA/internal/engine"
)

// DefaultEmbedParams is the education player query string used whenever the
// remote player config cannot be fetched.
const DefaultEmbedParams = "autoplay=1&rel=0&modestbranding=1"

var (
	eduTimeout    = engine.Timeout{Connect: 2 * time.Second, Read: 6 * time.Second}
	configTimeout = engine.Timeout{Read: 3 * time.Second}
)

// flexInt tolerates providers that quote their counters. Unparseable values
// decode to zero rather than failing the whole record.
type flexInt int64

func (n *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if len(b) == 0 || string(b) == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexInt(v)
	return nil
}

// flexString stringifies bare numbers so counter fields stay presentable
// whichever way the provider encodes them.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(b)
	return nil
}

type eduRelated struct {
	VideoID   string     `json:"videoId"`
	Title     string     `json:"title"`
	Channel   string     `json:"channel"`
	ChannelID string     `json:"channelId"`
	Views     flexString `json:"views"`
}

type eduAuthor struct {
	Name        string     `json:"name"`
	ID          string     `json:"id"`
	Thumbnail   string     `json:"thumbnail"`
	Subscribers flexString `json:"subscribers"`
}

type eduDescription struct {
	Formatted string `json:"formatted"`
}

type eduVideo struct {
	Title        string         `json:"title"`
	Description  eduDescription `json:"description"`
	Author       eduAuthor      `json:"author"`
	Views        flexInt        `json:"views"`
	Likes        flexInt        `json:"likes"`
	RelativeDate string         `json:"relativeDate"`
	Related      []eduRelated   `json:"related"`
}

// eduVideoDetail fetches the degraded watch record. The result carries the
// metadata subset only; stream fields stay empty so the caller can tell the
// record came from the fallback provider.
func (s *Service) eduVideoDetail(ctx context.Context, videoID string) (*engine.VideoDetail, error) {
	body, err := s.eng.Client().Get(ctx, s.eng.Config().EduVideoAPI+videoID, eduTimeout, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch degraded video record: %w", err)
	}
	var v eduVideo
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, fmt.Errorf("decode degraded video record: %w", err)
	}

	related := make([]engine.VideoSummary, 0, maxRelated)
	for _, item := range v.Related {
		if len(related) == maxRelated {
			break
		}
		related = append(related, engine.VideoSummary{
			ID:        item.VideoID,
			Title:     item.Title,
			Author:    item.Channel,
			AuthorID:  item.ChannelID,
			Views:     string(item.Views),
			Thumbnail: engine.ThumbnailURL(item.VideoID, "mqdefault"),
		})
	}

	return &engine.VideoDetail{
		Title:           v.Title,
		DescriptionHTML: v.Description.Formatted,
		Author:          v.Author.Name,
		AuthorID:        v.Author.ID,
		AuthorThumbnail: v.Author.Thumbnail,
		Views:           int64(v.Views),
		Likes:           int64(v.Likes),
		SubscriberText:  string(v.Author.Subscribers),
		PublishedText:   v.RelativeDate,
		Related:         related,
	}, nil
}

// EmbedParams returns the education player query string, cached for the
// configured TTL. A fetch failure yields the default without poisoning the
// cache.
func (s *Service) EmbedParams(ctx context.Context) string {
	params, err := s.eng.ConfigCache().GetOrRefresh(ctx, "embed-params", func(ctx context.Context) (string, error) {
		return s.fetchEmbedParams(ctx)
	})
	if err != nil {
		return DefaultEmbedParams
	}
	return params
}

func (s *Service) fetchEmbedParams(ctx context.Context) (string, error) {
	body, err := s.eng.Client().Get(ctx, s.eng.Config().EduConfigURL, configTimeout, nil)
	if err != nil {
		return "", fmt.Errorf("fetch player config: %w", err)
	}
	var cfg struct {
		Params string `json:"params"`
	}
	if err := json.Unmarshal(body, &cfg); err != nil {
		return "", fmt.Errorf("decode player config: %w", err)
	}
	if cfg.Params == "" {
		return DefaultEmbedParams, nil
	}
	params := strings.TrimPrefix(cfg.Params, "?")
	params = strings.ReplaceAll(params, "&amp;", "&")
	return params, nil
}
