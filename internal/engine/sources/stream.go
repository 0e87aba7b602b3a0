package sources

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/cake-wakame/choco-tube-BETA/internal/engine"
)

var streamTimeout = engine.Timeout{Connect: 3 * time.Second, Read: 6 * time.Second}

type streamFormat struct {
	Itag   string `json:"itag"`
	URL    string `json:"url"`
	VCodec string `json:"vcodec"`
}

type m3u8Format struct {
	Resolution string `json:"resolution"`
	URL        string `json:"url"`
}

// Streams assembles every candidate playable URL for a video. The embed and
// education URLs are built locally and always present; the direct and m3u8
// URLs come from independent upstreams and each failure blanks only its own
// fields.
func (s *Service) Streams(ctx context.Context, videoID string) *engine.StreamBundle {
	engine.IncrStream()
	bundle := &engine.StreamBundle{
		Embed:     "https://www.youtube-nocookie.com/embed/" + videoID + "?autoplay=1",
		Education: "https://www.youtubeeducation.com/embed/" + videoID + "?" + s.EmbedParams(ctx),
	}
	s.fillDirectStream(ctx, videoID, bundle)
	s.fillM3U8Stream(ctx, videoID, bundle)
	return bundle
}

func (s *Service) fillDirectStream(ctx context.Context, videoID string, bundle *engine.StreamBundle) {
	body, err := s.eng.Client().Get(ctx, s.eng.Config().StreamAPI+videoID, streamTimeout, nil)
	if err != nil {
		return
	}
	var payload struct {
		Formats []streamFormat `json:"formats"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return
	}

	for _, f := range payload.Formats {
		if f.Itag == "18" {
			bundle.Primary = f.URL
			break
		}
	}
	if bundle.Primary == "" {
		for _, f := range payload.Formats {
			if f.URL != "" && f.VCodec != "none" {
				bundle.Fallback = f.URL
				break
			}
		}
	}
}

func (s *Service) fillM3U8Stream(ctx context.Context, videoID string, bundle *engine.StreamBundle) {
	engine.IncrM3U8()
	body, err := s.eng.Client().Get(ctx, s.eng.Config().M3U8API+videoID, streamTimeout, nil)
	if err != nil {
		return
	}
	var payload struct {
		Formats []m3u8Format `json:"m3u8_formats"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return
	}

	best := -1
	for _, f := range payload.Formats {
		if h := resolutionHeight(f.Resolution); h > best {
			best = h
			bundle.M3U8 = f.URL
		}
	}
}

// resolutionHeight extracts the height from a "WxH" label. Malformed labels
// rank as zero so they lose to any parseable entry.
func resolutionHeight(res string) int {
	parts := strings.Split(res, "x")
	h, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0
	}
	return h
}
