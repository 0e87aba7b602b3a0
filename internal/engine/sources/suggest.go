package sources

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/cake-wakame/choco-tube-BETA/internal/engine"
)

// var so tests can stub the endpoint.
var suggestURL = "https://suggestqueries.google.com/complete/search?client=firefox&ds=yt&q="

var suggestTimeout = engine.Timeout{Read: 2 * time.Second}

// Suggest returns search completions for a partial keyword. The upstream
// replies with a two-element array whose second element holds the strings;
// any failure degrades to an empty list.
func (s *Service) Suggest(ctx context.Context, keyword string) []string {
	engine.IncrSuggest()
	body, err := s.eng.Client().Get(ctx, suggestURL+url.QueryEscape(keyword), suggestTimeout, nil)
	if err != nil {
		return []string{}
	}
	var payload []json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || len(payload) < 2 {
		return []string{}
	}
	var suggestions []string
	if err := json.Unmarshal(payload[1], &suggestions); err != nil {
		return []string{}
	}
	return suggestions
}
