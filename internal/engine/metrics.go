package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine. They exist for
// operability only and never influence control flow.
var metrics struct {
	MirrorDispatches      atomic.Int64
	MirrorAttemptFailures atomic.Int64
	MirrorExhausted       atomic.Int64
	SearchRequests        atomic.Int64
	KeyedSearchRequests   atomic.Int64
	VideoRequests         atomic.Int64
	EduFallbacks          atomic.Int64
	StreamRequests        atomic.Int64
	M3U8Requests          atomic.Int64
	TrendingRequests      atomic.Int64
	TrendingFallbacks     atomic.Int64
	SuggestRequests       atomic.Int64
	ThumbFetches          atomic.Int64
	CacheHits             atomic.Int64
	CacheMisses           atomic.Int64
}

func IncrMirrorDispatch()       { metrics.MirrorDispatches.Add(1) }
func IncrMirrorAttemptFailure() { metrics.MirrorAttemptFailures.Add(1) }
func IncrMirrorExhausted()      { metrics.MirrorExhausted.Add(1) }
func IncrSearch()               { metrics.SearchRequests.Add(1) }
func IncrKeyedSearch()          { metrics.KeyedSearchRequests.Add(1) }
func IncrVideo()                { metrics.VideoRequests.Add(1) }
func IncrEduFallback()          { metrics.EduFallbacks.Add(1) }
func IncrStream()               { metrics.StreamRequests.Add(1) }
func IncrM3U8()                 { metrics.M3U8Requests.Add(1) }
func IncrTrending()             { metrics.TrendingRequests.Add(1) }
func IncrTrendingFallback()     { metrics.TrendingFallbacks.Add(1) }
func IncrSuggest()              { metrics.SuggestRequests.Add(1) }
func IncrThumbFetch()           { metrics.ThumbFetches.Add(1) }
func IncrCacheHit()             { metrics.CacheHits.Add(1) }
func IncrCacheMiss()            { metrics.CacheMisses.Add(1) }

// GetMetrics returns a snapshot of all counters.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"mirror_dispatches":       metrics.MirrorDispatches.Load(),
		"mirror_attempt_failures": metrics.MirrorAttemptFailures.Load(),
		"mirror_exhausted":        metrics.MirrorExhausted.Load(),
		"search_requests":         metrics.SearchRequests.Load(),
		"keyed_search_requests":   metrics.KeyedSearchRequests.Load(),
		"video_requests":          metrics.VideoRequests.Load(),
		"edu_fallbacks":           metrics.EduFallbacks.Load(),
		"stream_requests":         metrics.StreamRequests.Load(),
		"m3u8_requests":           metrics.M3U8Requests.Load(),
		"trending_requests":       metrics.TrendingRequests.Load(),
		"trending_fallbacks":      metrics.TrendingFallbacks.Load(),
		"suggest_requests":        metrics.SuggestRequests.Load(),
		"thumb_fetches":           metrics.ThumbFetches.Load(),
		"cache_hits":              metrics.CacheHits.Load(),
		"cache_misses":            metrics.CacheMisses.Load(),
	}
}

// FormatMetrics renders the counters as a simple text format for the HTTP
// exposition endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	keys := []string{
		"mirror_dispatches", "mirror_attempt_failures", "mirror_exhausted",
		"search_requests", "keyed_search_requests",
		"video_requests", "edu_fallbacks",
		"stream_requests", "m3u8_requests",
		"trending_requests", "trending_fallbacks",
		"suggest_requests", "thumb_fetches",
		"cache_hits", "cache_misses",
	}
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}
