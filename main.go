// choco-tube — resilient video metadata aggregation API.
//
// Fans requests out over a pool of Invidious mirrors with degraded-provider
// fallbacks, normalizes every upstream shape into unified records, and serves
// them over a JSON HTTP API.
package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"

	"github.com/cake-wakame/choco-tube-BETA/internal/engine"
	"github.com/cake-wakame/choco-tube-BETA/internal/engine/sources"
	"github.com/cake-wakame/choco-tube-BETA/internal/server"
)

var port = env.Str("PORT", "8080")

func main() {
	eng := initEngine()

	slog.Info("starting choco-tube",
		slog.String("port", port),
		slog.Int("mirrors", eng.Pool().Len()),
	)

	svc := sources.NewService(eng)
	if err := server.New(svc).Run(port); err != nil {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func initEngine() *engine.Engine {
	cfg := engine.Config{
		Instances:         env.List("INSTANCES", ""),
		MirrorFanOut:      env.Int("MIRROR_FAN_OUT", 3),
		SearchAPIKey:      env.Str("YOUTUBE_API_KEY", ""),
		EduVideoAPI:       env.Str("EDU_VIDEO_API", engine.DefaultEduVideoAPI),
		EduConfigURL:      env.Str("EDU_CONFIG_URL", engine.DefaultEduConfigURL),
		StreamAPI:         env.Str("STREAM_API", engine.DefaultStreamAPI),
		M3U8API:           env.Str("M3U8_API", engine.DefaultM3U8API),
		ConfigTTL:         env.Duration("CONFIG_TTL", 5*time.Minute),
		TrendingTTL:       env.Duration("TRENDING_TTL", 5*time.Minute),
		ThumbTTL:          env.Duration("THUMB_TTL", time.Hour),
		ThumbMaxEntries:   env.Int("THUMB_MAX_ENTRIES", 500),
		RedisURL:          env.Str("REDIS_URL", ""),
		RequestsPerSecond: env.Float("REQUESTS_PER_SECOND", 0),
	}
	return engine.New(cfg)
}
