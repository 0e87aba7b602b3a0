package engine

import (
	"time"
)

// Default upstream endpoints of the reference deployment.
const (
	DefaultEduVideoAPI  = "https://siawaseok.duckdns.org/api/video2/"
	DefaultEduConfigURL = "https://raw.githubusercontent.com/siawaseok3/wakame/master/video_config.json"
	DefaultStreamAPI    = "https://ytdl-0et1.onrender.com/stream/"
	DefaultM3U8API      = "https://ytdl-0et1.onrender.com/m3u8/"
)

// DefaultInstances are the known mirror instances of the primary metadata
// provider. Order is fixed; selection is always a fresh uniform sample.
var DefaultInstances = []string{
	"https://inv.nadeko.net/",
	"https://invidious.f5.si/",
	"https://invidious.lunivers.trade/",
	"https://invidious.ducks.party/",
	"https://super8.absturztau.be/",
	"https://invidious.nikkosphere.com/",
	"https://yt.omada.cafe/",
	"https://iv.melmac.space/",
	"https://iv.duti.dev/",
}

// Config holds all engine configuration, injected from main.
type Config struct {
	Instances    []string // mirror base URLs; empty = DefaultInstances
	MirrorFanOut int      // endpoints sampled per dispatch; 0 = 3

	SearchAPIKey string // keyed search API credential; empty disables that tier

	EduVideoAPI  string
	EduConfigURL string
	StreamAPI    string
	M3U8API      string

	ConfigTTL       time.Duration // remote config params cache; 0 = 300s
	TrendingTTL     time.Duration // trending list cache; 0 = 300s
	ThumbTTL        time.Duration // thumbnail bytes cache; 0 = 1h
	ThumbMaxEntries int           // thumbnail cache cap; 0 = 500

	RedisURL string // optional L2 for thumbnail bytes; empty = memory only

	RequestsPerSecond float64 // facade pacing; 0 = unlimited
}

func (c Config) withDefaults() Config {
	out := c
	if len(out.Instances) == 0 {
		out.Instances = DefaultInstances
	}
	if out.MirrorFanOut <= 0 {
		out.MirrorFanOut = 3
	}
	if out.EduVideoAPI == "" {
		out.EduVideoAPI = DefaultEduVideoAPI
	}
	if out.EduConfigURL == "" {
		out.EduConfigURL = DefaultEduConfigURL
	}
	if out.StreamAPI == "" {
		out.StreamAPI = DefaultStreamAPI
	}
	if out.M3U8API == "" {
		out.M3U8API = DefaultM3U8API
	}
	if out.ConfigTTL <= 0 {
		out.ConfigTTL = 5 * time.Minute
	}
	if out.TrendingTTL <= 0 {
		out.TrendingTTL = 5 * time.Minute
	}
	if out.ThumbTTL <= 0 {
		out.ThumbTTL = time.Hour
	}
	if out.ThumbMaxEntries <= 0 {
		out.ThumbMaxEntries = 500
	}
	return out
}
