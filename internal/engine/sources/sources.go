// Package sources holds the provider clients, their per-provider
// normalizers, and the fallback composers that pick among them.
//
// The implementation is split by provider:
//
//	invidious.go — mirror-pool provider: schema structs and normalizers for
//	               search, video detail, playlists, channels, paging,
//	               comments, and the popular feed
//	eduvideo.go  — degraded secondary detail provider and the remote embed
//	               parameter config
//	stream.go    — the two stream-URL providers and the embed/education URL
//	               synthesizers
//	suggest.go   — search autocomplete
//	service.go   — per-use-case fallback chains and the watch-page fan-out
package sources
