package engine

// Unified record shapes. Every provider response is normalized into these;
// fields a provider does not supply stay at their zero value (empty string,
// zero, empty list) so callers never face null-vs-missing ambiguity.

// Search result item types.
const (
	TypeVideo    = "video"
	TypeChannel  = "channel"
	TypePlaylist = "playlist"
)

// SearchResultItem is a tagged union over the video, channel, and playlist
// variants; Type selects which field subset is populated. Identity is
// (Type, ID).
type SearchResultItem struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	AuthorID    string `json:"authorId,omitempty"`
	Thumbnail   string `json:"thumbnail"`
	Published   string `json:"published,omitempty"`
	Description string `json:"description,omitempty"`
	Views       string `json:"views,omitempty"`
	Length      string `json:"length,omitempty"`

	// channel variant
	Subscribers int64 `json:"subscribers,omitempty"`

	// playlist variant
	VideoCount int64 `json:"count,omitempty"`
}

// VideoSummary is one row of a related list, playlist, channel listing, or
// the trending feed.
type VideoSummary struct {
	Type      string `json:"type,omitempty"`
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author,omitempty"`
	AuthorID  string `json:"authorId,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Published string `json:"published,omitempty"`
	Views     string `json:"views,omitempty"`
	Length    string `json:"length,omitempty"`
}

// StreamCandidate is one adaptive format offered by the full provider.
type StreamCandidate struct {
	URL        string `json:"url"`
	Resolution string `json:"resolution"`
}

// VideoDetail is the unified watch-page record. The full provider populates
// every field; the degraded provider populates only the metadata subset and
// leaves the stream fields at their defaults.
type VideoDetail struct {
	Title           string `json:"title"`
	DescriptionHTML string `json:"description"`
	Author          string `json:"author"`
	AuthorID        string `json:"authorId"`
	AuthorThumbnail string `json:"authorThumbnail"`
	Views           int64  `json:"views"`
	Likes           int64  `json:"likes"`
	SubscriberText  string `json:"subscribers"`
	PublishedText   string `json:"published"`
	LengthText      string `json:"lengthText"`

	Related []VideoSummary `json:"related"`

	StreamCandidates  []StreamCandidate `json:"streamUrls"`
	HighStreamURL     string            `json:"highstreamUrl"`
	AudioURL          string            `json:"audioUrl"`
	FallbackVideoURLs []string          `json:"videoUrls"`
}

// StreamBundle is the set of candidate playable URLs for one video. Embed and
// Education are always populated (pure construction); the other three are
// best-effort and independently optional.
type StreamBundle struct {
	Primary   string `json:"primary"`
	Fallback  string `json:"fallback"`
	M3U8      string `json:"m3u8"`
	Embed     string `json:"embed"`
	Education string `json:"education"`
}

// PlaylistDetail is the unified playlist record.
type PlaylistDetail struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Author      string         `json:"author"`
	AuthorID    string         `json:"authorId"`
	Description string         `json:"description"`
	VideoCount  int64          `json:"videoCount"`
	ViewCount   int64          `json:"viewCount"`
	Videos      []VideoSummary `json:"videos"`
}

// ChannelDetail is the unified channel record.
type ChannelDetail struct {
	Name        string         `json:"channelName"`
	Icon        string         `json:"channelIcon"`
	ProfileHTML string         `json:"channelProfile"`
	Banner      string         `json:"authorBanner"`
	Subscribers int64          `json:"subscribers"`
	Tags        []string       `json:"tags"`
	VideoCount  int64          `json:"videoCount"`
	Videos      []VideoSummary `json:"videos"`
}

// ChannelVideosPage is one page of a channel's uploads. Continuation is an
// opaque cursor passed back verbatim to fetch the next page; empty means no
// further page is known.
type ChannelVideosPage struct {
	Videos       []VideoSummary `json:"videos"`
	Continuation string         `json:"continuation"`
}

// Comment is one normalized comment.
type Comment struct {
	Author          string `json:"author"`
	AuthorID        string `json:"authorId"`
	AuthorThumbnail string `json:"authorThumbnail"`
	ContentHTML     string `json:"content"`
	Likes           int64  `json:"likes"`
	Published       string `json:"published"`
}
