package engine

import (
	"fmt"
	"strings"
)

// FormatDuration renders a second count as fixed-width H:MM:SS duration text.
// Zero and negative counts render as the empty string, which is the
// documented default for an absent length.
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return ""
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// ThumbVariants are the deterministic thumbnail CDN file names, smallest to
// largest.
var ThumbVariants = []string{"default", "mqdefault", "hqdefault", "sddefault", "maxresdefault"}

// ThumbnailURL builds the CDN URL for a video thumbnail. Unknown variants
// fall back to hqdefault.
func ThumbnailURL(videoID, variant string) string {
	known := false
	for _, v := range ThumbVariants {
		if v == variant {
			known = true
			break
		}
	}
	if !known {
		variant = "hqdefault"
	}
	return "https://i.ytimg.com/vi/" + videoID + "/" + variant + ".jpg"
}

// NewlineToBr converts literal newlines to <br> for HTML description and
// comment bodies.
func NewlineToBr(s string) string {
	return strings.ReplaceAll(s, "\n", "<br>")
}

// EnsureHTTPS prefixes "https:" onto protocol-relative thumbnail URLs some
// providers return. Empty strings pass through untouched.
func EnsureHTTPS(u string) string {
	if u != "" && !strings.HasPrefix(u, "https") {
		return "https:" + u
	}
	return u
}

const quoteSafe = "-_.~/:"

// QuoteURL percent-encodes s, leaving letters, digits, and the safe set
// "-_.~/:" intact, so provider banner and profile URLs survive being embedded
// in image tags.
func QuoteURL(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			sb.WriteByte(c)
		case strings.IndexByte(quoteSafe, c) >= 0:
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "%%%02X", c)
		}
	}
	return sb.String()
}
