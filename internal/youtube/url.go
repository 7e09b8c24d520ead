package youtube

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Recognized YouTube hosts.
var validHosts = map[string]bool{
	"www.youtube.com": true,
	"youtube.com":     true,
	"youtu.be":        true,
}

// WatchURLTemplate builds a canonical watch URL from a video ID.
const WatchURLTemplate = "https://www.youtube.com/watch?v=%s"

// WatchURL returns the canonical watch URL for a video ID.
func WatchURL(videoID string) string {
	return fmt.Sprintf(WatchURLTemplate, videoID)
}

// IsYouTubeURL reports whether rawURL points at a recognized YouTube host.
func IsYouTubeURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return validHosts[u.Host]
}

// IsPlaylistURL reports whether rawURL refers to a playlist rather than a
// single video. A watch URL carrying a list parameter counts as a playlist.
func IsPlaylistURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if !validHosts[u.Host] {
		return false
	}
	if strings.HasPrefix(u.Path, "/playlist") {
		return true
	}
	return u.Query().Get("list") != ""
}

// ExtractVideoID extracts the video ID from a YouTube URL.
// Supported forms: youtu.be/{id}, /watch?v={id} and /live/{id}.
func ExtractVideoID(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !validHosts[u.Host] {
		return "", fmt.Errorf("invalid YouTube URL format")
	}

	if u.Host == "youtu.be" {
		id := strings.TrimPrefix(u.Path, "/")
		if i := strings.Index(id, "/"); i >= 0 {
			id = id[:i]
		}
		if id == "" {
			return "", fmt.Errorf("could not extract video ID from youtu.be URL")
		}
		return id, nil
	}

	if rest, ok := strings.CutPrefix(u.Path, "/live/"); ok {
		if i := strings.Index(rest, "/"); i >= 0 {
			rest = rest[:i]
		}
		if rest == "" {
			return "", fmt.Errorf("could not extract video ID from live URL")
		}
		return rest, nil
	}

	if id := u.Query().Get("v"); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no video ID found in URL")
}

// ExtractPlaylistID extracts the playlist ID from a URL, or "" if absent.
func ExtractPlaylistID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("list")
}

// PlaylistURL returns the canonical playlist URL for a playlist ID.
func PlaylistURL(playlistID string) string {
	return "https://www.youtube.com/playlist?list=" + playlistID
}

// CanonicalPlaylistURL normalizes playlist-bearing URLs. A watch URL that
// carries a list parameter is rewritten to the plain playlist form so
// downstream expansion resolves the whole playlist, not the single video.
func CanonicalPlaylistURL(rawURL string) string {
	if id := ExtractPlaylistID(rawURL); id != "" {
		return PlaylistURL(id)
	}
	return rawURL
}

// timestampPattern matches H:MM:SS and HH:MM:SS with optional zero padding.
var timestampPattern = regexp.MustCompile(`^([0-9]{1,2}):([0-5]?[0-9]):([0-5]?[0-9])$`)

// ParseTimestamp converts an HH:MM:SS string into seconds.
// Hours are validated to the 0-23 range, minutes and seconds to 0-59.
func ParseTimestamp(s string) (float64, error) {
	m := timestampPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, fmt.Errorf("timestamp must be in HH:MM:SS format")
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	seconds, _ := strconv.Atoi(m[3])
	if hours > 23 {
		return 0, fmt.Errorf("hours must be between 0 and 23")
	}
	return float64(hours*3600 + minutes*60 + seconds), nil
}

// TimeRange is an optional half-open slice of a video's timeline in seconds.
// A negative bound means unconstrained.
type TimeRange struct {
	Start float64
	End   float64
}

// FullRange covers the whole video.
func FullRange() TimeRange {
	return TimeRange{Start: -1, End: -1}
}

// ParseTimeRange validates the optional start/end form fields and converts
// them into a TimeRange. Empty strings leave the corresponding bound open.
func ParseTimeRange(startStr, endStr string) (TimeRange, error) {
	r := FullRange()
	if s := strings.TrimSpace(startStr); s != "" {
		sec, err := ParseTimestamp(s)
		if err != nil {
			return r, fmt.Errorf("start time: %w", err)
		}
		r.Start = sec
	}
	if s := strings.TrimSpace(endStr); s != "" {
		sec, err := ParseTimestamp(s)
		if err != nil {
			return r, fmt.Errorf("end time: %w", err)
		}
		r.End = sec
	}
	if r.Start >= 0 && r.End >= 0 && r.Start >= r.End {
		return r, fmt.Errorf("start time must be before end time")
	}
	return r, nil
}

// CheckAgainstDuration rejects bounds that lie beyond a known video duration.
// A non-positive duration means the duration is unknown and nothing is checked.
func (r TimeRange) CheckAgainstDuration(duration float64) error {
	if duration <= 0 {
		return nil
	}
	if r.Start >= 0 && r.Start > duration {
		return fmt.Errorf("start time exceeds video duration (%.0fs)", duration)
	}
	if r.End >= 0 && r.End > duration {
		return fmt.Errorf("end time exceeds video duration (%.0fs)", duration)
	}
	return nil
}
