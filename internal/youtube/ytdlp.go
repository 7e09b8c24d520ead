package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"TubeDigest/internal/cache"
	"TubeDigest/internal/models"
	"TubeDigest/pkg/circuitbreaker"
	"TubeDigest/pkg/logger"

	"github.com/lrstanley/go-ytdlp"
)

// Cache namespaces and key prefixes shared with the health endpoint.
const (
	CacheNamespaceTranscripts = "transcripts"
	infoCacheKeyPrefix        = "info_"
)

// VideoInfo is the subset of yt-dlp video metadata the service cares about.
type VideoInfo struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Duration    float64 `json:"duration"`
	Uploader    string  `json:"uploader"`
	ViewCount   int64   `json:"view_count"`
	UploadDate  string  `json:"upload_date"`
	Description string  `json:"description"`
}

// PlaylistInfo is the result of expanding a playlist URL into its items.
type PlaylistInfo struct {
	ID       string
	Title    string
	VideoIDs []string
}

// FetcherConfig controls timeouts, retries and cache retention.
type FetcherConfig struct {
	Languages       []string      // subtitle language preference order
	FetchTimeout    time.Duration // per external call
	MaxRetries      int
	RetryBaseDelay  time.Duration
	TranscriptTTL   time.Duration
	InfoTTL         time.Duration
	InfoFallbackTTL time.Duration // short TTL for placeholder info after a failed fetch
}

// Fetcher retrieves video metadata, playlist contents and transcripts through
// the yt-dlp binary, caching results between tasks. All calls are guarded by
// an optional circuit breaker so a dead upstream fails fast.
type Fetcher struct {
	cfg     FetcherConfig
	cache   cache.Cache
	breaker circuitbreaker.CircuitBreaker
	logger  *logger.Logger
}

// NewFetcher creates a Fetcher. breaker may be nil to disable fast-failing.
func NewFetcher(cfg FetcherConfig, c cache.Cache, breaker circuitbreaker.CircuitBreaker, log *logger.Logger) *Fetcher {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 60 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"en"}
	}
	return &Fetcher{cfg: cfg, cache: c, breaker: breaker, logger: log}
}

// rawInfo mirrors the fields of yt-dlp's --dump-single-json output we consume.
type rawInfo struct {
	Type        string     `json:"_type"`
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	WebpageURL  string     `json:"webpage_url"`
	Duration    float64    `json:"duration"`
	Description string     `json:"description"`
	Uploader    string     `json:"uploader"`
	ViewCount   int64      `json:"view_count"`
	UploadDate  string     `json:"upload_date"`
	Entries     []*rawInfo `json:"entries"`
}

// GetVideoInfo fetches metadata for a single video, serving from cache when
// possible.
func (f *Fetcher) GetVideoInfo(ctx context.Context, videoID string) (*VideoInfo, error) {
	if videoID == "" {
		return nil, fmt.Errorf("invalid video ID")
	}

	var cached VideoInfo
	if err := cache.GetJSON(ctx, f.cache, CacheNamespaceTranscripts, infoCacheKeyPrefix+videoID, &cached); err == nil {
		return &cached, nil
	}

	raw, err := f.dumpJSON(ctx, WatchURL(videoID), false)
	if err != nil {
		return nil, fmt.Errorf("fetch video info for %s: %w", videoID, err)
	}

	info := &VideoInfo{
		ID:          videoID,
		Title:       raw.Title,
		URL:         raw.WebpageURL,
		Duration:    raw.Duration,
		Uploader:    raw.Uploader,
		ViewCount:   raw.ViewCount,
		UploadDate:  raw.UploadDate,
		Description: raw.Description,
	}
	if info.Title == "" {
		info.Title = "Video " + videoID
	}
	if info.URL == "" {
		info.URL = WatchURL(videoID)
	}
	_ = cache.SetJSON(ctx, f.cache, CacheNamespaceTranscripts, infoCacheKeyPrefix+videoID, info, f.cfg.InfoTTL)
	return info, nil
}

// GetPlaylistInfo expands a playlist URL into its ordered video IDs using
// flat extraction, which avoids resolving every entry's full metadata.
func (f *Fetcher) GetPlaylistInfo(ctx context.Context, playlistURL string) (*PlaylistInfo, error) {
	raw, err := f.dumpJSON(ctx, playlistURL, true)
	if err != nil {
		return nil, fmt.Errorf("expand playlist: %w", err)
	}

	var ids []string
	for _, e := range raw.Entries {
		if e != nil && e.ID != "" {
			ids = append(ids, e.ID)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no valid video IDs found in playlist entries")
	}

	title := raw.Title
	if title == "" {
		title = "YouTube Playlist"
	}
	return &PlaylistInfo{ID: raw.ID, Title: title, VideoIDs: ids}, nil
}

// FetchTranscript returns the subtitle cues for a video, preferring cached
// data. Retries with exponential backoff before giving up.
func (f *Fetcher) FetchTranscript(ctx context.Context, videoID string) ([]Cue, error) {
	if videoID == "" {
		return nil, fmt.Errorf("invalid video ID")
	}

	var cached []Cue
	if err := cache.GetJSON(ctx, f.cache, CacheNamespaceTranscripts, videoID, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}

	var cues []Cue
	err := f.retry(ctx, func() error {
		var ferr error
		cues, ferr = f.downloadSubtitles(ctx, videoID)
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript for %s: %w", videoID, err)
	}

	_ = cache.SetJSON(ctx, f.cache, CacheNamespaceTranscripts, videoID, cues, f.cfg.TranscriptTTL)
	return cues, nil
}

// FetchTranscriptWithInfo fetches the transcript sliced to the requested time
// range together with the video's metadata. A transcript failure is an error;
// a metadata failure degrades to placeholder info cached for a short period
// so repeated attempts do not hammer the backend.
func (f *Fetcher) FetchTranscriptWithInfo(ctx context.Context, videoID string, r TimeRange) (string, *VideoInfo, error) {
	cues, err := f.FetchTranscript(ctx, videoID)
	if err != nil {
		return "", nil, err
	}

	info, err := f.GetVideoInfo(ctx, videoID)
	if err != nil {
		f.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "info_error"}).Warn("Falling back to placeholder video info")
		info = &VideoInfo{ID: videoID, Title: "Video " + videoID, URL: WatchURL(videoID)}
		_ = cache.SetJSON(ctx, f.cache, CacheNamespaceTranscripts, infoCacheKeyPrefix+videoID, info, f.cfg.InfoFallbackTTL)
	}

	if err := r.CheckAgainstDuration(info.Duration); err != nil {
		return "", info, err
	}
	return SliceCues(cues, r), info, nil
}

// dumpJSON runs yt-dlp with --dump-single-json and decodes the result.
func (f *Fetcher) dumpJSON(ctx context.Context, url string, flatPlaylist bool) (*rawInfo, error) {
	res, err := f.execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, f.cfg.FetchTimeout)
		defer cancel()

		dl := ytdlp.New().
			Quiet().
			SkipDownload().
			DumpSingleJSON()
		if flatPlaylist {
			dl = dl.FlatPlaylist()
		}
		return dl.Run(callCtx, url)
	})
	if err != nil {
		return nil, err
	}

	var raw rawInfo
	if err := json.Unmarshal([]byte(res.(*ytdlp.Result).Stdout), &raw); err != nil {
		return nil, fmt.Errorf("decode yt-dlp output: %w", err)
	}
	return &raw, nil
}

// downloadSubtitles asks yt-dlp for manual or automatic subtitles and parses
// whichever subtitle file shows up first in language preference order.
func (f *Fetcher) downloadSubtitles(ctx context.Context, videoID string) ([]Cue, error) {
	tempDir, err := os.MkdirTemp("", "tubedigest-subs-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)

	_, err = f.execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, f.cfg.FetchTimeout)
		defer cancel()

		dl := ytdlp.New().
			Quiet().
			SkipDownload().
			WriteSubs().
			WriteAutoSubs().
			SubLangs(strings.Join(f.cfg.Languages, ",")).
			SubFormat("vtt/srt/best").
			Output(filepath.Join(tempDir, "%(id)s.%(ext)s"))
		return dl.Run(callCtx, WatchURL(videoID))
	})
	if err != nil {
		// yt-dlp may still have written a subtitle file before failing, so
		// keep looking instead of returning immediately.
		f.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "subtitle_error"}).Warn("yt-dlp subtitle download reported an error")
	}

	subtitlePath := ""
	for _, ext := range []string{"vtt", "srt"} {
		for _, lang := range f.cfg.Languages {
			candidate := filepath.Join(tempDir, fmt.Sprintf("%s.%s.%s", videoID, lang, ext))
			if _, statErr := os.Stat(candidate); statErr == nil {
				subtitlePath = candidate
				break
			}
		}
		if subtitlePath != "" {
			break
		}
	}
	if subtitlePath == "" {
		return nil, fmt.Errorf("no subtitle file available for %s", videoID)
	}

	content, err := os.ReadFile(subtitlePath)
	if err != nil {
		return nil, err
	}
	cues := ParseCues(string(content))
	if len(cues) == 0 {
		return nil, fmt.Errorf("no usable cues in subtitle file for %s", videoID)
	}
	return cues, nil
}

// execute routes a call through the circuit breaker when one is configured.
func (f *Fetcher) execute(fn func() (interface{}, error)) (interface{}, error) {
	if f.breaker == nil {
		return fn()
	}
	return f.breaker.Execute(fn)
}

// retry runs fn up to MaxRetries times with exponential backoff and jitter.
func (f *Fetcher) retry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := f.cfg.RetryBaseDelay*(1<<(attempt-1)) + time.Duration(rand.Int63n(int64(time.Second)))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		// An open circuit will not heal within this retry loop.
		if lastErr == circuitbreaker.ErrCircuitOpen {
			return lastErr
		}
	}
	return lastErr
}
