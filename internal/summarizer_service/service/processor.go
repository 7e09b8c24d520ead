package service

import (
	"context"
	"fmt"
	"time"

	"TubeDigest/internal/llm"
	"TubeDigest/internal/models"
	"TubeDigest/internal/summarizer_service/store"
	"TubeDigest/internal/youtube"
	"TubeDigest/pkg/logger"
)

// VideoFetcher is the subset of the youtube fetcher the processor needs.
type VideoFetcher interface {
	GetVideoInfo(ctx context.Context, videoID string) (*youtube.VideoInfo, error)
	GetPlaylistInfo(ctx context.Context, playlistURL string) (*youtube.PlaylistInfo, error)
	FetchTranscriptWithInfo(ctx context.Context, videoID string, r youtube.TimeRange) (string, *youtube.VideoInfo, error)
}

// Processor turns a single video ID into a summarized VideoResult. Failures
// are reported inside the result rather than aborting the caller, so one bad
// video never takes down its playlist siblings.
type Processor struct {
	fetcher    VideoFetcher
	summarizer llm.Summarizer
	tasks      store.TaskStore
	logger     *logger.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(fetcher VideoFetcher, summarizer llm.Summarizer, tasks store.TaskStore, log *logger.Logger) *Processor {
	return &Processor{fetcher: fetcher, summarizer: summarizer, tasks: tasks, logger: log}
}

// ProcessVideo fetches the transcript for one video, slices it to the
// requested range and summarizes it. The returned result always carries the
// video's ID and URL; on failure its Error field is set instead of the
// summary. Task progress details are updated before each blocking stage so
// pollers see what is currently happening.
func (p *Processor) ProcessVideo(ctx context.Context, taskID, videoID string, r youtube.TimeRange, prompt string) models.VideoResult {
	result := models.VideoResult{
		ID:  videoID,
		URL: youtube.WatchURL(videoID),
	}
	log := p.logger.WithTask(taskID).WithPayload(map[string]interface{}{"video_id": videoID})

	p.setCurrentDetails(ctx, taskID, fmt.Sprintf("Fetching transcript for video %s", videoID))

	transcript, info, err := p.fetcher.FetchTranscriptWithInfo(ctx, videoID, r)
	if info != nil {
		result.Title = info.Title
		if info.URL != "" {
			result.URL = info.URL
		}
	}
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: "transcript_error"}).Warn("Transcript fetch failed")
		result.Error = fmt.Sprintf("transcript unavailable: %v", err)
		return result
	}
	result.Transcript = transcript

	p.setCurrentDetails(ctx, taskID, fmt.Sprintf("Summarizing video %s", videoID))

	summary, err := p.summarizer.Summarize(ctx, transcript, prompt)
	if err != nil {
		log.WithError(models.ErrorInfo{Message: err.Error(), Type: "summarization_error"}).Warn("Summarization failed")
		result.Error = fmt.Sprintf("summarization failed: %v", err)
		return result
	}
	result.SummaryMarkdown = summary

	log.Info("Video processed")
	return result
}

func (p *Processor) setCurrentDetails(ctx context.Context, taskID, details string) {
	err := p.tasks.Update(ctx, taskID, func(t *models.Task) {
		t.CurrentItemDetails = details
		t.LastUpdate = time.Now()
	})
	if err != nil {
		p.logger.WithTask(taskID).WithError(models.ErrorInfo{Message: err.Error(), Type: "store_error"}).Warn("Failed to update task details")
	}
}
