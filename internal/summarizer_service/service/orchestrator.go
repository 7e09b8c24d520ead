package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"TubeDigest/internal/models"
	"TubeDigest/internal/summarizer_service/store"
	"TubeDigest/internal/youtube"
	"TubeDigest/pkg/logger"

	"github.com/google/uuid"
)

// ValidationError marks a submission problem the client can fix. API layers
// map it to a 400 response.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// SubmitRequest carries the client's summarization request.
type SubmitRequest struct {
	Link      string `json:"link" binding:"required"`
	Prompt    string `json:"prompt"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Config holds the orchestrator's tunables.
type Config struct {
	DefaultPrompt   string
	MaxPromptLength int
	PlaylistWorkers int // concurrent items within one playlist task
}

// SummarizerService owns the task lifecycle: it validates submissions,
// expands playlists, dispatches per-item processing and drives each task to
// its terminal status.
type SummarizerService struct {
	cfg       Config
	tasks     store.TaskStore
	queue     *TaskQueue
	processor *Processor
	fetcher   VideoFetcher
	logger    *logger.Logger
}

// NewSummarizerService creates a SummarizerService.
func NewSummarizerService(cfg Config, tasks store.TaskStore, queue *TaskQueue, processor *Processor, fetcher VideoFetcher, log *logger.Logger) *SummarizerService {
	if cfg.PlaylistWorkers <= 0 {
		cfg.PlaylistWorkers = 3
	}
	if cfg.MaxPromptLength <= 0 {
		cfg.MaxPromptLength = 2000
	}
	return &SummarizerService{
		cfg:       cfg,
		tasks:     tasks,
		queue:     queue,
		processor: processor,
		fetcher:   fetcher,
		logger:    log,
	}
}

// SubmitTask validates the request, registers a pending task and schedules
// it for background processing. It returns the new task's ID immediately.
func (s *SummarizerService) SubmitTask(ctx context.Context, req SubmitRequest) (string, error) {
	url := strings.TrimSpace(req.Link)
	if !youtube.IsYouTubeURL(url) {
		return "", &ValidationError{Reason: "not a valid YouTube URL"}
	}

	isPlaylist := youtube.IsPlaylistURL(url)
	timeRange := youtube.FullRange()
	if req.StartTime != "" || req.EndTime != "" {
		if isPlaylist {
			return "", &ValidationError{Reason: "time ranges are only supported for single videos"}
		}
		r, err := youtube.ParseTimeRange(req.StartTime, req.EndTime)
		if err != nil {
			return "", &ValidationError{Reason: err.Error()}
		}
		timeRange = r
	}

	prompt := strings.TrimSpace(req.Prompt)
	if len(prompt) > s.cfg.MaxPromptLength {
		return "", &ValidationError{Reason: fmt.Sprintf("prompt exceeds maximum length of %d characters", s.cfg.MaxPromptLength)}
	}
	if prompt == "" {
		prompt = s.cfg.DefaultPrompt
	}

	now := time.Now()
	task := &models.Task{
		ID:          uuid.NewString(),
		Status:      models.TaskStatusPending,
		Description: describeRequest(url, isPlaylist),
		StartTime:   now,
		LastUpdate:  now,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return "", fmt.Errorf("register task: %w", err)
	}

	err := s.queue.Submit(func(jobCtx context.Context) {
		s.run(jobCtx, task.ID, url, isPlaylist, timeRange, prompt)
	})
	if err != nil {
		_ = s.tasks.Delete(ctx, task.ID)
		return "", err
	}

	s.logger.WithTask(task.ID).WithPayload(map[string]interface{}{
		"url":         url,
		"is_playlist": isPlaylist,
	}).Info("Task submitted")
	return task.ID, nil
}

// GetTask returns a snapshot of the task's current state.
func (s *SummarizerService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return s.tasks.Get(ctx, id)
}

// GetVideoInfo exposes raw video metadata for the info endpoint.
func (s *SummarizerService) GetVideoInfo(ctx context.Context, url string) (*youtube.VideoInfo, error) {
	videoID, err := youtube.ExtractVideoID(url)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}
	return s.fetcher.GetVideoInfo(ctx, videoID)
}

// run drives one task from pending to its terminal status.
func (s *SummarizerService) run(ctx context.Context, taskID, url string, isPlaylist bool, timeRange youtube.TimeRange, prompt string) {
	log := s.logger.WithTask(taskID)

	videoIDs, playlistTitle, err := s.expand(ctx, taskID, url, isPlaylist)
	if err != nil {
		s.fail(ctx, taskID, "expansion", err)
		return
	}
	if len(videoIDs) == 0 {
		s.fail(ctx, taskID, "expansion", errors.New("no videos resolved from the submitted link"))
		return
	}

	uerr := s.tasks.Update(ctx, taskID, func(t *models.Task) {
		t.Status = models.TaskStatusInProgress
		t.TotalItems = len(videoIDs)
		t.Result = &models.TaskResult{
			IsPlaylist:    isPlaylist,
			PlaylistTitle: playlistTitle,
			Videos:        make([]models.VideoResult, len(videoIDs)),
		}
	})
	if uerr != nil {
		log.WithError(models.ErrorInfo{Message: uerr.Error(), Type: "store_error"}).Error("Failed to start task")
		return
	}

	results := make([]models.VideoResult, len(videoIDs))
	sem := make(chan struct{}, s.cfg.PlaylistWorkers)
	var wg sync.WaitGroup
	for i, videoID := range videoIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, id string) {
			defer wg.Done()
			defer func() { <-sem }()

			res := s.processor.ProcessVideo(ctx, taskID, id, timeRange, prompt)
			results[idx] = res

			s.recordItem(ctx, taskID, idx, res)
		}(i, videoID)
	}
	wg.Wait()

	s.finalize(ctx, taskID, results)
}

// expand resolves the submitted URL into an ordered list of video IDs.
func (s *SummarizerService) expand(ctx context.Context, taskID, url string, isPlaylist bool) ([]string, string, error) {
	if !isPlaylist {
		videoID, err := youtube.ExtractVideoID(url)
		if err != nil {
			return nil, "", err
		}
		return []string{videoID}, "", nil
	}

	err := s.tasks.Update(ctx, taskID, func(t *models.Task) {
		t.CurrentItemDetails = "Expanding playlist"
	})
	if err != nil {
		return nil, "", err
	}

	info, err := s.fetcher.GetPlaylistInfo(ctx, youtube.CanonicalPlaylistURL(url))
	if err != nil {
		return nil, "", err
	}
	return info.VideoIDs, info.Title, nil
}

// recordItem publishes one finished item into the task record. Results keep
// their submission-order slot even when items complete out of order.
func (s *SummarizerService) recordItem(ctx context.Context, taskID string, idx int, res models.VideoResult) {
	err := s.tasks.Update(ctx, taskID, func(t *models.Task) {
		if t.Result != nil && idx < len(t.Result.Videos) {
			t.Result.Videos[idx] = res
		}
		t.CompletedItems++
		if res.Error != "" {
			t.Errors = append(t.Errors, models.TaskError{
				Item:      res.ID,
				Error:     res.Error,
				Timestamp: time.Now(),
			})
		}
	})
	if err != nil {
		s.logger.WithTask(taskID).WithError(models.ErrorInfo{Message: err.Error(), Type: "store_error"}).Warn("Failed to record item result")
	}
}

// finalize moves the task to its terminal status. A single-video task whose
// only item errored is a failed task; a multi-item task completes with its
// per-item errors recorded.
func (s *SummarizerService) finalize(ctx context.Context, taskID string, results []models.VideoResult) {
	status := models.TaskStatusCompleted
	if len(results) == 1 && results[0].Error != "" {
		status = models.TaskStatusFailed
	}

	err := s.tasks.Update(ctx, taskID, func(t *models.Task) {
		t.Status = status
		t.CurrentItemDetails = ""
	})
	if err != nil {
		s.logger.WithTask(taskID).WithError(models.ErrorInfo{Message: err.Error(), Type: "store_error"}).Error("Failed to finalize task")
		return
	}
	s.logger.WithTask(taskID).WithPayload(map[string]interface{}{"status": string(status)}).Info("Task finished")
}

// fail marks the task failed before any item was attempted.
func (s *SummarizerService) fail(ctx context.Context, taskID, stage string, cause error) {
	err := s.tasks.Update(ctx, taskID, func(t *models.Task) {
		t.Status = models.TaskStatusFailed
		t.CurrentItemDetails = ""
		t.Errors = append(t.Errors, models.TaskError{
			Item:      stage,
			Error:     cause.Error(),
			Timestamp: time.Now(),
		})
	})
	if err != nil {
		s.logger.WithTask(taskID).WithError(models.ErrorInfo{Message: err.Error(), Type: "store_error"}).Error("Failed to mark task failed")
		return
	}
	s.logger.WithTask(taskID).WithError(models.ErrorInfo{Message: cause.Error(), Type: stage + "_error"}).Warn("Task failed")
}

func describeRequest(url string, isPlaylist bool) string {
	if isPlaylist {
		return "Summarize YouTube playlist " + url
	}
	return "Summarize YouTube video " + url
}
