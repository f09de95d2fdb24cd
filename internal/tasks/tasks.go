package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/repositories"
	"github.com/desertthunder/mazeed/internal/services"
	"github.com/desertthunder/mazeed/internal/shared"
	"github.com/desertthunder/mazeed/internal/toast"
)

// JobClient is the transformation backend; [services.TransformationService] implements it.
type JobClient interface {
	CreateJob(ctx context.Context, req models.TransformationRequest) (models.ID, error)
	ListJobs(ctx context.Context, page, pageSize int) ([]models.TransformationJob, error)
	GetJob(ctx context.Context, jobID models.ID) (*models.TransformationJob, error)
	CancelJob(ctx context.Context, jobID models.ID) error
	TransformedMedia(ctx context.Context, id models.ID) (*models.TransformedItem, error)
}

// Uploader publishes transformed media; [services.UploadService] implements it.
type Uploader interface {
	UploadTikTok(ctx context.Context, req models.TikTokUploadRequest) error
	UploadYouTube(ctx context.Context, req models.YouTubeUploadRequest) error
}

// JobHistory records jobs locally; [repositories.JobRepository] implements it.
type JobHistory interface {
	Create(job *models.JobRecord) error
	Sync(userID string, jobs []models.TransformationJob) error
}

var (
	_ JobClient  = (*services.TransformationService)(nil)
	_ Uploader   = (*services.UploadService)(nil)
	_ JobHistory = (*repositories.JobRepository)(nil)
)

// PollOpts tunes the preview poller.
type PollOpts struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Backoff     float64
	MaxAttempts int
	// QueueInterval is the refetch period of the queue watcher.
	QueueInterval time.Duration
	PageSize      int
}

// DefaultPollOpts polls the preview every 2s growing by 1.5x up to 30s for 60 attempts,
// and refetches the queue every 5s.
func DefaultPollOpts() PollOpts {
	return PollOpts{
		Interval:      2 * time.Second,
		MaxInterval:   30 * time.Second,
		Backoff:       1.5,
		MaxAttempts:   60,
		QueueInterval: 5 * time.Second,
		PageSize:      10,
	}
}

// PollOptsFromConfig reads polling settings, keeping defaults for unset values.
func PollOptsFromConfig(c shared.PollingConfig) PollOpts {
	o := DefaultPollOpts()
	if d := c.PreviewInterval(); d > 0 {
		o.Interval = d
	}
	if d := c.PreviewMaxInterval(); d > 0 {
		o.MaxInterval = d
	}
	if c.PreviewBackoff >= 1 {
		o.Backoff = c.PreviewBackoff
	}
	if c.PreviewMaxAttempts > 0 {
		o.MaxAttempts = c.PreviewMaxAttempts
	}
	if d := c.QueueInterval(); d > 0 {
		o.QueueInterval = d
	}
	if c.PageSize > 0 {
		o.PageSize = c.PageSize
	}
	return o
}

// RunnerOpts configures a [JobRunner].
type RunnerOpts struct {
	Jobs     JobClient
	Uploads  Uploader
	History  JobHistory
	UserID   func() (models.ID, error)
	Notifier toast.Notifier
	Logger   *log.Logger

	Polling   PollOpts
	Downloads DownloadOpts

	// HTTPClient fetches media bytes. Media URLs are public, so it carries no credentials.
	HTTPClient *http.Client
	Open       shared.Opener
	// After replaces time.After in tests.
	After func(d time.Duration) <-chan time.Time
}

// JobRunner submits transformation jobs and follows them to completion.
type JobRunner struct {
	jobs     JobClient
	uploads  Uploader
	history  JobHistory
	userID   func() (models.ID, error)
	notifier toast.Notifier
	logger   *log.Logger
	poll     PollOpts
	dl       DownloadOpts
	http     *http.Client
	open     shared.Opener
	after    func(d time.Duration) <-chan time.Time
}

// NewJobRunner creates a JobRunner, filling unset options with defaults.
func NewJobRunner(opts RunnerOpts) *JobRunner {
	r := &JobRunner{
		jobs:     opts.Jobs,
		uploads:  opts.Uploads,
		history:  opts.History,
		userID:   opts.UserID,
		notifier: opts.Notifier,
		logger:   opts.Logger,
		poll:     opts.Polling,
		dl:       opts.Downloads.withDefaults(),
		http:     opts.HTTPClient,
		open:     opts.Open,
		after:    opts.After,
	}

	defaults := DefaultPollOpts()
	if r.poll.Interval <= 0 {
		r.poll.Interval = defaults.Interval
	}
	if r.poll.MaxInterval <= 0 {
		r.poll.MaxInterval = defaults.MaxInterval
	}
	if r.poll.Backoff < 1 {
		r.poll.Backoff = defaults.Backoff
	}
	if r.poll.MaxAttempts <= 0 {
		r.poll.MaxAttempts = defaults.MaxAttempts
	}
	if r.poll.QueueInterval <= 0 {
		r.poll.QueueInterval = defaults.QueueInterval
	}
	if r.poll.PageSize <= 0 {
		r.poll.PageSize = defaults.PageSize
	}

	if r.notifier == nil {
		r.notifier = toast.Discard{}
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	if r.http == nil {
		r.http = &http.Client{Timeout: 5 * time.Minute}
	}
	if r.open == nil {
		r.open = shared.OpenBrowser
	}
	if r.after == nil {
		r.after = time.After
	}
	return r
}

func (r *JobRunner) currentUser() (models.ID, error) {
	if r.userID == nil {
		return "", shared.ErrNotAuthenticated
	}
	return r.userID()
}

func (r *JobRunner) wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-r.after(d):
		return nil
	}
}

// Submit starts a transformation job and records it in the local history as queued.
func (r *JobRunner) Submit(ctx context.Context, sources []models.MediaSource, platform models.Platform, opts models.TransformationOptions) (models.ID, error) {
	if len(sources) == 0 {
		return "", shared.ErrEmptySelection
	}
	if !platform.IsDestination() {
		return "", fmt.Errorf("%w: %s", shared.ErrUnsupportedPlatform, platform)
	}
	if r.jobs == nil {
		return "", fmt.Errorf("%w: transformation service not initialized", shared.ErrServiceUnavailable)
	}

	if opts.AspectRatio == "" {
		opts.AspectRatio = models.AspectVertical
	}

	req := models.TransformationRequest{
		MediaSources:    sources,
		TargetPlatforms: []models.Platform{platform},
		Options:         opts,
	}
	id, err := r.jobs.CreateJob(ctx, req)
	if err != nil {
		return "", err
	}

	r.logger.Info("job submitted", "job_id", id, "platform", platform, "items", len(sources))
	r.record(id, platform, len(sources))
	return id, nil
}

// record inserts the optimistic history row. Failures only cost local history.
func (r *JobRunner) record(id models.ID, platform models.Platform, count int) {
	if r.history == nil {
		return
	}
	userID, err := r.currentUser()
	if err != nil {
		r.logger.Debug("skipping job history", "error", err)
		return
	}
	rec := models.NewJobRecord(string(id), string(userID), platform, count)
	if err := r.history.Create(rec); err != nil {
		r.logger.Warn("failed to record job", "job_id", id, "error", err)
	}
}

// terminalPollError reports errors that polling cannot outlast.
func terminalPollError(err error) bool {
	return errors.Is(err, shared.ErrJobNotFound) ||
		errors.Is(err, shared.ErrNotAuthenticated) ||
		errors.Is(err, shared.ErrRefreshFailed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// PollPreview fetches the job until its first item has transformed media.
//
// The interval starts at PollOpts.Interval and grows by PollOpts.Backoff up to
// PollOpts.MaxInterval. After PollOpts.MaxAttempts fetches it gives up with
// [shared.ErrTimeout]. A failed job returns [shared.ErrJobFailed].
func (r *JobRunner) PollPreview(ctx context.Context, jobID models.ID, progress chan<- ProgressUpdate) (*models.TransformationJob, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: job id", shared.ErrMissingArgument)
	}

	interval := r.poll.Interval
	limit := r.poll.MaxAttempts

	for attempt := 1; attempt <= limit; attempt++ {
		job, err := r.jobs.GetJob(ctx, jobID)
		switch {
		case err != nil && terminalPollError(err):
			return nil, err
		case err != nil:
			r.logger.Warn("preview poll failed", "job_id", jobID, "attempt", attempt, "error", err)
		case job.Status.Normalize() == models.StatusFailed:
			return job, fmt.Errorf("%w: %s", shared.ErrJobFailed, jobID)
		default:
			if item, ok := job.Preview(); ok {
				sendProgress(progress, previewReadyUpdate(attempt, limit, item))
				return job, nil
			}
		}

		sendProgress(progress, pollUpdate(attempt, limit, job))
		if attempt == limit {
			break
		}
		if err := r.wait(ctx, interval); err != nil {
			return nil, err
		}
		interval = time.Duration(float64(interval) * r.poll.Backoff)
		if interval > r.poll.MaxInterval {
			interval = r.poll.MaxInterval
		}
	}

	return nil, fmt.Errorf("%w: preview for job %s not ready after %d attempts", shared.ErrTimeout, jobID, limit)
}

// Jobs fetches one page of the queue and syncs it into the local history.
func (r *JobRunner) Jobs(ctx context.Context, page, pageSize int) ([]models.TransformationJob, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = r.poll.PageSize
	}

	jobs, err := r.jobs.ListJobs(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	if r.history != nil {
		if userID, err := r.currentUser(); err == nil {
			if err := r.history.Sync(string(userID), jobs); err != nil {
				r.logger.Warn("failed to sync job history", "error", err)
			}
		}
	}
	return jobs, nil
}

// WatchQueue refetches the queue while any job on the page is still in progress.
//
// onUpdate receives every fetched page. The watcher returns nil once no job is active.
func (r *JobRunner) WatchQueue(ctx context.Context, page, pageSize int, onUpdate func([]models.TransformationJob), progress chan<- ProgressUpdate) error {
	for round := 1; ; round++ {
		jobs, err := r.Jobs(ctx, page, pageSize)
		if err != nil {
			return err
		}

		if onUpdate != nil {
			onUpdate(jobs)
		}
		sendProgress(progress, queueUpdate(round, jobs))

		if !models.AnyActive(jobs) {
			r.logger.Debug("queue settled", "rounds", round)
			return nil
		}
		if err := r.wait(ctx, r.poll.QueueInterval); err != nil {
			return err
		}
	}
}

// Cancel deletes a job and refetches the first queue page.
//
// A failed refetch is logged; the returned jobs are then nil.
func (r *JobRunner) Cancel(ctx context.Context, jobID models.ID) ([]models.TransformationJob, error) {
	if err := r.jobs.CancelJob(ctx, jobID); err != nil {
		r.notifier.Show(toast.Error, "Failed to cancel the transformation. Please try again.")
		return nil, err
	}

	r.notifier.Show(toast.Success, "Transformation cancelled")
	r.logger.Info("job cancelled", "job_id", jobID)

	jobs, err := r.Jobs(ctx, 1, r.poll.PageSize)
	if err != nil {
		r.logger.Warn("failed to refresh queue after cancel", "error", err)
		return nil, nil
	}
	return jobs, nil
}

// Job fetches one job.
func (r *JobRunner) Job(ctx context.Context, jobID models.ID) (*models.TransformationJob, error) {
	if jobID == "" {
		return nil, fmt.Errorf("%w: job id", shared.ErrMissingArgument)
	}
	return r.jobs.GetJob(ctx, jobID)
}

// TransformedMedia fetches the detail of one transformed item.
func (r *JobRunner) TransformedMedia(ctx context.Context, id models.ID) (*models.TransformedItem, error) {
	return r.jobs.TransformedMedia(ctx, id)
}

// UploadOpts describes how an item is published.
type UploadOpts struct {
	Platform    models.Platform
	ChannelID   string
	Title       string
	Description string
}

// Upload publishes a transformed item to its platform in a single attempt.
func (r *JobRunner) Upload(ctx context.Context, item models.TransformedItem, opts UploadOpts, progress chan<- ProgressUpdate) error {
	platform := opts.Platform
	if platform == "" {
		platform = item.TargetPlatform
	}
	if !item.Ready() {
		return fmt.Errorf("%w: %s", shared.ErrMediaNotReady, item.ItemID)
	}
	if r.uploads == nil {
		return fmt.Errorf("%w: upload service not initialized", shared.ErrServiceUnavailable)
	}
	userID, err := r.currentUser()
	if err != nil {
		return err
	}

	sendProgress(progress, uploadUpdate(platform))

	switch platform {
	case models.YouTube:
		title := opts.Title
		if title == "" {
			title = item.Caption
		}
		err = r.uploads.UploadYouTube(ctx, models.YouTubeUploadRequest{
			ChannelID: opts.ChannelID,
			UserID:    userID,
			Videos: []models.YouTubeVideo{{
				FilePath:    item.TransformedMediaURL,
				Title:       title,
				Description: opts.Description,
			}},
		})
	case models.TikTok:
		err = r.uploads.UploadTikTok(ctx, models.TikTokUploadRequest{
			UserID: userID,
			Media:  []models.TikTokMedia{{ID: item.ItemID, URL: item.TransformedMediaURL}},
		})
	default:
		return fmt.Errorf("%w: %s", shared.ErrUnsupportedPlatform, platform)
	}

	if err != nil {
		r.notifier.Show(toast.Error, fmt.Sprintf("Failed to upload to %s", platform))
		return fmt.Errorf("%w: %w", shared.ErrUploadFailed, err)
	}

	r.notifier.Show(toast.Success, fmt.Sprintf("Successfully uploaded to %s", platform))
	r.logger.Info("media uploaded", "item_id", item.ItemID, "platform", platform)
	return nil
}
