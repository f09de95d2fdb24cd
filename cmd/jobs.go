package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/mazeed/internal/formatter"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/shared"
	"github.com/desertthunder/mazeed/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// follow runs fn and prints its progress updates as they arrive.
func (r *Runner) follow(ctx context.Context, fn func(ctx context.Context, progress chan<- tasks.ProgressUpdate) error) error {
	progress := make(chan tasks.ProgressUpdate, 16)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(progress)
		return fn(ctx, progress)
	})
	g.Go(func() error {
		for update := range progress {
			r.logger.Debug("progress", "phase", update.Phase, "step", update.Step, "total", update.Total)
			if update.Total > 0 {
				r.writePlain("  [%d/%d] %s\n", update.Step, update.Total, update.Message)
			} else {
				r.writePlain("  %s\n", update.Message)
			}
		}
		return nil
	})
	return g.Wait()
}

func jobID(cmd *cli.Command) (models.ID, error) {
	id := strings.TrimSpace(cmd.StringArg("id"))
	if id == "" {
		return "", fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	return models.ID(id), nil
}

func transformationOptions(cmd *cli.Command) (models.TransformationOptions, error) {
	opts := models.DefaultTransformationOptions()
	switch aspect := cmd.String("aspect"); aspect {
	case models.AspectVertical, models.AspectOriginal:
		opts.AspectRatio = aspect
	default:
		return opts, fmt.Errorf("%w: aspect %q (want %s or %s)", shared.ErrInvalidFlag, aspect, models.AspectVertical, models.AspectOriginal)
	}
	if text := strings.TrimSpace(cmd.String("watermark")); text != "" {
		opts.AddWatermark = true
		opts.WatermarkContent = text
		opts.WatermarkPosition = cmd.String("watermark-position")
	}
	opts.AddCaptions = cmd.Bool("captions")
	return opts, nil
}

// JobsSubmit transforms the selected content for one destination platform.
func (r *Runner) JobsSubmit(ctx context.Context, cmd *cli.Command) error {
	platform, err := models.ParsePlatform(cmd.String("platform"))
	if err != nil {
		return err
	}
	if !platform.IsDestination() {
		return fmt.Errorf("%w: %s is not a destination", shared.ErrUnsupportedPlatform, platform)
	}
	opts, err := transformationOptions(cmd)
	if err != nil {
		return err
	}

	return r.requireAuth(func(*models.Credential) error {
		c, err := r.catalog()
		if err != nil {
			return err
		}
		sources := c.Sources()
		if len(sources) == 0 {
			return fmt.Errorf("%w: run mazeed content select first", shared.ErrEmptySelection)
		}

		id, err := r.jobs.Submit(ctx, sources, platform, opts)
		if err != nil {
			return err
		}
		r.writePlain("Job %s queued with %d item(s) for %s\n", id, len(sources), platform)

		if !cmd.Bool("wait") {
			r.writePlain("Next: mazeed jobs show %s --wait\n", id)
			return nil
		}
		return r.waitPreview(ctx, id)
	})
}

func (r *Runner) waitPreview(ctx context.Context, id models.ID) error {
	var job *models.TransformationJob
	err := r.follow(ctx, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) error {
		var err error
		job, err = r.jobs.PollPreview(ctx, id, progress)
		return err
	})
	if err != nil {
		return err
	}
	r.printJob(job)
	return nil
}

// JobsList prints a page of the queue, refreshing while jobs are active with --watch.
func (r *Runner) JobsList(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.NormalizeFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	page, pageSize := cmd.Int("page"), cmd.Int("page-size")

	return r.requireAuth(func(*models.Credential) error {
		var jobs []models.TransformationJob
		if cmd.Bool("watch") {
			err = r.follow(ctx, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) error {
				return r.jobs.WatchQueue(ctx, page, pageSize, func(latest []models.TransformationJob) {
					jobs = latest
				}, progress)
			})
		} else {
			jobs, err = r.jobs.Jobs(ctx, page, pageSize)
		}
		if err != nil {
			return err
		}

		if len(jobs) == 0 && format == formatter.FormatText {
			r.writePlain("No transformations yet.\n")
			return nil
		}
		out, err := formatter.RenderJobs(jobs, format, time.Now())
		if err != nil {
			return err
		}
		_, err = r.output.Write(out)
		return err
	})
}

// JobsShow prints one job, optionally waiting for its first preview.
func (r *Runner) JobsShow(ctx context.Context, cmd *cli.Command) error {
	id, err := jobID(cmd)
	if err != nil {
		return err
	}

	return r.requireAuth(func(*models.Credential) error {
		if cmd.Bool("wait") {
			return r.waitPreview(ctx, id)
		}
		job, err := r.jobs.Job(ctx, id)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(job, true)
		}
		r.printJob(job)
		return nil
	})
}

func (r *Runner) printJob(job *models.TransformationJob) {
	r.writePlainHeader(fmt.Sprintf("Job %s", job.JobID))
	r.writePlain("Status:    %s\n", job.Status.Normalize())
	r.writePlain("Platforms: %s\n", joinPlatforms(job.TargetPlatforms))
	r.writePlain("Media:     %d\n", job.MediaCount)
	if !job.CreatedAt.IsZero() {
		r.writePlain("Created:   %s\n", formatter.TimeAgo(job.CreatedAt.Time, time.Now()))
	}
	if len(job.Items) == 0 {
		return
	}
	r.writePlainln("Items:")
	for i, item := range job.Items {
		state := "pending"
		if item.Ready() {
			state = item.TransformedMediaURL
		}
		r.writePlain("%d. %s [%s] %s %s\n", i+1, item.ItemID, item.TargetPlatform, formatter.FormatClock(item.Duration), state)
		if item.Caption != "" {
			r.writePlain("   %s\n", formatter.Truncate(item.Caption, 80))
		}
	}
}

func joinPlatforms(ps []models.Platform) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

// JobsCancel deletes a job and prints the refreshed queue.
func (r *Runner) JobsCancel(ctx context.Context, cmd *cli.Command) error {
	id, err := jobID(cmd)
	if err != nil {
		return err
	}

	return r.requireAuth(func(*models.Credential) error {
		jobs, err := r.jobs.Cancel(ctx, id)
		if err != nil {
			return err
		}
		if len(jobs) > 0 {
			_, err = r.output.Write(formatter.JobsToText(jobs, time.Now()))
		}
		return err
	})
}

// JobsDownload saves every ready item of a job with a manifest.
func (r *Runner) JobsDownload(ctx context.Context, cmd *cli.Command) error {
	id, err := jobID(cmd)
	if err != nil {
		return err
	}

	return r.requireAuth(func(*models.Credential) error {
		var res *tasks.BulkDownloadResult
		err := r.follow(ctx, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) error {
			var err error
			res, err = r.jobs.DownloadJob(ctx, id, cmd.String("out"), progress)
			return err
		})
		if res != nil {
			r.writePlainln("Saved %d of %d file(s) to %s", res.Succeeded, res.Total, res.OutputDir)
			for _, o := range res.Outcomes {
				if o.Error != nil {
					r.writePlain("✗ %s: %v\n", o.Request.Name, o.Error)
				}
			}
			if res.ManifestPath != "" {
				r.writePlain("Manifest: %s\n", res.ManifestPath)
			}
		}
		return err
	})
}

// JobsMedia prints one transformed item and downloads it on request.
func (r *Runner) JobsMedia(ctx context.Context, cmd *cli.Command) error {
	id, err := jobID(cmd)
	if err != nil {
		return err
	}

	return r.requireAuth(func(*models.Credential) error {
		item, err := r.jobs.TransformedMedia(ctx, id)
		if err != nil {
			return err
		}

		if cmd.Bool("json") {
			if err := r.writeJSON(item, true); err != nil {
				return err
			}
		} else {
			r.writePlain("Item:     %s\n", item.ItemID)
			r.writePlain("Platform: %s\n", item.TargetPlatform)
			r.writePlain("Status:   %s\n", item.Status.Normalize())
			r.writePlain("Duration: %s\n", formatter.FormatDuration(item.Duration))
			r.writePlain("Media:    %s\n", item.TransformedMediaURL)
		}

		if !cmd.Bool("download") {
			return nil
		}
		if !item.Ready() {
			return fmt.Errorf("%w: %s", shared.ErrMediaNotReady, item.ItemID)
		}
		res, err := r.jobs.Download(ctx, item.TransformedMediaURL, cmd.String("out"))
		if err != nil {
			return err
		}
		r.writePlain("✓ %s\n", res.Describe())
		return nil
	})
}

// JobsUpload publishes a transformed item to YouTube or TikTok.
func (r *Runner) JobsUpload(ctx context.Context, cmd *cli.Command) error {
	id, err := jobID(cmd)
	if err != nil {
		return err
	}

	opts := tasks.UploadOpts{
		ChannelID:   cmd.String("channel"),
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
	}
	if p := cmd.String("platform"); p != "" {
		if opts.Platform, err = models.ParsePlatform(p); err != nil {
			return err
		}
	}

	return r.requireAuth(func(*models.Credential) error {
		item, err := r.jobs.TransformedMedia(ctx, id)
		if err != nil {
			return err
		}
		return r.follow(ctx, func(ctx context.Context, progress chan<- tasks.ProgressUpdate) error {
			return r.jobs.Upload(ctx, *item, opts, progress)
		})
	})
}

type historyEntry struct {
	JobID      string          `json:"jobId"`
	Platform   models.Platform `json:"platform"`
	Status     string          `json:"status"`
	MediaCount int             `json:"mediaCount"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// JobsHistory lists the jobs recorded locally for the logged in user.
func (r *Runner) JobsHistory(ctx context.Context, cmd *cli.Command) error {
	if r.history == nil {
		return fmt.Errorf("%w: job history not initialized", shared.ErrServiceUnavailable)
	}

	return r.requireAuth(func(cred *models.Credential) error {
		records, err := r.history.List(map[string]any{
			"user_id":  string(cred.UserID),
			"status":   cmd.String("status"),
			"platform": cmd.String("platform"),
		})
		if err != nil {
			return err
		}

		entries := make([]historyEntry, len(records))
		for i, rec := range records {
			entries[i] = historyEntry{
				JobID:      rec.JobID(),
				Platform:   rec.Platform(),
				Status:     string(rec.Status()),
				MediaCount: rec.MediaCount(),
				CreatedAt:  rec.CreatedAt(),
				UpdatedAt:  rec.UpdatedAt(),
			}
		}
		if cmd.Bool("json") {
			return r.writeJSON(entries, true)
		}

		if len(entries) == 0 {
			r.writePlain("No jobs recorded on this machine.\n")
			return nil
		}
		now := time.Now()
		for _, e := range entries {
			r.writePlain("%-38s %-10s %-8s %3d item(s)  %s\n", e.JobID, e.Status, e.Platform, e.MediaCount, formatter.TimeAgo(e.CreatedAt, now))
		}
		return nil
	})
}
