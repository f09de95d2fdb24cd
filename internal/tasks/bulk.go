package tasks

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/mazeed/internal/formatter"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/shared"
	"golang.org/x/time/rate"
)

// DownloadRequest is one file of a bulk download.
type DownloadRequest struct {
	Name string // Display name
	URL  string
	Dest string // Destination path; an extension is added when missing
}

// DownloadOutcome pairs a request with its result.
type DownloadOutcome struct {
	Request DownloadRequest
	Result  DownloadResult
	Error   error
}

// BulkDownloadResult summarizes a bulk download.
type BulkDownloadResult struct {
	Total        int
	Succeeded    int
	Failed       int
	Outcomes     []DownloadOutcome
	OutputDir    string
	ManifestPath string
}

// BulkDownload saves every request with a bounded worker pool and a shared rate limiter.
//
// Bulk downloads always fetch to disk; nothing is opened in the browser. Individual
// failures are collected in the result and never abort the batch.
func (r *JobRunner) BulkDownload(ctx context.Context, reqs []DownloadRequest, progress chan<- ProgressUpdate) (*BulkDownloadResult, error) {
	result := &BulkDownloadResult{
		Total:     len(reqs),
		OutputDir: r.dl.OutputDir,
		Outcomes:  make([]DownloadOutcome, 0, len(reqs)),
	}
	if len(reqs) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(r.dl.RateLimit), 1)

	jobs := make(chan DownloadRequest, len(reqs))
	results := make(chan DownloadOutcome, len(reqs))

	var wg sync.WaitGroup
	for i := 0; i < r.dl.Workers; i++ {
		wg.Add(1)
		go r.downloadWorker(ctx, &wg, jobs, results)
	}

	go func() {
		defer close(jobs)
		for i, req := range reqs {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			sendProgress(progress, downloadingUpdate(i+1, len(reqs), req.Name))
			jobs <- req
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Outcomes = append(result.Outcomes, res)

		if res.Error == nil {
			result.Succeeded++
			sendProgress(progress, downloadCompletedUpdate(completed, len(reqs), res.Result))
		} else {
			result.Failed++
			sendProgress(progress, downloadFailedUpdate(completed, len(reqs), res.Request.Name, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// downloadWorker is a worker goroutine that saves requests from the jobs channel.
func (r *JobRunner) downloadWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan DownloadRequest,
	results chan<- DownloadOutcome,
) {
	defer wg.Done()

	for req := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		out := DownloadOutcome{Request: req}
		u, err := url.Parse(req.URL)
		if err != nil || u.Host == "" {
			out.Error = fmt.Errorf("%w: media url %q", shared.ErrInvalidArgument, req.URL)
		} else {
			out.Result, out.Error = r.save(ctx, u, req.Dest)
		}
		results <- out
	}
}

// DownloadJob saves every ready item of a job into dir and writes a manifest next to them.
func (r *JobRunner) DownloadJob(ctx context.Context, jobID models.ID, dir string, progress chan<- ProgressUpdate) (*BulkDownloadResult, error) {
	job, err := r.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		dir = filepath.Join(r.dl.OutputDir, "transformed-"+string(jobID))
	}

	var reqs []DownloadRequest
	for _, item := range job.Items {
		if !item.Ready() {
			continue
		}
		name := fmt.Sprintf("transformed-%s-%s", jobID, item.ItemID)
		reqs = append(reqs, DownloadRequest{
			Name: name,
			URL:  item.TransformedMediaURL,
			Dest: filepath.Join(dir, name),
		})
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: job %s has no transformed media", shared.ErrMediaNotReady, jobID)
	}

	result, err := r.BulkDownload(ctx, reqs, progress)
	if err != nil {
		return result, err
	}
	result.OutputDir = dir

	manifestPath := filepath.Join(dir, "manifest.json")
	if err := formatter.WriteDownloadManifest(manifest(string(jobID), result), "json", manifestPath); err != nil {
		return result, fmt.Errorf("download completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

func manifest(jobID string, res *BulkDownloadResult) *formatter.DownloadManifest {
	m := &formatter.DownloadManifest{
		JobID:     jobID,
		CreatedAt: time.Now().UTC(),
		Total:     res.Total,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
	}
	for _, o := range res.Outcomes {
		e := formatter.ManifestEntry{
			Name:    o.Request.Name,
			URL:     o.Request.URL,
			Path:    o.Result.Path,
			Bytes:   o.Result.Bytes,
			MIME:    o.Result.MIME,
			Success: o.Error == nil,
		}
		if o.Error != nil {
			e.Error = o.Error.Error()
		}
		m.Entries = append(m.Entries, e)
	}
	return m
}
