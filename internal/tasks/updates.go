package tasks

import (
	"fmt"

	"github.com/desertthunder/mazeed/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	PreviewPoll Phase = iota
	QueueWatch
	MediaDownload
	MediaUpload
)

func (p Phase) String() string {
	switch p {
	case PreviewPoll:
		return "poll_preview"
	case QueueWatch:
		return "watch_queue"
	case MediaDownload:
		return "download_media"
	case MediaUpload:
		return "upload_media"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func pollUpdate(attempt, total int, job *models.TransformationJob) ProgressUpdate {
	status := models.JobStatus("unknown")
	if job != nil && job.Status != "" {
		status = job.Status.Normalize()
	}
	return ProgressUpdate{
		Phase:   PreviewPoll,
		Step:    attempt,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Waiting for preview (%s)...", attempt, total, status),
		Data:    job,
	}
}

func previewReadyUpdate(attempt, total int, item models.TransformedItem) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PreviewPoll,
		Step:    attempt,
		Total:   total,
		Message: fmt.Sprintf("Preview ready for %s", item.TargetPlatform),
		Data:    item,
	}
}

func queueUpdate(round int, jobs []models.TransformationJob) ProgressUpdate {
	active := 0
	for _, j := range jobs {
		if j.Status.Active() {
			active++
		}
	}
	return ProgressUpdate{
		Phase:   QueueWatch,
		Step:    round,
		Total:   0,
		Message: fmt.Sprintf("%d job(s), %d in progress", len(jobs), active),
		Data:    jobs,
	}
}

func downloadingUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MediaDownload,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Downloading: %s...", step, total, name),
	}
}

func downloadCompletedUpdate(step, total int, res DownloadResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MediaDownload,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Describe()),
		Data:    res,
	}
}

func downloadFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MediaDownload,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func uploadUpdate(platform models.Platform) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MediaUpload,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Uploading to %s...", platform),
	}
}
