package models

import (
	"sort"
	"strings"
)

// JobStatus is the backend-driven state of a transformation job or item.
type JobStatus string

const (
	StatusQueued     JobStatus = "Queued"
	StatusPending    JobStatus = "Pending"
	StatusProcessing JobStatus = "Processing"
	StatusCompleted  JobStatus = "Completed"
	StatusFailed     JobStatus = "Failed"
)

// Normalize maps any casing ("queued", "QUEUED") to the canonical status.
func (s JobStatus) Normalize() JobStatus {
	for _, known := range []JobStatus{StatusQueued, StatusPending, StatusProcessing, StatusCompleted, StatusFailed} {
		if strings.EqualFold(string(s), string(known)) {
			return known
		}
	}
	return s
}

// Terminal reports whether the backend will change the status again.
func (s JobStatus) Terminal() bool {
	switch s.Normalize() {
	case StatusCompleted, StatusFailed:
		return true
	default:
		return false
	}
}

// Active reports whether the job is still queued or running.
// Unknown statuses ("Cancelled", "Deleted") are not active.
func (s JobStatus) Active() bool {
	switch s.Normalize() {
	case StatusQueued, StatusPending, StatusProcessing:
		return true
	default:
		return false
	}
}

// TransformationJob is a backend-tracked unit of work.
type TransformationJob struct {
	JobID           ID                `json:"jobId"`
	Status          JobStatus         `json:"status"`
	TargetPlatforms []Platform        `json:"targetPlatforms"`
	MediaCount      int               `json:"mediaCount"`
	CreatedAt       Timestamp         `json:"createdAt"`
	Items           []TransformedItem `json:"items,omitempty"`
}

// FirstReady returns the first item with a transformed media URL.
func (j *TransformationJob) FirstReady() (TransformedItem, bool) {
	for _, item := range j.Items {
		if item.Ready() {
			return item, true
		}
	}
	return TransformedItem{}, false
}

// Preview returns the first item if it is ready.
//
// Preview polling only waits on the first item, matching what the preview screen shows.
func (j *TransformationJob) Preview() (TransformedItem, bool) {
	if len(j.Items) == 0 || !j.Items[0].Ready() {
		return TransformedItem{}, false
	}
	return j.Items[0], true
}

// TransformedItem is one output artifact of a job for a single platform.
type TransformedItem struct {
	ItemID              ID        `json:"itemId"`
	TargetPlatform      Platform  `json:"targetPlatform"`
	Status              JobStatus `json:"status"`
	TransformedMediaURL string    `json:"transformedMediaUrl"`
	ThumbnailURL        string    `json:"thumbnailUrl"`
	Caption             string    `json:"caption"`
	Duration            float64   `json:"duration"`
}

// Ready reports whether the transformed media can be downloaded.
func (i TransformedItem) Ready() bool {
	return strings.TrimSpace(i.TransformedMediaURL) != ""
}

// AnyActive reports whether any job in the list is non-terminal.
func AnyActive(jobs []TransformationJob) bool {
	for _, j := range jobs {
		if j.Status.Active() {
			return true
		}
	}
	return false
}

// LatestJob picks the job the preview screen opens on: the newest active job,
// otherwise the newest completed one.
func LatestJob(jobs []TransformationJob) (TransformationJob, bool) {
	sorted := make([]TransformationJob, len(jobs))
	copy(sorted, jobs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt.Time)
	})

	for _, j := range sorted {
		if j.Status.Active() {
			return j, true
		}
	}
	for _, j := range sorted {
		if j.Status.Normalize() == StatusCompleted {
			return j, true
		}
	}
	return TransformationJob{}, false
}
