package models

import (
	"fmt"
	"time"
)

// JobRecord is the local history entry for a submitted transformation job.
//
// It is inserted optimistically at submission with status Queued and updated
// from the backend each time the queue is fetched.
type JobRecord struct {
	id         string
	sequence   int
	jobID      string
	userID     string
	platform   Platform
	status     JobStatus
	mediaCount int
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewJobRecord creates a queued record for a freshly submitted job.
func NewJobRecord(jobID, userID string, platform Platform, mediaCount int) *JobRecord {
	now := time.Now()
	return &JobRecord{
		jobID:      jobID,
		userID:     userID,
		platform:   platform,
		status:     StatusQueued,
		mediaCount: mediaCount,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (j *JobRecord) ID() string            { return j.id }
func (j *JobRecord) Sequence() int         { return j.sequence }
func (j *JobRecord) JobID() string         { return j.jobID }
func (j *JobRecord) UserID() string        { return j.userID }
func (j *JobRecord) Platform() Platform    { return j.platform }
func (j *JobRecord) Status() JobStatus     { return j.status }
func (j *JobRecord) MediaCount() int       { return j.mediaCount }
func (j *JobRecord) CreatedAt() time.Time  { return j.createdAt }
func (j *JobRecord) UpdatedAt() time.Time  { return j.updatedAt }
func (j *JobRecord) DeletedAt() *time.Time { return j.deletedAt }

func (j *JobRecord) SetID(id string)           { j.id = id }
func (j *JobRecord) SetSequence(seq int)       { j.sequence = seq }
func (j *JobRecord) SetStatus(s JobStatus)     { j.status = s.Normalize() }
func (j *JobRecord) SetMediaCount(n int)       { j.mediaCount = n }
func (j *JobRecord) SetCreatedAt(t time.Time)  { j.createdAt = t }
func (j *JobRecord) SetUpdatedAt(t time.Time)  { j.updatedAt = t }
func (j *JobRecord) SetDeletedAt(t *time.Time) { j.deletedAt = t }
func (j *JobRecord) SetPlatform(p Platform)    { j.platform = p }
func (j *JobRecord) SetUserID(userID string)   { j.userID = userID }

// Validate checks the fields required for persistence.
func (j *JobRecord) Validate() error {
	if j.jobID == "" {
		return fmt.Errorf("job id is required")
	}
	if j.userID == "" {
		return fmt.Errorf("user id is required")
	}
	if !j.platform.IsDestination() {
		return fmt.Errorf("invalid destination platform %q", j.platform)
	}
	if j.status == "" {
		return fmt.Errorf("status is required")
	}
	return nil
}

// Sync copies backend state from a fetched job.
func (j *JobRecord) Sync(job TransformationJob) {
	j.status = job.Status.Normalize()
	if job.MediaCount > 0 {
		j.mediaCount = job.MediaCount
	}
}
