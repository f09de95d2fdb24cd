package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/shared"
)

var _ models.Repository[*models.JobRecord] = (*JobRepository)(nil)

// JobRepository implements models.Repository[*models.JobRecord] for local job history.
//
// Handles job CRUD operations with soft delete support and status-based queries.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new JobRepository with the given database connection
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, sequence, job_id, user_id, platform, status, media_count, created_at, updated_at, deleted_at`

// Create inserts a new job record with generated ID and sequence
func (r *JobRepository) Create(job *models.JobRecord) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "jobs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO jobs (id, sequence, job_id, user_id, platform, status, media_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query,
		id,
		sequence,
		job.JobID(),
		job.UserID(),
		string(job.Platform()),
		string(job.Status()),
		job.MediaCount(),
		job.CreatedAt(),
		job.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	job.SetID(id)
	job.SetSequence(sequence)
	return nil
}

// Get retrieves a job record by local ID, excluding soft-deleted records
func (r *JobRepository) Get(id string) (*models.JobRecord, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByJobID retrieves a job record by its backend job ID
func (r *JobRepository) GetByJobID(jobID string) (*models.JobRecord, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = ? AND deleted_at IS NULL`
	return r.scanOne(r.db.QueryRow(query, jobID))
}

// Update writes status and media count for an existing record
func (r *JobRepository) Update(job *models.JobRecord) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	job.SetUpdatedAt(now)

	query := `
		UPDATE jobs
		SET status = ?, media_count = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	result, err := r.db.Exec(query, string(job.Status()), job.MediaCount(), now, job.ID())
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, job.ID())
	}
	return nil
}

// Delete soft-deletes a job record by ID
func (r *JobRepository) Delete(id string) error {
	query := `UPDATE jobs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrJobNotFound, id)
	}
	return nil
}

// List retrieves job records matching the given criteria, newest first.
//
// Supported criteria: user_id, status, platform.
func (r *JobRepository) List(criteria map[string]any) ([]*models.JobRecord, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE deleted_at IS NULL`
	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	switch status := criteria["status"].(type) {
	case string:
		if status != "" {
			query += " AND status = ?"
			args = append(args, string(models.JobStatus(status).Normalize()))
		}
	case models.JobStatus:
		query += " AND status = ?"
		args = append(args, string(status.Normalize()))
	}

	switch platform := criteria["platform"].(type) {
	case string:
		if platform != "" {
			query += " AND platform = ?"
			args = append(args, platform)
		}
	case models.Platform:
		query += " AND platform = ?"
		args = append(args, string(platform))
	}

	query += " ORDER BY sequence DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.JobRecord
	for rows.Next() {
		job, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return jobs, nil
}

// Sync records the backend state of each fetched job, inserting records
// for jobs submitted elsewhere.
func (r *JobRepository) Sync(userID string, jobs []models.TransformationJob) error {
	for _, job := range jobs {
		if job.JobID == "" {
			continue
		}

		rec, err := r.GetByJobID(string(job.JobID))
		switch {
		case err == nil:
			rec.Sync(job)
			if err := r.Update(rec); err != nil {
				return err
			}
			continue
		case !errors.Is(err, shared.ErrJobNotFound):
			return err
		}

		platform := models.YouTube
		if len(job.TargetPlatforms) > 0 {
			if p, perr := models.ParsePlatform(string(job.TargetPlatforms[0])); perr == nil && p.IsDestination() {
				platform = p
			}
		}

		rec = models.NewJobRecord(string(job.JobID), userID, platform, job.MediaCount)
		rec.Sync(job)
		if !job.CreatedAt.IsZero() {
			rec.SetCreatedAt(job.CreatedAt.Time)
		}
		if err := r.Create(rec); err != nil {
			return err
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *JobRepository) scan(s scanner) (*models.JobRecord, error) {
	var (
		id, jobID, userID    string
		platform, status     string
		sequence, mediaCount int
		createdAt, updatedAt time.Time
		deletedAt            sql.NullTime
	)

	if err := s.Scan(&id, &sequence, &jobID, &userID, &platform, &status, &mediaCount, &createdAt, &updatedAt, &deletedAt); err != nil {
		return nil, err
	}

	job := models.NewJobRecord(jobID, userID, models.Platform(platform), mediaCount)
	job.SetID(id)
	job.SetSequence(sequence)
	job.SetStatus(models.JobStatus(status))
	job.SetCreatedAt(createdAt)
	job.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		job.SetDeletedAt(&deletedAt.Time)
	}
	return job, nil
}

// scanOne scans a single [sql.Row] into a [models.JobRecord]
func (r *JobRepository) scanOne(row *sql.Row) (*models.JobRecord, error) {
	job, err := r.scan(row)
	if err == sql.ErrNoRows {
		return nil, shared.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	return job, nil
}

// scanRow scans a row from [sql.Rows] into a [models.JobRecord]
func (r *JobRepository) scanRow(rows *sql.Rows) (*models.JobRecord, error) {
	job, err := r.scan(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	return job, nil
}
