// Package tasks submits transformation jobs and follows them through the backend.
//
// # Core Operations
//
// [JobRunner] wraps the transformation and upload services:
//
//  1. [JobRunner.Submit] : Start a job for the selected media
//     - Sends the media sources, the target platform and the rendering options
//     - Records the job locally as queued before the backend reports on it
//
//  2. [JobRunner.PollPreview] : Wait for the first transformed item
//     - Exponential backoff between fetches, bounded attempts
//     - Stops on a failed job, a missing job or a lost session
//
//  3. [JobRunner.WatchQueue] : Refetch the queue while any job is in progress
//     - Every page is synced into the local job history
//
//  4. [JobRunner.Download] : Three-tier media download
//     - CDN URLs are handed to the browser
//     - Other URLs are streamed to a temp file and renamed into place
//     - A failed fetch falls back to the browser
//
//  5. [JobRunner.Upload] : Publish a transformed item to YouTube or TikTok
//
// # Progress Reporting
//
// Long-running operations accept a progress channel.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Bulk Downloads
//
// [JobRunner.BulkDownload] uses a worker pool with a shared [rate.Limiter]. Partial
// failures are collected per file. [JobRunner.DownloadJob] downloads every ready item
// of a job and writes a manifest beside the files.
package tasks
