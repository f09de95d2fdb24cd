package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/mazeed/internal/catalog"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/shared"
)

// Output formats accepted by the render functions.
const (
	FormatText     = "txt"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// NormalizeFormat maps aliases such as "md" and "text" to a known format.
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "txt", "text", "plain":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: format %q", shared.ErrInvalidFlag, format)
	}
}

// TimeAgo renders how long ago t was: "Just now", "5 minutes ago", "1 hour ago", "3 days ago".
func TimeAgo(t, now time.Time) string {
	mins := int(math.Round(now.Sub(t).Minutes()))
	if mins < 1 {
		return "Just now"
	}
	if mins < 60 {
		return plural(mins, "minute") + " ago"
	}
	hours := mins / 60
	if hours < 24 {
		return plural(hours, "hour") + " ago"
	}
	return plural(hours/24, "day") + " ago"
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatDuration renders seconds as "1m:05s", or "N/A" when unknown.
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "N/A"
	}
	s := int(seconds)
	return fmt.Sprintf("%dm:%02ds", s/60, s%60)
}

// FormatClock renders seconds as "1:05", or "00:00" when unknown.
func FormatClock(seconds float64) string {
	if seconds <= 0 {
		return "00:00"
	}
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// Truncate shortens s to n runes, ending with an ellipsis when cut.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

// ContentToCSV converts content items to CSV with columns: ID, Type, Published, Plays, Likes, Comments, Duration, Caption, MediaURL
func ContentToCSV(items []models.ContentItem) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Type", "Published", "Plays", "Likes", "Comments", "Duration", "Caption", "MediaURL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range items {
		record := []string{
			string(item.ID),
			item.MediaType,
			formatDate(item.PublishedAt.Time),
			strconv.FormatInt(item.PlayCount, 10),
			strconv.FormatInt(item.LikeCount, 10),
			strconv.FormatInt(item.CommentCount, 10),
			strconv.FormatFloat(item.DurationSeconds, 'f', -1, 64),
			item.Caption,
			item.MediaURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ContentToMarkdown renders content items as a Markdown table. selected marks rows with a check.
func ContentToMarkdown(items []models.ContentItem, title string, selected func(models.ID) bool) []byte {
	var buf bytes.Buffer

	if title != "" {
		buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	}
	buf.WriteString(fmt.Sprintf("**Items**: %d\n\n", len(items)))

	buf.WriteString("| | ID | Type | Published | Plays | Likes | Duration | Caption |\n")
	buf.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, item := range items {
		mark := " "
		if selected != nil && selected(item.ID) {
			mark = "x"
		}
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			mark,
			item.ID,
			item.MediaType,
			formatDate(item.PublishedAt.Time),
			catalog.FormatCount(item.PlayCount),
			catalog.FormatCount(item.LikeCount),
			FormatDuration(item.DurationSeconds),
			strings.ReplaceAll(Truncate(item.Caption, 60), "|", `\|`),
		))
	}

	return buf.Bytes()
}

// ContentToText renders content items as numbered plain text lines.
func ContentToText(items []models.ContentItem, selected func(models.ID) bool) []byte {
	var buf bytes.Buffer

	for i, item := range items {
		mark := "[ ]"
		if selected != nil && selected(item.ID) {
			mark = "[x]"
		}
		buf.WriteString(fmt.Sprintf("%d. %s %s  %s  %s plays  %s\n",
			i+1, mark, item.ID, item.MediaType, catalog.FormatCount(item.PlayCount), formatDate(item.PublishedAt.Time)))
		if item.Caption != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", Truncate(item.Caption, 72)))
		}
	}

	return buf.Bytes()
}

// RenderContent renders items in format.
func RenderContent(items []models.ContentItem, format string, selected func(models.ID) bool) ([]byte, error) {
	format, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return ContentToCSV(items)
	case FormatMarkdown:
		return ContentToMarkdown(items, "Imported Content", selected), nil
	case FormatJSON:
		return shared.MarshalJSON(items, true)
	default:
		return ContentToText(items, selected), nil
	}
}

// JobsToCSV converts jobs to CSV with columns: JobID, Status, Platforms, Media, Created
func JobsToCSV(jobs []models.TransformationJob) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"JobID", "Status", "Platforms", "Media", "Created"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, job := range jobs {
		record := []string{
			string(job.JobID),
			string(job.Status.Normalize()),
			platforms(job.TargetPlatforms),
			strconv.Itoa(job.MediaCount),
			job.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// JobsToMarkdown renders the queue as a Markdown table.
func JobsToMarkdown(jobs []models.TransformationJob, now time.Time) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Transformation Queue\n\n")
	if len(jobs) == 0 {
		buf.WriteString("No transformations yet.\n")
		return buf.Bytes()
	}

	buf.WriteString("| Job | Status | Platforms | Media | Created |\n")
	buf.WriteString("|---|---|---|---|---|\n")
	for _, job := range jobs {
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s |\n",
			job.JobID, job.Status.Normalize(), platforms(job.TargetPlatforms), job.MediaCount, TimeAgo(job.CreatedAt.Time, now)))
	}
	return buf.Bytes()
}

// JobsToText renders the queue as plain text.
func JobsToText(jobs []models.TransformationJob, now time.Time) []byte {
	var buf bytes.Buffer

	if len(jobs) == 0 {
		buf.WriteString("No transformations yet.\n")
		return buf.Bytes()
	}
	for _, job := range jobs {
		buf.WriteString(fmt.Sprintf("%-36s  %-10s  %-16s  %3d item(s)  %s\n",
			job.JobID, job.Status.Normalize(), platforms(job.TargetPlatforms), job.MediaCount, TimeAgo(job.CreatedAt.Time, now)))
		for _, item := range job.Items {
			state := "pending"
			if item.Ready() {
				state = item.TransformedMediaURL
			}
			buf.WriteString(fmt.Sprintf("    %s  %s  %s  %s\n", item.ItemID, item.TargetPlatform, FormatDuration(item.Duration), state))
		}
	}
	return buf.Bytes()
}

// RenderJobs renders jobs in format.
func RenderJobs(jobs []models.TransformationJob, format string, now time.Time) ([]byte, error) {
	format, err := NormalizeFormat(format)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return JobsToCSV(jobs)
	case FormatMarkdown:
		return JobsToMarkdown(jobs, now), nil
	case FormatJSON:
		return shared.MarshalJSON(jobs, true)
	default:
		return JobsToText(jobs, now), nil
	}
}

// ManifestEntry is one file of a download manifest.
type ManifestEntry struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Path    string `json:"path,omitempty"`
	Bytes   int64  `json:"bytes,omitempty"`
	MIME    string `json:"mime,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DownloadManifest summarizes a bulk download.
type DownloadManifest struct {
	JobID     string          `json:"job_id"`
	CreatedAt time.Time       `json:"created_at"`
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Entries   []ManifestEntry `json:"entries"`
}

// WriteDownloadManifest writes the manifest as JSON or Markdown, creating parent directories.
func WriteDownloadManifest(m *DownloadManifest, format, path string) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case FormatMarkdown, "md":
		var buf bytes.Buffer
		buf.WriteString(fmt.Sprintf("# Downloads for %s\n\n", m.JobID))
		buf.WriteString(fmt.Sprintf("**Succeeded**: %d of %d\n\n", m.Succeeded, m.Total))
		for _, e := range m.Entries {
			if e.Success {
				buf.WriteString(fmt.Sprintf("- ✓ %s → %s (%d bytes)\n", e.Name, e.Path, e.Bytes))
			} else {
				buf.WriteString(fmt.Sprintf("- ✗ %s: %s\n", e.Name, e.Error))
			}
		}
		data = buf.Bytes()
	default:
		data, err = shared.MarshalJSON(m, true)
		if err != nil {
			return fmt.Errorf("failed to encode manifest: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// WriteFile renders to path, creating parent directories.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func platforms(ps []models.Platform) string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return strings.Join(out, ",")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}
