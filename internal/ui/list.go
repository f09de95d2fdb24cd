package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/mazeed/internal/catalog"
	"github.com/desertthunder/mazeed/internal/formatter"
	"github.com/desertthunder/mazeed/internal/models"
)

var (
	_ list.Item = contentItem{}
	_ list.Item = platformItem{}
	_ list.Item = jobItem{}
)

// contentItem wraps [models.ContentItem] to implement [list.Item].
type contentItem struct {
	item     models.ContentItem
	selected bool
}

func (i contentItem) FilterValue() string { return i.item.Caption }
func (i contentItem) Title() string {
	mark := "[ ]"
	if i.selected {
		mark = "[x]"
	}
	caption := formatter.Truncate(i.item.Caption, 60)
	if caption == "" {
		caption = string(i.item.ID)
	}
	return fmt.Sprintf("%s %s", mark, caption)
}
func (i contentItem) Description() string {
	parts := []string{i.item.MediaType, catalog.FormatCount(i.item.PlayCount) + " plays"}
	if i.item.DurationSeconds > 0 {
		parts = append(parts, formatter.FormatClock(i.item.DurationSeconds))
	}
	if !i.item.PublishedAt.IsZero() {
		parts = append(parts, i.item.PublishedAt.Format("Jan 2, 2006"))
	}
	return strings.Join(parts, " • ")
}

// platformItem is a destination choice.
type platformItem struct {
	platform  models.Platform
	connected bool
}

func (i platformItem) FilterValue() string { return string(i.platform) }
func (i platformItem) Title() string       { return string(i.platform) }
func (i platformItem) Description() string {
	if i.connected {
		return "Connected"
	}
	return "Not connected • press c to connect"
}

// jobItem wraps [models.TransformationJob] to implement [list.Item].
type jobItem struct {
	job models.TransformationJob
	ago string
}

func (i jobItem) FilterValue() string { return string(i.job.JobID) }
func (i jobItem) Title() string       { return string(i.job.JobID) }
func (i jobItem) Description() string {
	targets := make([]string, len(i.job.TargetPlatforms))
	for n, p := range i.job.TargetPlatforms {
		targets[n] = string(p)
	}
	return fmt.Sprintf("%s • %s • %d item(s) • %s", i.job.Status.Normalize(), strings.Join(targets, ", "), i.job.MediaCount, i.ago)
}
