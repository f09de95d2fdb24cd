package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/mazeed/internal/formatter"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/workflow"
)

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	var body string
	switch m.view {
	case ImportView:
		body = m.renderImport()
	case SelectView:
		body = m.renderSelect()
	case DestinationView:
		body = m.renderDestination()
	case TransformView:
		body = m.renderTransform()
	case QueueView:
		body = m.renderQueue()
	}

	sections := []string{m.renderSteps(), body}
	if status := m.renderStatus(); status != "" {
		sections = append(sections, status)
	}
	if m.current != nil {
		sections = append(sections, styles.toast(*m.current))
	}
	sections = append(sections, m.renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderSteps draws the step indicator: completed steps are checked, locked steps are dimmed.
func (m *Model) renderSteps() string {
	state := m.wf.State()
	parts := make([]string, len(workflow.Steps))
	for i, step := range workflow.Steps {
		label := fmt.Sprintf("%d %s", int(step), step)
		switch {
		case step == state.ActiveStep && m.view != QueueView:
			parts[i] = styles.active.Render(label)
		case step <= state.LastCompletedStep:
			parts[i] = styles.ok.Render("✓ " + label)
		case m.wf.CanGoTo(step):
			parts[i] = label
		default:
			parts[i] = styles.muted.Render(label)
		}
	}
	return styles.title.Render("mazeed") + "\n" + strings.Join(parts, styles.muted.Render("  ›  ")) + "\n"
}

func (m *Model) renderStatus() string {
	t := m.op
	if t == nil {
		t = m.watch
	}
	if t == nil {
		return ""
	}
	line := fmt.Sprintf("%s %s", m.spinner.View(), t.label)
	if t == m.op && m.progress.Message != "" {
		line += "\n" + styles.help.Render(m.progress.Message)
	}
	return line
}

func (m *Model) renderImport() string {
	title := styles.title.Render("Import from Instagram")
	info := "Connect your Instagram account to import your reels and posts.\n" +
		"A browser window opens to complete the connection."
	if n := len(m.wf.State().SelectedContentIDs); n > 0 {
		info += "\n\n" + styles.help.Render(fmt.Sprintf("%d item(s) from your last session will be selected again.", n))
	}
	return fmt.Sprintf("%s\n%s\n", title, info)
}

func (m *Model) renderSelect() string {
	f := m.filters
	filters := fmt.Sprintf("Date: %s • Type: %s • Performance: %s",
		f.DateRange.Label(), orAll(string(f.ContentType)), orAll(string(f.Performance)))
	if n := f.ActiveCount(); n > 0 {
		filters += styles.warn.Render(fmt.Sprintf(" (%d active)", n))
	}
	if len(m.contentList.Items()) == 0 {
		return fmt.Sprintf("%s\n\n%s\n", styles.help.Render(filters), "No content matches the current filters.")
	}
	return fmt.Sprintf("%s\n%s", styles.help.Render(filters), m.contentList.View())
}

func (m *Model) renderDestination() string {
	return m.platformList.View()
}

func (m *Model) renderTransform() string {
	state := m.wf.State()

	if m.job == nil && state.SelectedJobID == "" {
		title := styles.title.Render(fmt.Sprintf("Transform %d item(s) for %s", len(state.SelectedContentIDs), state.Destination))
		aspect := "9:16 (vertical)"
		if m.aspect == models.AspectOriginal {
			aspect = "original"
		}
		captions := "off"
		if m.captions {
			captions = "on"
		}
		opts := fmt.Sprintf("Aspect ratio: %s\nCaptions:     %s\nWatermark:    %s", aspect, captions, m.watermark.View())
		return fmt.Sprintf("%s\n%s\n", title, opts)
	}

	title := styles.title.Render(fmt.Sprintf("Preview • %s", state.SelectedJobID))
	if m.job == nil {
		return fmt.Sprintf("%s\nWaiting for the first item. Press enter to check again.\n", title)
	}

	item, ok := m.job.Preview()
	if !ok {
		status := styles.warn.Render(string(m.job.Status.Normalize()))
		return fmt.Sprintf("%s\nStatus: %s\n", title, status)
	}

	lines := []string{
		fmt.Sprintf("Platform: %s", item.TargetPlatform),
		fmt.Sprintf("Duration: %s", formatter.FormatClock(item.Duration)),
		fmt.Sprintf("Media:    %s", item.TransformedMediaURL),
	}
	if item.Caption != "" {
		lines = append(lines, "", formatter.Truncate(item.Caption, 200))
	}
	if len(m.job.Items) > 1 {
		lines = append(lines, "", styles.help.Render(fmt.Sprintf("%d more item(s) in this job", len(m.job.Items)-1)))
	}
	return fmt.Sprintf("%s\n%s\n", title, strings.Join(lines, "\n"))
}

func (m *Model) renderQueue() string {
	if len(m.jobs) == 0 {
		return styles.title.Render("Transformation Queue") + "\nNo transformations yet.\n"
	}
	return m.jobList.View()
}

func orAll(s string) string {
	if s == "" {
		return "all"
	}
	return s
}

func (m *Model) renderHelp() string {
	if m.op != nil {
		return m.help.ShortHelpView([]key.Binding{
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		})
	}
	if m.editing {
		return m.help.ShortHelpView([]key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "done")),
		})
	}

	var helpKeys []key.Binding
	switch m.view {
	case ImportView:
		connect := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "connect Instagram"))
		helpKeys = []key.Binding{connect, m.keys.queue, m.keys.quit}
	case SelectView:
		helpKeys = []key.Binding{m.keys.toggle, m.keys.toggleAll, m.keys.date, m.keys.kind, m.keys.perf, m.keys.reset, m.keys.enter, m.keys.back, m.keys.quit}
	case DestinationView:
		helpKeys = []key.Binding{m.keys.connect, m.keys.enter, m.keys.back, m.keys.quit}
	case TransformView:
		if m.job == nil && m.wf.State().SelectedJobID == "" {
			transform := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "transform"))
			helpKeys = []key.Binding{m.keys.aspect, m.keys.captions, m.keys.watermark, transform, m.keys.back, m.keys.quit}
		} else {
			helpKeys = []key.Binding{m.keys.download, m.keys.upload, m.keys.queue, m.keys.restart, m.keys.back, m.keys.quit}
		}
	case QueueView:
		open := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "preview"))
		helpKeys = []key.Binding{open, m.keys.download, m.keys.cancel, m.keys.back, m.keys.quit}
	}
	return m.help.ShortHelpView(helpKeys)
}
