package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/tasks"
	"github.com/desertthunder/mazeed/internal/toast"
)

// task is a running background operation.
//
// Progress updates flow through progress until the operation returns; its final
// message is then read from done.
type task struct {
	label    string
	progress chan tasks.ProgressUpdate
	done     chan tea.Msg
	cancel   context.CancelFunc
}

// start runs fn in a goroutine and returns the command that relays its messages.
func (m *Model) start(label string, fn func(ctx context.Context, progress chan<- tasks.ProgressUpdate) tea.Msg) *task {
	ctx, cancel := context.WithCancel(m.ctx)
	t := &task{
		label:    label,
		progress: make(chan tasks.ProgressUpdate, 50),
		done:     make(chan tea.Msg, 1),
		cancel:   cancel,
	}

	go func() {
		defer cancel()
		t.done <- fn(ctx, t.progress)
		close(t.progress)
	}()
	return t
}

func (t *task) wait() tea.Cmd {
	return func() tea.Msg {
		update, ok := <-t.progress
		if !ok {
			return <-t.done
		}
		return progressUpdateMsg(t, update)
	}
}

// run starts a foreground operation; keys other than cancel are ignored until it finishes.
func (m *Model) run(label string, fn func(ctx context.Context, progress chan<- tasks.ProgressUpdate) tea.Msg) tea.Cmd {
	m.op = m.start(label, fn)
	m.progress = tasks.ProgressUpdate{}
	return tea.Batch(m.spinner.Tick, m.op.wait())
}

// listenToasts waits for the next toast event.
func (m *Model) listenToasts() tea.Cmd {
	ch := m.toasts
	return func() tea.Msg {
		return toastMsg(<-ch)
	}
}

func (m *Model) importContent() tea.Cmd {
	return m.run("Waiting for Instagram in your browser...", func(ctx context.Context, _ chan<- tasks.ProgressUpdate) tea.Msg {
		ev, err := m.connector.Connect(ctx, models.Instagram)
		return importedMsg(ev, err)
	})
}

func (m *Model) connectPlatform(platform models.Platform) tea.Cmd {
	label := fmt.Sprintf("Waiting for %s in your browser...", platform)
	return m.run(label, func(ctx context.Context, _ chan<- tasks.ProgressUpdate) tea.Msg {
		ev, err := m.connector.Connect(ctx, platform)
		return connectedMsg(platform, ev, err)
	})
}

func (m *Model) submit() tea.Cmd {
	sources, platform, err := m.wf.PrepareSubmit()
	if err != nil {
		return nil
	}
	opts := m.options()
	return m.run("Starting transformation...", func(ctx context.Context, _ chan<- tasks.ProgressUpdate) tea.Msg {
		id, err := m.runner.Submit(ctx, sources, platform, opts)
		return submittedMsg(id, err)
	})
}

func (m *Model) pollPreview(jobID models.ID) tea.Cmd {
	return m.run("Waiting for preview...", func(ctx context.Context, progress chan<- tasks.ProgressUpdate) tea.Msg {
		job, err := m.runner.PollPreview(ctx, jobID, progress)
		return previewReadyMsg(job, err)
	})
}

func (m *Model) download(item models.TransformedItem) tea.Cmd {
	return m.run("Downloading...", func(ctx context.Context, _ chan<- tasks.ProgressUpdate) tea.Msg {
		res, err := m.runner.Download(ctx, item.TransformedMediaURL, "")
		return downloadedMsg(res.Describe(), err)
	})
}

func (m *Model) downloadJob(jobID models.ID) tea.Cmd {
	return m.run("Downloading transformed media...", func(ctx context.Context, progress chan<- tasks.ProgressUpdate) tea.Msg {
		res, err := m.runner.DownloadJob(ctx, jobID, "", progress)
		if err != nil {
			return downloadedMsg("", err)
		}
		return downloadedMsg(fmt.Sprintf("Saved %d of %d file(s) to %s", res.Succeeded, res.Total, res.OutputDir), nil)
	})
}

func (m *Model) upload(item models.TransformedItem, platform models.Platform) tea.Cmd {
	return m.run(fmt.Sprintf("Uploading to %s...", platform), func(ctx context.Context, progress chan<- tasks.ProgressUpdate) tea.Msg {
		return uploadedMsg(m.runner.Upload(ctx, item, tasks.UploadOpts{Platform: platform}, progress))
	})
}

func (m *Model) cancelJob(jobID models.ID) tea.Cmd {
	return m.run("Cancelling...", func(ctx context.Context, _ chan<- tasks.ProgressUpdate) tea.Msg {
		jobs, err := m.runner.Cancel(ctx, jobID)
		return cancelledMsg(jobs, err)
	})
}

// watchQueue refetches the queue in the background while any job is active.
func (m *Model) watchQueue() tea.Cmd {
	if m.watch != nil {
		m.watch.cancel()
	}
	m.watch = m.start("Refreshing queue...", func(ctx context.Context, progress chan<- tasks.ProgressUpdate) tea.Msg {
		return queueSettledMsg(m.runner.WatchQueue(ctx, 1, 0, nil, progress))
	})
	return tea.Batch(m.spinner.Tick, m.watch.wait())
}

// notify shows a message on the shared toast bus.
func (m *Model) notify(kind toast.Kind, text string) {
	m.bus.Show(kind, text)
}
