package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/tasks"
	"github.com/desertthunder/mazeed/internal/toast"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgImported MsgKind = iota
	MsgConnected
	MsgSubmitted
	MsgPreviewReady
	MsgQueueSettled
	MsgCancelled
	MsgDownloaded
	MsgUploaded
	MsgProgressUpdate
	MsgToast
)

// connectResult carries the outcome of a browser connect flow.
type connectResult struct {
	platform models.Platform
	event    *models.ConnectEvent
	err      error
}

// importedMsg is the constructor for [MsgImported]
func importedMsg(ev *models.ConnectEvent, err error) Msg {
	return Msg{kind: MsgImported, data: connectResult{platform: models.Instagram, event: ev, err: err}}
}

// connectedMsg is the constructor for [MsgConnected]
func connectedMsg(platform models.Platform, ev *models.ConnectEvent, err error) Msg {
	return Msg{kind: MsgConnected, data: connectResult{platform: platform, event: ev, err: err}}
}

// submittedMsg is the constructor for [MsgSubmitted]
func submittedMsg(id models.ID, err error) Msg {
	return Msg{
		kind: MsgSubmitted,
		data: struct {
			id  models.ID
			err error
		}{id, err},
	}
}

// previewReadyMsg is the constructor for [MsgPreviewReady]
func previewReadyMsg(job *models.TransformationJob, err error) Msg {
	return Msg{
		kind: MsgPreviewReady,
		data: struct {
			job *models.TransformationJob
			err error
		}{job, err},
	}
}

// queueSettledMsg is the constructor for [MsgQueueSettled]
func queueSettledMsg(err error) Msg {
	return Msg{kind: MsgQueueSettled, data: err}
}

// cancelledMsg is the constructor for [MsgCancelled]
func cancelledMsg(jobs []models.TransformationJob, err error) Msg {
	return Msg{
		kind: MsgCancelled,
		data: struct {
			jobs []models.TransformationJob
			err  error
		}{jobs, err},
	}
}

// downloadedMsg is the constructor for [MsgDownloaded]
func downloadedMsg(summary string, err error) Msg {
	return Msg{
		kind: MsgDownloaded,
		data: struct {
			summary string
			err     error
		}{summary, err},
	}
}

// uploadedMsg is the constructor for [MsgUploaded]
func uploadedMsg(err error) Msg {
	return Msg{kind: MsgUploaded, data: err}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(t *task, update tasks.ProgressUpdate) Msg {
	return Msg{
		kind: MsgProgressUpdate,
		data: struct {
			task   *task
			update tasks.ProgressUpdate
		}{t, update},
	}
}

// toastMsg is the constructor for [MsgToast]
func toastMsg(ev toast.Event) Msg {
	return Msg{kind: MsgToast, data: ev}
}
