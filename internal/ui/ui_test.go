package ui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mazeed/internal/catalog"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/toast"
	"github.com/desertthunder/mazeed/internal/workflow"
)

type stubTimer struct{}

func (stubTimer) Stop() bool { return true }

func newTestModel(t *testing.T) *Model {
	t.Helper()
	bus := toast.NewBus(toast.BusOpts{
		AfterFunc: func(time.Duration, func()) toast.Timer { return stubTimer{} },
	})
	wf := workflow.New(workflow.Opts{Notifier: bus})
	m := NewModel(context.Background(), Deps{
		Workflow: wf,
		Toasts:   bus,
		Now:      func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) },
	})
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func importEvent() *models.ConnectEvent {
	return &models.ConnectEvent{
		Type: "instagram-auth-success",
		Data: models.ConnectData{
			Reels: []models.ContentItem{
				{ID: "r1", MediaType: "Reel", Caption: "first", PlayCount: 2_000_000},
				{ID: "p1", MediaType: "Image", Caption: "second", PlayCount: 10},
			},
			AccountIDs: []models.ID{"acct"},
		},
	}
}

func TestWizard(t *testing.T) {
	t.Run("starts on import", func(t *testing.T) {
		m := newTestModel(t)
		if m.view != ImportView {
			t.Errorf("expected ImportView, got %v", m.view)
		}
		if !strings.Contains(m.View(), "Import from Instagram") {
			t.Errorf("import view not rendered:\n%s", m.View())
		}
	})

	t.Run("import moves to selection", func(t *testing.T) {
		m := newTestModel(t)
		m.Update(importedMsg(importEvent(), nil))

		if m.view != SelectView {
			t.Fatalf("expected SelectView, got %v", m.view)
		}
		if got := len(m.contentList.Items()); got != 2 {
			t.Errorf("expected 2 list items, got %d", got)
		}
	})

	t.Run("selection then destination", func(t *testing.T) {
		m := newTestModel(t)
		m.Update(importedMsg(importEvent(), nil))

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != SelectView {
			t.Fatal("empty selection should not advance")
		}

		m.Update(tea.KeyMsg{Type: tea.KeySpace})
		if !m.wf.Catalog().IsSelected("r1") {
			t.Fatal("space should select the highlighted item")
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != DestinationView {
			t.Fatalf("expected DestinationView, got %v", m.view)
		}

		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != DestinationView {
			t.Fatal("unconnected platform should not be chosen")
		}

		m.Update(connectedMsg(models.YouTube, &models.ConnectEvent{Type: "youtube-auth-success"}, nil))
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != TransformView {
			t.Fatalf("expected TransformView, got %v", m.view)
		}
		if got := m.wf.State().Destination; got != models.YouTube {
			t.Errorf("expected YouTube destination, got %s", got)
		}
	})

	t.Run("filters narrow the list", func(t *testing.T) {
		m := newTestModel(t)
		m.Update(importedMsg(importEvent(), nil))

		m.Update(runes("t"))
		if m.filters.ContentType != catalog.TypeReels {
			t.Fatalf("expected reels filter, got %q", m.filters.ContentType)
		}
		if got := len(m.contentList.Items()); got != 1 {
			t.Errorf("expected 1 reel, got %d", got)
		}

		m.Update(runes("x"))
		if got := len(m.contentList.Items()); got != 2 {
			t.Errorf("reset should show everything, got %d", got)
		}
	})

	t.Run("transform options", func(t *testing.T) {
		m := newTestModel(t)
		m.Update(runes("r"))
		m.Update(runes("c"))
		m.watermark.SetValue("@me")

		opts := m.options()
		if opts.AspectRatio != models.AspectVertical || opts.AddCaptions || !opts.AddWatermark {
			t.Errorf("option keys only apply on the transform step, got %+v", opts)
		}

		m.view = TransformView
		m.Update(runes("r"))
		m.Update(runes("c"))
		opts = m.options()
		if opts.AspectRatio != models.AspectOriginal || !opts.AddCaptions || opts.WatermarkContent != "@me" {
			t.Errorf("unexpected options: %+v", opts)
		}
	})
}

func TestToasts(t *testing.T) {
	m := newTestModel(t)
	msg := toast.Message{ID: 7, Kind: toast.Success, Text: "Content imported successfully"}

	m.Update(toastMsg(toast.Event{Message: msg}))
	if m.current == nil || !strings.Contains(m.View(), "Content imported successfully") {
		t.Fatal("toast not shown")
	}

	m.Update(toastMsg(toast.Event{Message: toast.Message{ID: 3}, Dismissed: true}))
	if m.current == nil {
		t.Fatal("dismissing an older toast should keep the current one")
	}

	m.Update(toastMsg(toast.Event{Message: msg, Dismissed: true}))
	if m.current != nil {
		t.Error("toast should be cleared")
	}
}

func TestNext(t *testing.T) {
	if got := next(dateRanges, ""); got != catalog.Date30Days {
		t.Errorf("expected unset range to advance to 30 days, got %q", got)
	}
	if got := next(dateRanges, catalog.DateYear); got != catalog.DateAll {
		t.Errorf("expected wrap to all, got %q", got)
	}
}
