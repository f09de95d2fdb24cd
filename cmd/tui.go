package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/shared"
	"github.com/desertthunder/mazeed/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for the transformation workflow.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.jobs == nil || r.connector == nil {
		return fmt.Errorf("%w: job runner not initialized", shared.ErrServiceUnavailable)
	}

	return r.requireAuth(func(cred *models.Credential) error {
		r.logger.Info("starting TUI", "user_id", cred.UserID)

		// The model renders toasts itself.
		r.stopPrinting()
		defer func() { r.stopPrinting = r.toasts.Subscribe(r.printToast) }()

		model := ui.NewModel(ctx, ui.Deps{
			Workflow:  r.workflow(),
			Connector: r.connector,
			Runner:    r.jobs,
			Toasts:    r.toasts,
		})
		defer model.Close()

		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("error running TUI: %w", err)
		}
		return nil
	})
}
