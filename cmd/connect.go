package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/mazeed/internal/catalog"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/shared"
	"github.com/desertthunder/mazeed/internal/workflow"
	"github.com/urfave/cli/v3"
)

// workflow builds a wizard over the runner's storage. CLI commands call its steps
// directly instead of walking the step order.
func (r *Runner) workflow() *workflow.Workflow {
	return workflow.New(workflow.Opts{
		Catalog:   catalog.New(r.store),
		Store:     r.store,
		Connector: r.connector,
		Submitter: r.jobs,
		Notifier:  r.toasts,
		Logger:    r.logger,
	})
}

// Connect runs a platform's connect flow in the browser. Instagram imports content.
func (r *Runner) Connect(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("platform")
	if name == "" {
		return fmt.Errorf("%w: platform (instagram, youtube or tiktok)", shared.ErrMissingArgument)
	}
	platform, err := models.ParsePlatform(name)
	if err != nil {
		return err
	}

	return r.requireAuth(func(*models.Credential) error {
		wf := r.workflow()
		r.writePlain("Opening %s in your browser. Waiting for the connection to finish...\n", platform)

		if platform == models.Instagram {
			if err := wf.Import(ctx); err != nil {
				return err
			}
			r.writePlain("Imported %d item(s). Next: mazeed content list\n", wf.Catalog().Len())
			return nil
		}
		return wf.ConnectPlatform(ctx, platform)
	})
}
