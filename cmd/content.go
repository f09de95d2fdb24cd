package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/mazeed/internal/catalog"
	"github.com/desertthunder/mazeed/internal/formatter"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/shared"
	"github.com/urfave/cli/v3"
)

// catalog loads the imported content and the persisted selection.
func (r *Runner) catalog() (*catalog.Catalog, error) {
	c := catalog.New(r.store)
	if err := c.Load(); err != nil {
		return nil, err
	}
	if err := c.RestoreSelection(); err != nil {
		r.logger.Warn("failed to restore selection", "error", err)
	}
	return c, nil
}

// ContentList prints the imported content that matches the filters.
func (r *Runner) ContentList(ctx context.Context, cmd *cli.Command) error {
	filters, err := catalog.ParseFilters(cmd.String("date-range"), cmd.String("type"), cmd.String("performance"))
	if err != nil {
		return err
	}
	format, err := formatter.NormalizeFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	c, err := r.catalog()
	if err != nil {
		return err
	}
	if c.Len() == 0 {
		r.writePlain("No content imported yet. Run: mazeed connect instagram\n")
		return nil
	}

	items := c.Items()
	if cmd.Bool("selected") {
		items = c.SelectedItems()
	}
	items = filters.Apply(items, time.Now())

	out, err := formatter.RenderContent(items, format, c.IsSelected)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteFile(path, out); err != nil {
			return err
		}
		r.writePlain("✓ Wrote %d item(s) to %s\n", len(items), path)
		return nil
	}

	if _, err := r.output.Write(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if format == formatter.FormatText {
		r.writePlain("\n%d of %d item(s) shown, %d selected\n", len(items), c.Len(), len(c.Selected()))
	}
	return nil
}

// ContentSelect replaces the persisted selection.
func (r *Runner) ContentSelect(ctx context.Context, cmd *cli.Command) error {
	c, err := r.catalog()
	if err != nil {
		return err
	}

	var ids []models.ID
	if cmd.Bool("all") {
		for _, item := range c.Items() {
			ids = append(ids, item.ID)
		}
	} else {
		for _, arg := range cmd.Args().Slice() {
			ids = append(ids, models.ID(arg))
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one content id (or --all)", shared.ErrMissingArgument)
	}

	if err := c.Select(ids); err != nil {
		return err
	}
	if err := c.SaveSelection(); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}
	r.writePlain("✓ %d item(s) selected\n", len(c.Selected()))
	return nil
}

// ContentClear forgets the persisted selection.
func (r *Runner) ContentClear(ctx context.Context, cmd *cli.Command) error {
	c := catalog.New(r.store)
	if err := c.ForgetSelection(); err != nil {
		return err
	}
	r.writePlain("✓ Selection cleared\n")
	return nil
}
