package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mazeed/internal/catalog"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/repositories"
	"github.com/desertthunder/mazeed/internal/shared"
	"github.com/desertthunder/mazeed/internal/toast"
)

// Step is a stage of the wizard.
type Step int

const (
	StepImport Step = iota + 1
	StepSelect
	StepDestination
	StepTransform
)

func (s Step) String() string {
	switch s {
	case StepImport:
		return "Import"
	case StepSelect:
		return "Select Content"
	case StepDestination:
		return "Choose Destination"
	case StepTransform:
		return "Transform & Preview"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Steps lists every step in order.
var Steps = []Step{StepImport, StepSelect, StepDestination, StepTransform}

// Toast texts shown by the workflow.
const (
	MsgImportSuccess     = "Content imported successfully"
	MsgImportFailed      = "Failed to import content from Instagram. Please try again."
	MsgImportEmpty       = "No content was found on the connected Instagram account."
	MsgEmptySelection    = "Please select at least one content item"
	MsgEmptyTransform    = "Please select at least one content item to transform."
	MsgTransformFailed   = "Failed to start transformation. Please try again."
	MsgTransformStarted  = "Transformation started"
	MsgNotConnectedTempl = "Connect %s before choosing it as a destination"
)

// State is a snapshot of the wizard.
type State struct {
	ActiveStep         Step
	LastCompletedStep  Step
	SelectedContentIDs []models.ID
	Destination        models.Platform
	Connections        map[models.Platform]bool
	SelectedJobID      models.ID
}

// Connector runs a browser-based connect flow and returns its completion event.
type Connector interface {
	Connect(ctx context.Context, platform models.Platform) (*models.ConnectEvent, error)
}

// Submitter starts a transformation job.
type Submitter interface {
	Submit(ctx context.Context, sources []models.MediaSource, platform models.Platform, opts models.TransformationOptions) (models.ID, error)
}

// Opts configures a [Workflow].
type Opts struct {
	Catalog   *catalog.Catalog
	Store     repositories.KeyValueStore
	Connector Connector
	Submitter Submitter
	Notifier  toast.Notifier
	Logger    *log.Logger
}

// Workflow is the four-step import, select, destination and transform wizard.
//
// It is owned by a single goroutine.
type Workflow struct {
	catalog   *catalog.Catalog
	store     repositories.KeyValueStore
	connector Connector
	submitter Submitter
	notifier  toast.Notifier
	logger    *log.Logger

	active        Step
	lastCompleted Step
	destination   models.Platform
	connections   map[models.Platform]bool
	jobID         models.ID
}

// New creates a workflow on step 1. Call [Workflow.Mount] before use.
func New(opts Opts) *Workflow {
	w := &Workflow{
		catalog:     opts.Catalog,
		store:       opts.Store,
		connector:   opts.Connector,
		submitter:   opts.Submitter,
		notifier:    opts.Notifier,
		logger:      opts.Logger,
		active:      StepImport,
		connections: make(map[models.Platform]bool),
	}
	if w.store == nil {
		w.store = repositories.NewMemoryStore()
	}
	if w.catalog == nil {
		w.catalog = catalog.New(w.store)
	}
	if w.notifier == nil {
		w.notifier = toast.Discard{}
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}
	return w
}

// Catalog returns the content catalog the workflow selects from.
func (w *Workflow) Catalog() *catalog.Catalog {
	return w.catalog
}

// Mount starts a fresh session: imported data is discarded, the wizard returns to
// step 1 and only the persisted selection is restored.
func (w *Workflow) Mount() error {
	if err := w.store.Remove(repositories.ImportKeys...); err != nil {
		return fmt.Errorf("failed to clear imported content: %w", err)
	}

	w.active = StepImport
	w.lastCompleted = 0
	w.destination = ""
	w.jobID = ""
	w.connections = make(map[models.Platform]bool)

	if err := w.catalog.Load(); err != nil {
		return err
	}
	if err := w.catalog.RestoreSelection(); err != nil {
		w.logger.Warn("failed to restore selection", "error", err)
	}
	return nil
}

// Import runs the Instagram connect flow and completes step 1 with its result.
func (w *Workflow) Import(ctx context.Context) error {
	if w.connector == nil {
		return fmt.Errorf("%w: no connector configured", shared.ErrConnectFailed)
	}

	ev, err := w.connector.Connect(ctx, models.Instagram)
	return w.ApplyImport(ev, err)
}

// ApplyImport completes step 1 with the outcome of an Instagram connect flow.
// A cancelled flow changes nothing and shows no message.
func (w *Workflow) ApplyImport(ev *models.ConnectEvent, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		w.notifier.Show(toast.Error, MsgImportFailed)
		return fmt.Errorf("%w: %v", shared.ErrConnectFailed, err)
	}
	return w.CompleteImport(*ev)
}

// CompleteImport applies the completion event of an Instagram connect.
func (w *Workflow) CompleteImport(ev models.ConnectEvent) error {
	if !ev.Succeeded() {
		w.notifier.Show(toast.Error, MsgImportFailed)
		if ev.Message != "" {
			return fmt.Errorf("%w: %s", shared.ErrConnectFailed, ev.Message)
		}
		return shared.ErrConnectFailed
	}

	if err := w.catalog.Import(ev.Data); err != nil {
		if errors.Is(err, shared.ErrEmptyImport) {
			w.notifier.Show(toast.Warning, MsgImportEmpty)
			return err
		}
		w.notifier.Show(toast.Error, MsgImportFailed)
		return err
	}

	w.logger.Info("content imported", "items", len(ev.Data.Reels), "accounts", len(ev.Data.AccountIDs))
	w.notifier.Show(toast.Success, MsgImportSuccess)
	w.complete(StepImport)
	w.active = StepSelect
	return nil
}

// ConfirmSelection persists ids as the selection and moves to step 3.
func (w *Workflow) ConfirmSelection(ids []models.ID) error {
	if len(ids) == 0 {
		w.notifier.Show(toast.Error, MsgEmptySelection)
		return shared.ErrEmptySelection
	}
	if err := w.catalog.Select(ids); err != nil {
		w.notifier.Show(toast.Error, err.Error())
		return err
	}
	if err := w.catalog.SaveSelection(); err != nil {
		return fmt.Errorf("failed to save selection: %w", err)
	}

	w.complete(StepSelect)
	w.active = StepDestination
	return nil
}

// ConnectPlatform links a destination account through the connector.
// The platform stays disconnected when the flow fails or is cancelled.
func (w *Workflow) ConnectPlatform(ctx context.Context, platform models.Platform) error {
	if !platform.IsDestination() {
		return fmt.Errorf("%w: %s", shared.ErrUnsupportedPlatform, platform)
	}
	if w.connector == nil {
		return fmt.Errorf("%w: no connector configured", shared.ErrConnectFailed)
	}

	ev, err := w.connector.Connect(ctx, platform)
	return w.ApplyConnect(platform, ev, err)
}

// ApplyConnect records the outcome of a destination connect flow.
func (w *Workflow) ApplyConnect(platform models.Platform, ev *models.ConnectEvent, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		w.notifier.Show(toast.Error, fmt.Sprintf("Failed to connect %s. Please try again.", platform))
		return fmt.Errorf("%w: %v", shared.ErrConnectFailed, err)
	}
	if !ev.Succeeded() {
		msg := ev.Message
		if msg == "" {
			msg = fmt.Sprintf("Failed to connect %s. Please try again.", platform)
		}
		w.notifier.Show(toast.Error, msg)
		return fmt.Errorf("%w: %s", shared.ErrConnectFailed, ev.Type)
	}

	w.MarkConnected(platform)
	w.notifier.Show(toast.Success, fmt.Sprintf("%s connected successfully", platform))
	return nil
}

// MarkConnected records a completed connect flow for platform.
func (w *Workflow) MarkConnected(platform models.Platform) {
	w.connections[platform] = true
}

// Connected reports whether platform has completed a connect flow this session.
func (w *Workflow) Connected(platform models.Platform) bool {
	return w.connections[platform]
}

// ChooseDestination sets the target platform and moves to step 4.
func (w *Workflow) ChooseDestination(platform models.Platform) error {
	if !platform.IsDestination() {
		return fmt.Errorf("%w: %s", shared.ErrUnsupportedPlatform, platform)
	}
	if !w.connections[platform] {
		w.notifier.Show(toast.Warning, fmt.Sprintf(MsgNotConnectedTempl, platform))
		return fmt.Errorf("%w: %s", shared.ErrPlatformNotConnected, platform)
	}

	w.destination = platform
	w.complete(StepDestination)
	w.active = StepTransform
	return nil
}

// CanGoTo reports whether step is reachable from the current state.
func (w *Workflow) CanGoTo(step Step) bool {
	if step < StepImport || step > StepTransform {
		return false
	}
	return step <= w.active || step <= w.lastCompleted+1
}

// GoTo moves to a previously reached step or the one after the last completed step.
func (w *Workflow) GoTo(step Step) error {
	if !w.CanGoTo(step) {
		return fmt.Errorf("%w: %s", shared.ErrStepLocked, step)
	}
	if w.active == StepTransform && step != StepTransform {
		w.jobID = ""
	}
	w.active = step
	return nil
}

// Submit starts a job for the current selection on the chosen destination.
func (w *Workflow) Submit(ctx context.Context, opts models.TransformationOptions) (models.ID, error) {
	sources, platform, err := w.PrepareSubmit()
	if err != nil {
		return "", err
	}
	if w.submitter == nil {
		return "", fmt.Errorf("%w: no submitter configured", shared.ErrServiceUnavailable)
	}

	id, err := w.submitter.Submit(ctx, sources, platform, opts)
	return id, w.ApplySubmit(id, err)
}

// PrepareSubmit returns what a submission would send, or why nothing can be sent.
func (w *Workflow) PrepareSubmit() ([]models.MediaSource, models.Platform, error) {
	sources := w.catalog.Sources()
	if len(sources) == 0 {
		w.notifier.Show(toast.Error, MsgEmptyTransform)
		return nil, "", shared.ErrEmptySelection
	}
	if w.destination == "" {
		return nil, "", shared.ErrNoDestination
	}
	return sources, w.destination, nil
}

// ApplySubmit records the outcome of a submission started from [Workflow.PrepareSubmit].
func (w *Workflow) ApplySubmit(id models.ID, err error) error {
	if err != nil {
		w.notifier.Show(toast.Error, MsgTransformFailed)
		return err
	}

	w.jobID = id
	w.notifier.Show(toast.Success, MsgTransformStarted)
	w.logger.Info("transformation submitted", "job_id", id, "platform", w.destination)
	return nil
}

// SelectJob opens an existing job on the preview step.
func (w *Workflow) SelectJob(id models.ID) {
	w.jobID = id
}

// Reset leaves the preview and returns to content selection.
func (w *Workflow) Reset() {
	w.jobID = ""
	w.active = StepSelect
}

// State returns a copy of the current state.
func (w *Workflow) State() State {
	conns := make(map[models.Platform]bool, len(w.connections))
	for p, ok := range w.connections {
		conns[p] = ok
	}
	return State{
		ActiveStep:         w.active,
		LastCompletedStep:  w.lastCompleted,
		SelectedContentIDs: w.catalog.Selected(),
		Destination:        w.destination,
		Connections:        conns,
		SelectedJobID:      w.jobID,
	}
}

func (w *Workflow) complete(step Step) {
	if step > w.lastCompleted {
		w.lastCompleted = step
	}
}
