package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/mazeed/internal/catalog"
	"github.com/desertthunder/mazeed/internal/formatter"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/shared"
	"github.com/desertthunder/mazeed/internal/tasks"
	"github.com/desertthunder/mazeed/internal/toast"
	"github.com/desertthunder/mazeed/internal/workflow"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ImportView ViewState = iota
	SelectView
	DestinationView
	TransformView
	QueueView
)

// Deps are the collaborators of the TUI. The workflow and runner must report to Toasts.
type Deps struct {
	Workflow  *workflow.Workflow
	Connector workflow.Connector
	Runner    *tasks.JobRunner
	Toasts    *toast.Bus
	Now       func() time.Time
}

// Model represents the TUI application state.
type Model struct {
	ctx       context.Context
	view      ViewState
	wf        *workflow.Workflow
	connector workflow.Connector
	runner    *tasks.JobRunner
	bus       *toast.Bus
	now       func() time.Time

	width  int
	height int

	filters      catalog.Filters
	contentList  list.Model
	platformList list.Model
	jobList      list.Model
	jobs         []models.TransformationJob

	aspect    string
	captions  bool
	watermark textinput.Model
	editing   bool
	job       *models.TransformationJob

	spinner  spinner.Model
	op       *task
	watch    *task
	progress tasks.ProgressUpdate

	toasts      chan toast.Event
	unsubscribe func()
	current     *toast.Message

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, deps Deps) *Model {
	wm := textinput.New()
	wm.Placeholder = "@yourhandle"
	wm.CharLimit = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title.UnsetMarginBottom()

	m := &Model{
		ctx:       ctx,
		wf:        deps.Workflow,
		connector: deps.Connector,
		runner:    deps.Runner,
		bus:       deps.Toasts,
		now:       deps.Now,
		aspect:    models.AspectVertical,
		watermark: wm,
		spinner:   sp,
		toasts:    make(chan toast.Event, 16),
		help:      help.New(),
		keys:      newKeyMap(),
	}
	if m.bus == nil {
		m.bus = toast.NewBus(toast.BusOpts{})
	}
	if m.now == nil {
		m.now = time.Now
	}

	ch := m.toasts
	m.unsubscribe = m.bus.Subscribe(func(ev toast.Event) {
		select {
		case ch <- ev:
		default:
		}
	})

	m.contentList = newList("Select Content")
	m.platformList = newList("Choose Destination")
	m.jobList = newList("Transformation Queue")

	if err := m.wf.Mount(); err != nil {
		m.err = err
	}
	m.sync()
	return m
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	return l
}

// Init starts listening for toasts.
func (m *Model) Init() tea.Cmd {
	return m.listenToasts()
}

// Close stops background work and detaches from the toast bus.
func (m *Model) Close() {
	if m.op != nil {
		m.op.cancel()
	}
	if m.watch != nil {
		m.watch.cancel()
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, l := range []*list.Model{&m.contentList, &m.platformList, &m.jobList} {
			l.SetSize(msg.Width-4, msg.Height-12)
		}
		return m, nil

	case spinner.TickMsg:
		if m.op == nil && m.watch == nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgToast:
		ev := msg.data.(toast.Event)
		switch {
		case !ev.Dismissed:
			current := ev.Message
			m.current = &current
		case m.current != nil && m.current.ID == ev.Message.ID:
			m.current = nil
		}
		return m, m.listenToasts()

	case MsgProgressUpdate:
		data := msg.data.(struct {
			task   *task
			update tasks.ProgressUpdate
		})
		if data.task == m.watch {
			if jobs, ok := data.update.Data.([]models.TransformationJob); ok {
				m.setJobs(jobs)
			}
		}
		if data.task == m.op {
			m.progress = data.update
		}
		return m, data.task.wait()

	case MsgImported:
		m.op = nil
		res := msg.data.(connectResult)
		if err := m.wf.ApplyImport(res.event, res.err); err == nil {
			m.refreshContent()
		}
		m.sync()
		return m, nil

	case MsgConnected:
		m.op = nil
		res := msg.data.(connectResult)
		_ = m.wf.ApplyConnect(res.platform, res.event, res.err)
		m.refreshPlatforms()
		return m, nil

	case MsgSubmitted:
		m.op = nil
		data := msg.data.(struct {
			id  models.ID
			err error
		})
		if err := m.wf.ApplySubmit(data.id, data.err); err != nil {
			return m, nil
		}
		return m, m.pollPreview(data.id)

	case MsgPreviewReady:
		m.op = nil
		data := msg.data.(struct {
			job *models.TransformationJob
			err error
		})
		switch {
		case data.err == nil:
			m.job = data.job
		case errors.Is(data.err, context.Canceled):
		case errors.Is(data.err, shared.ErrTimeout):
			m.notify(toast.Warning, "Preview is taking longer than expected. Check the queue for updates.")
		case errors.Is(data.err, shared.ErrJobFailed):
			m.job = data.job
			m.notify(toast.Error, "Transformation failed")
		default:
			m.notify(toast.Error, "Failed to load the preview. Please try again.")
		}
		return m, nil

	case MsgQueueSettled:
		err, _ := msg.data.(error)
		if errors.Is(err, context.Canceled) {
			return m, nil
		}
		m.watch = nil
		if err != nil {
			m.notify(toast.Error, "Failed to load transformations")
		}
		return m, nil

	case MsgCancelled:
		m.op = nil
		data := msg.data.(struct {
			jobs []models.TransformationJob
			err  error
		})
		if data.err == nil {
			m.setJobs(data.jobs)
			if models.AnyActive(data.jobs) {
				return m, m.watchQueue()
			}
		}
		return m, nil

	case MsgDownloaded:
		m.op = nil
		data := msg.data.(struct {
			summary string
			err     error
		})
		switch {
		case data.err == nil:
			m.notify(toast.Success, data.summary)
		case !errors.Is(data.err, context.Canceled):
			m.notify(toast.Error, "Download failed. Please try again.")
		}
		return m, nil

	case MsgUploaded:
		m.op = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.Close()
		return m, tea.Quit
	}

	if m.op != nil {
		if key.Matches(msg, m.keys.back) {
			m.op.cancel()
		}
		return m, nil
	}

	if m.editing {
		return m.handleWatermarkKeys(msg)
	}

	if key.Matches(msg, m.keys.quit) {
		m.Close()
		return m, tea.Quit
	}

	if m.view != QueueView {
		switch msg.String() {
		case "1", "2", "3", "4":
			step := workflow.Step(msg.String()[0] - '0')
			if err := m.wf.GoTo(step); err == nil {
				if step != workflow.StepTransform {
					m.job = nil
				}
				m.sync()
			}
			return m, nil
		}
	}

	switch m.view {
	case ImportView:
		return m.handleImportKeys(msg)
	case SelectView:
		return m.handleSelectKeys(msg)
	case DestinationView:
		return m.handleDestinationKeys(msg)
	case TransformView:
		return m.handleTransformKeys(msg)
	case QueueView:
		return m.handleQueueKeys(msg)
	}
	return m, nil
}

func (m *Model) handleImportKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.enter):
		return m, m.importContent()
	case key.Matches(msg, m.keys.queue):
		return m, m.openQueue()
	}
	return m, nil
}

func (m *Model) handleSelectKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cat := m.wf.Catalog()

	switch {
	case key.Matches(msg, m.keys.toggle):
		if it, ok := m.contentList.SelectedItem().(contentItem); ok {
			cat.Toggle(it.item.ID)
			m.refreshContent()
		}
		return m, nil
	case key.Matches(msg, m.keys.toggleAll):
		cat.ToggleAll()
		m.refreshContent()
		return m, nil
	case key.Matches(msg, m.keys.date):
		m.filters.DateRange = next(dateRanges, m.filters.DateRange)
		m.refreshContent()
		return m, nil
	case key.Matches(msg, m.keys.kind):
		m.filters.ContentType = next(contentTypes, m.filters.ContentType)
		m.refreshContent()
		return m, nil
	case key.Matches(msg, m.keys.perf):
		m.filters.Performance = next(performances, m.filters.Performance)
		m.refreshContent()
		return m, nil
	case key.Matches(msg, m.keys.reset):
		m.filters.Reset()
		m.refreshContent()
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if err := m.wf.ConfirmSelection(cat.Selected()); err == nil {
			m.refreshPlatforms()
			m.sync()
		}
		return m, nil
	case key.Matches(msg, m.keys.back):
		_ = m.wf.GoTo(workflow.StepImport)
		m.sync()
		return m, nil
	case key.Matches(msg, m.keys.queue):
		return m, m.openQueue()
	}

	var cmd tea.Cmd
	m.contentList, cmd = m.contentList.Update(msg)
	return m, cmd
}

func (m *Model) handleDestinationKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	it, _ := m.platformList.SelectedItem().(platformItem)

	switch {
	case key.Matches(msg, m.keys.connect):
		if it.platform != "" {
			return m, m.connectPlatform(it.platform)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if it.platform != "" && m.wf.ChooseDestination(it.platform) == nil {
			m.job = nil
			m.sync()
		}
		return m, nil
	case key.Matches(msg, m.keys.back):
		_ = m.wf.GoTo(workflow.StepSelect)
		m.sync()
		return m, nil
	case key.Matches(msg, m.keys.queue):
		return m, m.openQueue()
	}

	var cmd tea.Cmd
	m.platformList, cmd = m.platformList.Update(msg)
	return m, cmd
}

func (m *Model) handleTransformKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.job == nil && m.wf.State().SelectedJobID == "" {
		return m.handleOptionsKeys(msg)
	}

	switch {
	case key.Matches(msg, m.keys.download):
		if item, ok := m.previewItem(); ok {
			return m, m.download(item)
		}
		m.notify(toast.Info, "The preview is not ready yet")
	case key.Matches(msg, m.keys.upload):
		if item, ok := m.previewItem(); ok {
			return m, m.upload(item, m.wf.State().Destination)
		}
		m.notify(toast.Info, "The preview is not ready yet")
	case key.Matches(msg, m.keys.enter):
		if id := m.wf.State().SelectedJobID; id != "" && m.job == nil {
			return m, m.pollPreview(id)
		}
	case key.Matches(msg, m.keys.restart):
		m.wf.Reset()
		m.job = nil
		m.refreshContent()
		m.sync()
	case key.Matches(msg, m.keys.back):
		_ = m.wf.GoTo(workflow.StepDestination)
		m.job = nil
		m.sync()
	case key.Matches(msg, m.keys.queue):
		return m, m.openQueue()
	}
	return m, nil
}

func (m *Model) handleOptionsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.aspect):
		if m.aspect == models.AspectVertical {
			m.aspect = models.AspectOriginal
		} else {
			m.aspect = models.AspectVertical
		}
	case key.Matches(msg, m.keys.captions):
		m.captions = !m.captions
	case key.Matches(msg, m.keys.watermark):
		m.editing = true
		return m, m.watermark.Focus()
	case key.Matches(msg, m.keys.enter):
		return m, m.submit()
	case key.Matches(msg, m.keys.back):
		_ = m.wf.GoTo(workflow.StepDestination)
		m.sync()
	case key.Matches(msg, m.keys.queue):
		return m, m.openQueue()
	}
	return m, nil
}

func (m *Model) handleWatermarkKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.editing = false
		m.watermark.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.watermark, cmd = m.watermark.Update(msg)
	return m, cmd
}

func (m *Model) handleQueueKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	it, ok := m.jobList.SelectedItem().(jobItem)

	switch {
	case key.Matches(msg, m.keys.back):
		if m.watch != nil {
			m.watch.cancel()
			m.watch = nil
		}
		m.sync()
		return m, nil
	case key.Matches(msg, m.keys.cancel):
		if ok && it.job.Status.Active() {
			return m, m.cancelJob(it.job.JobID)
		}
		return m, nil
	case key.Matches(msg, m.keys.download):
		if ok {
			return m, m.downloadJob(it.job.JobID)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if ok && m.wf.CanGoTo(workflow.StepTransform) {
			if m.watch != nil {
				m.watch.cancel()
				m.watch = nil
			}
			_ = m.wf.GoTo(workflow.StepTransform)
			m.wf.SelectJob(it.job.JobID)
			m.job = nil
			m.sync()
			return m, m.pollPreview(it.job.JobID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.jobList, cmd = m.jobList.Update(msg)
	return m, cmd
}

func (m *Model) openQueue() tea.Cmd {
	m.view = QueueView
	return m.watchQueue()
}

// sync points the view at the workflow's active step.
func (m *Model) sync() {
	switch m.wf.State().ActiveStep {
	case workflow.StepSelect:
		m.view = SelectView
	case workflow.StepDestination:
		m.view = DestinationView
	case workflow.StepTransform:
		m.view = TransformView
	default:
		m.view = ImportView
	}
}

// options are the transformation settings chosen on step 4.
func (m *Model) options() models.TransformationOptions {
	opts := models.DefaultTransformationOptions()
	opts.AspectRatio = m.aspect
	opts.AddCaptions = m.captions
	if wm := m.watermark.Value(); wm != "" {
		opts.AddWatermark = true
		opts.WatermarkContent = wm
	}
	return opts
}

func (m *Model) previewItem() (models.TransformedItem, bool) {
	if m.job == nil {
		return models.TransformedItem{}, false
	}
	return m.job.Preview()
}

func (m *Model) refreshContent() {
	cat := m.wf.Catalog()
	visible := m.filters.Apply(cat.Items(), m.now())

	items := make([]list.Item, len(visible))
	for i, it := range visible {
		items[i] = contentItem{item: it, selected: cat.IsSelected(it.ID)}
	}
	m.contentList.SetItems(items)
	m.contentList.Title = fmt.Sprintf("Select Content • %s (%d of %d selected)",
		m.filters.DateRange.Label(), len(cat.Selected()), cat.Len())
}

func (m *Model) refreshPlatforms() {
	items := make([]list.Item, len(models.Destinations))
	for i, p := range models.Destinations {
		items[i] = platformItem{platform: p, connected: m.wf.Connected(p)}
	}
	m.platformList.SetItems(items)
}

func (m *Model) setJobs(jobs []models.TransformationJob) {
	m.jobs = jobs
	now := m.now()
	items := make([]list.Item, len(jobs))
	for i, j := range jobs {
		items[i] = jobItem{job: j, ago: formatter.TimeAgo(j.CreatedAt.Time, now)}
	}
	m.jobList.SetItems(items)
}

var (
	dateRanges   = []catalog.DateRange{catalog.DateAll, catalog.Date30Days, catalog.Date90Days, catalog.Date6Months, catalog.DateYear}
	contentTypes = []catalog.ContentType{catalog.TypeAll, catalog.TypeReels, catalog.TypePosts}
	performances = []catalog.Performance{catalog.PerformanceAll, catalog.PerformanceHigh, catalog.PerformanceMedium, catalog.PerformanceLow}
)

// next cycles through values; an unknown current value counts as the first.
func next[T comparable](values []T, current T) T {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[1%len(values)]
}
