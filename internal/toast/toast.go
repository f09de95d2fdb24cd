package toast

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultDuration is how long a message stays visible without interaction.
const DefaultDuration = 3 * time.Second

// Kind is the severity of a message.
type Kind int

const (
	Info Kind = iota
	Success
	Warning
	Error
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// Message is a single transient notification.
type Message struct {
	ID        uint64
	Kind      Kind
	Text      string
	Duration  time.Duration
	CreatedAt time.Time
}

// Event is delivered to subscribers when a message is shown or dismissed.
type Event struct {
	Message   Message
	Dismissed bool
}

// Notifier is implemented by anything that can surface a message to the user.
type Notifier interface {
	Show(kind Kind, text string)
}

// Timer is the subset of [time.Timer] the bus needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d; [time.AfterFunc] in production.
type AfterFunc func(d time.Duration, f func()) Timer

// BusOpts configures a [Bus]. Zero values select defaults.
type BusOpts struct {
	Duration  time.Duration
	AfterFunc AfterFunc
	Now       func() time.Time
	Logger    *log.Logger
}

// Bus holds at most one active message. A newer message replaces the current one.
type Bus struct {
	mu          sync.Mutex
	current     *Message
	seq         uint64
	timer       Timer
	deadline    time.Time
	remaining   time.Duration
	paused      bool
	subscribers map[uint64]func(Event)
	nextSub     uint64

	duration  time.Duration
	afterFunc AfterFunc
	now       func() time.Time
	logger    *log.Logger
}

var _ Notifier = (*Bus)(nil)

// NewBus creates a message bus.
func NewBus(opts BusOpts) *Bus {
	b := &Bus{
		subscribers: make(map[uint64]func(Event)),
		duration:    opts.Duration,
		afterFunc:   opts.AfterFunc,
		now:         opts.Now,
		logger:      opts.Logger,
	}
	if b.duration <= 0 {
		b.duration = DefaultDuration
	}
	if b.afterFunc == nil {
		b.afterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// Show replaces the active message and starts its auto-dismiss timer.
func (b *Bus) Show(kind Kind, text string) {
	b.mu.Lock()
	b.stopTimer()
	b.seq++
	msg := Message{ID: b.seq, Kind: kind, Text: text, Duration: b.duration, CreatedAt: b.now()}
	b.current = &msg
	b.paused = false
	b.schedule(msg.ID, b.duration)
	subs := b.snapshot()
	b.mu.Unlock()

	if b.logger != nil {
		b.logger.Debug("toast", "kind", kind, "text", text)
	}
	publish(subs, Event{Message: msg})
}

func (b *Bus) Info(text string)    { b.Show(Info, text) }
func (b *Bus) Success(text string) { b.Show(Success, text) }
func (b *Bus) Warning(text string) { b.Show(Warning, text) }
func (b *Bus) Error(text string)   { b.Show(Error, text) }

// Current returns the active message, if any.
func (b *Bus) Current() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return Message{}, false
	}
	return *b.current, true
}

// Dismiss removes the message with the given id if it is still active.
func (b *Bus) Dismiss(id uint64) bool {
	b.mu.Lock()
	if b.current == nil || b.current.ID != id {
		b.mu.Unlock()
		return false
	}
	msg := *b.current
	b.stopTimer()
	b.current = nil
	b.paused = false
	subs := b.snapshot()
	b.mu.Unlock()

	publish(subs, Event{Message: msg, Dismissed: true})
	return true
}

// Pause freezes the auto-dismiss countdown, as when the pointer hovers the message.
func (b *Bus) Pause() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil || b.paused {
		return
	}
	b.stopTimer()
	b.remaining = b.deadline.Sub(b.now())
	if b.remaining < 0 {
		b.remaining = 0
	}
	b.paused = true
}

// Resume restarts the countdown with the time left when it was paused.
func (b *Bus) Resume() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil || !b.paused {
		return
	}
	b.paused = false
	b.schedule(b.current.ID, b.remaining)
}

// Subscribe registers fn for every show and dismiss. The returned func unsubscribes.
func (b *Bus) Subscribe(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextSub++
	id := b.nextSub
	b.subscribers[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subscribers, id)
	}
}

func (b *Bus) schedule(id uint64, d time.Duration) {
	b.deadline = b.now().Add(d)
	b.timer = b.afterFunc(d, func() { b.Dismiss(id) })
}

func (b *Bus) stopTimer() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}

func (b *Bus) snapshot() []func(Event) {
	subs := make([]func(Event), 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		subs = append(subs, fn)
	}
	return subs
}

func publish(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}

// Discard drops every message.
type Discard struct{}

func (Discard) Show(Kind, string) {}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(kind Kind, text string)

func (f NotifierFunc) Show(kind Kind, text string) { f(kind, text) }
