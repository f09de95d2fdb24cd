// package testing contains shared test doubles and file assertions
package testing

import (
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/mazeed/internal/toast"
)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// ToastRecorder is a [toast.Notifier] that keeps every message shown.
type ToastRecorder struct {
	mu       sync.Mutex
	Messages []toast.Message
}

func (r *ToastRecorder) Show(kind toast.Kind, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Messages = append(r.Messages, toast.Message{ID: uint64(len(r.Messages) + 1), Kind: kind, Text: text})
}

// Last returns the most recent message.
func (r *ToastRecorder) Last() (toast.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return toast.Message{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}

// Count returns how many messages of kind were shown.
func (r *ToastRecorder) Count(kind toast.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.Messages {
		if m.Kind == kind {
			n++
		}
	}
	return n
}

// Routes records navigation targets in order.
type Routes struct {
	mu      sync.Mutex
	Visited []string
}

func (r *Routes) Navigate(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Visited = append(r.Visited, route)
}

// Last returns the most recent route, or "" when none was visited.
func (r *Routes) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Visited) == 0 {
		return ""
	}
	return r.Visited[len(r.Visited)-1]
}

// Opened records URLs handed to a browser opener.
type Opened struct {
	mu   sync.Mutex
	URLs []string
	Err  error
}

func (o *Opened) Open(rawURL string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.URLs = append(o.URLs, rawURL)
	return o.Err
}

// Count returns how many URLs were opened.
func (o *Opened) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.URLs)
}
