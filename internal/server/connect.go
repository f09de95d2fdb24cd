package server

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sync"

	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/shared"
)

const maxCallbackBody = 8 << 20

// ConnectResult is the outcome of a connect callback.
type ConnectResult struct {
	Event *models.ConnectEvent
	err   error
}

func (c *ConnectResult) Error() error {
	return c.err
}

// callbackPayload is the body of a POST callback.
type callbackPayload struct {
	State   string             `json:"state"`
	Type    string             `json:"type"`
	Data    models.ConnectData `json:"data"`
	Message string             `json:"message"`
}

// ConnectHandler receives the completion event of one connect flow.
// Implements the Handler interface for registration with a Router.
type ConnectHandler struct {
	state       string
	resultChan  chan ConnectResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewConnectHandler creates a handler that accepts callbacks carrying state.
func NewConnectHandler(state string) *ConnectHandler {
	return &ConnectHandler{
		state:      state,
		resultChan: make(chan ConnectResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *ConnectHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP handles the callback request.
func (h *ConnectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// A request without the flow's state does not consume the callback.
	payload, err := decodeCallback(r)
	if payload.State != h.state {
		http.Error(w, shared.ErrInvalidState.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	if err != nil {
		h.Send(ConnectResult{err: err})
		http.Error(w, "Malformed callback", http.StatusBadRequest)
		return
	}

	if payload.Type == "" {
		h.Send(ConnectResult{err: fmt.Errorf("%w: callback has no event type", shared.ErrConnectFailed)})
		http.Error(w, "Missing event type", http.StatusBadRequest)
		return
	}

	ev := &models.ConnectEvent{Type: payload.Type, Data: payload.Data, Message: payload.Message}
	h.Send(ConnectResult{Event: ev})

	page := resultPage{Title: "Account Connected", Body: "You can close this window and return to the terminal.", OK: true}
	if !ev.Succeeded() {
		page = resultPage{Title: "Connection Failed", Body: "Return to the terminal to try again."}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = resultTemplate.Execute(w, page)
}

// decodeCallback reads a POST JSON body or the type, data, message and state query parameters.
func decodeCallback(r *http.Request) (callbackPayload, error) {
	q := r.URL.Query()
	p := callbackPayload{State: q.Get("state")}

	if r.Method == http.MethodPost {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
		if err != nil {
			return p, fmt.Errorf("%w: failed to read callback: %v", shared.ErrConnectFailed, err)
		}
		var posted callbackPayload
		if err := json.Unmarshal(body, &posted); err != nil {
			return p, fmt.Errorf("%w: failed to decode callback: %v", shared.ErrConnectFailed, err)
		}
		if posted.State == "" {
			posted.State = p.State
		}
		return posted, nil
	}

	p.Type = q.Get("type")
	p.Message = q.Get("message")
	if data := q.Get("data"); data != "" {
		if err := json.Unmarshal([]byte(data), &p.Data); err != nil {
			return p, fmt.Errorf("%w: failed to decode callback data: %v", shared.ErrConnectFailed, err)
		}
	}
	return p, nil
}

// Send sends the result through the channel (only once).
func (h *ConnectHandler) Send(result ConnectResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the result channel for receiving the completion event.
//
// Channel will receive exactly one result and then be closed.
func (h *ConnectHandler) Result() <-chan ConnectResult {
	return h.resultChan
}

type resultPage struct {
	Title string
	Body  string
	OK    bool
}

var resultTemplate = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Title}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f5f5; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { margin: 0 0 1rem 0; color: {{if .OK}}#7C3AED{{else}}#DC2626{{end}}; }
        p { color: #666; margin: 0; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>
        <p>{{.Body}}</p>
    </div>
</body>
</html>
`))
