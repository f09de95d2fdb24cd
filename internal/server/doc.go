// Package server runs the local listener that receives connect flow completion events.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Connect Callback
//
// Linking Instagram, YouTube or TikTok happens in the system browser. The backend finishes
// the flow by delivering a completion event {type, data} to http://127.0.0.1:<port>/callback,
// either as a JSON POST or as query parameters.
//
// [ConnectHandler] validates the state parameter and forwards exactly one event through its
// result channel. Later requests are rejected.
//
// [ConnectFlow] ties it together: it starts the listener, opens the browser at the connect
// URL and waits for the event or the timeout. When the browser cannot be opened a warning
// toast carries the URL so the user can open it by hand.
package server
