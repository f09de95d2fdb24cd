package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
)

var getRuntime = func() string { return runtime.GOOS }

var startCommand = func(cmd *exec.Cmd) error { return cmd.Start() }

// Opener hands a URL to something outside the process, usually the system browser.
type Opener func(rawURL string) error

// OpenBrowser opens the default system browser to the specified URL.
//
// Only http and https URLs are accepted. Supports macOS, Linux, and Windows platforms.
func OpenBrowser(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: refusing to open %q", ErrInvalidArgument, rawURL)
	}

	var cmd *exec.Cmd
	rt := getRuntime()
	switch rt {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "linux":
		cmd = exec.Command("xdg-open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return fmt.Errorf("%w: unsupported platform: %s", ErrBrowserUnavailable, rt)
	}

	if err := startCommand(cmd); err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserUnavailable, err)
	}

	return nil
}
