package shared

import (
	"errors"
	"os/exec"
	"testing"
)

func TestOpenBrowser(t *testing.T) {
	origRuntime, origStart := getRuntime, startCommand
	t.Cleanup(func() { getRuntime, startCommand = origRuntime, origStart })

	var launched []string
	startCommand = func(cmd *exec.Cmd) error {
		launched = cmd.Args
		return nil
	}

	tt := []struct {
		name    string
		goos    string
		url     string
		wantCmd string
		wantErr error
	}{
		{name: "linux uses xdg-open", goos: "linux", url: "https://api.mazeed.ai/api/Youtube/connect", wantCmd: "xdg-open"},
		{name: "darwin uses open", goos: "darwin", url: "https://mazeed.ai", wantCmd: "open"},
		{name: "windows uses rundll32", goos: "windows", url: "https://mazeed.ai", wantCmd: "rundll32"},
		{name: "unsupported platform", goos: "plan9", url: "https://mazeed.ai", wantErr: ErrBrowserUnavailable},
		{name: "non http scheme rejected", goos: "linux", url: "file:///etc/passwd", wantErr: ErrInvalidArgument},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			launched = nil
			getRuntime = func() string { return tc.goos }

			err := OpenBrowser(tc.url)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(launched) == 0 || launched[0] != tc.wantCmd {
				t.Errorf("expected %s to be launched, got %v", tc.wantCmd, launched)
			}
			if launched[len(launched)-1] != tc.url {
				t.Errorf("expected URL as last argument, got %v", launched)
			}
		})
	}

	t.Run("start failure is wrapped", func(t *testing.T) {
		getRuntime = func() string { return "linux" }
		startCommand = func(*exec.Cmd) error { return errors.New("no display") }

		if err := OpenBrowser("https://mazeed.ai"); !errors.Is(err, ErrBrowserUnavailable) {
			t.Errorf("expected ErrBrowserUnavailable, got %v", err)
		}
	})
}
