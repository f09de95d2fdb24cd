package tasks

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/desertthunder/mazeed/internal/shared"
	"github.com/h2non/filetype"
)

// DefaultCDNHosts serve media that refuses cross-origin fetches; those URLs are opened directly.
var DefaultCDNHosts = []string{"cdninstagram.com", "fbcdn.net"}

// fallbackExtension is used when the file type cannot be detected.
const fallbackExtension = "mp4"

// DownloadOpts controls where and how media is saved.
type DownloadOpts struct {
	OutputDir string   // Directory for downloads without an explicit destination (default: ".")
	Workers   int      // Concurrent bulk download workers (default: 5, max 10)
	RateLimit float64  // Bulk requests per second (default: 5)
	CDNHosts  []string // Host suffixes opened directly instead of fetched
}

// DownloadOptsFromConfig converts the downloads config section.
func DownloadOptsFromConfig(c shared.DownloadsConfig) DownloadOpts {
	return DownloadOpts{
		OutputDir: c.OutputDir,
		Workers:   c.Workers,
		RateLimit: c.RateLimit,
		CDNHosts:  c.CDNHosts,
	}.withDefaults()
}

func (o DownloadOpts) withDefaults() DownloadOpts {
	if o.OutputDir == "" {
		o.OutputDir = "."
	}
	if o.Workers <= 0 {
		o.Workers = 5
	}
	if o.Workers > 10 {
		o.Workers = 10
	}
	if o.RateLimit <= 0 {
		o.RateLimit = 5.0
	}
	if len(o.CDNHosts) == 0 {
		o.CDNHosts = DefaultCDNHosts
	}
	return o
}

// DownloadMethod tells how a download was delivered.
type DownloadMethod int

const (
	// DirectOpen handed a CDN URL to the browser.
	DirectOpen DownloadMethod = iota
	// Saved wrote the bytes to disk.
	Saved
	// FallbackOpen handed the URL to the browser after fetching failed.
	FallbackOpen
)

func (m DownloadMethod) String() string {
	switch m {
	case DirectOpen:
		return "direct"
	case Saved:
		return "saved"
	case FallbackOpen:
		return "fallback"
	default:
		return "unknown"
	}
}

// DownloadResult describes a finished download.
type DownloadResult struct {
	URL    string
	Path   string
	Method DownloadMethod
	Bytes  int64
	MIME   string
}

// Describe is a one-line summary for display.
func (d DownloadResult) Describe() string {
	if d.Method == Saved {
		return fmt.Sprintf("saved %s (%d bytes)", d.Path, d.Bytes)
	}
	return fmt.Sprintf("opened %s in browser", d.URL)
}

func (r *JobRunner) isCDN(host string) bool {
	host = strings.ToLower(host)
	for _, h := range r.dl.CDNHosts {
		h = strings.ToLower(strings.TrimPrefix(h, "."))
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Download retrieves rawURL in one of three ways. CDN URLs are opened directly.
// Anything else is fetched into dest; when the fetch fails the URL is opened
// directly instead.
//
// An empty dest saves into the output directory under a name taken from the URL.
// A dest without an extension gets one from the detected file type.
func (r *JobRunner) Download(ctx context.Context, rawURL, dest string) (DownloadResult, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return DownloadResult{}, fmt.Errorf("%w: media url %q", shared.ErrInvalidArgument, rawURL)
	}

	if r.isCDN(u.Hostname()) {
		if err := r.open(rawURL); err != nil {
			return DownloadResult{}, fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
		}
		r.logger.Debug("opened cdn media", "url", rawURL)
		return DownloadResult{URL: rawURL, Method: DirectOpen}, nil
	}

	res, err := r.save(ctx, u, dest)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return DownloadResult{}, ctx.Err()
	}

	r.logger.Warn("fetch failed, opening media directly", "url", rawURL, "error", err)
	if openErr := r.open(rawURL); openErr != nil {
		return DownloadResult{}, fmt.Errorf("%w: %v (direct open: %v)", shared.ErrDownloadFailed, err, openErr)
	}
	return DownloadResult{URL: rawURL, Method: FallbackOpen}, nil
}

// save streams u into a temp file next to dest and renames it into place.
// The temp file is removed on any failure.
func (r *JobRunner) save(ctx context.Context, u *url.URL, dest string) (res DownloadResult, err error) {
	dest, err = r.destination(u, dest)
	if err != nil {
		return res, err
	}
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return res, fmt.Errorf("failed to create output directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return res, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return res, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return res, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(dir, ".mazeed-download-*")
	if err != nil {
		return res, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	head := make([]byte, 261)
	n, err := io.ReadFull(resp.Body, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return res, fmt.Errorf("failed to read body: %w", err)
	}
	head = head[:n]
	if _, err = tmp.Write(head); err != nil {
		return res, fmt.Errorf("failed to write temp file: %w", err)
	}
	rest, err := io.Copy(tmp, resp.Body)
	if err != nil {
		return res, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return res, fmt.Errorf("failed to close temp file: %w", err)
	}

	kind, _ := filetype.Match(head)
	if filepath.Ext(dest) == "" {
		ext := fallbackExtension
		if kind != filetype.Unknown {
			ext = kind.Extension
		}
		dest += "." + ext
	}

	if err = os.Rename(tmp.Name(), dest); err != nil {
		return res, fmt.Errorf("failed to move download into place: %w", err)
	}

	res = DownloadResult{URL: u.String(), Path: dest, Method: Saved, Bytes: int64(n) + rest}
	if kind != filetype.Unknown {
		res.MIME = kind.MIME.Value
	}
	r.logger.Info("media saved", "path", dest, "bytes", res.Bytes, "mime", res.MIME)
	return res, nil
}

// destination resolves where a download lands.
func (r *JobRunner) destination(u *url.URL, dest string) (string, error) {
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		name = "mazeed-video"
	}

	if dest == "" {
		return filepath.Join(r.dl.OutputDir, name), nil
	}
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		return filepath.Join(dest, name), nil
	}
	return dest, nil
}
