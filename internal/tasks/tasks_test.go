package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/mazeed/internal/formatter"
	"github.com/desertthunder/mazeed/internal/models"
	"github.com/desertthunder/mazeed/internal/shared"
	th "github.com/desertthunder/mazeed/internal/testing"
	"github.com/desertthunder/mazeed/internal/toast"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type fakeJobs struct {
	mu        sync.Mutex
	created   []models.TransformationRequest
	createErr error
	getJobs   []*models.TransformationJob
	getErrs   []error
	gets      int
	pages     [][]models.TransformationJob
	lists     int
	cancelErr error
	cancelled []models.ID
}

func (f *fakeJobs) CreateJob(_ context.Context, req models.TransformationRequest) (models.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, req)
	return "job-1", nil
}

// ListJobs returns the scripted pages in order, repeating the last one.
func (f *fakeJobs) ListJobs(context.Context, int, int) ([]models.TransformationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := min(f.lists, len(f.pages)-1)
	f.lists++
	if i < 0 {
		return nil, nil
	}
	return f.pages[i], nil
}

// GetJob returns the scripted responses in order, repeating the last one.
func (f *fakeJobs) GetJob(context.Context, models.ID) (*models.TransformationJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.gets
	f.gets++
	if i < len(f.getErrs) && f.getErrs[i] != nil {
		return nil, f.getErrs[i]
	}
	if len(f.getJobs) == 0 {
		return nil, shared.ErrJobNotFound
	}
	return f.getJobs[min(i, len(f.getJobs)-1)], nil
}

func (f *fakeJobs) CancelJob(_ context.Context, id models.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancelErr != nil {
		return f.cancelErr
	}
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeJobs) TransformedMedia(_ context.Context, id models.ID) (*models.TransformedItem, error) {
	return &models.TransformedItem{ItemID: id}, nil
}

type fakeUploads struct {
	youtube []models.YouTubeUploadRequest
	tiktok  []models.TikTokUploadRequest
	err     error
}

func (f *fakeUploads) UploadTikTok(_ context.Context, req models.TikTokUploadRequest) error {
	f.tiktok = append(f.tiktok, req)
	return f.err
}

func (f *fakeUploads) UploadYouTube(_ context.Context, req models.YouTubeUploadRequest) error {
	f.youtube = append(f.youtube, req)
	return f.err
}

type fakeHistory struct {
	records []*models.JobRecord
	synced  int
}

func (f *fakeHistory) Create(job *models.JobRecord) error {
	f.records = append(f.records, job)
	return nil
}

func (f *fakeHistory) Sync(string, []models.TransformationJob) error {
	f.synced++
	return nil
}

// waits records requested sleeps and returns immediately.
type waits struct {
	mu sync.Mutex
	d  []time.Duration
}

func (w *waits) after(d time.Duration) <-chan time.Time {
	w.mu.Lock()
	w.d = append(w.d, d)
	w.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

type harness struct {
	runner  *JobRunner
	jobs    *fakeJobs
	uploads *fakeUploads
	history *fakeHistory
	toasts  *th.ToastRecorder
	opened  *th.Opened
	waits   *waits
}

func newHarness(t *testing.T, mutate func(*RunnerOpts)) *harness {
	t.Helper()
	h := &harness{
		jobs:    &fakeJobs{},
		uploads: &fakeUploads{},
		history: &fakeHistory{},
		toasts:  &th.ToastRecorder{},
		opened:  &th.Opened{},
		waits:   &waits{},
	}
	opts := RunnerOpts{
		Jobs:     h.jobs,
		Uploads:  h.uploads,
		History:  h.history,
		UserID:   func() (models.ID, error) { return "user-1", nil },
		Notifier: h.toasts,
		Polling: PollOpts{
			Interval:      time.Second,
			MaxInterval:   3 * time.Second,
			Backoff:       2,
			MaxAttempts:   4,
			QueueInterval: time.Second,
		},
		Downloads: DownloadOpts{OutputDir: t.TempDir(), RateLimit: 1000, CDNHosts: []string{"cdn.test"}},
		Open:      h.opened.Open,
		After:     h.waits.after,
	}
	if mutate != nil {
		mutate(&opts)
	}
	h.runner = NewJobRunner(opts)
	return h
}

func mediaServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/ok"):
			w.Write(pngHeader)
		case r.URL.Path == "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSubmit(t *testing.T) {
	sources := []models.MediaSource{{PlatformMediaID: "r1", MediaURL: "https://example.com/r1.mp4", MediaType: "Reel"}}

	t.Run("defaults aspect ratio and records history", func(t *testing.T) {
		h := newHarness(t, nil)
		id, err := h.runner.Submit(context.Background(), sources, models.YouTube, models.TransformationOptions{})
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if id != "job-1" {
			t.Errorf("expected job-1, got %s", id)
		}
		if got := h.jobs.created[0].Options.AspectRatio; got != models.AspectVertical {
			t.Errorf("expected default aspect ratio, got %q", got)
		}
		if got := h.jobs.created[0].TargetPlatforms; len(got) != 1 || got[0] != models.YouTube {
			t.Errorf("unexpected target platforms: %v", got)
		}
		if len(h.history.records) != 1 {
			t.Fatalf("expected 1 history record, got %d", len(h.history.records))
		}
		rec := h.history.records[0]
		if rec.Status() != models.StatusQueued || rec.UserID() != "user-1" || rec.MediaCount() != 1 {
			t.Errorf("unexpected record: status=%s user=%s count=%d", rec.Status(), rec.UserID(), rec.MediaCount())
		}
	})

	t.Run("keeps explicit options", func(t *testing.T) {
		h := newHarness(t, nil)
		opts := models.TransformationOptions{AspectRatio: models.AspectOriginal, AddCaptions: true}
		if _, err := h.runner.Submit(context.Background(), sources, models.TikTok, opts); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		if got := h.jobs.created[0].Options; got.AspectRatio != models.AspectOriginal || !got.AddCaptions {
			t.Errorf("options not preserved: %+v", got)
		}
	})

	t.Run("rejects empty selection", func(t *testing.T) {
		h := newHarness(t, nil)
		if _, err := h.runner.Submit(context.Background(), nil, models.YouTube, models.TransformationOptions{}); !errors.Is(err, shared.ErrEmptySelection) {
			t.Errorf("expected ErrEmptySelection, got %v", err)
		}
	})

	t.Run("rejects source platform", func(t *testing.T) {
		h := newHarness(t, nil)
		if _, err := h.runner.Submit(context.Background(), sources, models.Instagram, models.TransformationOptions{}); !errors.Is(err, shared.ErrUnsupportedPlatform) {
			t.Errorf("expected ErrUnsupportedPlatform, got %v", err)
		}
	})

	t.Run("backend failure records nothing", func(t *testing.T) {
		h := newHarness(t, nil)
		h.jobs.createErr = shared.ErrAPIRequest
		if _, err := h.runner.Submit(context.Background(), sources, models.YouTube, models.TransformationOptions{}); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if len(h.history.records) != 0 {
			t.Error("history should stay empty on failure")
		}
	})
}

func TestPollPreview(t *testing.T) {
	pending := &models.TransformationJob{JobID: "job-1", Status: models.StatusProcessing}
	ready := &models.TransformationJob{
		JobID:  "job-1",
		Status: models.StatusProcessing,
		Items:  []models.TransformedItem{{ItemID: "i1", TransformedMediaURL: "https://cdn.test/i1.mp4"}},
	}

	t.Run("returns once the first item is ready", func(t *testing.T) {
		h := newHarness(t, nil)
		h.jobs.getJobs = []*models.TransformationJob{pending, pending, ready}
		progress := make(chan ProgressUpdate, 10)

		job, err := h.runner.PollPreview(context.Background(), "job-1", progress)
		if err != nil {
			t.Fatalf("PollPreview failed: %v", err)
		}
		if item, ok := job.Preview(); !ok || item.ItemID != "i1" {
			t.Errorf("expected preview i1, got %+v", job)
		}
		if h.jobs.gets != 3 {
			t.Errorf("expected 3 fetches, got %d", h.jobs.gets)
		}
		if len(progress) != 3 {
			t.Errorf("expected 3 progress updates, got %d", len(progress))
		}
	})

	t.Run("backs off up to the cap then times out", func(t *testing.T) {
		h := newHarness(t, nil)
		h.jobs.getJobs = []*models.TransformationJob{pending}

		_, err := h.runner.PollPreview(context.Background(), "job-1", nil)
		if !errors.Is(err, shared.ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}
		want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
		if len(h.waits.d) != len(want) {
			t.Fatalf("expected waits %v, got %v", want, h.waits.d)
		}
		for i := range want {
			if h.waits.d[i] != want[i] {
				t.Errorf("wait %d: expected %v, got %v", i, want[i], h.waits.d[i])
			}
		}
	})

	t.Run("transient errors keep polling", func(t *testing.T) {
		h := newHarness(t, nil)
		h.jobs.getErrs = []error{shared.ErrAPIRequest}
		h.jobs.getJobs = []*models.TransformationJob{nil, ready}

		if _, err := h.runner.PollPreview(context.Background(), "job-1", nil); err != nil {
			t.Fatalf("expected recovery after transient error, got %v", err)
		}
	})

	t.Run("failed job stops", func(t *testing.T) {
		h := newHarness(t, nil)
		h.jobs.getJobs = []*models.TransformationJob{{JobID: "job-1", Status: "failed"}}

		if _, err := h.runner.PollPreview(context.Background(), "job-1", nil); !errors.Is(err, shared.ErrJobFailed) {
			t.Errorf("expected ErrJobFailed, got %v", err)
		}
		if h.jobs.gets != 1 {
			t.Errorf("expected a single fetch, got %d", h.jobs.gets)
		}
	})

	t.Run("missing job stops", func(t *testing.T) {
		h := newHarness(t, nil)
		if _, err := h.runner.PollPreview(context.Background(), "job-1", nil); !errors.Is(err, shared.ErrJobNotFound) {
			t.Errorf("expected ErrJobNotFound, got %v", err)
		}
	})

	t.Run("cancelled context stops", func(t *testing.T) {
		h := newHarness(t, func(o *RunnerOpts) { o.After = func(time.Duration) <-chan time.Time { return nil } })
		h.jobs.getJobs = []*models.TransformationJob{pending}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := h.runner.PollPreview(ctx, "job-1", nil); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("requires job id", func(t *testing.T) {
		h := newHarness(t, nil)
		if _, err := h.runner.PollPreview(context.Background(), "", nil); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestQueue(t *testing.T) {
	active := []models.TransformationJob{{JobID: "job-1", Status: models.StatusProcessing}}
	settled := []models.TransformationJob{{JobID: "job-1", Status: models.StatusCompleted}}

	t.Run("WatchQueue stops when nothing is active", func(t *testing.T) {
		h := newHarness(t, nil)
		h.jobs.pages = [][]models.TransformationJob{active, active, settled}

		var seen [][]models.TransformationJob
		err := h.runner.WatchQueue(context.Background(), 1, 10, func(jobs []models.TransformationJob) {
			seen = append(seen, jobs)
		}, nil)
		if err != nil {
			t.Fatalf("WatchQueue failed: %v", err)
		}
		if len(seen) != 3 {
			t.Errorf("expected 3 updates, got %d", len(seen))
		}
		if h.history.synced != 3 {
			t.Errorf("expected 3 history syncs, got %d", h.history.synced)
		}
		if len(h.waits.d) != 2 {
			t.Errorf("expected 2 waits, got %d", len(h.waits.d))
		}
	})

	t.Run("WatchQueue settles on an unknown status", func(t *testing.T) {
		h := newHarness(t, nil)
		h.jobs.pages = [][]models.TransformationJob{{{JobID: "job-1", Status: "Cancelled"}}}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		updates := 0
		err := h.runner.WatchQueue(ctx, 1, 10, func([]models.TransformationJob) { updates++ }, nil)
		if err != nil {
			t.Fatalf("WatchQueue failed: %v", err)
		}
		if h.jobs.lists != 1 || updates != 1 {
			t.Errorf("expected a single fetch, got %d fetches and %d updates", h.jobs.lists, updates)
		}
		if len(h.waits.d) != 0 {
			t.Errorf("expected no waits, got %d", len(h.waits.d))
		}
	})

	t.Run("Cancel refetches the first page", func(t *testing.T) {
		h := newHarness(t, nil)
		h.jobs.pages = [][]models.TransformationJob{settled}

		jobs, err := h.runner.Cancel(context.Background(), "job-1")
		if err != nil {
			t.Fatalf("Cancel failed: %v", err)
		}
		if len(jobs) != 1 || len(h.jobs.cancelled) != 1 {
			t.Errorf("expected refetched queue and one cancellation, got %v / %v", jobs, h.jobs.cancelled)
		}
		if msg, _ := h.toasts.Last(); msg.Kind != toast.Success || msg.Text != "Transformation cancelled" {
			t.Errorf("unexpected toast: %+v", msg)
		}
	})

	t.Run("Cancel failure shows an error", func(t *testing.T) {
		h := newHarness(t, nil)
		h.jobs.cancelErr = shared.ErrAPIRequest

		if _, err := h.runner.Cancel(context.Background(), "job-1"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
		if h.toasts.Count(toast.Error) != 1 {
			t.Errorf("expected an error toast, got %+v", h.toasts.Messages)
		}
		if h.jobs.lists != 0 {
			t.Error("queue should not be refetched after a failed cancel")
		}
	})
}

func TestDownload(t *testing.T) {
	srv := mediaServer(t)

	t.Run("CDN media is opened directly", func(t *testing.T) {
		h := newHarness(t, nil)
		res, err := h.runner.Download(context.Background(), "https://video.cdn.test/v.mp4", "")
		if err != nil {
			t.Fatalf("Download failed: %v", err)
		}
		if res.Method != DirectOpen || h.opened.Count() != 1 {
			t.Errorf("expected direct open, got %v with %d opens", res.Method, h.opened.Count())
		}
	})

	t.Run("other media is saved with a detected extension", func(t *testing.T) {
		h := newHarness(t, nil)
		dest := filepath.Join(t.TempDir(), "clip")

		res, err := h.runner.Download(context.Background(), srv.URL+"/ok/video", dest)
		if err != nil {
			t.Fatalf("Download failed: %v", err)
		}
		if res.Method != Saved || res.Path != dest+".png" || res.MIME != "image/png" {
			t.Errorf("unexpected result: %+v", res)
		}
		if res.Bytes != int64(len(pngHeader)) {
			t.Errorf("expected %d bytes, got %d", len(pngHeader), res.Bytes)
		}
		th.AssertFileExists(t, res.Path)
		if h.opened.Count() != 0 {
			t.Error("saved media should not open the browser")
		}
	})

	t.Run("saves into the output directory by default", func(t *testing.T) {
		h := newHarness(t, nil)
		res, err := h.runner.Download(context.Background(), srv.URL+"/ok/reel.png", "")
		if err != nil {
			t.Fatalf("Download failed: %v", err)
		}
		if filepath.Base(res.Path) != "reel.png" || filepath.Dir(res.Path) != h.runner.dl.OutputDir {
			t.Errorf("unexpected path %s", res.Path)
		}
	})

	t.Run("failed fetch falls back to opening", func(t *testing.T) {
		h := newHarness(t, nil)
		dir := t.TempDir()

		res, err := h.runner.Download(context.Background(), srv.URL+"/broken", filepath.Join(dir, "x.mp4"))
		if err != nil {
			t.Fatalf("Download failed: %v", err)
		}
		if res.Method != FallbackOpen || h.opened.Count() != 1 {
			t.Errorf("expected fallback open, got %+v", res)
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("temp files should be cleaned up, found %d entries", len(entries))
		}
	})

	t.Run("fallback failure is reported", func(t *testing.T) {
		h := newHarness(t, nil)
		h.opened.Err = shared.ErrBrowserUnavailable

		if _, err := h.runner.Download(context.Background(), srv.URL+"/missing", ""); !errors.Is(err, shared.ErrDownloadFailed) {
			t.Errorf("expected ErrDownloadFailed, got %v", err)
		}
	})

	t.Run("rejects non-http urls", func(t *testing.T) {
		h := newHarness(t, nil)
		if _, err := h.runner.Download(context.Background(), "file:///etc/passwd", ""); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestBulkDownload(t *testing.T) {
	srv := mediaServer(t)

	t.Run("collects partial failures", func(t *testing.T) {
		h := newHarness(t, nil)
		dir := t.TempDir()
		reqs := []DownloadRequest{
			{Name: "a", URL: srv.URL + "/ok/a", Dest: filepath.Join(dir, "a")},
			{Name: "b", URL: srv.URL + "/missing", Dest: filepath.Join(dir, "b")},
			{Name: "c", URL: srv.URL + "/ok/c", Dest: filepath.Join(dir, "c")},
		}
		progress := make(chan ProgressUpdate, 20)

		res, err := h.runner.BulkDownload(context.Background(), reqs, progress)
		if err != nil {
			t.Fatalf("BulkDownload failed: %v", err)
		}
		if res.Total != 3 || res.Succeeded != 2 || res.Failed != 1 {
			t.Errorf("unexpected counts: %+v", res)
		}
		if h.opened.Count() != 0 {
			t.Error("bulk downloads must not open the browser")
		}
		th.AssertFileExists(t, filepath.Join(dir, "a.png"))
		if len(progress) == 0 {
			t.Error("expected progress updates")
		}
	})

	t.Run("DownloadJob writes a manifest", func(t *testing.T) {
		h := newHarness(t, nil)
		h.jobs.getJobs = []*models.TransformationJob{{
			JobID: "job-1",
			Items: []models.TransformedItem{
				{ItemID: "i1", TransformedMediaURL: srv.URL + "/ok/i1"},
				{ItemID: "i2"},
				{ItemID: "i3", TransformedMediaURL: srv.URL + "/missing"},
			},
		}}
		dir := t.TempDir()

		res, err := h.runner.DownloadJob(context.Background(), "job-1", dir, nil)
		if err != nil {
			t.Fatalf("DownloadJob failed: %v", err)
		}
		if res.Total != 2 || res.Succeeded != 1 || res.Failed != 1 {
			t.Errorf("unexpected counts: %+v", res)
		}
		th.AssertFileExists(t, filepath.Join(dir, "transformed-job-1-i1.png"))

		var m formatter.DownloadManifest
		if err := json.Unmarshal([]byte(th.MustReadFile(t, res.ManifestPath)), &m); err != nil {
			t.Fatalf("invalid manifest: %v", err)
		}
		if m.JobID != "job-1" || len(m.Entries) != 2 {
			t.Errorf("unexpected manifest: %+v", m)
		}
	})

	t.Run("DownloadJob needs ready media", func(t *testing.T) {
		h := newHarness(t, nil)
		h.jobs.getJobs = []*models.TransformationJob{{JobID: "job-1", Items: []models.TransformedItem{{ItemID: "i1"}}}}

		if _, err := h.runner.DownloadJob(context.Background(), "job-1", t.TempDir(), nil); !errors.Is(err, shared.ErrMediaNotReady) {
			t.Errorf("expected ErrMediaNotReady, got %v", err)
		}
	})
}

func TestUpload(t *testing.T) {
	item := models.TransformedItem{
		ItemID:              "i1",
		TargetPlatform:      models.YouTube,
		TransformedMediaURL: "https://cdn.test/i1.mp4",
		Caption:             "Morning run",
	}

	t.Run("YouTube uses the caption as title", func(t *testing.T) {
		h := newHarness(t, nil)
		if err := h.runner.Upload(context.Background(), item, UploadOpts{ChannelID: "ch"}, nil); err != nil {
			t.Fatalf("Upload failed: %v", err)
		}
		if len(h.uploads.youtube) != 1 {
			t.Fatalf("expected one YouTube upload, got %d", len(h.uploads.youtube))
		}
		req := h.uploads.youtube[0]
		if req.ChannelID != "ch" || req.UserID != "user-1" || req.Videos[0].Title != "Morning run" || req.Videos[0].FilePath != item.TransformedMediaURL {
			t.Errorf("unexpected request: %+v", req)
		}
		if msg, _ := h.toasts.Last(); msg.Text != "Successfully uploaded to YouTube" {
			t.Errorf("unexpected toast: %+v", msg)
		}
	})

	t.Run("TikTok sends the media url", func(t *testing.T) {
		h := newHarness(t, nil)
		if err := h.runner.Upload(context.Background(), item, UploadOpts{Platform: models.TikTok}, nil); err != nil {
			t.Fatalf("Upload failed: %v", err)
		}
		if len(h.uploads.tiktok) != 1 || h.uploads.tiktok[0].Media[0].URL != item.TransformedMediaURL {
			t.Errorf("unexpected TikTok requests: %+v", h.uploads.tiktok)
		}
	})

	t.Run("failure is wrapped and toasted", func(t *testing.T) {
		h := newHarness(t, nil)
		h.uploads.err = shared.ErrAPIRequest

		err := h.runner.Upload(context.Background(), item, UploadOpts{}, nil)
		if !errors.Is(err, shared.ErrUploadFailed) || !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected wrapped upload error, got %v", err)
		}
		if h.toasts.Count(toast.Error) != 1 {
			t.Errorf("expected error toast, got %+v", h.toasts.Messages)
		}
	})

	t.Run("not ready media is rejected", func(t *testing.T) {
		h := newHarness(t, nil)
		if err := h.runner.Upload(context.Background(), models.TransformedItem{ItemID: "i2"}, UploadOpts{}, nil); !errors.Is(err, shared.ErrMediaNotReady) {
			t.Errorf("expected ErrMediaNotReady, got %v", err)
		}
	})

	t.Run("Instagram is not a destination", func(t *testing.T) {
		h := newHarness(t, nil)
		if err := h.runner.Upload(context.Background(), item, UploadOpts{Platform: models.Instagram}, nil); !errors.Is(err, shared.ErrUnsupportedPlatform) {
			t.Errorf("expected ErrUnsupportedPlatform, got %v", err)
		}
	})
}
