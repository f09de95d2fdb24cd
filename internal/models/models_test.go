package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestID(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want ID
	}{
		{name: "string", in: `"abc"`, want: "abc"},
		{name: "integer", in: `42`, want: "42"},
		{name: "null", in: `null`, want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if id != tt.want {
				t.Errorf("got %q, want %q", id, tt.want)
			}
		})
	}

	t.Run("rejects objects", func(t *testing.T) {
		var id ID
		if err := json.Unmarshal([]byte(`{}`), &id); err == nil {
			t.Error("expected error for object id")
		}
	})
}

func TestTimestamp(t *testing.T) {
	want := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)

	tc := []struct {
		name string
		in   string
	}{
		{name: "rfc3339", in: `"2025-03-01T12:30:00Z"`},
		{name: "zoneless iso", in: `"2025-03-01T12:30:00"`},
		{name: "fractional zoneless", in: `"2025-03-01T12:30:00.0000000"`},
		{name: "epoch seconds", in: `1740832200`},
		{name: "epoch milliseconds", in: `1740832200000`},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			if err := json.Unmarshal([]byte(tt.in), &ts); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if !ts.Equal(want) {
				t.Errorf("got %v, want %v", ts.Time, want)
			}
		})
	}

	t.Run("zero marshals as null", func(t *testing.T) {
		data, _ := json.Marshal(Timestamp{})
		if string(data) != "null" {
			t.Errorf("expected null, got %s", data)
		}
	})

	t.Run("invalid string", func(t *testing.T) {
		var ts Timestamp
		if err := json.Unmarshal([]byte(`"yesterday"`), &ts); err == nil {
			t.Error("expected error for unrecognized timestamp")
		}
	})
}

func TestCredential(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("DecodeCredential unwraps login envelope", func(t *testing.T) {
		body := `{"token":{"accessToken":"a","refreshToken":"r","expiresAt":"2025-01-01T01:00:00Z","userId":42,"email":"me@mazeed.ai"}}`

		cred, err := DecodeCredential([]byte(body))
		if err != nil {
			t.Fatalf("DecodeCredential() error = %v", err)
		}
		if cred.UserID != "42" {
			t.Errorf("expected userId 42, got %q", cred.UserID)
		}
		if cred.Expired(now) {
			t.Error("credential should not be expired an hour before expiry")
		}
	})

	t.Run("DecodeCredential accepts bare refresh response", func(t *testing.T) {
		cred, err := DecodeCredential([]byte(`{"accessToken":"a2","refreshToken":"r2","expiresAt":"2025-01-01T02:00:00Z"}`))
		if err != nil {
			t.Fatalf("DecodeCredential() error = %v", err)
		}
		if cred.AccessToken != "a2" {
			t.Errorf("expected access token a2, got %q", cred.AccessToken)
		}
	})

	t.Run("DecodeCredential requires access token", func(t *testing.T) {
		if _, err := DecodeCredential([]byte(`{"token":{}}`)); err == nil {
			t.Error("expected error for missing access token")
		}
	})

	t.Run("Expired at exact expiry", func(t *testing.T) {
		cred := &Credential{AccessToken: "a", ExpiresAt: NewTimestamp(now)}
		if !cred.Expired(now) {
			t.Error("credential should be expired when now equals expiresAt")
		}
		if cred.Expired(now.Add(-time.Second)) {
			t.Error("credential should be valid before expiresAt")
		}
	})

	t.Run("Expiry falls back to JWT exp claim", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{
			"exp":    now.Add(time.Hour).Unix(),
			"userId": "7",
			"email":  "claims@mazeed.ai",
		})

		cred, err := DecodeCredential([]byte(`{"accessToken":"` + token + `"}`))
		if err != nil {
			t.Fatalf("DecodeCredential() error = %v", err)
		}
		if !cred.Expiry().Equal(now.Add(time.Hour)) {
			t.Errorf("expected expiry from claims, got %v", cred.Expiry())
		}
		if cred.UserID != "7" || cred.Email != "claims@mazeed.ai" {
			t.Errorf("expected profile from claims, got %+v", cred)
		}
	})

	t.Run("opaque token without expiry never expires", func(t *testing.T) {
		cred := &Credential{AccessToken: "opaque"}
		if cred.Expired(now.AddDate(10, 0, 0)) {
			t.Error("opaque token with no expiresAt should not expire")
		}
	})

	t.Run("Merge keeps profile fields", func(t *testing.T) {
		prev := &Credential{UserID: "42", FirstName: "Sam", Email: "sam@mazeed.ai", RefreshToken: "old"}
		next := &Credential{AccessToken: "new"}
		next.Merge(prev)

		if next.UserID != "42" || next.FirstName != "Sam" || next.RefreshToken != "old" {
			t.Errorf("Merge() lost fields: %+v", next)
		}
		if next.DisplayName() != "Sam" {
			t.Errorf("DisplayName() = %q", next.DisplayName())
		}
	})
}

func TestPlatform(t *testing.T) {
	tc := []struct {
		in   string
		want Platform
	}{
		{"youtube", YouTube},
		{"YT", YouTube},
		{"TikTok", TikTok},
		{"instagram", Instagram},
	}
	for _, tt := range tc {
		got, err := ParsePlatform(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParsePlatform(%q) = %q, %v", tt.in, got, err)
		}
	}

	if _, err := ParsePlatform("myspace"); err == nil {
		t.Error("expected error for unknown platform")
	}
	if YouTube.ConnectPath() != "Youtube" {
		t.Errorf("unexpected connect path %q", YouTube.ConnectPath())
	}
	if Instagram.IsDestination() {
		t.Error("instagram is not a destination")
	}
}

func TestConnectEvent(t *testing.T) {
	var ev ConnectEvent
	body := `{"type":"instagram-auth-success","data":{"reels":[{"Id":"r1","MediaType":"Reel","PlayCount":10}],"accountIds":["a1"]}}`
	if err := json.Unmarshal([]byte(body), &ev); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !ev.Succeeded() {
		t.Error("expected success event")
	}
	p, err := ev.Platform()
	if err != nil || p != Instagram {
		t.Errorf("Platform() = %q, %v", p, err)
	}
	if len(ev.Data.Reels) != 1 || !ev.Data.Reels[0].IsReel() {
		t.Errorf("unexpected reels %+v", ev.Data.Reels)
	}

	failed := ConnectEvent{Type: "tiktok-auth-error"}
	if failed.Succeeded() {
		t.Error("error event should not succeed")
	}
}

func TestJobs(t *testing.T) {
	t.Run("status casing", func(t *testing.T) {
		tc := []struct {
			status   JobStatus
			terminal bool
		}{
			{"queued", false},
			{"Pending", false},
			{"processing", false},
			{"COMPLETED", true},
			{"failed", true},
		}
		for _, tt := range tc {
			if got := tt.status.Terminal(); got != tt.terminal {
				t.Errorf("%q.Terminal() = %v, want %v", tt.status, got, tt.terminal)
			}
		}
	})

	t.Run("Preview waits on first item", func(t *testing.T) {
		job := TransformationJob{Items: []TransformedItem{{ItemID: "1"}, {ItemID: "2", TransformedMediaURL: "https://cdn/x.mp4"}}}
		if _, ok := job.Preview(); ok {
			t.Error("preview should not be ready while first item is empty")
		}
		if item, ok := job.FirstReady(); !ok || item.ItemID != "2" {
			t.Errorf("FirstReady() = %+v, %v", item, ok)
		}
	})

	t.Run("LatestJob prefers active", func(t *testing.T) {
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		jobs := []TransformationJob{
			{JobID: "old-done", Status: StatusCompleted, CreatedAt: NewTimestamp(base)},
			{JobID: "new-done", Status: StatusCompleted, CreatedAt: NewTimestamp(base.Add(2 * time.Hour))},
			{JobID: "running", Status: "processing", CreatedAt: NewTimestamp(base.Add(time.Hour))},
		}

		got, ok := LatestJob(jobs)
		if !ok || got.JobID != "running" {
			t.Errorf("LatestJob() = %q, want running", got.JobID)
		}

		got, _ = LatestJob(jobs[:2])
		if got.JobID != "new-done" {
			t.Errorf("LatestJob() = %q, want new-done", got.JobID)
		}

		if _, ok := LatestJob([]TransformationJob{{Status: StatusFailed}}); ok {
			t.Error("failed jobs should not be selected")
		}
	})

	t.Run("AnyActive", func(t *testing.T) {
		if AnyActive([]TransformationJob{{Status: StatusCompleted}, {Status: StatusFailed}}) {
			t.Error("terminal jobs are not active")
		}
		if !AnyActive([]TransformationJob{{Status: "Pending"}}) {
			t.Error("pending job is active")
		}
		for _, s := range []JobStatus{"", "Cancelled", "deleted"} {
			if s.Active() {
				t.Errorf("%q.Active() = true, want false", s)
			}
		}
	})

	t.Run("JobRecord Validate", func(t *testing.T) {
		rec := NewJobRecord("job-1", "42", YouTube, 2)
		if err := rec.Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
		rec.SetPlatform(Instagram)
		if err := rec.Validate(); err == nil {
			t.Error("instagram record should be invalid")
		}

		rec.Sync(TransformationJob{Status: "completed", MediaCount: 3})
		if rec.Status() != StatusCompleted || rec.MediaCount() != 3 {
			t.Errorf("Sync() did not copy state: %s %d", rec.Status(), rec.MediaCount())
		}
	})
}
