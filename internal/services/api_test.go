package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tu "github.com/desertthunder/mazeed/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("defaults", func(t *testing.T) {
			srv := NewAPIService("", nil)
			if srv.baseURL != DefaultBaseURL {
				t.Errorf("expected default baseURL %s, got %s", DefaultBaseURL, srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("trims trailing slash", func(t *testing.T) {
			srv := NewAPIService("http://example.com/api/", nil)
			if srv.baseURL != "http://example.com/api" {
				t.Errorf("unexpected baseURL %s", srv.baseURL)
			}
		})
	})

	t.Run("Methods", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			w.Header().Set("X-Method", r.Method)
			switch r.URL.Path {
			case "/json":
				w.WriteHeader(http.StatusOK)
				json.NewEncoder(w).Encode(map[string]string{"method": r.Method, "body": string(body)})
			case "/text":
				w.WriteHeader(http.StatusAccepted)
				w.Write([]byte("plain text response"))
			default:
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte(`{"message":"Job not found"}`))
			}
		}))
		defer server.Close()

		srv := NewAPIService(server.URL, nil)
		ctx := context.Background()

		tc := []struct {
			name   string
			call   func() (*APIResponse, error)
			method string
			status int
			isJSON bool
		}{
			{
				name:   "Get JSON",
				call:   func() (*APIResponse, error) { return srv.Get(ctx, "/json") },
				method: http.MethodGet, status: http.StatusOK, isJSON: true,
			},
			{
				name:   "Get without leading slash",
				call:   func() (*APIResponse, error) { return srv.Get(ctx, "json") },
				method: http.MethodGet, status: http.StatusOK, isJSON: true,
			},
			{
				name:   "Post JSON",
				call:   func() (*APIResponse, error) { return srv.Post(ctx, "/json", []byte(`{"page":1}`)) },
				method: http.MethodPost, status: http.StatusOK, isJSON: true,
			},
			{
				name:   "Delete text",
				call:   func() (*APIResponse, error) { return srv.Delete(ctx, "/text") },
				method: http.MethodDelete, status: http.StatusAccepted, isJSON: false,
			},
			{
				name:   "non-2xx is not an error",
				call:   func() (*APIResponse, error) { return srv.Get(ctx, "/missing") },
				method: http.MethodGet, status: http.StatusNotFound, isJSON: true,
			},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				resp, err := tt.call()
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if resp.StatusCode != tt.status {
					t.Errorf("expected status %d, got %d", tt.status, resp.StatusCode)
				}
				if resp.Headers.Get("X-Method") != tt.method {
					t.Errorf("expected method %s, got %s", tt.method, resp.Headers.Get("X-Method"))
				}
				if resp.IsJSON != tt.isJSON {
					t.Errorf("expected IsJSON %v", tt.isJSON)
				}
				if resp.OK() != (tt.status < 300) {
					t.Errorf("OK() = %v for status %d", resp.OK(), tt.status)
				}
			})
		}

		t.Run("Post forwards body", func(t *testing.T) {
			resp, err := srv.Post(ctx, "/json", []byte(`{"page":1}`))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			data := resp.JSONData.(map[string]any)
			if data["body"] != `{"page":1}` {
				t.Errorf("expected body to round trip, got %v", data["body"])
			}
		})
	})

	t.Run("Errors", func(t *testing.T) {
		t.Run("Failed Request Creation", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil)
			_, err := srv.Get(context.Background(), "/test\x00invalid")
			if err == nil || !strings.Contains(err.Error(), "failed to create request") {
				t.Errorf("expected 'failed to create request' error, got %v", err)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection failed"))}
			srv := NewAPIService("http://example.com", client)

			_, err := srv.Post(context.Background(), "/test", []byte("{}"))
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected 'request failed' error, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     http.Header{},
				}, nil),
			}
			srv := NewAPIService("http://example.com", client)

			_, err := srv.Delete(context.Background(), "/test")
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected 'failed to read response' error, got %v", err)
			}
		})

		t.Run("With Canceled Context", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			if _, err := NewAPIService(server.URL, nil).Get(ctx, "/test"); err == nil {
				t.Error("expected error for canceled context")
			}
		})
	})
}
