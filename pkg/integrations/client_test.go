package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	headers := map[string]string{"Authorization": "Bearer token"}
	client := NewClient(headers, time.Second)

	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.http == nil {
		t.Error("NewClient() http client is nil")
	}
	if client.timeout != time.Second {
		t.Errorf("NewClient() timeout = %v, want 1s", client.timeout)
	}
	if client.headers["Authorization"] != "Bearer token" {
		t.Error("NewClient() headers not set correctly")
	}
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(nil, 0)

	if client.headers != nil {
		t.Error("NewClient() should allow nil headers")
	}
	if client.timeout != httpTimeout {
		t.Errorf("NewClient() timeout = %v, want %v", client.timeout, httpTimeout)
	}
}

func TestClientGet(t *testing.T) {
	type response struct {
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Link", `<http://example/next>; rel="next"`)
		json.NewEncoder(w).Encode(response{Message: "hello"})
	}))
	defer server.Close()

	client := NewClient(nil, time.Second)
	client.SetHTTPClient(server.Client())

	var resp response
	hdr, err := client.Get(context.Background(), server.URL, &resp)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("Get() message = %q, want %q", resp.Message, "hello")
	}
	if hdr.Get("Link") == "" {
		t.Error("Get() should return response headers")
	}
}

func TestClientGetWithHeadersOverridesDefaults(t *testing.T) {
	var gotOverride, gotDefault string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOverride = r.Header.Get("X-Override")
		gotDefault = r.Header.Get("X-Default")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := NewClient(map[string]string{"X-Override": "default", "X-Default": "kept"}, time.Second)
	client.SetHTTPClient(server.Client())

	var resp map[string]string
	_, err := client.GetWithHeaders(context.Background(), server.URL, map[string]string{"X-Override": "overridden"}, &resp)
	if err != nil {
		t.Fatalf("GetWithHeaders() error: %v", err)
	}
	if gotOverride != "overridden" {
		t.Errorf("header = %q, want %q", gotOverride, "overridden")
	}
	if gotDefault != "kept" {
		t.Errorf("default header = %q, want %q", gotDefault, "kept")
	}
}

func TestClientGetStatusErrors(t *testing.T) {
	tests := []struct {
		name string
		code int
		want error
	}{
		{"404", http.StatusNotFound, ErrNotFound},
		{"403", http.StatusForbidden, ErrNetwork},
		{"500", http.StatusInternalServerError, ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
			}))
			defer server.Close()

			client := NewClient(nil, time.Second)
			client.SetHTTPClient(server.Client())

			var resp map[string]string
			_, err := client.Get(context.Background(), server.URL, &resp)
			if !errors.Is(err, tt.want) {
				t.Errorf("Get() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClientGetMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{not json"))
	}))
	defer server.Close()

	client := NewClient(nil, time.Second)
	client.SetHTTPClient(server.Client())

	var resp map[string]string
	if _, err := client.Get(context.Background(), server.URL, &resp); !errors.Is(err, ErrNetwork) {
		t.Errorf("Get() error = %v, want ErrNetwork", err)
	}
}

func TestClientGetTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(nil, 20*time.Millisecond)
	client.SetHTTPClient(server.Client())

	var resp map[string]string
	_, err := client.Get(context.Background(), server.URL, &resp)
	if !errors.Is(err, ErrNetwork) {
		t.Errorf("Get() error = %v, want ErrNetwork", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Get() error = %v, want DeadlineExceeded in chain", err)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		wantErr  bool
		wantType error
	}{
		{"200 OK", 200, false, nil},
		{"204 No Content", 204, false, nil},
		{"404 Not Found", 404, true, ErrNotFound},
		{"500 Internal Server Error", 500, true, ErrNetwork},
		{"502 Bad Gateway", 502, true, ErrNetwork},
		{"400 Bad Request", 400, true, ErrNetwork},
		{"403 Forbidden", 403, true, ErrNetwork},
		{"304 Not Modified", 304, true, ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkStatus(tt.code)

			if !tt.wantErr {
				if err != nil {
					t.Errorf("checkStatus() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("checkStatus() should return error")
			}
			if !errors.Is(err, tt.wantType) {
				t.Errorf("checkStatus() error = %v, want %v", err, tt.wantType)
			}
		})
	}
}

func TestHasNextPage(t *testing.T) {
	tests := []struct {
		name          string
		links         []string
		wantPaginated bool
		wantNext      bool
	}{
		{"no header", nil, false, false},
		{"next and last", []string{`<https://x/r?page=2>; rel="next", <https://x/r?page=5>; rel="last"`}, true, true},
		{"last page", []string{`<https://x/r?page=1>; rel="first", <https://x/r?page=4>; rel="prev"`}, true, false},
		{"unquoted rel", []string{`<https://x/r?page=2>; rel=next`}, true, true},
		{"multi-valued rel", []string{`<https://x/r?page=2>; rel="last next"`}, true, true},
		{"split across headers", []string{`<https://x/r?page=1>; rel="prev"`, `<https://x/r?page=3>; rel="next"`}, true, true},
		{"empty value", []string{""}, false, false},
		{"rel in url only", []string{`<https://x/r?rel=next>; rel="prev"`}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for _, l := range tt.links {
				h.Add("Link", l)
			}
			paginated, next := HasNextPage(h)
			if paginated != tt.wantPaginated || next != tt.wantNext {
				t.Errorf("HasNextPage() = (%v, %v), want (%v, %v)", paginated, next, tt.wantPaginated, tt.wantNext)
			}
		})
	}
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient()
	if client == nil {
		t.Fatal("NewHTTPClient() returned nil")
	}
	if client.Timeout != httpTimeout {
		t.Errorf("Timeout = %v, want %v", client.Timeout, httpTimeout)
	}
}

func TestClientGetRetriesServerErrors(t *testing.T) {
	tests := []struct {
		name      string
		codes     []int
		attempts  int
		wantCalls int32
		wantErr   error
	}{
		{"recovers after 503", []int{503, 200}, 2, 2, nil},
		{"gives up after attempts", []int{500, 502, 200}, 2, 2, ErrNetwork},
		{"404 is not retried", []int{404, 200}, 2, 1, ErrNotFound},
		{"retries disabled", []int{503, 200}, 1, 1, ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				code := tt.codes[n-1]
				w.WriteHeader(code)
				if code == http.StatusOK {
					w.Write([]byte(`{"ok":"yes"}`))
				}
			}))
			defer server.Close()

			client := NewClient(nil, 5*time.Second)
			client.SetHTTPClient(server.Client())
			client.SetRetries(tt.attempts)

			var resp map[string]string
			_, err := client.Get(context.Background(), server.URL, &resp)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Get() error = %v, want %v", err, tt.wantErr)
			}
			var re *RetryableError
			if errors.As(err, &re) {
				t.Errorf("Get() leaked a RetryableError: %v", err)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 3, time.Hour, func() error {
		calls++
		cancel()
		return &RetryableError{Err: errors.New("flaky")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Retry() error = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
