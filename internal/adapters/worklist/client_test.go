package worklist_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/carjohnson/annosync/internal/adapters/worklist"
)

func TestClient_ValidateSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/studies/study-1/series/series-1/validation" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"validated":true}`))
	}))
	defer srv.Close()

	client := worklist.NewClient(worklist.ClientOptions{BaseURL: srv.URL, Token: "tok"})
	ok, err := client.ValidateSeries(context.Background(), "study-1", "series-1")
	if err != nil {
		t.Fatalf("failed to validate series: %v", err)
	}
	if !ok {
		t.Error("expected validated true")
	}
}

func TestClient_FetchProgress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/users/alice/studies/study-1/progress" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"series":[{"seriesUid":"series-1","status":"done"},{"seriesUid":"series-2","status":"wip"}]}`))
	}))
	defer srv.Close()

	client := worklist.NewClient(worklist.ClientOptions{BaseURL: srv.URL})
	progress, err := client.FetchProgress(context.Background(), "alice", "study-1")
	if err != nil {
		t.Fatalf("failed to fetch progress: %v", err)
	}
	if len(progress) != 2 {
		t.Fatalf("expected 2 series, got %d", len(progress))
	}
	if progress[0].SeriesUID != "series-1" || progress[0].Status != "done" {
		t.Errorf("unexpected first series %+v", progress[0])
	}
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"validated":false}`))
	}))
	defer srv.Close()

	client := worklist.NewClient(worklist.ClientOptions{
		BaseURL:   srv.URL,
		BaseDelay: time.Millisecond,
		MaxDelay:  5 * time.Millisecond,
	})
	ok, err := client.ValidateSeries(context.Background(), "study-1", "series-1")
	if err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if ok {
		t.Error("expected validated false")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestClient_SurfacesTerminalErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such study", http.StatusNotFound)
	}))
	defer srv.Close()

	client := worklist.NewClient(worklist.ClientOptions{BaseURL: srv.URL})
	_, err := client.ValidateSeries(context.Background(), "study-x", "series-x")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	httpErr, ok := err.(*worklist.HTTPError)
	if !ok {
		t.Fatalf("expected HTTPError, got %T", err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", httpErr.StatusCode)
	}
}

func TestClient_ExhaustedRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := worklist.NewClient(worklist.ClientOptions{
		BaseURL:    srv.URL,
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
	})
	_, err := client.ValidateSeries(context.Background(), "study-1", "series-1")
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts (1 + 2 retries), got %d", got)
	}
}
