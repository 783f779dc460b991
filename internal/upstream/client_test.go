package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

const sampleCSV = "switch_id,bandwidth_gbps,latency_us\nsw-000,122.4,11.2\nsw-001,98.1,9.7\n"

func producer(t *testing.T, etag string, tsMS int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
		w.Header().Set("X-Snapshot-Ts", strconv.FormatInt(tsMS, 10))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Write([]byte(sampleCSV))
	}))
}

func TestFetch_FullTransfer(t *testing.T) {
	server := producer(t, "v42", 1700000000000)
	defer server.Close()

	c := NewClient(server.URL, WithTimeout(2*time.Second))

	p, err := c.Fetch(context.Background(), "")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if p.NotModified {
		t.Fatal("first fetch reported NotModified")
	}
	if p.ETag != "v42" {
		t.Errorf("ETag = %q, want v42", p.ETag)
	}
	if got := p.CapturedAt.UnixMilli(); got != 1700000000000 {
		t.Errorf("CapturedAt = %d, want 1700000000000", got)
	}

	snap, err := ParseSnapshot(p)
	if err != nil {
		t.Fatalf("ParseSnapshot failed: %v", err)
	}
	if snap.SnapshotID != "v42" {
		t.Errorf("SnapshotID = %q, want v42", snap.SnapshotID)
	}
	if len(snap.Rows) != 2 {
		t.Errorf("rows = %d, want 2", len(snap.Rows))
	}
	if v, ok := snap.Value("sw-000", "bandwidth_gbps"); !ok || v != 122.4 {
		t.Errorf("sw-000 bandwidth = %v, %v, want 122.4, true", v, ok)
	}
}

func TestFetch_NotModified(t *testing.T) {
	server := producer(t, "v42", 1700000000000)
	defer server.Close()

	c := NewClient(server.URL)

	p, err := c.Fetch(context.Background(), "v42")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !p.NotModified {
		t.Error("matching precondition should report NotModified")
	}
}

func TestFetch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "injected failure", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewClient(server.URL)

	_, err := c.Fetch(context.Background(), "")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", se.StatusCode)
	}
}

func TestFetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := NewClient(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := c.Fetch(ctx, ""); err == nil {
		t.Fatal("Fetch should fail when the context deadline passes")
	}
}

func TestFetch_MissingETag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	c := NewClient(server.URL)

	if _, err := c.Fetch(context.Background(), ""); err == nil {
		t.Fatal("Fetch should fail without an ETag header")
	}
}

func TestParseSnapshot_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"wrong key column", "device,bandwidth_gbps\nsw-000,1.0\n"},
		{"no metric columns", "switch_id\nsw-000\n"},
		{"short row", "switch_id,a,b\nsw-000,1.0\n"},
		{"long row", "switch_id,a\nsw-000,1.0,2.0\n"},
		{"non-numeric value", "switch_id,a\nsw-000,oops\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Payload{Body: []byte(tt.body), ETag: "v1", CapturedAt: time.Now()}
			if _, err := ParseSnapshot(p); err == nil {
				t.Errorf("ParseSnapshot(%q) = nil error, want failure", tt.body)
			}
		})
	}
}

func TestParseSnapshot_PreservesFieldOrder(t *testing.T) {
	p := &Payload{Body: []byte(sampleCSV), ETag: "v1", CapturedAt: time.Now()}
	snap, err := ParseSnapshot(p)
	if err != nil {
		t.Fatalf("ParseSnapshot failed: %v", err)
	}
	want := "bandwidth_gbps,latency_us"
	if got := strings.Join(snap.Fields, ","); got != want {
		t.Errorf("Fields = %s, want %s", got, want)
	}
}
