package socrata_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"restaurant_lives/internal/adapters/socrata"
)

const doc = `{"meta":{"view":{"columns":[{"name":"Score"}]}},"data":[["90"]]}`

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(b)
}

func gz(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("gzip: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestClient_Open_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			if r.Header.Get("X-App-Token") != "tok" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(doc))
		}
	}))
	defer ts.Close()

	cl := socrata.New("tok", 100)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rc, err := cl.Open(ctx, ts.URL+"/api/views/abcd-1234/rows.json")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := readAll(t, rc); got != doc {
		t.Fatalf("unexpected body: %s", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_Open_StatusErrors(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, socrata.ErrNotFound},
		{http.StatusUnauthorized, socrata.ErrUnauthorized},
		{http.StatusForbidden, socrata.ErrForbidden},
	}
	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		cl := socrata.New("", 100)
		_, err := cl.Open(context.Background(), ts.URL)
		ts.Close()
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
	}
}

func TestClient_Open_GzipEncoding(t *testing.T) {
	body := gz(t, doc)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(body)
	}))
	defer ts.Close()

	rc, err := socrata.New("", 100).Open(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got := readAll(t, rc); got != doc {
		t.Fatalf("unexpected body: %s", got)
	}
}

func TestClient_Open_LocalFiles(t *testing.T) {
	dir := t.TempDir()

	plain := filepath.Join(dir, "rows.json")
	if err := os.WriteFile(plain, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	gzPath := filepath.Join(dir, "rows.json.gz")
	if err := os.WriteFile(gzPath, gz(t, doc), 0o644); err != nil {
		t.Fatal(err)
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatal(err)
	}
	zstPath := filepath.Join(dir, "rows.json.zst")
	if err := os.WriteFile(zstPath, enc.EncodeAll([]byte(doc), nil), 0o644); err != nil {
		t.Fatal(err)
	}
	enc.Close()

	cl := socrata.New("", 100)
	for _, src := range []string{plain, "file://" + plain, gzPath, zstPath} {
		rc, err := cl.Open(context.Background(), src)
		if err != nil {
			t.Fatalf("%s: unexpected err: %v", src, err)
		}
		if got := readAll(t, rc); got != doc {
			t.Fatalf("%s: unexpected body: %s", src, got)
		}
	}

	if _, err := cl.Open(context.Background(), filepath.Join(dir, "missing.json")); !errors.Is(err, socrata.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
