package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mmynk/lunchtab/internal/analysis"
)

type stubAnalyzer struct {
	ext *analysis.Extraction
	err error
	got string
}

func (s *stubAnalyzer) Analyze(_ context.Context, imageBase64 string) (*analysis.Extraction, error) {
	s.got = imageBase64
	return s.ext, s.err
}

func newTestRouter(t *testing.T, analyzer analysis.Analyzer) http.Handler {
	t.Helper()
	return NewRouter(RouterConfig{
		Handler: NewHandler(analyzer, DefaultQRGenerator{}, "http://lunch.example"),
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("error body is not JSON: %v (%s)", err, rec.Body.String())
	}
	return body["error"]
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d (%s)", want, rec.Code, rec.Body.String())
	}
}

func TestAnalyzeMenu(t *testing.T) {
	t.Run("method not allowed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestRouter(t, &stubAnalyzer{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analyze-menu", nil))
		assertStatus(t, rec, http.StatusMethodNotAllowed)
		if got := decodeError(t, rec); got != "Method Not Allowed" {
			t.Errorf("unexpected error %q", got)
		}
	})

	t.Run("no image", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/analyze-menu", strings.NewReader(`{}`))
		newTestRouter(t, &stubAnalyzer{}).ServeHTTP(rec, req)
		assertStatus(t, rec, http.StatusBadRequest)
		if got := decodeError(t, rec); got != "No image provided" {
			t.Errorf("unexpected error %q", got)
		}
	})

	t.Run("missing server key", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/analyze-menu", strings.NewReader(`{"image":"aW1n"}`))
		newTestRouter(t, nil).ServeHTTP(rec, req)
		assertStatus(t, rec, http.StatusInternalServerError)
		if got := decodeError(t, rec); got != "Server configuration error" {
			t.Errorf("unexpected error %q", got)
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		stub := &stubAnalyzer{err: fmt.Errorf("%w: status 429: quota exceeded", analysis.ErrUnreachable)}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/analyze-menu", strings.NewReader(`{"image":"aW1n"}`))
		newTestRouter(t, stub).ServeHTTP(rec, req)
		assertStatus(t, rec, http.StatusInternalServerError)
		if got := decodeError(t, rec); !strings.Contains(got, "quota exceeded") {
			t.Errorf("expected upstream message, got %q", got)
		}
	})

	t.Run("success", func(t *testing.T) {
		stub := &stubAnalyzer{ext: &analysis.Extraction{
			Restaurant: &analysis.ExtractedRestaurant{Name: "Pho 24"},
			Items:      []analysis.ExtractedItem{{Name: "Pho Bo", Price: 65}},
		}}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/analyze-menu", strings.NewReader(`{"image":"aW1n"}`))
		newTestRouter(t, stub).ServeHTTP(rec, req)

		assertStatus(t, rec, http.StatusOK)
		if stub.got != "aW1n" {
			t.Errorf("analyzer got image %q", stub.got)
		}

		var ext analysis.Extraction
		if err := json.Unmarshal(rec.Body.Bytes(), &ext); err != nil {
			t.Fatalf("response is not an extraction: %v", err)
		}
		if ext.Restaurant == nil || ext.Restaurant.Name != "Pho 24" || len(ext.Items) != 1 {
			t.Errorf("unexpected extraction %+v", ext)
		}
	})

	t.Run("round trip through endpoint client", func(t *testing.T) {
		stub := &stubAnalyzer{ext: &analysis.Extraction{Items: []analysis.ExtractedItem{{Name: "Tea", Price: 10}}}}
		srv := httptest.NewServer(newTestRouter(t, stub))
		defer srv.Close()

		client := analysis.NewEndpointClient(srv.URL+"/api/analyze-menu", 0)
		ext, err := client.Analyze(context.Background(), "aW1n")
		if err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
		if len(ext.Items) != 1 || ext.Items[0].Name != "Tea" {
			t.Errorf("unexpected items %+v", ext.Items)
		}

		stub.err = errors.New("provider down")
		if _, err = client.Analyze(context.Background(), "aW1n"); !errors.Is(err, analysis.ErrUnreachable) {
			t.Errorf("expected ErrUnreachable, got %v", err)
		}
	})
}

func TestMenuQRCode(t *testing.T) {
	router := newTestRouter(t, nil)

	t.Run("default link", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/menu/qrcode", nil))
		assertStatus(t, rec, http.StatusOK)
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("expected image/png, got %q", ct)
		}
		if !bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG")) {
			t.Error("body is not a PNG")
		}
	})

	t.Run("bad size", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/menu/qrcode?size=5", nil))
		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestRouter(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>lunch</h1>"), 0o644); err != nil {
		t.Fatalf("failed to write index.html: %v", err)
	}

	rpc := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("rpc"))
	})
	router := NewRouter(RouterConfig{
		Handler:     NewHandler(nil, DefaultQRGenerator{}, ""),
		RPC:         rpc,
		RPCPrefixes: []string{"/lunchtab.v1.LedgerService/"},
		StaticDir:   dir,
	})

	t.Run("healthz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assertStatus(t, rec, http.StatusOK)
	})

	t.Run("rpc prefix", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/lunchtab.v1.LedgerService/Login", nil))
		if rec.Body.String() != "rpc" {
			t.Errorf("expected rpc handler, got %q", rec.Body.String())
		}
	})

	t.Run("static fallback", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/board", nil))
		if !strings.Contains(rec.Body.String(), "lunch") {
			t.Errorf("expected index.html, got %q", rec.Body.String())
		}
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/lunchtab.v1.LedgerService/Login", nil)
		req.Header.Set("Origin", "http://example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Access-Control-Request-Headers", "Content-Type, Authorization")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("expected wildcard origin, got %q", got)
		}
	})
}
