package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/phambaophuc/tiny-compress-images/internal/http/handlers"
	"github.com/phambaophuc/tiny-compress-images/internal/models"
	"github.com/phambaophuc/tiny-compress-images/internal/services/compressor"
	"github.com/phambaophuc/tiny-compress-images/internal/services/storage"
	"github.com/phambaophuc/tiny-compress-images/internal/settings"
)

type fakeCompressor struct {
	err error
}

func (f *fakeCompressor) CompressAttachment(ctx context.Context, id int64) (*models.CompressionSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.CompressionSummary{AttachmentID: id, Compressed: []string{"0"}}, nil
}

func (f *fakeCompressor) Status(ctx context.Context, id int64) ([]models.RenditionStatus, error) {
	if id == 404 {
		return nil, fmt.Errorf("%w: %d", storage.ErrAttachmentNotFound, id)
	}
	return []models.RenditionStatus{{Size: "0", Exists: true, Compressed: true}}, nil
}

type fakeHealth struct{}

func (fakeHealth) HealthCheck(ctx context.Context) map[string]string {
	return map[string]string{"redis": "healthy", "mirror": "not configured"}
}

type fakePublisher struct {
	jobs []*models.CompressionJob
}

func (p *fakePublisher) PublishJob(ctx context.Context, job *models.CompressionJob) error {
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *fakePublisher) HealthCheck() string { return "healthy" }

func newRouter(t *testing.T, c handlers.Compressor, pub handlers.Publisher) (*gin.Engine, *settings.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := settings.NewMemoryStore()
	if err := settings.SeedDefaults(context.Background(), store); err != nil {
		t.Fatal(err)
	}
	logger := zap.NewNop()
	router := NewRouter(
		handlers.NewSettingsHandler(store, settings.Options{}, logger),
		handlers.NewAttachmentHandler(c, pub, fakeHealth{}, logger),
		prometheus.NewRegistry(),
		logger,
	)
	return router.SetupRoutes(), store
}

func do(r http.Handler, method, path string, body url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestGetSettings(t *testing.T) {
	r, _ := newRouter(t, &fakeCompressor{}, nil)

	w := do(r, http.MethodGet, "/api/v1/settings", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{"tinypng_api_key", "File compression", "thumbnail - 150x150"} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in response", want)
		}
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
}

func TestSaveSettings(t *testing.T) {
	r, store := newRouter(t, &fakeCompressor{}, nil)

	form := url.Values{
		"tinypng_api_key":       {"abc"},
		"tinypng_sizes[medium]": {"on"},
		"tinypng_sizes_present": {"1"},
	}
	w := do(r, http.MethodPost, "/api/v1/settings", form)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var key string
	store.Get(context.Background(), settings.APIKeyOption, &key)
	if key != "abc" {
		t.Errorf("expected stored key abc, got %q", key)
	}
	if !strings.Contains(w.Body.String(), `"tinify_sizes":["medium"]`) {
		t.Errorf("unexpected response %s", w.Body.String())
	}
}

func TestSaveSettings_Multipart(t *testing.T) {
	r, store := newRouter(t, &fakeCompressor{}, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("tinypng_api_key", "multipart-key")
	mw.WriteField("tinypng_sizes[thumbnail]", "on")
	mw.WriteField("tinypng_sizes_present", "1")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/settings", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var key string
	if found, _ := store.Get(context.Background(), settings.APIKeyOption, &key); !found || key != "multipart-key" {
		t.Errorf("expected stored key multipart-key, got %q (found=%v)", key, found)
	}
	if !strings.Contains(w.Body.String(), `"tinify_sizes":["thumbnail"]`) {
		t.Errorf("unexpected response %s", w.Body.String())
	}
}

func TestSaveSettings_RejectedFormStoresNothing(t *testing.T) {
	r, store := newRouter(t, &fakeCompressor{}, nil)

	form := url.Values{
		"tinypng_api_key":      {"abc"},
		"tinypng_sizes[bogus]": {"on"},
	}
	if w := do(r, http.MethodPost, "/api/v1/settings", form); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var key string
	if found, _ := store.Get(context.Background(), settings.APIKeyOption, &key); found {
		t.Errorf("expected no stored key, got %q", key)
	}
}

func TestSaveSettings_RequiresForm(t *testing.T) {
	r, _ := newRouter(t, &fakeCompressor{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/settings", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("expected 415, got %d", w.Code)
	}
}

func TestAttachmentStatus(t *testing.T) {
	r, _ := newRouter(t, &fakeCompressor{}, nil)

	if w := do(r, http.MethodGet, "/api/v1/attachments/1", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/attachments/404", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/api/v1/attachments/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestCompress_Inline(t *testing.T) {
	r, _ := newRouter(t, &fakeCompressor{}, nil)

	w := do(r, http.MethodPost, "/api/v1/attachments/5/compress", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	data := decode(t, w)["data"].(map[string]interface{})
	if data["attachment_id"].(float64) != 5 {
		t.Errorf("unexpected summary %v", data)
	}
}

func TestCompress_NoAPIKey(t *testing.T) {
	r, _ := newRouter(t, &fakeCompressor{err: compressor.ErrNoAPIKey}, nil)

	w := do(r, http.MethodPost, "/api/v1/attachments/5/compress", nil)
	if w.Code != http.StatusPreconditionFailed {
		t.Errorf("expected 412, got %d", w.Code)
	}
}

func TestCompress_Queued(t *testing.T) {
	pub := &fakePublisher{}
	r, _ := newRouter(t, &fakeCompressor{}, pub)

	w := do(r, http.MethodPost, "/api/v1/attachments/9/compress", nil)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if len(pub.jobs) != 1 || pub.jobs[0].AttachmentID != 9 {
		t.Errorf("expected one job for attachment 9, got %+v", pub.jobs)
	}
}

func TestHealth(t *testing.T) {
	r, _ := newRouter(t, &fakeCompressor{}, nil)

	w := do(r, http.MethodGet, "/api/v1/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if decode(t, w)["success"] != true {
		t.Errorf("expected healthy response, got %s", w.Body.String())
	}
}

func TestMetrics(t *testing.T) {
	r, _ := newRouter(t, &fakeCompressor{}, nil)

	if w := do(r, http.MethodGet, "/metrics", nil); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}
