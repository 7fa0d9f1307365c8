package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/vbonduro/beautytracker/internal/db"
	"github.com/vbonduro/beautytracker/internal/photostore"
	"github.com/vbonduro/beautytracker/internal/service"
	"github.com/vbonduro/beautytracker/internal/store"
	"github.com/vbonduro/beautytracker/internal/vision"
	"github.com/vbonduro/beautytracker/internal/web"
)

// minimalJPEG is 512 bytes with the JPEG magic bytes header followed by zeros.
// http.DetectContentType identifies JPEG from the leading 0xFF 0xD8 bytes.
var minimalJPEG = func() []byte {
	b := make([]byte, 512)
	b[0] = 0xFF
	b[1] = 0xD8
	b[2] = 0xFF
	b[3] = 0xE0
	return b
}()

// recordingVision captures the image bytes passed to it and returns a
// pre-configured result.
type recordingVision struct {
	mu        sync.Mutex
	lastBytes []byte
	products  []vision.DetectedProduct
	err       error
}

func (r *recordingVision) Identify(_ context.Context, rd io.Reader, _ string) (*vision.AnalysisResult, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("recordingVision: read image: %w", err)
	}
	r.mu.Lock()
	r.lastBytes = data
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return &vision.AnalysisResult{Products: r.products}, nil
}

func (r *recordingVision) LastBytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastBytes
}

// memPhotoStore is a simple in-memory implementation of photostore.PhotoStore.
type memPhotoStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	mimes   map[string]string
	counter int
}

func newMemPhotoStore() *memPhotoStore {
	return &memPhotoStore{
		data:  make(map[string][]byte),
		mimes: make(map[string]string),
	}
}

func (m *memPhotoStore) Save(_ context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	key := fmt.Sprintf("%s-%d%s", prefix, m.counter, photostore.ExtForMIME(mimeType))
	m.data[key] = data
	m.mimes[key] = mimeType
	return key, nil
}

func (m *memPhotoStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[key]
	if !ok {
		return nil, "", photostore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), m.mimes[key], nil
}

func (m *memPhotoStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	delete(m.mimes, key)
	return nil
}

func (m *memPhotoStore) URL(key string) string {
	return "/media/" + key
}

// newTestServer sets up a real web.Server backed by in-memory SQLite and the
// provided vision stub. Image search is not configured.
func newTestServer(t *testing.T, vis vision.VisionAnalyzer) *httptest.Server {
	t.Helper()
	database, err := db.OpenForTesting()
	if err != nil {
		t.Fatalf("OpenForTesting: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	photos := newMemPhotoStore()
	products := store.NewProductStore(database)
	userProducts := store.NewUserProductStore(database)
	userSteps := store.NewUserStepStore(database)

	svc := web.Services{
		Catalog: service.NewCatalogService(products, store.NewProductImageStore(database),
			store.NewCategoryStore(database), userProducts, vis, nil, photos, logger),
		Inventory: service.NewInventoryService(products, userProducts, photos, logger),
		Routines:  service.NewRoutineService(store.NewRoutineStore(database), userProducts, userSteps, logger),
		UserSteps: service.NewUserStepService(userSteps, logger),
	}
	srv := httptest.NewServer(web.NewServer(svc, photos, web.Options{
		MaxUploadBytes: 64 << 10,
		Health:         database.PingContext,
	}, logger))
	t.Cleanup(func() {
		srv.Close()
		_ = database.Close()
	})
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// call sends a request as userID (no header when empty) and decodes the
// response envelope.
func call(t *testing.T, srv *httptest.Server, method, path, userID string, body io.Reader, contentType string) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
	}
	return resp.StatusCode, env
}

func callJSON(t *testing.T, srv *httptest.Server, method, path, userID, body string) (int, envelope) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return call(t, srv, method, path, userID, r, "application/json")
}

// buildMultipartBody creates a multipart/form-data body with an "image" field.
func buildMultipartBody(t *testing.T, imageData []byte) (body *bytes.Buffer, contentType string) {
	t.Helper()
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("image", "photo.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(imageData); err != nil {
		t.Fatalf("write image data: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, w.FormDataContentType()
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return v
}

// TestIntegration_IdentifyProduct verifies that one confidently identified
// product creates both a catalog product and an inventory entry.
func TestIntegration_IdentifyProduct(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	vis := &recordingVision{products: []vision.DetectedProduct{
		{Brand: "CeraVe", Name: "Hydrating Facial Cleanser", Category: "Skincare", Confidence: "high"},
	}}
	srv := newTestServer(t, vis)

	body, contentType := buildMultipartBody(t, minimalJPEG)
	status, env := call(t, srv, http.MethodPost, "/api/identify-product", "alice", body, contentType)
	if status != http.StatusOK || !env.Success {
		t.Fatalf("expected 200 success, got %d: %s", status, env.Message)
	}

	res := decode[struct {
		Items []struct {
			Status           string `json:"status"`
			IsNewProduct     bool   `json:"isNewProduct"`
			IsNewUserProduct bool   `json:"isNewUserProduct"`
			UserProduct      *struct {
				ID int64 `json:"id"`
			} `json:"user_product"`
		} `json:"items"`
	}](t, env.Data)

	if len(res.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(res.Items))
	}
	item := res.Items[0]
	if !item.IsNewProduct || !item.IsNewUserProduct {
		t.Errorf("expected new product and user product, got %+v", item)
	}
	if item.UserProduct == nil || item.UserProduct.ID == 0 {
		t.Errorf("expected user_product.id to be set")
	}
	if got := len(vis.LastBytes()); got != len(minimalJPEG) {
		t.Errorf("vision received %d bytes, want %d", got, len(minimalJPEG))
	}

	status, env = callJSON(t, srv, http.MethodGet, "/api/user-products", "alice", "")
	if status != http.StatusOK {
		t.Fatalf("list user products: %d", status)
	}
	if list := decode[[]map[string]any](t, env.Data); len(list) != 1 {
		t.Errorf("expected 1 owned product, got %d", len(list))
	}
}

func TestIntegration_IdentifyMalformedResponse(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	vis := &recordingVision{err: fmt.Errorf("%w: unexpected end of JSON input", vision.ErrMalformedResponse)}
	srv := newTestServer(t, vis)

	body, contentType := buildMultipartBody(t, minimalJPEG)
	status, env := call(t, srv, http.MethodPost, "/api/identify-product", "alice", body, contentType)
	if status != http.StatusInternalServerError || env.Success {
		t.Fatalf("expected 500 failure, got %d", status)
	}
}

func TestIntegration_RequiresUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, &recordingVision{})

	status, env := callJSON(t, srv, http.MethodGet, "/api/routines", "", "")
	if status != http.StatusUnauthorized || env.Success {
		t.Fatalf("expected 401, got %d", status)
	}

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status %d", resp.StatusCode)
	}
}

func TestIntegration_UploadRejectsNonImage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, &recordingVision{})

	body, contentType := buildMultipartBody(t, []byte("%PDF-1.4 not an image"))
	status, _ := call(t, srv, http.MethodPost, "/api/upload-image", "alice", body, contentType)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for PDF upload, got %d", status)
	}

	big := append(append([]byte{}, minimalJPEG...), make([]byte, 80<<10)...)
	body, contentType = buildMultipartBody(t, big)
	status, _ = call(t, srv, http.MethodPost, "/api/upload-image", "alice", body, contentType)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400 for oversized upload, got %d", status)
	}
}

func TestIntegration_UploadAndServeMedia(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, &recordingVision{})

	body, contentType := buildMultipartBody(t, minimalJPEG)
	status, env := call(t, srv, http.MethodPost, "/api/upload-image", "alice", body, contentType)
	if status != http.StatusOK {
		t.Fatalf("upload status %d: %s", status, env.Message)
	}
	up := decode[struct {
		URL string `json:"url"`
		Key string `json:"key"`
	}](t, env.Data)
	if !strings.HasPrefix(up.Key, "products/alice-") {
		t.Errorf("unexpected key %q", up.Key)
	}

	resp, err := http.Get(srv.URL + up.URL)
	if err != nil {
		t.Fatalf("GET %s: %v", up.URL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !bytes.Equal(data, minimalJPEG) {
		t.Errorf("media status %d, %d bytes", resp.StatusCode, len(data))
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestIntegration_ForeignUserProductIsNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, &recordingVision{})

	status, env := callJSON(t, srv, http.MethodPost, "/api/user-products", "alice",
		`{"brand":"Clinique","name":"Moisture Surge","category_id":1,"purchase_date":"2026-01-15"}`)
	if status != http.StatusCreated {
		t.Fatalf("create status %d: %s", status, env.Message)
	}
	up := decode[struct {
		ID int64 `json:"id"`
	}](t, env.Data)

	path := fmt.Sprintf("/api/user-products/%d", up.ID)
	if status, _ := callJSON(t, srv, http.MethodGet, path, "bob", ""); status != http.StatusNotFound {
		t.Errorf("bob GET: expected 404, got %d", status)
	}
	if status, _ := callJSON(t, srv, http.MethodPatch, path, "bob", `{"notes":"mine"}`); status != http.StatusNotFound {
		t.Errorf("bob PATCH: expected 404, got %d", status)
	}
	if status, _ := callJSON(t, srv, http.MethodGet, path, "alice", ""); status != http.StatusOK {
		t.Errorf("alice GET: expected 200, got %d", status)
	}

	status, env = callJSON(t, srv, http.MethodPost, path+"/usage", "alice", `{"usage_percentage":100}`)
	if status != http.StatusCreated {
		t.Fatalf("usage status %d: %s", status, env.Message)
	}
	usage := decode[struct {
		UserProduct struct {
			UsageStatus string `json:"usage_status"`
		} `json:"user_product"`
	}](t, env.Data)
	if usage.UserProduct.UsageStatus != "finished" {
		t.Errorf("usage_status = %q, want finished", usage.UserProduct.UsageStatus)
	}
}

func TestIntegration_ReorderSteps(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, &recordingVision{})

	status, env := callJSON(t, srv, http.MethodPost, "/api/routines", "alice", `{"name":"AM","time_of_day":"morning"}`)
	if status != http.StatusCreated {
		t.Fatalf("create routine status %d: %s", status, env.Message)
	}
	routine := decode[struct {
		ID int64 `json:"id"`
	}](t, env.Data)
	base := fmt.Sprintf("/api/routines/%d", routine.ID)

	var ids []int64
	for _, name := range []string{"Cleanse", "Tone", "Moisturize"} {
		status, env := callJSON(t, srv, http.MethodPost, base+"/steps", "alice", fmt.Sprintf(`{"step_name":%q}`, name))
		if status != http.StatusCreated {
			t.Fatalf("add step status %d: %s", status, env.Message)
		}
		ids = append(ids, decode[struct {
			ID int64 `json:"id"`
		}](t, env.Data).ID)
	}

	reorder := fmt.Sprintf(`{"steps":[{"id":%d,"order":2},{"id":%d,"order":3},{"id":%d,"order":1}]}`, ids[0], ids[1], ids[2])
	status, env = callJSON(t, srv, http.MethodPut, base+"/steps/reorder", "alice", reorder)
	if status != http.StatusOK {
		t.Fatalf("reorder status %d: %s", status, env.Message)
	}
	got := decode[struct {
		Steps []struct {
			StepName string `json:"step_name"`
		} `json:"steps"`
	}](t, env.Data)
	var names []string
	for _, st := range got.Steps {
		names = append(names, st.StepName)
	}
	if strings.Join(names, ",") != "Moisturize,Cleanse,Tone" {
		t.Errorf("order after reorder = %v", names)
	}

	bad := fmt.Sprintf(`{"steps":[{"id":%d,"order":1},{"id":%d,"order":1},{"id":%d,"order":3}]}`, ids[0], ids[1], ids[2])
	if status, _ := callJSON(t, srv, http.MethodPut, base+"/steps/reorder", "alice", bad); status != http.StatusBadRequest {
		t.Errorf("duplicate order: expected 400, got %d", status)
	}
	if status, _ := callJSON(t, srv, http.MethodPut, base+"/steps/reorder", "bob", reorder); status != http.StatusNotFound {
		t.Errorf("foreign reorder: expected 404, got %d", status)
	}
}

func TestIntegration_ValidationErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, &recordingVision{})

	tests := []struct {
		name, method, path, body string
	}{
		{"missing time of day", http.MethodPost, "/api/routines", `{"name":"AM"}`},
		{"bad time of day", http.MethodPost, "/api/routines", `{"name":"AM","time_of_day":"noon"}`},
		{"unknown field", http.MethodPost, "/api/user-steps", `{"name":"x","extra":1}`},
		{"empty body", http.MethodPost, "/api/user-steps", ``},
		{"bad date", http.MethodPost, "/api/user-products", `{"brand":"a","name":"b","category_id":1,"expiry_date":"soon"}`},
		{"bad id", http.MethodGet, "/api/routines/abc", ``},
		{"missing brand for image", http.MethodGet, "/api/product-image?name=x", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, env := callJSON(t, srv, tt.method, tt.path, "alice", tt.body)
			if status != http.StatusBadRequest || env.Success {
				t.Errorf("expected 400, got %d (%s)", status, env.Message)
			}
		})
	}
}

func TestIntegration_UserStepsSeeded(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	srv := newTestServer(t, &recordingVision{})

	status, env := callJSON(t, srv, http.MethodGet, "/api/user-steps", "alice", "")
	if status != http.StatusOK {
		t.Fatalf("list user steps status %d", status)
	}
	if steps := decode[[]map[string]any](t, env.Data); len(steps) != 3 {
		t.Errorf("expected 3 default steps, got %d", len(steps))
	}
}

func TestIntegration_RejectedUploadLeavesNoTempFiles(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)
	srv := newTestServer(t, &recordingVision{})

	// Larger than the 64 KB limit, so the part spills to disk, but inside
	// the request headroom so the form still parses.
	big := append(append([]byte{}, minimalJPEG...), make([]byte, 72<<10)...)
	body, contentType := buildMultipartBody(t, big)
	status, env := call(t, srv, http.MethodPost, "/api/upload-image", "alice", body, contentType)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", status, env.Message)
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("multipart temp files left behind: %v", names)
	}
}
