package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vbonduro/beautytracker/internal/db"
	"github.com/vbonduro/beautytracker/internal/imagesearch"
	"github.com/vbonduro/beautytracker/internal/photostore"
	"github.com/vbonduro/beautytracker/internal/store"
	"github.com/vbonduro/beautytracker/internal/vision"
)

// stubVision is a minimal VisionAnalyzer for tests.
type stubVision struct {
	products []vision.DetectedProduct
	err      error
	calls    int
}

func (s *stubVision) Identify(_ context.Context, _ io.Reader, _ string) (*vision.AnalysisResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &vision.AnalysisResult{Products: s.products}, nil
}

// stubPhotoStore is a minimal in-memory photostore.PhotoStore for tests.
type stubPhotoStore struct {
	mu      sync.Mutex
	saved   map[string][]byte
	saves   int
	saveErr error
}

func newStubPhotoStore() *stubPhotoStore {
	return &stubPhotoStore{saved: make(map[string][]byte)}
}

func (s *stubPhotoStore) Save(_ context.Context, prefix, _ string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, _ := io.ReadAll(r)
	s.saves++
	key := prefix + "-photo.jpg"
	s.saved[key] = data
	return key, nil
}

func (s *stubPhotoStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.saved[key]
	if !ok {
		return nil, "", photostore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), "image/jpeg", nil
}

func (s *stubPhotoStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.saved, key)
	return nil
}

func (s *stubPhotoStore) URL(key string) string {
	return "/media/" + key
}

// stubFinder returns a fixed image search result.
type stubFinder struct {
	result *imagesearch.Result
	calls  int
}

func (f *stubFinder) FindProductImage(_ context.Context, _, _ string) (*imagesearch.Result, error) {
	f.calls++
	return f.result, nil
}

type testEnv struct {
	catalog   *CatalogService
	inventory *InventoryService
	routines  *RoutineService
	userSteps *UserStepService

	products     *store.ProductStore
	images       *store.ProductImageStore
	userProducts *store.UserProductStore
	routineStore *store.RoutineStore

	vision *stubVision
	photos *stubPhotoStore
	finder *stubFinder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		products:     store.NewProductStore(d),
		images:       store.NewProductImageStore(d),
		userProducts: store.NewUserProductStore(d),
		routineStore: store.NewRoutineStore(d),
		vision:       &stubVision{},
		photos:       newStubPhotoStore(),
		finder:       &stubFinder{},
	}
	userStepStore := store.NewUserStepStore(d)

	env.catalog = NewCatalogService(env.products, env.images, store.NewCategoryStore(d), env.userProducts,
		env.vision, env.finder, env.photos, logger)
	env.inventory = NewInventoryService(env.products, env.userProducts, env.photos, logger)
	env.routines = NewRoutineService(env.routineStore, env.userProducts, userStepStore, logger)
	env.userSteps = NewUserStepService(userStepStore, logger)
	return env
}

func (e *testEnv) mustOwn(t *testing.T, userID, brand, name string) int64 {
	t.Helper()
	up, err := e.inventory.Create(context.Background(), userID, CreateUserProductInput{Brand: brand, Name: name, CategoryID: 1})
	require.NoError(t, err)
	return up.ID
}

func ptr[T any](v T) *T { return &v }

var errBoom = errors.New("boom")
