package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vbonduro/beautytracker/internal/auth"
	"github.com/vbonduro/beautytracker/internal/metrics"
	"github.com/vbonduro/beautytracker/internal/photostore"
	"github.com/vbonduro/beautytracker/internal/service"
)

const defaultMaxUploadBytes = 5 << 20

// Services groups the application services the HTTP layer exposes.
type Services struct {
	Catalog   *service.CatalogService
	Inventory *service.InventoryService
	Routines  *service.RoutineService
	UserSteps *service.UserStepService
}

type Options struct {
	AuthHeader     string
	DevUser        string
	MaxUploadBytes int64
	// Health, when set, is called by /healthz.
	Health func(ctx context.Context) error
}

type Server struct {
	svc        Services
	photoStore photostore.PhotoStore
	opts       Options
	validate   *validator.Validate
	mux        *http.ServeMux
	authed     func(http.Handler) http.Handler
	logger     *slog.Logger
}

func NewServer(svc Services, ps photostore.PhotoStore, opts Options, logger *slog.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	s := &Server{
		svc:        svc,
		photoStore: ps,
		opts:       opts,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		mux:        http.NewServeMux(),
		authed:     auth.Middleware(opts.AuthHeader, opts.DevUser),
		logger:     logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
	s.mux.HandleFunc("GET /media/{key...}", s.handleGetMedia)

	s.api("POST /api/upload-image", s.handleUploadImage)
	s.api("POST /api/identify-product", s.handleIdentifyProduct)
	s.api("GET /api/product-image", s.handleFindProductImage)
	s.api("GET /api/categories", s.handleListCategories)
	s.api("GET /api/products", s.handleSearchProducts)
	s.api("GET /api/products/{id}", s.handleGetProduct)

	s.api("GET /api/user-products", s.handleListUserProducts)
	s.api("POST /api/user-products", s.handleCreateUserProduct)
	s.api("GET /api/user-products/{id}", s.handleGetUserProduct)
	s.api("PATCH /api/user-products/{id}", s.handleUpdateUserProduct)
	s.api("DELETE /api/user-products/{id}", s.handleDeleteUserProduct)
	s.api("POST /api/user-products/{id}/photo", s.handleUploadUserProductPhoto)
	s.api("POST /api/user-products/{id}/usage", s.handleRecordUsage)
	s.api("GET /api/user-products/{id}/usage", s.handleUsageHistory)

	s.api("GET /api/routines", s.handleListRoutines)
	s.api("POST /api/routines", s.handleCreateRoutine)
	s.api("GET /api/routines/{id}", s.handleGetRoutine)
	s.api("PATCH /api/routines/{id}", s.handleUpdateRoutine)
	s.api("DELETE /api/routines/{id}", s.handleDeleteRoutine)
	s.api("POST /api/routines/{id}/steps", s.handleAddStep)
	s.api("PUT /api/routines/{id}/steps/reorder", s.handleReorderSteps)
	s.api("PATCH /api/routines/{id}/steps/{stepId}", s.handleRenameStep)
	s.api("DELETE /api/routines/{id}/steps/{stepId}", s.handleDeleteStep)
	s.api("POST /api/routines/{id}/products", s.handleAddStepProduct)
	s.api("PATCH /api/routines/{id}/steps/{stepId}/products/{productId}", s.handleUpdateStepProduct)
	s.api("DELETE /api/routines/{id}/steps/{stepId}/products/{productId}", s.handleRemoveStepProduct)

	s.api("GET /api/user-steps", s.handleListUserSteps)
	s.api("POST /api/user-steps", s.handleCreateUserStep)
	s.api("PATCH /api/user-steps/{id}", s.handleRenameUserStep)
	s.api("DELETE /api/user-steps/{id}", s.handleDeleteUserStep)
}

// api registers an authenticated route.
func (s *Server) api(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.authed(h))
}

// securityHeaders adds browser hardening headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'none'; img-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger logs each request and records it in the HTTP metrics, keyed
// by the matched route pattern so path IDs do not explode label cardinality.
func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", rec.status,
			"duration_ms", elapsed.Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, securityHeaders(s.mux)).ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.logger.Info("starting server", "addr", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Health != nil {
		if err := s.opts.Health(r.Context()); err != nil {
			s.logger.Error("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, envelope{Success: false, Message: "unhealthy"})
			return
		}
	}
	ok(w, map[string]string{"status": "ok"})
}
