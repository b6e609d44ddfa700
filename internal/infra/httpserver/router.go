package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	appcaption "github.com/bryanwahyu/image-caption/internal/application/caption"
	"github.com/bryanwahyu/image-caption/internal/domain/audit"
	domain "github.com/bryanwahyu/image-caption/internal/domain/caption"
	"github.com/bryanwahyu/image-caption/internal/logger"
	"github.com/bryanwahyu/image-caption/internal/middleware"
	"github.com/bryanwahyu/image-caption/internal/redact"
)

const auditTimeout = 3 * time.Second

type Options struct {
	MaxUploadBytes int64
	StaticDir      string
	APIKeys        map[string]struct{}
	RateLimiter    *middleware.RateLimiter
	RateWindow     time.Duration
	// Audit is optional; nil disables the trail and its readiness check.
	Audit audit.Repository
	// Secrets are masked out of anything derived from upstream errors.
	Secrets []string
}

type Router struct {
	mux      http.Handler
	pending  sync.WaitGroup
	captions *appcaption.Service
	audit    audit.Repository
	maxBytes int64
	secrets  []string
}

func NewRouter(captions *appcaption.Service, opts Options) *Router {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = domain.MaxImageBytes
	}
	if opts.RateLimiter == nil {
		opts.RateLimiter = middleware.NewRateLimiter(100, 15*time.Minute)
		opts.RateWindow = 15 * time.Minute
	}
	r := &Router{
		captions: captions,
		audit:    opts.Audit,
		maxBytes: opts.MaxUploadBytes,
		secrets:  opts.Secrets,
	}

	middleware.RegisterMetrics()

	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.Recoverer)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	mux.Handle("/metrics", middleware.MetricsHandler())

	checks := map[string]middleware.HealthChecker{}
	if r.audit != nil {
		checks["audit"] = middleware.CheckFunc(r.audit.Ping)
	}

	mux.Route("/api", func(rt chi.Router) {
		rt.Use(middleware.RateLimitMiddleware(opts.RateLimiter, opts.RateWindow))

		rt.Get("/health", middleware.HealthHandler)
		rt.Get("/ready", middleware.ReadinessHandler(checks))
		rt.Options("/*", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		rt.Group(func(protected chi.Router) {
			protected.Use(middleware.APIKeyAuth(opts.APIKeys))
			protected.Post("/analyze-image", r.wrap(r.handleAnalyzeImage))
			if r.audit != nil {
				protected.Get("/audit/recent", r.wrap(r.handleRecent))
			}
		})

		rt.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			middleware.WriteError(w, http.StatusNotFound, "Not found", "")
		})
	})

	if opts.StaticDir != "" {
		mux.Handle("/*", http.FileServer(http.Dir(opts.StaticDir)))
	}

	r.mux = mux
	return r
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Wait blocks until in-flight audit writes finish or ctx is done. Call it
// after the HTTP server has shut down and before closing the audit store.
func (r *Router) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap is the single error boundary: it maps the error, logs it and writes
// the JSON error body.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		m := mapError(err, r.secrets)
		entry := logger.WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(req.Context()),
			"class":      m.Class,
			"status":     m.Status,
			"error":      redact.String(err.Error(), r.secrets...),
		})
		if m.Status >= http.StatusInternalServerError {
			entry.Error("analyze request failed")
		} else {
			entry.Warn("analyze request rejected")
		}
		middleware.WriteJSON(w, m.Status, m.Body)
	}
}

type analyzeResponse struct {
	Success bool          `json:"success"`
	Data    domain.Result `json:"data"`
}

// POST /api/analyze-image
// multipart/form-data, field "image"
func (r *Router) handleAnalyzeImage(w http.ResponseWriter, req *http.Request) error {
	start := time.Now()

	img, err := readImage(w, req, r.maxBytes)
	if err != nil {
		r.record(req, img, appcaption.Outcome{}, err, start)
		return err
	}

	logger.WithFields(logrus.Fields{
		"request_id": middleware.GetRequestID(req.Context()),
		"filename":   img.Filename,
		"mime_type":  img.MimeType,
		"size_bytes": img.Size,
	}).Debug("image accepted")

	out, err := r.captions.Analyze(req.Context(), img)
	r.record(req, img, out, err, start)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(analyzeResponse{Success: true, Data: out.Result}); err != nil {
		// status is already sent
		logger.WithError(err).WithField("request_id", middleware.GetRequestID(req.Context())).
			Warn("write analyze response failed")
	}
	return nil
}

// GET /api/audit/recent?limit=20
func (r *Router) handleRecent(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.audit.Recent(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*audit.Event{}
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		logger.WithError(err).Warn("write audit list failed")
	}
	return nil
}

// record feeds metrics and, when enabled, the audit trail. The audit write
// outlives the request and is drained by Wait.
func (r *Router) record(req *http.Request, img domain.Image, out appcaption.Outcome, err error, start time.Time) {
	status, class, result := http.StatusOK, "", "ok"
	if out.Fallback {
		result = "fallback"
	}
	if err != nil {
		m := mapError(err, r.secrets)
		status, class, result = m.Status, m.Class, m.Class
	}
	middleware.ObserveAnalysis(r.captions.Provider(), result, out.Duration)

	if r.audit == nil {
		return
	}
	ev := &audit.Event{
		RequestID:  middleware.GetRequestID(req.Context()),
		Provider:   r.captions.Provider(),
		Model:      r.captions.Model(),
		MimeType:   img.MimeType,
		SizeBytes:  img.Size,
		StatusCode: status,
		ErrorClass: class,
		Fallback:   out.Fallback,
		DurationMS: time.Since(start).Milliseconds(),
	}
	ctx := context.WithoutCancel(req.Context())
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		ctx, cancel := context.WithTimeout(ctx, auditTimeout)
		defer cancel()
		if err := r.audit.Save(ctx, ev); err != nil {
			logger.WithError(err).WithField("request_id", ev.RequestID).Warn("audit write failed")
		}
	}()
}
