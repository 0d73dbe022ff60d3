package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"petspese/internal/cache"
	applog "petspese/internal/log"
	"petspese/internal/middleware/ratelimit"
	"petspese/internal/middleware/security"
	"petspese/internal/middleware/trace"
	"petspese/internal/services"
	appweb "petspese/web"
)

const (
	defaultMaxUpload = 10 << 20
	dashboardEntries = 24
)

// Options tunes a Server. The zero value is usable.
type Options struct {
	// MaxUploadBytes caps the multipart body of POST /upload.
	MaxUploadBytes int64
	// CacheTTL is how long a rendered dashboard is reused. Zero disables caching.
	CacheTTL time.Duration
	// UploadsPerMinute limits POST requests per client.
	UploadsPerMinute int
	// TrustedProxies may set X-Forwarded-For. Defaults to private networks.
	TrustedProxies []string
	// Ready backs /readyz. Nil always reports ready.
	Ready  func(ctx context.Context) error
	Logger *applog.Logger
}

type Server struct {
	http.Server
	svc       *services.PetService
	templates *template.Template
	logger    *applog.Logger
	maxUpload int64
	ready     func(ctx context.Context) error

	detector *security.Detector
	limiter  *ratelimit.Limiter

	// Dashboards are cached per state version; a submit bumps the version.
	dashboards *cache.Loader[services.Dashboard]
	janitor    *cache.Janitor
	version    atomic.Uint64

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, svc *services.PetService, opts Options) (*Server, error) {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUpload
	}
	if opts.TrustedProxies == nil {
		opts.TrustedProxies = security.DefaultTrustedProxies
	}
	if opts.Logger == nil {
		opts.Logger = applog.FromContext(context.Background())
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	detector, err := security.NewDetector(opts.TrustedProxies)
	if err != nil {
		return nil, err
	}

	s := &Server{
		svc:       svc,
		templates: t,
		logger:    opts.Logger.WithComponent(applog.ComponentHTTP),
		maxUpload: opts.MaxUploadBytes,
		ready:     opts.Ready,
		detector:  detector,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{Requests: opts.UploadsPerMinute, Window: time.Minute}),
		janitor:   cache.NewJanitor(opts.Logger.WithComponent(applog.ComponentCache).Logger),
	}
	if opts.CacheTTL > 0 {
		lru := cache.NewLRU[services.Dashboard](cache.Config{MaxEntries: dashboardEntries, TTL: opts.CacheTTL})
		s.dashboards = cache.NewLoader[services.Dashboard](lru)
		s.janitor.Register(lru)
		s.janitor.Start(opts.CacheTTL)
	}

	mux := http.NewServeMux()
	if err := s.routes(mux); err != nil {
		s.stopBackground()
		return nil, err
	}

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(opts.Logger, detector.ClientIP)
	limit := s.limiter.Middleware(detector.ClientIP, s.onRateLimit, http.MethodPost)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           tracer.Middleware(detector.Middleware(headers.Middleware(limit(mux)))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) error {
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /upload", s.handleUploadForm)
	mux.HandleFunc("POST /upload", s.handleUpload)
	mux.HandleFunc("GET /template.csv", handleTemplate)
	mux.HandleFunc("GET /photos/{name}", s.handlePhoto)

	mux.HandleFunc("GET /api/trend", s.handleAPITrend)
	mux.HandleFunc("GET /api/breakdown", s.handleAPIBreakdown)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	return nil
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ClientIP(r))
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

// dashboard returns the cached dashboard of the current state version.
func (s *Server) dashboard(ctx context.Context, month int) (services.Dashboard, error) {
	if s.dashboards == nil {
		return s.svc.Dashboard(ctx, month)
	}

	key := fmt.Sprintf("%d:%d", s.version.Load(), month)
	d, hit, err := s.dashboards.Load(key, func() (services.Dashboard, error) {
		return s.svc.Dashboard(ctx, month)
	})
	if hit {
		applog.FromContext(ctx).DebugContext(ctx, "Dashboard cache hit", applog.FieldMonth, month)
	}
	return d, err
}

// invalidate makes every cached dashboard unreachable.
func (s *Server) invalidate() {
	s.version.Add(1)
	if s.dashboards != nil {
		s.dashboards.Purge()
	}
}

func (s *Server) stopBackground() {
	s.limiter.Stop()
	s.janitor.Stop()
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.stopBackground()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
