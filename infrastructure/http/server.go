package http

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	loginflow "receiptstudio/frontend/login"
	"receiptstudio/frontend/receipts"
	sessioncontext "receiptstudio/frontend/shared/context"
	"receiptstudio/infrastructure/audit"
	"receiptstudio/infrastructure/cache"
	"receiptstudio/infrastructure/logger"
	"receiptstudio/infrastructure/metrics"
	"receiptstudio/infrastructure/ratelimit"
	"receiptstudio/infrastructure/rbac"
	"receiptstudio/infrastructure/render"
	sessioncookie "receiptstudio/infrastructure/session"
	"receiptstudio/infrastructure/sqlite"
	"receiptstudio/models"
)

//go:embed assets/*
var assets embed.FS

var ShutdownTimeout = 2 * time.Second

// Config holds the listener and per-route settings.
type Config struct {
	Addr           string
	PublicBaseURL  string
	SessionTTL     time.Duration
	ImageScale     float64
	QRSize         int
	LoginPerMinute int
	SharePerMinute int
	// TrustProxy installs RealIP so rate limits key on X-Forwarded-For.
	TrustProxy bool
	// SweepInterval is how often expired sessions are purged. Zero disables the sweeper.
	SweepInterval time.Duration
}

// Deps are the collaborators shared by every handler. Nil caches, rbac and audit
// are created by NewServer.
type Deps struct {
	DB           *sqlite.DB
	Log          *logger.Logger
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	SessionCache *cache.UserSessionCache
	UserCache    *cache.UserCache
	RbacCache    *cache.RbacRolesCache
	Rbac         *rbac.Rbac
	Audit        *audit.Service
}

// Server bundles dependencies and route wiring.
type Server struct {
	Addr   string
	ln     net.Listener
	server *http.Server
	router *chi.Mux

	DB           *sqlite.DB
	Log          *logger.Logger
	Metrics      *metrics.Metrics
	SessionCache *cache.UserSessionCache
	UserCache    *cache.UserCache
	RbacCache    *cache.RbacRolesCache
	Rbac         *rbac.Rbac
	Audit        *audit.Service
	Policy       sessioncookie.Policy
	Receipts     *receipts.Handlers

	loginLimiter *ratelimit.Limiter
	shareLimiter *ratelimit.Limiter
	sweepEvery   time.Duration
	stopSweep    chan struct{}
}

// NewServer creates a new http server.
func NewServer(cfg Config, deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.SessionCache == nil {
		deps.SessionCache = cache.NewUserSessionCache()
	}
	if deps.UserCache == nil {
		deps.UserCache = cache.NewUserCache()
	}
	if deps.RbacCache == nil {
		deps.RbacCache = cache.NewRbacRolesCache()
	}
	if deps.Rbac == nil {
		deps.Rbac = rbac.New(deps.RbacCache)
	}
	if deps.Audit == nil {
		deps.Audit = audit.NewService()
	}

	s := &Server{
		Addr:         cfg.Addr,
		router:       chi.NewRouter(),
		DB:           deps.DB,
		Log:          deps.Log,
		Metrics:      deps.Metrics,
		SessionCache: deps.SessionCache,
		UserCache:    deps.UserCache,
		RbacCache:    deps.RbacCache,
		Rbac:         deps.Rbac,
		Audit:        deps.Audit,
		Policy:       sessioncookie.NewPolicy(cfg.SessionTTL, cfg.PublicBaseURL),
		loginLimiter: ratelimit.New(ratelimit.PerMinute(cfg.LoginPerMinute)),
		shareLimiter: ratelimit.New(ratelimit.PerMinute(cfg.SharePerMinute)),
		sweepEvery:   cfg.SweepInterval,
		server: &http.Server{
			MaxHeaderBytes:    1 << 20,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.Receipts = &receipts.Handlers{
		DB:      s.DB,
		Audit:   s.Audit,
		Log:     s.Log,
		Metrics: s.Metrics,
		Images:  render.NewImageRenderer(),
		PDF:     render.NewPDFRenderer(),
		QR:      render.QRRenderer{},
		BaseURL: cfg.PublicBaseURL,
		Scale:   cfg.ImageScale,
		QRSize:  cfg.QRSize,
	}

	// Secure headers first.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			next.ServeHTTP(w, r)
		})
	})

	s.router.Use(middleware.RequestID)
	if cfg.TrustProxy {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(s.RequestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.CSRFMiddleware)

	// Root lands signed-in users on their receipts and everyone else on the login form.
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		token := sessioncookie.Token(r)
		if token == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		session, ok := s.resolveSession(r.Context(), token)
		if !ok || session.Expired() {
			http.SetCookie(w, s.Policy.ClearCookie())
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, loginflow.HomePath, http.StatusSeeOther)
	})

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := s.DB.Ping(r.Context()); err != nil {
			s.Log.Error(r.Context(), "health check failed", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if deps.Gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	// Serve assets from embedded FS.
	var assetsFS fs.FS = assets
	if sub, err := fs.Sub(assets, "assets"); err == nil {
		assetsFS = sub
	} else {
		s.Log.Error(context.Background(), "assets subfs init failed; serving fallback fs", err)
	}
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	s.RegisterLoginRoutes()
	s.RegisterPublicRoutes()

	s.router.Route("/app", func(r chi.Router) {
		r.Use(s.AuthenticateMiddleware)
		s.RegisterFrontendRoutes(r)
		s.RegisterAdminRoutes(r)
	})

	s.server.Handler = s.router
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// AuthenticateMiddleware loads session and applies RBAC checks.
func (s *Server) AuthenticateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionToken := sessioncookie.Token(r)
		if sessionToken == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		session, ok := s.resolveSession(r.Context(), sessionToken)
		if !ok {
			s.Log.Warn(s.Log.WithField(r.Context(), "path", r.URL.Path), "session not found")
			http.SetCookie(w, s.Policy.ClearCookie())
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		if session.Expired() {
			http.SetCookie(w, s.Policy.ClearCookie())
			s.SessionCache.DeleteSessionBySessionToken(sessionToken)
			if err := loginflow.DeleteSessionByToken(r.Context(), s.DB, sessionToken); err != nil {
				s.Log.Error(r.Context(), "cannot delete session from DB", err)
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		ctx := s.Log.WithUserID(r.Context(), session.UserID)

		if hasRole(session.UserRoles, rbac.RoleAdmin) {
			session.ScreenPermissions = s.RbacCache.GetAllRouteNames()
		} else {
			session.ScreenPermissions = s.RbacCache.RouteNamesForRoles(session.UserRoles)
			if !s.Rbac.Allowed(session.UserRoles, r.URL.Path, r.Method) {
				s.Log.Warn(s.Log.WithField(ctx, "path", r.URL.Path), "route not permitted for role")
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		ctx = sessioncontext.NewContextWithSession(ctx, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) resolveSession(ctx context.Context, token string) (session models.Session, ok bool) {
	if cached, found := s.SessionCache.FindSessionBySessionToken(token); found {
		return cached, true
	}

	dbSession, err := loginflow.LoadSessionByToken(ctx, s.DB, token)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.Log.Error(ctx, "load session from db failed", err)
		}
		return session, false
	}

	s.SessionCache.AddSession(dbSession)
	s.UserCache.Add(dbSession.User.Username, dbSession.User)
	return dbSession, true
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// SweepSessions drops expired sessions from the cache and the database.
func (s *Server) SweepSessions(ctx context.Context, now time.Time) (int64, error) {
	s.SessionCache.Sweep(now)
	return loginflow.DeleteExpiredSessions(ctx, s.DB, now)
}

func (s *Server) sweepLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(s.sweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx := context.Background()
			n, err := s.SweepSessions(ctx, time.Now())
			if err != nil {
				s.Log.Error(ctx, "session sweep failed", err)
				continue
			}
			if n > 0 {
				s.Log.Info(s.Log.WithField(ctx, "removed", n), "expired sessions removed")
			}
		case <-stop:
			return
		}
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	var err error
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	if s.sweepEvery > 0 {
		s.stopSweep = make(chan struct{})
		go s.sweepLoop(s.stopSweep)
	}
	go func() {
		if err := s.server.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Log.Error(context.Background(), "http server stopped", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	if s.ln == nil {
		return fmt.Errorf("HTTP server has not been started or is already stopped")
	}
	if s.stopSweep != nil {
		close(s.stopSweep)
		s.stopSweep = nil
	}
	s.loginLimiter.Close()
	s.shareLimiter.Close()
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %v", err)
	}
	s.ln = nil
	return nil
}

// ListenAddr returns the bound address once started.
func (s *Server) ListenAddr() string {
	if s.ln == nil {
		return s.Addr
	}
	return s.ln.Addr().String()
}
