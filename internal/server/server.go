package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/zombor/expense-review/internal/report"
)

// SessionCookie names the cookie carrying the session ID
const SessionCookie = "expense_session"

// Server handles HTTP requests for expense reports
type Server struct {
	service    *Service
	sessions   *Sessions
	basicAuth  BasicAuth
	mux        *http.ServeMux
	logger     *zap.Logger
	httpServer *http.Server
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, sessions *Sessions, basicAuth BasicAuth, logger *zap.Logger) *Server {
	return NewServerWithMux(service, sessions, basicAuth, logger, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, sessions *Sessions, basicAuth BasicAuth, logger *zap.Logger, mux *http.ServeMux) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service:   service,
		sessions:  sessions,
		basicAuth: basicAuth,
		mux:       mux,
		logger:    logger,
	}
	s.httpServer = &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.basicAuth.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(s.basicAuth.Password)) == 1
	return userOK && passOK
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)

		// Handle preflight OPTIONS requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Expense Review"`)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}

type sessionHandlerFunc func(w http.ResponseWriter, r *http.Request, session *report.Session)

// withSession resolves the caller's session from its cookie, starting a new
// one when the cookie is missing, unknown or expired
func (s *Server) withSession(next sessionHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			if session, err := s.sessions.Get(cookie.Value); err == nil {
				next(w, r, session)
				return
			}
		}

		id, session := s.sessions.Create()
		s.logger.Debug("Session started", zap.String("session", id))
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		next(w, r, session)
	}
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.requireAuth(s.handleHealth))
	s.mux.HandleFunc("GET /api/expense-types", s.requireAuth(s.handleExpenseTypes))

	s.mux.HandleFunc("POST /api/receipts", s.requireAuth(s.withSession(s.handleUploadReceipt)))
	s.mux.HandleFunc("GET /api/draft", s.requireAuth(s.withSession(s.handleGetDraft)))
	s.mux.HandleFunc("PATCH /api/draft", s.requireAuth(s.withSession(s.handleEditDraft)))
	s.mux.HandleFunc("GET /api/line-items", s.requireAuth(s.withSession(s.handleListLineItems)))
	s.mux.HandleFunc("POST /api/line-items", s.requireAuth(s.withSession(s.handleCommitLineItem)))
	s.mux.HandleFunc("POST /api/report", s.requireAuth(s.withSession(s.handleSubmitReport)))
}

// Start listens on addr and serves until Shutdown. A server shut down
// before Start returns nil without serving.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Info("Starting server", zap.String("address", ln.Addr().String()))
	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.corsMiddleware(s.mux).ServeHTTP(w, r)
}
