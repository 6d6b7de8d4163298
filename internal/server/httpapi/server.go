// Package httpapi is the JSON-over-HTTP transport of the portal: the auth
// endpoints, uploads, health and metrics.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/ecoportal/internal/logging"
	"github.com/dmitrijs2005/ecoportal/internal/server/auth"
	"github.com/dmitrijs2005/ecoportal/internal/server/metrics"
	"github.com/dmitrijs2005/ecoportal/internal/server/models"
	"github.com/dmitrijs2005/ecoportal/internal/server/services"
)

const shutdownTimeout = 5 * time.Second

type AuthService interface {
	CheckUser(ctx context.Context, email string) (*services.CheckUserResult, error)
	SetPassword(ctx context.Context, email, password string) error
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	CurrentSession(token string) (*auth.Session, bool)
	RenewSession(ctx context.Context, token string) (*auth.Session, string, error)
}

type UploadService interface {
	Upload(ctx context.Context, req services.UploadRequest) (*services.UploadResult, error)
	List(ctx context.Context, itemType string) ([]models.LedgerEntry, error)
	FileURL(ctx context.Context, key string) (string, error)
}

type Options struct {
	// SecureCookies marks the session cookie Secure (production).
	SecureCookies bool
	// MaxUploadSize caps the whole multipart body of one upload.
	MaxUploadSize int64
}

type Server struct {
	address string
	auth    AuthService
	uploads UploadService
	metrics *metrics.Metrics
	logger  logging.Logger
	opts    Options
}

func NewServer(address string, l logging.Logger, as AuthService, us UploadService, m *metrics.Metrics, opts Options) *Server {
	if opts.MaxUploadSize <= 0 {
		opts.MaxUploadSize = 50 << 20
	}
	return &Server{
		address: address,
		auth:    as,
		uploads: us,
		metrics: m,
		logger:  l.With("module", "http_server"),
		opts:    opts,
	}
}

// Handler builds the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/check-user", s.checkUser)
	mux.HandleFunc("POST /api/auth/set-password", s.setPassword)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.session)
	mux.Handle("POST /api/auth/renew", s.requireSession(http.HandlerFunc(s.renew)))
	mux.HandleFunc("POST /api/auth/logout", s.logout)

	mux.Handle("POST /api/upload", s.requireSession(http.HandlerFunc(s.upload)))
	mux.Handle("GET /api/uploads", s.requireSession(http.HandlerFunc(s.listUploads)))
	mux.Handle("GET /api/files", s.requireSession(http.HandlerFunc(s.fileURL)))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", s.metrics.Handler())

	return chain(mux, s.logRequests, s.recoverPanics)
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
