// Package server wires configuration, auth, storage, and the dataset API
// into a runnable HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tabserve/tabserve/pkg/api"
	"github.com/tabserve/tabserve/pkg/auth"
	"github.com/tabserve/tabserve/pkg/blobstore"
	"github.com/tabserve/tabserve/pkg/blobstore/memory"
	s3store "github.com/tabserve/tabserve/pkg/blobstore/s3"
	"github.com/tabserve/tabserve/pkg/config"
	"github.com/tabserve/tabserve/pkg/dataset"
	"github.com/tabserve/tabserve/pkg/health"
)

// Version is set at build time.
var Version = "dev"

// Server is the assembled HTTP service.
type Server struct {
	cfg     *config.Config
	log     *slog.Logger
	checker *health.Checker
	httpSrv *http.Server
}

// New assembles a Server from config.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Server, error) {
	if log == nil {
		log = slog.Default()
	}

	store, err := newStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("creating blob store: %w", err)
	}
	store = blobstore.WithTimeout(store, cfg.Storage.RequestTimeout)

	verifier, err := auth.NewVerifier(auth.VerifierConfig{
		Issuer:   cfg.Auth.Issuer,
		JWKSURL:  cfg.Auth.JWKSURL,
		Audience: cfg.Auth.Audience,
		KeyTTL:   cfg.Auth.KeyTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating token verifier: %w", err)
	}

	svc := dataset.NewService(store, log, dataset.WithPresignTTL(cfg.Storage.PresignTTL))
	handler := api.NewHandler(svc, verifier.Middleware(), log)
	checker := health.NewChecker()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", checker.LivenessHandler())
	mux.HandleFunc("GET /readyz", checker.ReadinessHandler())
	mux.Handle("/", api.CORS(cfg.Server.CORSOrigins)(handler))

	return &Server{
		cfg:     cfg,
		log:     log,
		checker: checker,
		httpSrv: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// newStore creates the configured blob store backend.
func newStore(ctx context.Context, cfg config.StorageConfig) (blobstore.Store, error) {
	switch cfg.Backend {
	case "memory":
		return memory.New(), nil
	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("storage bucket is required")
		}
		return s3store.NewFromConfig(ctx, s3store.Config{
			Region:       cfg.Region,
			Bucket:       cfg.Bucket,
			Endpoint:     cfg.Endpoint,
			AccessKeyID:  cfg.AccessKeyID,
			SecretKey:    cfg.SecretKey,
			UsePathStyle: cfg.UsePathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "address", s.cfg.Server.Address, "version", Version)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.checker.SetReady()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.checker.SetDraining()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
