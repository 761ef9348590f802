package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	adapthttp "hyperlocal/internal/adapter/http"
	"hyperlocal/internal/adapter/memory"
	"hyperlocal/internal/adapter/postgres"
	"hyperlocal/internal/app"
	"hyperlocal/internal/config"
	"hyperlocal/internal/domain"
	"hyperlocal/internal/security"
)

// memoryURL selects the in-process store instead of PostgreSQL.
const memoryURL = "memory://"

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.WithError(err).Error("startup failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logrus.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		log.WithField("log_level", cfg.LogLevel).Warn("unknown log level, using info")
	} else {
		log.SetLevel(lvl)
	}

	store, stats, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	if cfg.UsingDefaultSecret() {
		log.Warn("JWT_SECRET is not set, using the built-in development secret")
	}
	codec := security.NewTokenCodec(cfg.JWTSecret)
	auth := app.NewAuthService(store, security.NewArgon2(), codec, log)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := auth.EnsureAdmin(ctx, "Administrator", cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			return err
		}
		if created {
			log.WithField("email", cfg.AdminEmail).Info("created initial admin")
		}
	}

	sso, err := setupSSO(ctx, cfg.OIDC)
	if err != nil {
		return err
	}
	if sso != nil {
		log.WithField("issuer", cfg.OIDC.Issuer).Info("OIDC admin sign-in enabled")
	}

	h := adapthttp.New(adapthttp.Services{
		Auth:      auth,
		Catalog:   app.NewCatalogService(store),
		Shop:      app.NewShopService(store),
		Payouts:   app.NewPayoutService(store),
		Dashboard: app.NewDashboardService(store),
	}, adapthttp.Options{
		Tokens:    codec,
		Log:       log,
		PublicDir: cfg.PublicDir,
		Pool:      stats,
		SSO:       sso,
	}).Handler()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config) (domain.Store, adapthttp.PoolStats, func(), error) {
	if strings.HasPrefix(cfg.DatabaseURL, memoryURL) {
		s := memory.NewStore(memory.New(), cfg.Pool())
		return s, s.Pool(), func() {}, nil
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.Pool())
	if err != nil {
		return nil, nil, nil, err
	}
	return db, db.Pool(), db.Close, nil
}

func setupSSO(ctx context.Context, c config.OIDCConfig) (*adapthttp.SSOConfig, error) {
	if !c.Enabled() {
		return nil, nil
	}
	provider, err := oidc.NewProvider(ctx, c.Issuer)
	if err != nil {
		return nil, err
	}
	return &adapthttp.SSOConfig{
		Provider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			RedirectURL:  c.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email"},
		},
		PostLoginURL: c.PostLoginURL,
	}, nil
}
