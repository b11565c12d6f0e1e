package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/sortify-app/sortify/backend/internal/config"
	"github.com/sortify-app/sortify/backend/internal/handler"
	authHandler "github.com/sortify-app/sortify/backend/internal/handler/auth"
	"github.com/sortify-app/sortify/backend/internal/model/persona"
	"github.com/sortify-app/sortify/backend/internal/observability"
	"github.com/sortify-app/sortify/backend/internal/service/account"
	"github.com/sortify-app/sortify/backend/internal/service/ai"
	"github.com/sortify-app/sortify/backend/internal/service/auth"
	"github.com/sortify-app/sortify/backend/internal/service/chat"
	"github.com/sortify-app/sortify/backend/internal/service/supabase"
	"github.com/sortify-app/sortify/backend/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer logger.Sync()

	log := logger.L()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file loaded, using process environment", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}
	if cfg.Server.Debug {
		if dev, err := zap.NewDevelopment(); err == nil {
			logger.Set(dev)
			log = dev
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	personas := persona.Default()

	provider, err := ai.NewProvider(ctx, cfg.AI)
	switch {
	case err != nil:
		log.Warn("failed to initialize completion provider, replies use offline text", zap.Error(err))
		provider = nil
	case provider == nil:
		log.Info("completion provider not configured, replies use offline text")
	default:
		log.Info("completion provider initialized", zap.String("provider", provider.Name()))
	}
	completer := ai.NewService(provider, ai.NewPromptManager(personas), metrics)

	// Interfaces stay nil (not typed-nil) when the provider is unconfigured.
	var (
		identities   auth.IdentityProvider
		authProvider authHandler.Provider
		sessionStore chat.SessionStore
		profileStore account.Store
	)
	if cfg.Provider.Configured() {
		client, err := supabase.New(cfg.Provider, metrics)
		if err != nil {
			log.Fatal("failed to create auth/storage client", zap.Error(err))
		}
		identities, authProvider, sessionStore, profileStore = client, client, client, client
		log.Info("auth/storage provider configured", zap.String("url", client.URL()))
	} else {
		log.Warn("auth/storage provider not configured, sign-in is disabled")
	}
	if cfg.Provider.AdminConfigured() {
		log.Debug("service-role key present; not used by request handlers")
	}

	cookies := auth.Cookies{Secure: cfg.Server.CookieSecure}
	router := handler.NewRouter(handler.Deps{
		Personas:     personas,
		Resolver:     auth.NewResolver(identities, cookies),
		AuthProvider: authProvider,
		AuthConfig: authHandler.Config{
			SiteURL:     cfg.Server.SiteURL,
			Cookies:     cookies,
			SupabaseURL: cfg.Provider.URL,
			AnonKey:     cfg.Provider.AnonKey,
		},
		Chat:       chat.NewService(completer, sessionStore, metrics),
		Accounts:   account.NewService(profileStore),
		Metrics:    metrics,
		Gatherer:   reg,
		CORSOrigin: cfg.Server.SiteURL,
	})

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.L().Info("Sortify backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		logger.L().Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
