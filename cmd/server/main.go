package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"passport-cri/internal/audit"
	"passport-cri/internal/credential"
	credhandler "passport-cri/internal/credential/handler"
	dochandler "passport-cri/internal/document/handler"
	"passport-cri/internal/document/metrics"
	"passport-cri/internal/document/provider"
	"passport-cri/internal/document/provider/dcs"
	"passport-cri/internal/document/provider/dvad"
	"passport-cri/internal/document/result"
	"passport-cri/internal/document/service"
	"passport-cri/internal/document/store"
	"passport-cri/internal/document/tracer"
	"passport-cri/internal/platform/config"
	"passport-cri/internal/platform/health"
	"passport-cri/internal/platform/httpserver"
	"passport-cri/internal/platform/logger"
	"passport-cri/internal/platform/middleware"
	"passport-cri/internal/platform/params"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing passport-cri",
		"addr", cfg.Addr,
		"provider", cfg.Provider,
	)

	secrets := params.NewEnvProvider(5 * time.Minute)
	probe := metrics.NewPrometheusProbe()
	trace := tracer.NewOTel()
	httpClient := provider.NewHTTPClient(cfg.ConnectTimeout, cfg.RequestTimeout)
	synthesizer := result.NewSynthesizer(nil)

	api, err := buildProviderAPI(cfg, secrets, httpClient, synthesizer, probe, log)
	if err != nil {
		log.Error("failed to build document check provider", "provider", cfg.Provider, "error", err)
		os.Exit(1)
	}

	results := store.NewMemoryStore()
	events := audit.NewLogPublisher(log)

	docService := service.New(api, synthesizer, results, events, trace, log)

	vcKey, err := loadECPrivateKey(secrets, params.VCSigningKey)
	if err != nil {
		log.Error("failed to load credential signing key", "error", err)
		os.Exit(1)
	}
	credService := credential.NewService(
		cfg.Issuer,
		vcKey,
		credential.TTL{Amount: cfg.MaxTTLAmount, Unit: cfg.MaxTTLUnit},
		loadCIReasons(secrets),
		trace,
		log,
	)

	healthHandler := health.New()
	healthHandler.RegisterCheck("credential_signing_key", func() error {
		_, err := secrets.GetSecret(params.VCSigningKey)
		return err
	})

	router := newRouter(docService, credService, results, events, healthHandler, log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting http server", "addr", cfg.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown on SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}

// buildProviderAPI selects the third-party service once at startup; there is
// no per-request routing between providers.
func buildProviderAPI(cfg config.Server, secrets params.Provider, httpClient provider.HTTPDoer, synthesizer *result.Synthesizer, probe metrics.Probe, log *slog.Logger) (provider.API, error) {
	switch cfg.Provider {
	case config.ProviderDCS:
		signingKey, err := loadRSAPrivateKey(secrets, params.DCSSigningKey)
		if err != nil {
			return nil, err
		}
		encryptionKey, err := loadRSAPrivateKey(secrets, params.DCSEncryptionKey)
		if err != nil {
			return nil, err
		}
		providerCert, err := loadCertificate(secrets, params.DCSProviderCert)
		if err != nil {
			return nil, err
		}
		envelope := dcs.NewEnvelope(signingKey, encryptionKey, providerCert)
		return dcs.New(cfg.DCSPostURL, httpClient, envelope, probe, log,
			dcs.WithReplyLogging(cfg.LogDCSReplies)), nil

	case config.ProviderDVAD:
		clientID, err := secrets.GetSecret(params.DVADClientID)
		if err != nil {
			return nil, err
		}
		clientSecret, err := secrets.GetSecret(params.DVADClientSecret)
		if err != nil {
			return nil, err
		}
		apiKey, err := secrets.GetSecret(params.DVADAPIKey)
		if err != nil {
			return nil, err
		}
		tokens := dvad.NewTokenCache(cfg.DVADTokenURL, clientID, clientSecret, cfg.TokenSafetyMargin, httpClient, probe, log)
		graphql := dvad.NewGraphQLClient(cfg.DVADGraphQLURL, apiKey, cfg.DVADUserAgent, httpClient, probe, log)
		return dvad.New(tokens, graphql, synthesizer, probe, log), nil

	default:
		return nil, errUnknownProvider(cfg.Provider)
	}
}

func newRouter(docService *service.Service, credService *credential.Service, results store.Store, events audit.Publisher, healthHandler *health.Handler, log *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))

	r.Handle("/metrics", promhttp.Handler())
	healthHandler.Register(r)

	dochandler.New(docService, log).Register(r)
	credhandler.New(credService, results, events, log).Register(r)

	return r
}
