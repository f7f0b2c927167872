package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/lunchtab/internal/analysis"
	"github.com/mmynk/lunchtab/internal/auth"
	"github.com/mmynk/lunchtab/internal/config"
	"github.com/mmynk/lunchtab/internal/events"
	"github.com/mmynk/lunchtab/internal/httpapi"
	"github.com/mmynk/lunchtab/internal/ingest"
	"github.com/mmynk/lunchtab/internal/ledger"
	"github.com/mmynk/lunchtab/internal/metrics"
	"github.com/mmynk/lunchtab/internal/rpc"
	"github.com/mmynk/lunchtab/internal/service"
	"github.com/mmynk/lunchtab/internal/storage"
	"github.com/mmynk/lunchtab/internal/storage/redisstore"
	"github.com/mmynk/lunchtab/internal/storage/sqlite"
	"github.com/mmynk/lunchtab/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	m := metrics.New()

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		slog.Info("Publishing ledger events", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	passcode, err := auth.NewPasscode(cfg.AdminPasscode)
	if err != nil {
		slog.Error("Invalid admin passcode", "error", err)
		os.Exit(1)
	}

	clock := ledger.NewTickingClock(cfg.ClockTick)
	go clock.Run(ctx)

	engine := ledger.New(store,
		ledger.WithClock(clock),
		ledger.WithLocation(cfg.Location),
		ledger.WithTick(cfg.ClockTick),
		ledger.WithPasscode(passcode),
		ledger.WithPublisher(publisher),
		ledger.WithMetrics(m),
	)

	// The server-side analyzer backs /api/analyze-menu and, without a remote
	// endpoint, is also the primary ingestion path.
	var serverAnalyzer analysis.Analyzer
	if cfg.GeminiAPIKey != "" {
		gc := analysis.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiTimeout)
		gc.Model = cfg.GeminiModel
		serverAnalyzer = gc
	}

	pipeline := &ingest.Pipeline{
		Primary:  serverAnalyzer,
		MaxWidth: cfg.ImageMaxWidth,
		Quality:  cfg.ImageQuality,
		IDs:      engine.ItemIDs(),
		Metrics:  m,
		Logger:   logging.Component("ingest"),
	}
	if cfg.AnalyzeEndpoint != "" {
		pipeline.Primary = analysis.NewEndpointClient(cfg.AnalyzeEndpoint, cfg.AnalyzeEndpointTimeout)
	}
	if cfg.ClientGeminiAPIKey != "" {
		gc := analysis.NewGeminiClient(cfg.ClientGeminiAPIKey, cfg.GeminiTimeout)
		gc.Model = cfg.GeminiModel
		pipeline.Fallback = gc
	}
	if !cfg.HasAnalysisPath() {
		slog.Warn("No analysis path configured; menu ingestion is disabled")
	}

	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionTTL)
	logger := slog.Default()

	rpcMux := http.NewServeMux()
	service.Mount(rpcMux,
		service.NewLedgerService(engine, sessions, logging.Component("ledger_service")),
		service.NewMenuService(engine, pipeline, logging.Component("menu_service")),
		sessions, m,
	)

	routerCfg := httpapi.RouterConfig{
		Handler:     httpapi.NewHandler(serverAnalyzer, httpapi.DefaultQRGenerator{}, cfg.PublicURL),
		RPC:         rpcMux,
		RPCPrefixes: []string{"/" + rpc.LedgerServiceName + "/", "/" + rpc.MenuServiceName + "/"},
		Metrics:     m.Handler(),
	}
	if staticDir, err := filepath.Abs(cfg.StaticPath); err == nil {
		if _, err := os.Stat(staticDir); err == nil {
			routerCfg.StaticDir = staticDir
			logger.Info("Serving static files", "path", staticDir)
		}
	}

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	handler := h2c.NewHandler(httpapi.NewRouter(routerCfg), &http2.Server{})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", "error", err)
		}
	}()

	logger.Info("Connect server starting", "address", cfg.Addr, "store", cfg.StoreBackend, "timezone", cfg.Location.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		store, err := redisstore.Connect(ctx, cfg.RedisAddr, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "backend", "redis", "addr", cfg.RedisAddr)
		return store, nil
	default:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "backend", "sqlite", "database", cfg.DBPath)
		return store, nil
	}
}
