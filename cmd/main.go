package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maitred/internal/api"
	"maitred/internal/config"
	"maitred/internal/contextinfo"
	"maitred/internal/database"
	"maitred/internal/dialogue"
	"maitred/internal/llm"
	"maitred/internal/menu"
	"maitred/internal/monitoring"
	"maitred/internal/orders"
	"maitred/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const menuFetchTimeout = 10 * time.Second

var (
	port        = flag.Int("port", 0, "API server port (overrides config)")
	metricsPort = flag.Int("metrics-port", 0, "Metrics server port (overrides config)")
	configFile  = flag.String("config", "configs/config.yaml", "Path to configuration file")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *metricsPort != 0 {
		cfg.Server.MetricsPort = *metricsPort
	}

	log := config.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Setup(cfg.Database.Driver, cfg.Database.URL, log)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	metrics := monitoring.NewMetrics(monitoring.NewMonitor())
	repo := menu.NewGormRepository(db)

	var source menu.Source = menu.NewRepositorySource(repo)
	if cfg.Menu.Source == config.MenuSourceRemote {
		source = menu.NewRemoteSource(cfg.Endpoints.BaseURL(cfg.Menu.Host), menuFetchTimeout)
	}
	store := menu.NewStore(source, log, metrics)
	if err := store.Load(ctx); err != nil {
		log.WithError(err).Warn("initial menu load failed")
	}

	weather := contextinfo.NewWeatherClient(cfg.Weather.Endpoint, cfg.Weather.APIKey, cfg.Weather.City, cfg.Weather.Timeout)
	refresher := contextinfo.NewRefresher(weather, cfg.Weather.Interval, time.Local, log, metrics)
	go refresher.Run(ctx)

	completer, err := llm.NewCompleter(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize LLM: %v", err)
	}
	engine := dialogue.NewEngine(completer, cfg.LLM.Provider, store, refresher, log, metrics)

	sessions := session.NewManager(cfg.Session.Secret, cfg.Session.IdleTTL, log, metrics)
	go sessions.Run(ctx, cfg.Session.SweepInterval)

	srv := api.NewServer(api.Deps{
		Config:   cfg,
		DB:       db,
		Menu:     store,
		MenuRepo: repo,
		Sessions: sessions,
		Engine:   engine,
		Checkout: orders.NewCheckout(orders.NewGormRepository(db), log, metrics),
		Context:  refresher,
		Proxy:    llm.NewProxy(cfg.LLM.Endpoint, cfg.LLM.APIKey, cfg.LLM.Timeout, log),
		Metrics:  metrics,
		Log:      log,
	})

	metricsServer := startMetricsServer(cfg.Server.MetricsPort, metrics, log)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down servers...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("API server shutdown error")
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("metrics server shutdown error")
		}

		cancel()
	}()

	log.WithFields(logrus.Fields{
		"port":        cfg.Server.Port,
		"llm":         cfg.LLM.Provider,
		"menu_source": cfg.Menu.Source,
		"weather":     weather.Enabled(),
	}).Info("Starting API server")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("API server error: %v", err)
	}
}

func startMetricsServer(port int, metrics *monitoring.Metrics, log logrus.FieldLogger) *http.Server {
	metricsRouter := gin.New()
	metricsRouter.Use(gin.Recovery())
	metricsRouter.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))

	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: metricsRouter,
	}

	go func() {
		log.WithField("port", port).Info("Starting metrics server")
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server error")
		}
	}()
	return metricsServer
}
