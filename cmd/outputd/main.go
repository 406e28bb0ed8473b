package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stagecast/stagecast/internal/broadcast"
	"github.com/stagecast/stagecast/internal/bus"
	"github.com/stagecast/stagecast/internal/config"
	"github.com/stagecast/stagecast/internal/gateway"
	"github.com/stagecast/stagecast/internal/output"
	"github.com/stagecast/stagecast/internal/timer"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if getEnv("LOG_LEVEL", "") == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := loadConfig(getEnv("OUTPUTD_CONFIG", "outputd.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	cfg.applyEnv()

	log.Info().
		Str("addr", cfg.Addr).
		Str("screen_config", cfg.ScreenConfigPath).
		Bool("nats", cfg.NATS.Enabled).
		Msg("starting output daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	store := broadcast.NewStore()
	shared := timer.New(clock)
	hub := gateway.NewHub(gateway.DefaultConnConfig())
	registry := output.NewRegistry(hub, clock)
	registry.SetPollInterval(time.Duration(cfg.SurfacePollMs) * time.Millisecond)
	relay := output.NewRelay(registry)
	cfgStore := config.NewStore(cfg.ScreenConfigPath)
	engine := output.NewEngine(store, shared, registry, relay, cfgStore, clock)

	eventBus := bus.New()
	engine.AttachBus(eventBus)

	go engine.Run(ctx)

	if cfg.NATS.Enabled {
		natsCfg := bus.DefaultNATSConfig()
		natsCfg.URL = cfg.NATS.URL
		bridge, err := bus.NewNATSBridge(eventBus, natsCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect event bridge")
		}
		if err := bridge.Start(); err != nil {
			log.Fatal().Err(err).Msg("failed to start event bridge")
		}
		defer bridge.Stop()
	}

	mux := http.NewServeMux()
	api := gateway.NewAPI(engine, hub)
	api.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: c.Handler(mux),
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("output daemon listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
