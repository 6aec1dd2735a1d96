package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/cowatch/internal/adapters/http"
	"github.com/dkeye/cowatch/internal/adapters/relay"
	"github.com/dkeye/cowatch/internal/app"
	"github.com/dkeye/cowatch/internal/cache"
	"github.com/dkeye/cowatch/internal/config"
	"github.com/dkeye/cowatch/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load local .env (dev only)
	_ = godotenv.Load()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var rdb *redis.Client
	if cfg.PresenceBackend == "redis" || cfg.RoomsBackend == "redis" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Error().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, counts will degrade")
		}
		pingCancel()
		defer rdb.Close()
	}

	var presence core.PresenceStore
	if cfg.PresenceBackend == "redis" {
		presence = cache.NewRedisPresence(rdb, cfg.PresenceTTL)
	} else {
		mem := app.NewMemoryPresence(cfg.PresenceTTL)
		go mem.Run(ctx)
		presence = mem
	}

	var rooms core.RoomStore
	if cfg.RoomsBackend == "redis" {
		rooms = cache.NewRedisRooms(rdb, cfg.RoomTTL)
	} else {
		rooms = app.NewMemoryRooms()
	}

	groups := app.NewGroupManager()
	relayCtl := relay.NewController(groups, presence, cfg)
	roomsCtl := router.NewRoomsController(rooms, groups)

	r := router.SetupRouter(ctx, cfg, relayCtl, roomsCtl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("cowatch server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
