package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/thereayou/ephemeral-chat/internal/config"
	"github.com/thereayou/ephemeral-chat/internal/crypto"
	"github.com/thereayou/ephemeral-chat/internal/handlers"
	"github.com/thereayou/ephemeral-chat/internal/middleware"
	"github.com/thereayou/ephemeral-chat/internal/purge"
	"github.com/thereayou/ephemeral-chat/internal/rooms"
	"github.com/thereayou/ephemeral-chat/internal/store"
	"github.com/thereayou/ephemeral-chat/internal/websocket"
)

type Server struct {
	Config *config.Config
	Router *gin.Engine
	Store  store.Store
	Hub    *websocket.Hub
	Rooms  *rooms.Registry
	Purger *purge.Scheduler
	Log    zerolog.Logger
	http   *http.Server
}

func NewServer(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Server, error) {
	if cfg.UsesDefaultSecret() {
		log.Warn().Msg("SECRET_KEY not set, using the built-in default key")
	}

	codec, err := crypto.NewAEADCodec(cfg.SecretKey)
	if err != nil {
		return nil, err
	}

	kv, err := store.Open(ctx, store.Options{
		Driver:      cfg.StoreDriver,
		RedisURL:    cfg.RedisURL,
		DatabaseURL: cfg.DatabaseURL,
		BadgerPath:  cfg.BadgerPath,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("store connect failed: %w", err)
	}

	purger, err := purge.NewScheduler(kv, log, purge.WithSchedule(cfg.PurgeSchedule))
	if err != nil {
		kv.Close()
		return nil, err
	}

	hub := websocket.NewHub(log)
	registry := rooms.NewRegistry(kv, codec,
		rooms.WithPublisher(hub),
		rooms.WithLogger(log.With().Str("component", "rooms").Logger()),
	)

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.Logger(log))
	APIEndpoints(router,
		handlers.NewRoomHandler(registry, hub),
		handlers.NewWebSocketHandler(hub, handlers.NewMessageHandler(registry, log)),
		handlers.NewHealthHandler(kv),
	)

	return &Server{
		Config: cfg,
		Router: router,
		Store:  kv,
		Hub:    hub,
		Rooms:  registry,
		Purger: purger,
		Log:    log,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves until ctx is cancelled, then shuts everything down.
func (s *Server) Run(ctx context.Context) error {
	go s.Hub.Run()
	s.Purger.Start()

	errCh := make(chan error, 1)
	go func() {
		s.Log.Info().Str("addr", s.http.Addr).Msg("server starting")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		_ = s.Purger.Stop(context.Background())
		s.close()
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.http.Shutdown(shutdownCtx)
	if stopErr := s.Purger.Stop(shutdownCtx); stopErr != nil {
		s.Log.Warn().Err(stopErr).Msg("purge scheduler did not stop in time")
	}
	s.close()
	return err
}

func (s *Server) close() {
	s.Hub.Stop()
	if err := s.Store.Close(); err != nil {
		s.Log.Error().Err(err).Msg("store close failed")
	}
	s.Log.Info().Msg("server stopped")
}
