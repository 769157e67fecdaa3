package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/voicebridge/voicebridge/internal/application/config"
	"github.com/voicebridge/voicebridge/internal/application/constant"
	"github.com/voicebridge/voicebridge/internal/application/metric"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/memory"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/postgres"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/postgres/repository"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/store"
	"github.com/voicebridge/voicebridge/internal/infra/adapters/translate"
	"github.com/voicebridge/voicebridge/internal/infra/ports/http/handlers"
	"github.com/voicebridge/voicebridge/internal/infra/ports/http/server"
	"github.com/voicebridge/voicebridge/internal/usecase"
)

func runApp() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		slog.Error("parse config", slog.Any(constant.Error, err))
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(
		slog.New(
			slog.NewJSONHandler(
				os.Stdout,
				&slog.HandlerOptions{Level: logLevel},
			),
		),
	)

	dbConn, err := postgres.NewPostgres(ctx, cfg.Postgres.DSN())
	if err != nil {
		slog.Error("connect to postgres", slog.Any(constant.Error, err))
		os.Exit(1)
	}
	defer dbConn.Close()

	var roomStore store.RoomStore = store.NewNopStore()
	if cfg.Redis.URL != "" {
		redisStore, err := store.NewRedisStore(ctx, cfg.Redis.URL)
		if err != nil {
			slog.Error("connect to redis", slog.Any(constant.Error, err))
			os.Exit(1)
		}
		roomStore = redisStore
	}
	defer roomStore.Close()

	go consumeMembership(ctx, roomStore)

	userRepo := repository.NewUserRepo(dbConn)
	sessionRepo := repository.NewSessionRepo(dbConn)

	roomRegistry := memory.NewRoomRegistry(roomStore, cfg.RoomGrace)
	presenceRepo := memory.NewPresenceRepository()
	peerLinkRepo := memory.NewPeerLinkRepository()

	translator := translate.NewClient(cfg.Translator.URL, cfg.Translator.Timeout)
	synthesizer := translate.NewTTSClient(cfg.Translator.TTSURL, cfg.Translator.Timeout)

	userUsecase := usecase.NewUserUsecase([]byte(cfg.JWTSecret), userRepo, sessionRepo)
	roomUsecase := usecase.NewRoomUsecase(roomRegistry)
	presentationUsecase := usecase.NewPresentationUsecase(roomRegistry, presenceRepo, peerLinkRepo)
	translationUsecase := usecase.NewTranslationUsecase(roomRegistry, presenceRepo, translator, synthesizer)
	signalingUsecase := usecase.NewSignalingUsecase(
		roomRegistry,
		presenceRepo,
		peerLinkRepo,
		presentationUsecase,
		translationUsecase,
		sessionRepo,
		cfg.ReconnectGrace,
	)

	authHandler := handlers.NewAuthHandler(userUsecase)
	roomHandler := handlers.NewRoomHandler(roomUsecase)
	iceHandler := handlers.NewIceHandler(cfg)
	wsHandler := handlers.NewWebSocketHandler(cfg, userUsecase, signalingUsecase)

	echoSrv := server.New(cfg, authHandler, roomHandler, iceHandler, wsHandler)

	metricsSrv := metric.NewServer()

	echoSrvCh := make(chan error, 1)
	metricsSrvCh := make(chan error, 1)

	go func() {
		echoSrvCh <- echoSrv.Start(":" + cfg.Port)
	}()

	go func() {
		metricsSrvCh <- metricsSrv.Start(":" + cfg.MetricPort)
	}()

	select {
	case <-ctx.Done():
		slog.Info("Shutting down servers due to context cancel")
	case err := <-echoSrvCh:
		slog.Error(
			"HTTP server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	case err := <-metricsSrvCh:
		slog.Error(
			"Metrics server failed",
			slog.Any(constant.Error, err),
		)
		os.Exit(1)
	}

	timeoutCtx, timeoutCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer timeoutCancel()

	if err := echoSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown HTTP server", slog.Any(constant.Error, err))
	}

	if err := metricsSrv.Shutdown(timeoutCtx); err != nil {
		slog.Error("Failed to gracefully shutdown metric server", slog.Any(constant.Error, err))
	}
}

// consumeMembership drains membership events published by other
// instances. The local registry is authoritative, so remote events are
// only surfaced in the log for now.
func consumeMembership(ctx context.Context, roomStore store.RoomStore) {
	events, err := roomStore.SubscribeMembership(ctx)
	if err != nil {
		slog.Error("subscribe membership events", slog.Any(constant.Error, err))
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			slog.Debug("membership event",
				slog.String("action", ev.Action),
				slog.String(constant.RoomID, ev.RoomID),
				slog.Any(constant.UserID, ev.UserID),
				slog.Int("user_count", ev.UserCount),
			)
		}
	}
}
