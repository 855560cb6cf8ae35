package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mlukic/agora/internal/config"
	"github.com/mlukic/agora/internal/database"
	postgresrepo "github.com/mlukic/agora/internal/repository/postgres"
	"github.com/mlukic/agora/internal/service"
	"github.com/mlukic/agora/internal/storage"
	"github.com/mlukic/agora/internal/transport/http/handlers"
	"github.com/mlukic/agora/internal/transport/http/middleware"
	"github.com/mlukic/agora/internal/transport/ws"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	if err := run(sugar); err != nil {
		sugar.Fatalf("server exited: %v", err)
	}
}

func run(sugar *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	// Database
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		return err
	}
	sugar.Info("connected to database")

	// Redis presence mirror; optional, the hub runs without it.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			sugar.Warnf("redis unavailable, presence disabled: %v", err)
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	// Storage
	files, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	// Repositories (pool-bound reads; writes go through the unit of work)
	userRepo := postgresrepo.NewUserRepo(pool)
	serverRepo := postgresrepo.NewServerRepo(pool)
	channelRepo := postgresrepo.NewChannelRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)
	attachmentRepo := postgresrepo.NewAttachmentRepo(pool)
	uow := postgresrepo.NewUnitOfWork(pool)

	// Services
	pipeline := service.NewAttachmentPipeline(files, cfg.MaxAttachmentSize, cfg.MaxImageSize)
	authService := service.NewAuthService(uow, userRepo, cfg.JWTSecret)
	serverService := service.NewServerService(uow, serverRepo, files, pipeline)
	channelService := service.NewChannelService(uow, channelRepo, serverRepo, files)
	messageService := service.NewMessageService(uow, messageRepo, channelRepo, serverRepo, pipeline)
	userService := service.NewUserService(uow, userRepo, files, pipeline)
	fileService := service.NewFileService(attachmentRepo, serverRepo, userRepo, files)

	// WebSocket hub and push wiring
	hub := ws.NewHub(sugar, rdb)
	notifier := ws.NewHubNotifier(hub, sugar)
	serverService.SetNotifier(notifier)
	serverService.SetRegistry(hub.Registry())
	channelService.SetNotifier(notifier)
	messageService.SetNotifier(notifier)
	userService.SetNotifier(notifier)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, sugar)
	serverHandler := handlers.NewServerHandler(serverService, sugar)
	channelHandler := handlers.NewChannelHandler(channelService, sugar)
	messageHandler := handlers.NewMessageHandler(messageService, sugar, cfg.MaxAttachmentSize)
	userHandler := handlers.NewUserHandler(userService, sugar)
	fileHandler := handlers.NewFileHandler(fileService, sugar)

	auth := middleware.Auth(cfg.JWTSecret)

	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("GET /ws", ws.ServeWS(hub, serverService, sugar, cfg.JWTSecret))

	// Protected - Servers
	mux.Handle("POST /api/v1/servers", auth(http.HandlerFunc(serverHandler.Create)))
	mux.Handle("GET /api/v1/servers", auth(http.HandlerFunc(serverHandler.List)))
	mux.Handle("GET /api/v1/servers/{id}", auth(http.HandlerFunc(serverHandler.Get)))
	mux.Handle("PATCH /api/v1/servers/{id}", auth(http.HandlerFunc(serverHandler.Update)))
	mux.Handle("PUT /api/v1/servers/{id}/icon", auth(http.HandlerFunc(serverHandler.UpdateIcon)))
	mux.Handle("DELETE /api/v1/servers/{id}", auth(http.HandlerFunc(serverHandler.Delete)))

	// Protected - Server membership
	mux.Handle("GET /api/v1/servers/{id}/members", auth(http.HandlerFunc(serverHandler.ListMembers)))
	mux.Handle("POST /api/v1/servers/{id}/members", auth(http.HandlerFunc(serverHandler.Join)))
	mux.Handle("DELETE /api/v1/servers/{id}/members/me", auth(http.HandlerFunc(serverHandler.Leave)))
	mux.Handle("DELETE /api/v1/servers/{id}/members/{userID}", auth(http.HandlerFunc(serverHandler.KickMember)))
	mux.Handle("PUT /api/v1/servers/{id}/admins/{userID}", auth(http.HandlerFunc(serverHandler.GrantAdmin)))
	mux.Handle("DELETE /api/v1/servers/{id}/admins/{userID}", auth(http.HandlerFunc(serverHandler.RevokeAdmin)))

	// Protected - Channels
	mux.Handle("POST /api/v1/servers/{id}/channels", auth(http.HandlerFunc(channelHandler.Create)))
	mux.Handle("GET /api/v1/servers/{id}/channels", auth(http.HandlerFunc(channelHandler.ListByServer)))
	mux.Handle("PATCH /api/v1/channels/{id}", auth(http.HandlerFunc(channelHandler.Rename)))
	mux.Handle("DELETE /api/v1/channels/{id}", auth(http.HandlerFunc(channelHandler.Remove)))

	// Protected - Messages
	mux.Handle("POST /api/v1/channels/{id}/messages", auth(http.HandlerFunc(messageHandler.Send)))
	mux.Handle("GET /api/v1/channels/{id}/messages", auth(http.HandlerFunc(messageHandler.List)))
	mux.Handle("PATCH /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Edit)))
	mux.Handle("DELETE /api/v1/messages/{id}", auth(http.HandlerFunc(messageHandler.Remove)))

	// Protected - Users
	mux.Handle("GET /api/v1/users/me", auth(http.HandlerFunc(userHandler.Me)))
	mux.Handle("PATCH /api/v1/users/me/username", auth(http.HandlerFunc(userHandler.UpdateUsername)))
	mux.Handle("PUT /api/v1/users/me/avatar", auth(http.HandlerFunc(userHandler.UpdateAvatar)))

	// Protected - Files
	mux.Handle("GET /api/v1/files/{name}", auth(http.HandlerFunc(fileHandler.Get)))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: middleware.CORS(mux),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infof("starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		sugar.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
