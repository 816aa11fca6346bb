package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BloggingApp/feed-client/internal/cache"
	"github.com/BloggingApp/feed-client/internal/config"
	"github.com/BloggingApp/feed-client/internal/handler"
	"github.com/BloggingApp/feed-client/internal/metrics"
	"github.com/BloggingApp/feed-client/internal/mutation"
	"github.com/BloggingApp/feed-client/internal/pager"
	"github.com/BloggingApp/feed-client/internal/remote"
	"github.com/BloggingApp/feed-client/internal/repository"
	"github.com/BloggingApp/feed-client/internal/server"
	"github.com/BloggingApp/feed-client/internal/service"
	"github.com/BloggingApp/feed-client/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the feed cache over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "configs", "directory holding app.yaml")
	cmd.Flags().String("port", "", "HTTP port, overrides app.port")
	viper.BindPFlag("app.port", cmd.Flags().Lookup("port"))

	return cmd
}

func serve(configPath string) error {
	ctx := context.Background()

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := loadEnv(); err != nil {
		logger.Sugar().Infof("no .env loaded: %s", err.Error())
	}

	config.SetDefaults()
	if err := initConfig(configPath); err != nil {
		return errors.New("failed to initialize yaml config: " + err.Error())
	}
	cfg := config.Load()

	viewer, err := utils.ViewerFromToken(cfg.Remote.AccessToken, []byte(cfg.TokenSecret))
	if err != nil {
		logger.Sugar().Warnf("access token has no usable viewer, writes are disabled: %s", err.Error())
	}

	var rdb redis.Cmdable
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pong, err := client.Ping(ctx).Result()
		if err != nil {
			return errors.New("failed to ping redis: " + err.Error())
		}
		logger.Sugar().Infof("Successfully connected to Redis: %s", pong)
		defer client.Close()
		rdb = client
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	client := remote.NewHTTPClient(logger, cfg.Remote)
	registry := cache.NewRegistry()
	engine := mutation.New(logger, registry, client, m, mutation.Options{
		MutationTimeout: cfg.Feed.MutationTimeout,
		MaxPostLength:   cfg.Feed.MaxPostLength,
		SelfInFollowing: cfg.Feed.SelfInFollowing,
	})

	repos := repository.New(rdb)
	services := service.New(logger, repos, service.Deps{
		Registry:    registry,
		Pager:       pager.New(logger, registry, client, m, cfg.Feed.FetchTimeout),
		Engine:      engine,
		Remote:      client,
		Viewer:      viewer,
		SnapshotTTL: cfg.Redis.TTL,
	})
	handlers := handler.New(logger, services, handler.Config{
		TokenSecret:  cfg.TokenSecret,
		ClientOrigin: cfg.ClientOrigin,
	}, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := server.New()
	serverConfig := cfg.Server
	serverConfig.Handler = handlers.InitRoutes()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(serverConfig)
	}()

	logger.Sugar().Infof("Server started on port %s", serverConfig.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return errors.New("failed to run http server: " + err.Error())
		}
	}

	logger.Info("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("failed to shut down http server: %s", err.Error())
	}

	engine.Wait()
	if err := services.Persist(shutdownCtx); err != nil {
		logger.Sugar().Errorf("failed to persist feed snapshots: %s", err.Error())
	}

	return nil
}

func loadEnv() error {
	return godotenv.Load()
}

func initConfig(path string) error {
	viper.AddConfigPath(path)
	viper.SetConfigType("yaml")
	viper.SetConfigName("app")
	return viper.ReadInConfig()
}
