package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redditnobility/backend/internal/application/review"
	"github.com/redditnobility/backend/internal/config"
	"github.com/redditnobility/backend/internal/infrastructure/dynamo"
	jwtinfra "github.com/redditnobility/backend/internal/infrastructure/jwt"
	"github.com/redditnobility/backend/internal/infrastructure/reddit"
	"github.com/redditnobility/backend/internal/infrastructure/rediscache"
	"github.com/redditnobility/backend/internal/pkg/logger"
	transporthttp "github.com/redditnobility/backend/internal/transport/http"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Init("community-review-backend", cfg.Debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("jwt provider")
	}

	redditClient := reddit.NewClient(cfg)
	log.Info().Str("subreddit", redditClient.Subreddit()).Msg("reddit client configured")

	// Redis is optional: with no address configured the caches run disabled
	// and every read falls through to Reddit/DynamoDB.
	redisClient := rediscache.NewClient(cfg)

	leases := review.NewLeaseTable(cfg.Review.LeaseTTL)
	go leases.Run(ctx, cfg.Review.SweepInterval)

	deps := &transporthttp.Deps{
		UserRepo:     dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		OTPRepo:      dynamo.NewOTPRepo(dynamoClient, cfg.DynamoTables.OTPs),
		Reddit:       redditClient,
		ProfileCache: rediscache.NewProfileCache(redisClient, cfg.Redis.ProfileTTL),
		StatsCache:   rediscache.NewStatsCache(redisClient, cfg.Redis.StatsTTL),
		Leases:       leases,
		JWTProvider:  jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
