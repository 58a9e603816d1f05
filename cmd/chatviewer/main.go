package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NextMind-AI/chatviewer-go"
	"github.com/NextMind-AI/chatviewer-go/config"
	"github.com/NextMind-AI/chatviewer-go/fixtures"
	"github.com/NextMind-AI/chatviewer-go/redis"
	"github.com/rs/zerolog/log"
)

func main() {
	seedRedis := flag.Bool("seed-redis", false, "write the built-in mock fixtures to Redis and exit")
	flag.Parse()

	if *seedRedis {
		if err := seed(); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed Redis")
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cv, err := chatviewer.New(ctx, chatviewer.Options{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create chat viewer")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- cv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := cv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}
	log.Info().Msg("Chat viewer stopped")
}

func seed() error {
	cfg := config.Load()

	client, err := redis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer client.Close()

	file, err := fixtures.MockFile()
	if err != nil {
		return err
	}
	return client.Seed(context.Background(), file)
}
