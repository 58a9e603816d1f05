package chatviewer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/NextMind-AI/chatviewer-go/aws"
	"github.com/NextMind-AI/chatviewer-go/config"
	"github.com/NextMind-AI/chatviewer-go/dashboard"
	"github.com/NextMind-AI/chatviewer-go/events"
	"github.com/NextMind-AI/chatviewer-go/fixtures"
	"github.com/NextMind-AI/chatviewer-go/redis"
	"github.com/NextMind-AI/chatviewer-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const producer = "chatviewer-go"

// Options customizes a ChatViewer beyond what the environment configures.
type Options struct {
	// Source overrides the fixture source selected by FIXTURE_SOURCE.
	Source fixtures.Source
	// Subscribers receive every dashboard event.
	Subscribers []func(events.Event)
	// Notifier receives operator notifications in addition to the log.
	Notifier dashboard.Notifier
}

// ChatViewer is the conversation dashboard service.
type ChatViewer struct {
	config    *config.Config
	dashboard *dashboard.Dashboard
	server    *server.Server
	closers   []func() error
}

// New creates a chat viewer from the environment configuration.
func New(ctx context.Context, opts Options) (*ChatViewer, error) {
	appConfig := config.Load()
	if err := appConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	setupLogging(appConfig)

	cv := &ChatViewer{config: appConfig}

	source, name, err := cv.fixtureSource(opts.Source)
	if err != nil {
		cv.close()
		return nil, err
	}

	dataset, err := fixtures.LoadWithLog(ctx, name, source)
	if err != nil {
		cv.close()
		return nil, err
	}

	store, err := dataset.Store()
	if err != nil {
		cv.close()
		return nil, fmt.Errorf("invalid fixture data: %w", err)
	}

	var publisher events.Publisher
	if appConfig.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(appConfig.AMQPURL, appConfig.AMQPExchange, producer)
		if err != nil {
			cv.close()
			return nil, err
		}
		publisher = amqpPublisher
	}

	var next dashboard.Notifier = dashboard.LogNotifier{}
	if opts.Notifier != nil {
		next = multiNotifier{dashboard.LogNotifier{}, opts.Notifier}
	}
	notifications := dashboard.NewRecentNotifier(50, next)

	cv.dashboard, err = dashboard.New(store, dashboard.Options{
		Timings:           dataset.Timings,
		DefaultTimeFilter: appConfig.DefaultTimeFilter,
		RefreshInterval:   appConfig.RefreshInterval,
		SendDelay:         appConfig.SendDelay,
		Notifier:          notifications,
		Publisher:         publisher,
	})
	if err != nil {
		if publisher != nil {
			publisher.Close()
		}
		cv.close()
		return nil, err
	}

	for _, fn := range opts.Subscribers {
		cv.dashboard.Subscribe(fn)
	}

	cv.server = server.New(cv.dashboard, notifications, server.Config{
		CORSOrigins: appConfig.CORSOrigins,
	})

	return cv, nil
}

// fixtureSource resolves FIXTURE_SOURCE unless an override is given.
func (cv *ChatViewer) fixtureSource(override fixtures.Source) (fixtures.Source, string, error) {
	if override != nil {
		return override, "custom", nil
	}

	raw := cv.config.FixtureSource
	switch {
	case raw == "embedded":
		return fixtures.Embedded{}, raw, nil

	case raw == "redis":
		client, err := redis.NewClient(cv.config.RedisAddr, cv.config.RedisPassword, cv.config.RedisDB)
		if err != nil {
			return nil, "", fmt.Errorf("failed to connect to redis: %w", err)
		}
		cv.closers = append(cv.closers, client.Close)
		return client, raw, nil

	case strings.HasPrefix(raw, "s3://"):
		bucket, key, err := fixtures.ParseS3URI(raw)
		if err != nil {
			return nil, "", err
		}
		client, err := aws.NewClient(cv.config.S3Region)
		if err != nil {
			return nil, "", err
		}
		return fixtures.S3Source{Client: client, Bucket: bucket, Key: key}, raw, nil

	default:
		return fixtures.FileSource{Path: raw}, raw, nil
	}
}

// Dashboard exposes the dashboard for embedding programs.
func (cv *ChatViewer) Dashboard() *dashboard.Dashboard {
	return cv.dashboard
}

// Start runs the refresh ticker and serves the HTTP API until Shutdown.
func (cv *ChatViewer) Start() error {
	cv.dashboard.Start()
	return cv.server.Start(cv.config.Port)
}

// Shutdown stops the HTTP server, the ticker and every collaborator.
func (cv *ChatViewer) Shutdown(ctx context.Context) error {
	err := cv.server.Shutdown(ctx)
	cv.dashboard.Stop(ctx)
	return errors.Join(err, cv.close())
}

func (cv *ChatViewer) close() error {
	var errs []error
	for _, c := range cv.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	cv.closers = nil
	return errors.Join(errs...)
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

type multiNotifier []dashboard.Notifier

func (m multiNotifier) Notify(n dashboard.Notification) {
	for _, notifier := range m {
		notifier.Notify(n)
	}
}
