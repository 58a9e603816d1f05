package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NextMind-AI/chatviewer-go"
	"github.com/NextMind-AI/chatviewer-go/dashboard"
	"github.com/NextMind-AI/chatviewer-go/events"
	"github.com/rs/zerolog/log"
)

// slackLikeNotifier stands in for whatever channel operators watch.
type slackLikeNotifier struct{}

func (slackLikeNotifier) Notify(n dashboard.Notification) {
	log.Info().
		Str("channel", "#operators").
		Str("title", n.Title).
		Msg(n.Description)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cv, err := chatviewer.New(ctx, chatviewer.Options{
		Notifier: slackLikeNotifier{},
		Subscribers: []func(events.Event){
			func(e events.Event) {
				if e.Type != events.TypeStatusChanged {
					return
				}
				log.Info().
					Str("conversation_id", e.ConversationID).
					Int("human_interventions", e.Metrics.IntervencionesHumanas).
					Msg("Handover state changed")
			},
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create chat viewer")
	}

	// Take over the first conversation before serving.
	if _, err := cv.Dashboard().ToggleMode("1"); err != nil {
		log.Error().Err(err).Msg("Failed to toggle conversation")
	}

	go func() {
		if err := cv.Start(); err != nil {
			log.Error().Err(err).Msg("Server stopped")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	cv.Shutdown(shutdownCtx)
}
