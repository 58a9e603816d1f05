package chatviewer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/NextMind-AI/chatviewer-go/conversation"
	"github.com/NextMind-AI/chatviewer-go/dashboard"
	"github.com/NextMind-AI/chatviewer-go/events"
	"github.com/NextMind-AI/chatviewer-go/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, source string) {
	t.Setenv("FIXTURE_SOURCE", source)
	t.Setenv("AMQP_URL", "")
	t.Setenv("REFRESH_INTERVAL", "30s")
	t.Setenv("SEND_DELAY", "0s")
	t.Setenv("DEFAULT_TIME_FILTER", "semana")
	t.Setenv("LOG_LEVEL", "error")
}

type notifications struct {
	titles []string
}

func (n *notifications) Notify(notification dashboard.Notification) {
	n.titles = append(n.titles, notification.Title)
}

func TestNew_EmbeddedFixtures(t *testing.T) {
	setEnv(t, "embedded")

	var seen []events.Event
	notifier := &notifications{}
	cv, err := New(context.Background(), Options{
		Subscribers: []func(events.Event){func(e events.Event) { seen = append(seen, e) }},
		Notifier:    notifier,
	})
	require.NoError(t, err)
	defer cv.Dashboard().Stop(context.Background())

	m := cv.Dashboard().Metrics()
	assert.Equal(t, 7, m.TotalConversacionesActivas)
	assert.Equal(t, 2, m.ConversacionesAgente)
	assert.Equal(t, 2, m.IntervencionesHumanas)

	_, err = cv.Dashboard().ChangeStatus("7", conversation.StatusScheduled)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, 2, seen[0].Metrics.CitasAgendadas)
	assert.Equal(t, []string{"Estado actualizado"}, notifier.titles)
}

func TestNew_FileFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.json")
	doc := `{
  "conversations": [
    {"id": "a", "contactName": "", "phoneNumber": "+34 600 000 000", "lastReceivedMessage": "hola",
     "lastSentMessage": "", "minutesAgo": 1, "status": "sin_responder", "messagesCount": 1}
  ],
  "messages": {}
}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	setEnv(t, path)

	cv, err := New(context.Background(), Options{})
	require.NoError(t, err)
	defer cv.Dashboard().Stop(context.Background())

	c, err := cv.Dashboard().Conversation("a")
	require.NoError(t, err)
	assert.Equal(t, "Contacto sin nombre", c.DisplayName())
	assert.Equal(t, 1, cv.Dashboard().Metrics().ConversacionesSinResponder)
}

func TestNew_SourceOverride(t *testing.T) {
	setEnv(t, "/does/not/exist.json")

	fixed := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)
	cv, err := New(context.Background(), Options{
		Source: fixtures.Embedded{Now: func() time.Time { return fixed }},
	})
	require.NoError(t, err)
	defer cv.Dashboard().Stop(context.Background())

	c, err := cv.Dashboard().Conversation("1")
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(-15*time.Minute), c.LastMessageTime)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		env    map[string]string
		errMsg string
	}{
		{"missing file", "/does/not/exist.json", nil, "failed to read fixture"},
		{"malformed s3 uri", "s3://bucket-only", nil, "s3 uri"},
		{"invalid config", "embedded", map[string]string{"DEFAULT_TIME_FILTER": "year"}, "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setEnv(t, tt.source)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := New(context.Background(), Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
