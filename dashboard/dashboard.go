package dashboard

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/NextMind-AI/chatviewer-go/conversation"
	"github.com/NextMind-AI/chatviewer-go/events"
	"github.com/NextMind-AI/chatviewer-go/metrics"
	"github.com/NextMind-AI/chatviewer-go/projection"
	"github.com/NextMind-AI/chatviewer-go/refresh"
	"github.com/NextMind-AI/chatviewer-go/session"
	"github.com/rs/zerolog/log"
)

// ErrEmptyMessage is returned when an operator submits a blank message.
var ErrEmptyMessage = &conversation.ValidationError{Field: "content", Reason: "message is empty"}

// maxPerturbation bounds the random drift applied on every refresh tick.
const maxPerturbation = 0.5

type Options struct {
	Timings           metrics.Timings
	DefaultTimeFilter conversation.TimeFilter
	RefreshInterval   time.Duration
	SendDelay         time.Duration
	Notifier          Notifier
	Publisher         events.Publisher
	Now               func() time.Time
	// Rand returns a value in [0, 1).
	Rand  func() float64
	NewID func() string
}

// Snapshot is what the metrics panel renders.
type Snapshot struct {
	Metrics     metrics.DashboardMetrics `json:"metrics"`
	TimeFilter  conversation.TimeFilter  `json:"timeFilter"`
	LastRefresh time.Time                `json:"lastRefresh"`
	NextRefresh *time.Time               `json:"nextRefresh,omitempty"`
}

// Dashboard serializes every operator action and refresh tick, so each runs
// as one logical turn: mutate the store, then derive metrics from it. Metrics
// are computed on read and never cached.
type Dashboard struct {
	store       *conversation.Store
	session     *session.Session
	ticker      *refresh.Ticker
	timings     metrics.Timings
	timeFilter  conversation.TimeFilter
	lastRefresh time.Time
	notifier    Notifier
	publisher   events.Publisher
	subscribers []func(events.Event)
	now         func() time.Time
	rand        func() float64
	sendDelay   time.Duration
	mutex       sync.Mutex
}

func New(store *conversation.Store, options Options) (*Dashboard, error) {
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Rand == nil {
		options.Rand = rand.Float64
	}
	if options.Notifier == nil {
		options.Notifier = LogNotifier{}
	}
	if options.DefaultTimeFilter == "" {
		options.DefaultTimeFilter = conversation.TimeFilterWeek
	}
	if options.RefreshInterval <= 0 {
		options.RefreshInterval = 30 * time.Second
	}

	d := &Dashboard{
		store:       store,
		timings:     options.Timings.Clone(),
		timeFilter:  options.DefaultTimeFilter,
		lastRefresh: options.Now(),
		notifier:    options.Notifier,
		publisher:   options.Publisher,
		now:         options.Now,
		rand:        options.Rand,
		sendDelay:   options.SendDelay,
	}

	// Without a delay SendMessage announces the delivery itself once the
	// dashboard lock is released.
	var onDelivered func(conversation.ChatMessage)
	if options.SendDelay > 0 {
		onDelivered = d.onDelivered
	}
	d.session = session.New(store, session.Options{
		SendDelay:   options.SendDelay,
		Now:         options.Now,
		NewID:       options.NewID,
		OnDelivered: onDelivered,
	})

	ticker, err := refresh.NewTicker(options.RefreshInterval, d.tick)
	if err != nil {
		return nil, err
	}
	d.ticker = ticker

	return d, nil
}

// Subscribe registers fn to receive every event after its action completed.
func (d *Dashboard) Subscribe(fn func(events.Event)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.subscribers = append(d.subscribers, fn)
}

func (d *Dashboard) Start() {
	d.ticker.Start()
}

// Stop halts the refresh ticker, waits for a running tick and closes the chat
// session, discarding any pending delivery.
func (d *Dashboard) Stop(ctx context.Context) {
	select {
	case <-d.ticker.Stop().Done():
	case <-ctx.Done():
		log.Warn().Msg("Timed out waiting for refresh tick to finish")
	}
	d.session.Close()

	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event publisher")
		}
	}
}

func (d *Dashboard) Snapshot(filter conversation.TimeFilter) Snapshot {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if filter == "" {
		filter = d.timeFilter
	}
	s := Snapshot{
		Metrics:     d.metricsLocked(filter),
		TimeFilter:  filter,
		LastRefresh: d.lastRefresh,
	}
	if next := d.ticker.Next(); !next.IsZero() {
		s.NextRefresh = &next
	}
	return s
}

// Metrics returns the aggregate for the default time filter.
func (d *Dashboard) Metrics() metrics.DashboardMetrics {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.metricsLocked(d.timeFilter)
}

func (d *Dashboard) metricsLocked(filter conversation.TimeFilter) metrics.DashboardMetrics {
	all := d.store.ListAll()
	return metrics.Compute(all, d.timings.For(filter, all))
}

func (d *Dashboard) Conversations(search string, filter projection.StatusFilter) []conversation.Conversation {
	return projection.Project(d.store.ListAll(), search, filter)
}

func (d *Dashboard) Conversation(id string) (conversation.Conversation, error) {
	c, ok := d.store.FindByID(id)
	if !ok {
		return conversation.Conversation{}, &conversation.NotFoundError{ID: id}
	}
	return c, nil
}

// History returns the message history of a conversation, oldest first.
func (d *Dashboard) History(id string) ([]conversation.ChatMessage, error) {
	if _, ok := d.store.FindByID(id); !ok {
		return nil, &conversation.NotFoundError{ID: id}
	}
	return d.store.History(id), nil
}

// ChangeStatus moves a conversation to a new status and returns the updated
// record.
func (d *Dashboard) ChangeStatus(id string, status conversation.Status) (conversation.Conversation, error) {
	return d.changeStatus(id, func(conversation.Status) conversation.Status { return status })
}

// ToggleMode hands a conversation between the AI agent and a human operator.
// Any status other than agente_activo goes back to the agent.
func (d *Dashboard) ToggleMode(id string) (conversation.Conversation, error) {
	return d.changeStatus(id, func(current conversation.Status) conversation.Status {
		if current == conversation.StatusAgentActive {
			return conversation.StatusHumanIntervened
		}
		return conversation.StatusAgentActive
	})
}

// changeStatus reads the current status, picks the next one and writes it in
// a single turn under the dashboard lock.
func (d *Dashboard) changeStatus(id string, next func(conversation.Status) conversation.Status) (conversation.Conversation, error) {
	d.mutex.Lock()

	previous, ok := d.store.FindByID(id)
	if !ok {
		d.mutex.Unlock()
		log.Warn().Str("conversation_id", id).Msg("Status change for unknown conversation")
		return conversation.Conversation{}, &conversation.NotFoundError{ID: id}
	}

	updated, err := d.store.SetStatus(id, next(previous.Status))
	if err != nil {
		d.mutex.Unlock()
		return conversation.Conversation{}, err
	}

	event := events.Event{
		Type:           events.TypeStatusChanged,
		ConversationID: id,
		PreviousStatus: previous.Status,
		Status:         updated.Status,
		Metrics:        d.metricsLocked(d.timeFilter),
		Time:           d.now(),
	}
	subscribers := d.subscribers
	d.mutex.Unlock()

	log.Info().
		Str("conversation_id", id).
		Str("from", string(previous.Status)).
		Str("to", string(updated.Status)).
		Msg("Conversation status changed")

	d.notifier.Notify(Notification{
		Title:       "Estado actualizado",
		Description: "Conversación cambiada a: " + updated.Status.Label(),
		Time:        event.Time,
	})
	d.emit(subscribers, event)

	return updated, nil
}

func (d *Dashboard) MarkStalled(id string) (conversation.Conversation, error) {
	return d.ChangeStatus(id, conversation.StatusUnanswered)
}

func (d *Dashboard) MarkScheduled(id string) (conversation.Conversation, error) {
	return d.ChangeStatus(id, conversation.StatusScheduled)
}

func (d *Dashboard) MarkPendingSchedule(id string) (conversation.Conversation, error) {
	return d.ChangeStatus(id, conversation.StatusPendingSchedule)
}

func (d *Dashboard) OpenChat(id string) (session.State, error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if err := d.session.Open(id); err != nil {
		return session.State{}, err
	}
	state, _ := d.session.Current()
	return state, nil
}

func (d *Dashboard) CloseChat() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.session.Close()
}

func (d *Dashboard) Session() (session.State, bool) {
	return d.session.Current()
}

// SendMessage appends an operator message to a conversation under human
// intervention. When no chat is open the conversation is opened first; a
// different open chat is rejected.
func (d *Dashboard) SendMessage(id, text string) (conversation.ChatMessage, error) {
	d.mutex.Lock()

	c, ok := d.store.FindByID(id)
	if !ok {
		d.mutex.Unlock()
		return conversation.ChatMessage{}, &conversation.NotFoundError{ID: id}
	}
	if c.Status != conversation.StatusHumanIntervened {
		d.mutex.Unlock()
		log.Warn().
			Str("conversation_id", id).
			Str("status", string(c.Status)).
			Msg("Rejected operator message outside human intervention")
		return conversation.ChatMessage{}, &conversation.ValidationError{
			Field:  "status",
			Reason: "messages can only be sent while the conversation is under human intervention",
		}
	}
	if strings.TrimSpace(text) == "" {
		d.mutex.Unlock()
		return conversation.ChatMessage{}, ErrEmptyMessage
	}

	openID, open := d.session.OpenID()
	switch {
	case !open:
		if err := d.session.Open(id); err != nil {
			d.mutex.Unlock()
			return conversation.ChatMessage{}, err
		}
	case openID != id:
		d.mutex.Unlock()
		return conversation.ChatMessage{}, &conversation.ValidationError{
			Field:  "session",
			Reason: "conversation " + openID + " is open in the chat viewer",
		}
	}

	msg, appended, err := d.session.AppendOperatorMessage(text)
	if err != nil || !appended {
		d.mutex.Unlock()
		if err == nil {
			err = ErrEmptyMessage
		}
		return conversation.ChatMessage{}, err
	}

	event := events.Event{
		Type:           events.TypeMessageSent,
		ConversationID: id,
		Status:         c.Status,
		MessageID:      msg.ID,
		Metrics:        d.metricsLocked(d.timeFilter),
		Time:           msg.Timestamp,
	}
	subscribers := d.subscribers
	d.mutex.Unlock()

	if d.sendDelay <= 0 {
		d.onDelivered(msg)
	}
	d.emit(subscribers, event)
	return msg, nil
}

// Refresh stamps the dashboard as refreshed on operator request.
func (d *Dashboard) Refresh() time.Time {
	d.mutex.Lock()
	d.lastRefresh = d.now()
	at := d.lastRefresh
	d.mutex.Unlock()

	d.notifier.Notify(Notification{
		Title:       "Datos actualizados",
		Description: "La información ha sido actualizada correctamente",
		Time:        at,
	})
	return at
}

// tick is the periodic refresh: it re-stamps the view and lets the
// hours-saved figure drift slightly so the panel looks live.
func (d *Dashboard) tick() {
	d.mutex.Lock()
	d.lastRefresh = d.now()
	delta := (d.rand()*2 - 1) * maxPerturbation
	d.timings.Perturb(delta)

	event := events.Event{
		Type:    events.TypeRefreshed,
		Metrics: d.metricsLocked(d.timeFilter),
		Time:    d.lastRefresh,
	}
	subscribers := d.subscribers
	d.mutex.Unlock()

	log.Debug().Float64("delta", delta).Msg("Dashboard refreshed")
	d.emit(subscribers, event)
}

func (d *Dashboard) onDelivered(msg conversation.ChatMessage) {
	d.notifier.Notify(Notification{
		Title:       "Mensaje enviado",
		Description: "Tu respuesta ha sido enviada al usuario",
		Time:        d.now(),
	})
}

func (d *Dashboard) emit(subscribers []func(events.Event), event events.Event) {
	for _, fn := range subscribers {
		fn(event)
	}

	if d.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.publisher.Publish(ctx, event); err != nil {
		log.Error().
			Err(err).
			Str("event_type", event.Type).
			Str("conversation_id", event.ConversationID).
			Msg("Error publishing event")
	}
}
