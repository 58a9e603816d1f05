package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/NextMind-AI/chatviewer-go/fixtures"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	conversationsKey = "chatviewer:conversations"
	timingKey        = "chatviewer:timing"
)

func conversationKey(id string) string {
	return fmt.Sprintf("chatviewer:conversation:%s", id)
}

func historyKey(id string) string {
	return fmt.Sprintf("chat_history:%s", id)
}

// Client reads seed fixtures from Redis. Conversation ids are kept in an
// ordered list, each record as a JSON string and each history as a list of
// JSON messages.
type Client struct {
	rdb *redis.Client
	now func() time.Time
}

func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	client := &Client{
		rdb: rdb,
		now: time.Now,
	}

	if err := client.Ping(context.Background()); err != nil {
		log.Error().Err(err).
			Str("addr", addr).
			Int("db", db).
			Msg("Redis connection failed")
		return nil, err
	}

	log.Info().
		Str("addr", addr).
		Int("db", db).
		Msg("Redis connected successfully")

	return client, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Load implements fixtures.Source.
func (c *Client) Load(ctx context.Context) (fixtures.Dataset, error) {
	ids, err := c.rdb.LRange(ctx, conversationsKey, 0, -1).Result()
	if err != nil {
		return fixtures.Dataset{}, fmt.Errorf("failed to list conversations: %w", err)
	}

	file := fixtures.File{
		Conversations: make([]fixtures.ConversationRecord, 0, len(ids)),
		Messages:      make(map[string][]fixtures.MessageRecord),
	}

	for _, id := range ids {
		raw, err := c.rdb.Get(ctx, conversationKey(id)).Result()
		if err == redis.Nil {
			log.Warn().Str("conversation_id", id).Msg("Conversation listed without a record")
			continue
		}
		if err != nil {
			return fixtures.Dataset{}, fmt.Errorf("failed to read conversation %s: %w", id, err)
		}

		var record fixtures.ConversationRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return fixtures.Dataset{}, fmt.Errorf("failed to decode conversation %s: %w", id, err)
		}
		file.Conversations = append(file.Conversations, record)

		history, err := c.GetChatHistory(ctx, id)
		if err != nil {
			return fixtures.Dataset{}, err
		}
		if len(history) > 0 {
			file.Messages[id] = history
		}
	}

	raw, err := c.rdb.Get(ctx, timingKey).Result()
	switch {
	case err == redis.Nil:
	case err != nil:
		return fixtures.Dataset{}, fmt.Errorf("failed to read timing: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &file.Timing); err != nil {
			return fixtures.Dataset{}, fmt.Errorf("failed to decode timing: %w", err)
		}
	}

	return file.Resolve(c.now())
}

// GetChatHistory returns the stored messages of a conversation in list order.
// Entries that fail to decode are skipped.
func (c *Client) GetChatHistory(ctx context.Context, conversationID string) ([]fixtures.MessageRecord, error) {
	messages, err := c.rdb.LRange(ctx, historyKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history of %s: %w", conversationID, err)
	}

	var history []fixtures.MessageRecord
	for _, message := range messages {
		var msg fixtures.MessageRecord
		if err := json.Unmarshal([]byte(message), &msg); err != nil {
			log.Warn().
				Err(err).
				Str("conversation_id", conversationID).
				Msg("Skipping undecodable history entry")
			continue
		}
		history = append(history, msg)
	}

	return history, nil
}

// Seed writes a fixture document into Redis, replacing what was there.
func (c *Client) Seed(ctx context.Context, file fixtures.File) error {
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, conversationsKey, timingKey)

	for _, record := range file.Conversations {
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		pipe.RPush(ctx, conversationsKey, record.ID)
		pipe.Set(ctx, conversationKey(record.ID), data, 0)
		pipe.Del(ctx, historyKey(record.ID))
	}

	for conversationID, messages := range file.Messages {
		for _, m := range messages {
			data, err := json.Marshal(m)
			if err != nil {
				return err
			}
			pipe.RPush(ctx, historyKey(conversationID), data)
		}
	}

	if len(file.Timing) > 0 {
		data, err := json.Marshal(file.Timing)
		if err != nil {
			return err
		}
		pipe.Set(ctx, timingKey, data, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to seed fixtures: %w", err)
	}

	log.Info().
		Int("conversations", len(file.Conversations)).
		Msg("Seeded fixtures into Redis")

	return nil
}
