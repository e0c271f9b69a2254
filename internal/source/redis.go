package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/engetsu-hub/chatwork-ai-manager/internal/models"
)

// snapshotSize matches the Chatwork API, which returns at most the latest 100.
const snapshotSize = 100

// Redis reads room history from sorted sets keyed room:<id>:messages, scored
// by send time in milliseconds with JSON members.
type Redis struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedis connects to redisURL and verifies the connection.
func NewRedis(ctx context.Context, redisURL string, logger zerolog.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Redis{
		client: client,
		logger: logger.With().Str("component", "redis_source").Logger(),
	}, nil
}

// Close closes the Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Name() string { return "redis" }

func roomMessagesKey(roomID string) string {
	return fmt.Sprintf("room:%s:messages", roomID)
}

// Poll returns the newest messages of a room in arrival order. There is no
// read cache, so force has no effect.
func (r *Redis) Poll(ctx context.Context, roomID string, _ bool) ([]models.Message, error) {
	results, err := r.client.ZRevRangeByScore(ctx, roomMessagesKey(roomID), &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "+inf",
		Count: snapshotSize,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("read room %s: %w", roomID, err)
	}

	messages := make([]models.Message, 0, len(results))
	for i := len(results) - 1; i >= 0; i-- {
		msg, err := decodeMember(roomID, results[i])
		if err != nil {
			r.logger.Warn().Err(err).Str("room_id", roomID).Msg("skipping undecodable message")
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// storedMessage is the member layout written by chat servers: ULID or numeric
// id, sender fields, and a millisecond timestamp.
type storedMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Name      string `json:"name"`
	Body      string `json:"body"`
	Timestamp int64  `json:"ts"`
}

func decodeMember(roomID, data string) (models.Message, error) {
	var stored storedMessage
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return models.Message{}, err
	}
	if stored.ID == "" {
		return models.Message{}, errors.New("message without id")
	}

	accountID, _ := strconv.ParseInt(stored.From, 10, 64)
	name := stored.Name
	if name == "" {
		name = stored.From
	}

	return models.Message{
		ID:     stored.ID,
		RoomID: roomID,
		Account: models.Account{
			ID:   accountID,
			Name: name,
		},
		Body:     stored.Body,
		SendTime: stored.Timestamp / 1000,
	}, nil
}
