package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resale/monitor/internal/config"
	"resale/monitor/internal/domain/task"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Message is one received task with the handle needed to delete it.
type Message struct {
	ID   string
	Body string
}

// Queue delivers at most one task per receive and removes a task only when
// explicitly deleted. Un-deleted tasks become pending and are redelivered
// after the configured idle time.
type Queue interface {
	Receive(ctx context.Context) (*Message, error)
	Delete(ctx context.Context, msgID string) error
	Enqueue(ctx context.Context, t task.Task) (string, error)
}

type RedisQueue struct {
	redisClient *redis.Client
	stream      string
	group       string
	consumer    string
	block       time.Duration
	minIdle     time.Duration
}

func NewRedisQueue(redisClient *redis.Client, cfg config.QueueConfig) (Queue, error) {
	q := &RedisQueue{
		redisClient: redisClient,
		stream:      cfg.Stream,
		group:       cfg.ConsumerGroup,
		consumer:    "monitor-" + uuid.NewString(),
		block:       time.Duration(cfg.BlockSeconds) * time.Second,
		minIdle:     time.Duration(cfg.RedeliverAfter) * time.Second,
	}

	if err := q.ensureGroup(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return q, nil
}

func (q *RedisQueue) ensureGroup(ctx context.Context) error {
	err := q.redisClient.XGroupCreateMkStream(ctx, q.stream, q.group, "0").Err()
	if err != nil && strings.Contains(err.Error(), "BUSYGROUP") {
		log.Infof("Group %s already exists for stream %s", q.group, q.stream)
		return nil
	}
	return err
}

func (q *RedisQueue) Enqueue(ctx context.Context, t task.Task) (string, error) {
	taskValue, err := t.TaskValue()
	if err != nil {
		return "", fmt.Errorf("failed to serialize task: %w", err)
	}

	messageID, err := q.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{
			"task_type": t.TaskType(),
			"task_data": string(taskValue),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to add task to stream %s: %w", q.stream, err)
	}

	log.Debugf("Added %s to stream %s with message ID %s", t.TaskType(), q.stream, messageID)
	return messageID, nil
}

// Receive claims one abandoned pending message if any has been idle past the
// redelivery threshold, otherwise blocks for up to the configured wait for a
// new message. Returns nil when nothing is available.
func (q *RedisQueue) Receive(ctx context.Context) (*Message, error) {
	claimed, _, err := q.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: q.consumer,
		MinIdle:  q.minIdle,
		Start:    "0-0",
		Count:    1,
	}).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to claim pending messages from stream %s: %w", q.stream, err)
	}
	if len(claimed) > 0 {
		log.Infof("Redelivering pending message %s from stream %s", claimed[0].ID, q.stream)
		return toMessage(&claimed[0]), nil
	}

	result, err := q.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: q.consumer,
		Streams:  []string{q.stream, ">"},
		Count:    1,
		Block:    q.block,
	}).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // No new messages
		}
		return nil, fmt.Errorf("failed to read from stream %s: %w", q.stream, err)
	}

	if len(result) == 0 || len(result[0].Messages) == 0 {
		return nil, nil
	}

	return toMessage(&result[0].Messages[0]), nil
}

// Delete acknowledges the message and removes it from the stream. Only fully
// processed tasks are deleted; anything else stays pending for redelivery.
func (q *RedisQueue) Delete(ctx context.Context, msgID string) error {
	if err := q.redisClient.XAck(ctx, q.stream, q.group, msgID).Err(); err != nil {
		return fmt.Errorf("failed to ack message %s: %w", msgID, err)
	}
	if err := q.redisClient.XDel(ctx, q.stream, msgID).Err(); err != nil {
		return fmt.Errorf("failed to delete message %s: %w", msgID, err)
	}
	return nil
}

func toMessage(msg *redis.XMessage) *Message {
	body, _ := msg.Values["task_data"].(string)
	return &Message{ID: msg.ID, Body: body}
}
