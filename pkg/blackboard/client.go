package blackboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client provides instance-scoped Redis operations for blackboards, events
// and the task mirror. All keys and channels are namespaced with the
// instance name. The client is safe for concurrent use.
type Client struct {
	rdb          *redis.Client
	instanceName string
}

// NewClient creates a new blackboard client for the specified instance.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, etc.)
//   - instanceName: agent instance identifier (must not be empty)
//
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// NewClientFromURL parses a redis:// URL and creates a client.
func NewClientFromURL(url, instanceName string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return NewClient(opts, instanceName)
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Used by the health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// SaveBlackboard writes a finished blackboard and publishes a decision event.
// The blackboard is stored as a hash at ethos:{instance}:blackboard:{id} and
// indexed in the history ZSET by creation time.
func (c *Client) SaveBlackboard(ctx context.Context, b *Blackboard) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("invalid blackboard: %w", err)
	}

	hash, err := BlackboardToHash(b)
	if err != nil {
		return fmt.Errorf("failed to serialize blackboard: %w", err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, BlackboardKey(c.instanceName, b.ID), hash)
	pipe.ZAdd(ctx, HistoryKey(c.instanceName), redis.Z{Score: HistoryScore(b.CreatedAtMs), Member: b.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write blackboard to Redis: %w", err)
	}

	return c.PublishEvent(ctx, &Event{
		Type:    EventDecision,
		Subject: b.ID,
		Status:  b.LastDecision.String(),
		Detail:  b.LastResponse,
	})
}

// GetBlackboard retrieves a blackboard by ID.
// Returns (nil, redis.Nil) if it doesn't exist; use IsNotFound to check.
func (c *Client) GetBlackboard(ctx context.Context, id string) (*Blackboard, error) {
	hashData, err := c.rdb.HGetAll(ctx, BlackboardKey(c.instanceName, id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read blackboard from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	b, err := HashToBlackboard(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize blackboard: %w", err)
	}
	return b, nil
}

// RecentBlackboards returns up to limit blackboard IDs, newest first.
func (c *Client) RecentBlackboards(ctx context.Context, limit int64) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	ids, err := c.rdb.ZRevRange(ctx, HistoryKey(c.instanceName), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read blackboard history: %w", err)
	}
	return ids, nil
}

// PublishEvent publishes ev on the instance's events channel.
// A zero timestamp is filled with the current time.
func (c *Client) PublishEvent(ctx context.Context, ev *Event) error {
	if ev.TimestampMs == 0 {
		ev.TimestampMs = time.Now().UnixMilli()
	}
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := c.rdb.Publish(ctx, EventsChannel(c.instanceName), data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", ev.Type, err)
	}
	return nil
}

// PublishTopicEvent announces a topic state change ("released", "denied", ...).
func (c *Client) PublishTopicEvent(ctx context.Context, topic, status, detail string) error {
	return c.PublishEvent(ctx, &Event{Type: EventTopic, Subject: topic, Status: status, Detail: detail})
}

// PublishPhaseEvent announces a phase change of the agent.
func (c *Client) PublishPhaseEvent(ctx context.Context, phase, detail string) error {
	return c.PublishEvent(ctx, &Event{Type: EventPhase, Subject: phase, Status: phase, Detail: detail})
}

// MirrorTask appends (or, with front set, prepends) a task record to the
// tier's list. The mirror is for observers only; the scheduler's in-memory
// queue stays authoritative.
func (c *Client) MirrorTask(ctx context.Context, rec TaskRecord, front bool) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal task record: %w", err)
	}

	key := TaskQueueKey(c.instanceName, rec.Priority)
	if front {
		err = c.rdb.LPush(ctx, key, data).Err()
	} else {
		err = c.rdb.RPush(ctx, key, data).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to mirror task: %w", err)
	}

	return c.PublishEvent(ctx, &Event{Type: EventTask, Subject: rec.ID, Status: "queued", Detail: rec.Type})
}

// RemoveTask removes a task record from its tier's list.
func (c *Client) RemoveTask(ctx context.Context, rec TaskRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal task record: %w", err)
	}
	if err := c.rdb.LRem(ctx, TaskQueueKey(c.instanceName, rec.Priority), 1, data).Err(); err != nil {
		return fmt.Errorf("failed to remove mirrored task: %w", err)
	}
	return nil
}

// MirroredTasks lists the records currently mirrored for one tier.
// Returns an empty slice if nothing is queued (not an error).
func (c *Client) MirroredTasks(ctx context.Context, priority string) ([]TaskRecord, error) {
	raw, err := c.rdb.LRange(ctx, TaskQueueKey(c.instanceName, priority), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read mirrored tasks: %w", err)
	}

	records := make([]TaskRecord, 0, len(raw))
	for _, item := range raw {
		var rec TaskRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Subscription represents an active Pub/Sub subscription to agent events.
// Caller must call Close() when done to clean up resources.
type Subscription struct {
	events <-chan *Event
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of events.
// The channel is closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *Event {
	return s.events
}

// Errors returns the channel of non-fatal subscription errors.
// Malformed messages are reported here and skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call multiple times.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeEvents subscribes to this instance's events channel.
// The call returns once Redis has confirmed the subscription, so events
// published afterwards are not missed. Delivery is at-most-once.
func (c *Client) SubscribeEvents(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, EventsChannel(c.instanceName))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to events: %w", err)
	}

	eventsChan := make(chan *Event, 10)
	errorsChan := make(chan error, 10)
	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &ev:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
