package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/voicebridge/voicebridge/internal/application/constant"
	"github.com/voicebridge/voicebridge/internal/domain/output"
)

const membershipChannel = "rooms:events"

// RedisStore mirrors rooms into Redis hashes plus a set of public room
// IDs, and relays membership events over pub/sub.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func roomKey(roomID string) string {
	return fmt.Sprintf("rooms:%s", roomID)
}

const publicRoomsKey = "rooms:public"

func (s *RedisStore) SaveRoom(ctx context.Context, record RoomRecord) error {
	pipe := s.client.TxPipeline()

	pipe.HSet(ctx, roomKey(record.ID), map[string]any{
		"id":           record.ID,
		"name":         record.Name,
		"is_public":    strconv.FormatBool(record.IsPublic),
		"has_password": strconv.FormatBool(record.HasPassword),
		"created_by":   record.CreatedBy,
	})

	if record.IsPublic {
		pipe.SAdd(ctx, publicRoomsKey, record.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save room %s: %w", record.ID, err)
	}

	return nil
}

func (s *RedisStore) SetUserCount(ctx context.Context, roomID string, count int) error {
	if err := s.client.HSet(ctx, roomKey(roomID), "users_count", count).Err(); err != nil {
		return fmt.Errorf("set user count for %s: %w", roomID, err)
	}

	return nil
}

func (s *RedisStore) DeleteRoom(ctx context.Context, roomID string) error {
	pipe := s.client.TxPipeline()

	pipe.Del(ctx, roomKey(roomID))
	pipe.SRem(ctx, publicRoomsKey, roomID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete room %s: %w", roomID, err)
	}

	return nil
}

func (s *RedisStore) ListPublicRooms(ctx context.Context) ([]output.RoomSummary, error) {
	roomIDs, err := s.client.SMembers(ctx, publicRoomsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list public rooms: %w", err)
	}

	summaries := make([]output.RoomSummary, 0, len(roomIDs))

	for _, roomID := range roomIDs {
		fields, err := s.client.HGetAll(ctx, roomKey(roomID)).Result()
		if err != nil || len(fields) == 0 {
			continue
		}

		count, _ := strconv.Atoi(fields["users_count"])

		summaries = append(summaries, output.RoomSummary{
			ID:          roomID,
			Name:        fields["name"],
			UsersCount:  count,
			HasPassword: fields["has_password"] == "true",
		})
	}

	return summaries, nil
}

func (s *RedisStore) PublishMembership(ctx context.Context, event MembershipEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal membership event: %w", err)
	}

	if err := s.client.Publish(ctx, membershipChannel, data).Err(); err != nil {
		return fmt.Errorf("publish membership event: %w", err)
	}

	return nil
}

func (s *RedisStore) SubscribeMembership(ctx context.Context) (<-chan MembershipEvent, error) {
	sub := s.client.Subscribe(ctx, membershipChannel)

	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("subscribe membership events: %w", err)
	}

	events := make(chan MembershipEvent)

	go func() {
		defer close(events)
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}

				var event MembershipEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.Warn("malformed membership event", slog.Any(constant.Error, err))
					continue
				}

				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return events, nil
}
