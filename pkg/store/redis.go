package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/driftchat/driftchat/pkg/models"
)

// DispatchSyncChannel carries messages that could not be delivered locally to
// peer instances whose presence registry may hold the recipient.
const DispatchSyncChannel = "dm_sync"

const presenceTTL = 5 * time.Minute

func InitRedis(url string, logger *slog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		logger.Error("Failed to parse Redis URL", "error", err)
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	opt.PoolSize = 100
	opt.MinIdleConns = 10
	opt.MaxRetries = 3
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second
	opt.PoolTimeout = 4 * time.Second

	logger.Info("Redis client configured", "addr", opt.Addr)
	return redis.NewClient(opt), nil
}

// Redis cache keys
func presenceKey(userID int64) string {
	return fmt.Sprintf("presence:%d", userID)
}

// conversationKey is symmetric in its arguments so both argument orders hit
// the same cache entry.
func conversationKey(userA, userB int64) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("conversation:%d:%d", userA, userB)
}

// MarkPresence records a live binding in Redis so peer instances and the
// online-users endpoint can see it. Best-effort: a Redis failure never fails
// a bind.
func (s *Store) MarkPresence(userID int64) {
	if err := s.RDB.Set(s.Ctx, presenceKey(userID), time.Now().Unix(), presenceTTL).Err(); err != nil {
		s.logger.Warn("Failed to mark presence in Redis", "error", err, "user_id", userID)
	}
}

func (s *Store) ClearPresence(userID int64) {
	if err := s.RDB.Del(s.Ctx, presenceKey(userID)).Err(); err != nil {
		s.logger.Warn("Failed to clear presence in Redis", "error", err, "user_id", userID)
	}
}

func (s *Store) GetOnlineUsers() ([]int64, error) {
	keys, err := s.RDB.Keys(s.Ctx, "presence:*").Result()
	if err != nil {
		s.logger.Error("Failed to get online users from Redis", "error", err)
		return nil, err
	}

	var userIDs []int64
	for _, key := range keys {
		var id int64
		if _, err := fmt.Sscanf(key, "presence:%d", &id); err == nil {
			userIDs = append(userIDs, id)
		}
	}

	s.logger.Debug("Online users retrieved", "count", len(userIDs))
	return userIDs, nil
}

// PublishDispatchSync hands an undeliverable message to peer instances.
func (s *Store) PublishDispatchSync(payload []byte) error {
	return s.RDB.Publish(s.Ctx, DispatchSyncChannel, payload).Err()
}

func (s *Store) SubscribeDispatchSync() *redis.PubSub {
	return s.RDB.Subscribe(s.Ctx, DispatchSyncChannel)
}

// Cache helpers
func (s *Store) CacheConversation(userA, userB int64, messages []models.Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return err
	}

	return s.RDB.Set(s.Ctx, conversationKey(userA, userB), data, 5*time.Minute).Err()
}

func (s *Store) GetCachedConversation(userA, userB int64) ([]models.Message, error) {
	data, err := s.RDB.Get(s.Ctx, conversationKey(userA, userB)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var messages []models.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, err
	}

	return messages, nil
}

func (s *Store) InvalidateConversationCache(userA, userB int64) {
	if err := s.RDB.Del(s.Ctx, conversationKey(userA, userB)).Err(); err != nil {
		s.logger.Warn("Failed to invalidate conversation cache",
			"error", err, "user_a", userA, "user_b", userB)
	}
}
