package usage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aman-churiwal/assistant-gateway/internal/storage"
)

// RedisWindowStore keeps window state in redis sorted sets so multiple
// gateway instances can share quotas. One ZSET per key per window, scored
// by event time in nanoseconds; token events carry their delta inside the
// member.
type RedisWindowStore struct {
	redis *storage.RedisClient
}

func NewRedisWindowStore(redis *storage.RedisClient) *RedisWindowStore {
	return &RedisWindowStore{redis: redis}
}

func (s *RedisWindowStore) baseKey(key TrackingKey) string {
	return fmt.Sprintf("usage:%s:%s:%s:%s", key.Identity, key.Tier, key.Provider, key.Model)
}

func (s *RedisWindowStore) Prune(ctx context.Context, key TrackingKey, now time.Time) error {
	base := s.baseKey(key)
	minuteCutoff := strconv.FormatInt(now.Add(-minuteWindow).UnixNano(), 10)
	dayCutoff := strconv.FormatInt(now.Add(-dayWindow).UnixNano(), 10)

	pipe := s.redis.Pipeline()
	pipe.ZRemRangeByScore(ctx, base+":reqmin", "0", minuteCutoff)
	pipe.ZRemRangeByScore(ctx, base+":reqday", "0", dayCutoff)
	pipe.ZRemRangeByScore(ctx, base+":tokmin", "0", minuteCutoff)
	pipe.ZRemRangeByScore(ctx, base+":tokday", "0", dayCutoff)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisWindowStore) Snapshot(ctx context.Context, key TrackingKey) (Snapshot, error) {
	base := s.baseKey(key)

	pipe := s.redis.Pipeline()
	minuteCmd := pipe.ZCard(ctx, base+":reqmin")
	dayCmd := pipe.ZCard(ctx, base+":reqday")
	tokMinCmd := pipe.ZRange(ctx, base+":tokmin", 0, -1)
	tokDayCmd := pipe.ZRange(ctx, base+":tokday", 0, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		RequestsMinute: int(minuteCmd.Val()),
		RequestsDay:    int(dayCmd.Val()),
		TokensMinute:   sumTokenMembers(tokMinCmd.Val()),
		TokensDay:      sumTokenMembers(tokDayCmd.Val()),
	}, nil
}

func (s *RedisWindowStore) Record(ctx context.Context, key TrackingKey, now time.Time, tokens int64) error {
	base := s.baseKey(key)
	score := float64(now.UnixNano())

	// Members get a uuid suffix so two events in the same nanosecond do not
	// collapse into one ZSET entry.
	reqMember := fmt.Sprintf("%d:%s", now.UnixNano(), uuid.NewString())
	tokMember := fmt.Sprintf("%d:%d:%s", now.UnixNano(), tokens, uuid.NewString())

	pipe := s.redis.Pipeline()
	pipe.ZAdd(ctx, base+":reqmin", redis.Z{Score: score, Member: reqMember})
	pipe.ZAdd(ctx, base+":reqday", redis.Z{Score: score, Member: reqMember})
	pipe.Expire(ctx, base+":reqmin", minuteWindow)
	pipe.Expire(ctx, base+":reqday", dayWindow)
	if tokens > 0 {
		pipe.ZAdd(ctx, base+":tokmin", redis.Z{Score: score, Member: tokMember})
		pipe.ZAdd(ctx, base+":tokday", redis.Z{Score: score, Member: tokMember})
		pipe.Expire(ctx, base+":tokmin", minuteWindow)
		pipe.Expire(ctx, base+":tokday", dayWindow)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Token members are "nano:delta:uuid".
func sumTokenMembers(members []string) int64 {
	var total int64
	for _, m := range members {
		parts := strings.SplitN(m, ":", 3)
		if len(parts) < 2 {
			continue
		}
		delta, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		total += delta
	}
	return total
}
