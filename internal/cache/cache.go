package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// UnreadTTL bounds how long a cached unread count may lag behind a missed invalidation.
const UnreadTTL = 10 * time.Minute

// UnreadCache stores per-user unread notification counts.
//
// Every Invalidate bumps the entry's version. Get returns the current
// version on a miss and Set only stores a count computed under that same
// version, so a reader racing with a writer cannot cache a stale count.
type UnreadCache interface {
	// Get reports ok=false on a miss, together with the version to pass to Set.
	Get(ctx context.Context, userID uuid.UUID) (count int, version int64, ok bool, err error)
	// Set stores count unless the entry was invalidated after version was read.
	Set(ctx context.Context, userID uuid.UUID, count int, version int64) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

const (
	fieldCount   = "count"
	fieldVersion = "version"
)

// setIfCurrent writes the count only while the version still matches.
var setIfCurrent = redis.NewScript(`
local v = redis.call('HGET', KEYS[1], 'version')
if (v or '0') ~= ARGV[1] then
	return 0
end
redis.call('HSET', KEYS[1], 'count', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

type RedisUnreadCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to the server at url (redis://...) and pings it.
func NewRedis(ctx context.Context, url string) (*RedisUnreadCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return NewRedisWithClient(client), nil
}

func NewRedisWithClient(client *redis.Client) *RedisUnreadCache {
	return &RedisUnreadCache{client: client, ttl: UnreadTTL}
}

func unreadKey(userID uuid.UUID) string {
	return "unicollab:unread:" + userID.String()
}

func (c *RedisUnreadCache) Get(ctx context.Context, userID uuid.UUID) (int, int64, bool, error) {
	vals, err := c.client.HMGet(ctx, unreadKey(userID), fieldCount, fieldVersion).Result()
	if err != nil {
		return 0, 0, false, err
	}

	var version int64
	if s, ok := vals[1].(string); ok {
		version, _ = strconv.ParseInt(s, 10, 64)
	}
	s, ok := vals[0].(string)
	if !ok {
		return 0, version, false, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, version, false, nil
	}
	return n, version, true, nil
}

func (c *RedisUnreadCache) Set(ctx context.Context, userID uuid.UUID, count int, version int64) error {
	return setIfCurrent.Run(ctx, c.client, []string{unreadKey(userID)},
		strconv.FormatInt(version, 10), count, c.ttl.Milliseconds()).Err()
}

func (c *RedisUnreadCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	key := unreadKey(userID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, key, fieldVersion, 1)
		pipe.HDel(ctx, key, fieldCount)
		pipe.PExpire(ctx, key, c.ttl)
		return nil
	})
	return err
}

func (c *RedisUnreadCache) Close() error {
	return c.client.Close()
}

// Noop always misses. Used when REDIS_URL is unset.
type Noop struct{}

func (Noop) Get(context.Context, uuid.UUID) (int, int64, bool, error) { return 0, 0, false, nil }
func (Noop) Set(context.Context, uuid.UUID, int, int64) error         { return nil }
func (Noop) Invalidate(context.Context, uuid.UUID) error              { return nil }
