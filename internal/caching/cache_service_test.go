package caching

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CacheServiceSuite struct {
	suite.Suite
	mr    *miniredis.Miniredis
	cache CacheService
	ctx   context.Context
}

func (s *CacheServiceSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: s.mr.Addr()})
	s.T().Cleanup(func() { client.Close() })
	s.cache = NewRedisCacheService(client)
	s.ctx = context.Background()
}

func (s *CacheServiceSuite) TestTakeJSONConsumesOnce() {
	type session struct{ User string }
	key := RefreshTokenKey("tok")
	s.Require().NoError(s.cache.SetJSON(s.ctx, key, session{User: "user-1"}, time.Minute))

	var got session
	found, err := s.cache.TakeJSON(s.ctx, key, &got)
	s.Require().NoError(err)
	s.True(found)
	s.Equal("user-1", got.User)

	found, err = s.cache.TakeJSON(s.ctx, key, &got)
	s.Require().NoError(err)
	s.False(found)
	s.False(s.mr.Exists(key))
}

func (s *CacheServiceSuite) TestJSONExpires() {
	type payload struct{ N int }
	s.Require().NoError(s.cache.SetJSON(s.ctx, "k", payload{N: 7}, time.Minute))

	var got payload
	found, err := s.cache.GetJSON(s.ctx, "k", &got)
	s.Require().NoError(err)
	s.True(found)
	s.Equal(7, got.N)

	s.mr.FastForward(2 * time.Minute)
	found, err = s.cache.GetJSON(s.ctx, "k", &got)
	s.Require().NoError(err)
	s.False(found)
}

func (s *CacheServiceSuite) TestHitWindowResetsAfterWindow() {
	for i := int64(1); i <= 3; i++ {
		count, ttl, err := s.cache.HitWindow(s.ctx, "biz", time.Minute)
		s.Require().NoError(err)
		s.Equal(i, count)
		s.LessOrEqual(ttl, time.Minute)
	}

	s.mr.FastForward(61 * time.Second)
	count, _, err := s.cache.HitWindow(s.ctx, "biz", time.Minute)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *CacheServiceSuite) TestUsageCountersArePerBusinessAndDay() {
	a, b := uuid.New(), uuid.New()
	day := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.cache.IncrementUsage(s.ctx, a, day)
	s.Require().NoError(err)
	n, err := s.cache.IncrementUsage(s.ctx, a, day)
	s.Require().NoError(err)
	s.Equal(int64(2), n)

	n, err = s.cache.GetUsage(s.ctx, b, day)
	s.Require().NoError(err)
	s.Zero(n)

	n, err = s.cache.GetUsage(s.ctx, a, day.Add(24*time.Hour))
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *CacheServiceSuite) TestInvalidateBusinessCache() {
	a, b := uuid.New(), uuid.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	s.Require().NoError(s.cache.SetJSON(s.ctx, MetricsKey(a, from, to), 1, time.Minute))
	s.Require().NoError(s.cache.SetJSON(s.ctx, MetricsKey(b, from, to), 2, time.Minute))

	s.Require().NoError(s.cache.InvalidateBusinessCache(s.ctx, a))

	var v int
	found, err := s.cache.GetJSON(s.ctx, MetricsKey(a, from, to), &v)
	s.Require().NoError(err)
	s.False(found)
	found, err = s.cache.GetJSON(s.ctx, MetricsKey(b, from, to), &v)
	s.Require().NoError(err)
	s.True(found)
}

func TestCacheServiceSuite(t *testing.T) {
	suite.Run(t, new(CacheServiceSuite))
}

func TestMemoryCacheWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := &memoryCacheService{entries: make(map[string]memoryEntry), now: func() time.Time { return now }}
	ctx := context.Background()

	count, _, err := cache.HitWindow(ctx, "biz", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	count, ttl, err := cache.HitWindow(ctx, "biz", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, time.Minute, ttl)

	now = now.Add(time.Minute)
	count, _, err = cache.HitWindow(ctx, "biz", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNewRedisClientParsesURL(t *testing.T) {
	client, err := NewRedisClient("redis://localhost:6390/3", "pw", 0)
	require.NoError(t, err)
	defer client.Close()
	assert.Equal(t, "localhost:6390", client.Options().Addr)
	assert.Equal(t, 3, client.Options().DB)
	assert.Equal(t, "pw", client.Options().Password)
}

func TestMemoryTakeJSONConcurrentCallersGetOne(t *testing.T) {
	cache := NewMemoryCacheService()
	ctx := context.Background()
	require.NoError(t, cache.SetJSON(ctx, "k", 1, time.Minute))

	const callers = 8
	var wg sync.WaitGroup
	var found atomic.Int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var v int
			ok, err := cache.TakeJSON(ctx, "k", &v)
			assert.NoError(t, err)
			if ok {
				found.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, found.Load())
}
