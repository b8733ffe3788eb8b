package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/holidaynate/MaxClaim-Replit-sub000/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/holidaynate/MaxClaim-Replit-sub000/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	client *Client
	mock   redismock.ClientMock
	cache  Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.client = NewClientWithRDB(db, logging.NewNopLogger())
	s.cache = NewCache(s.client, logging.NewNopLogger(), WithPrefix("test:"))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

type cachedPatterns struct {
	Carrier string   `json:"carrier"`
	Items   []string `json:"items"`
}

func (s *CacheTestSuite) TestGetCacheHit() {
	val := cachedPatterns{Carrier: "state farm", Items: []string{"drip edge"}}
	data, _ := json.Marshal(val)

	s.mock.ExpectGet("test:patterns:state farm").SetVal(string(data))

	var dest cachedPatterns
	err := s.cache.Get(context.Background(), "patterns:state farm", &dest)
	s.NoError(err)
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGetCacheMiss() {
	s.mock.ExpectGet("test:patterns:acme").RedisNil()

	var dest cachedPatterns
	err := s.cache.Get(context.Background(), "patterns:acme", &dest)
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *CacheTestSuite) TestGetNullSentinelIsMiss() {
	s.mock.ExpectGet("test:patterns:acme").SetVal(nullSentinel)

	var dest cachedPatterns
	err := s.cache.Get(context.Background(), "patterns:acme", &dest)
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *CacheTestSuite) TestGetBackendErrorIsWrapped() {
	s.mock.ExpectGet("test:patterns:acme").SetErr(assert.AnError)

	var dest cachedPatterns
	err := s.cache.Get(context.Background(), "patterns:acme", &dest)
	s.Error(err)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestDeletePrefixesKeys() {
	s.mock.ExpectDel("test:a", "test:b").SetVal(2)
	s.NoError(s.cache.Delete(context.Background(), "a", "b"))
}

func (s *CacheTestSuite) TestDeleteNoKeysIsNoop() {
	s.NoError(s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestDeleteByPrefix() {
	s.mock.ExpectScan(0, "test:patterns:*", 100).SetVal([]string{"test:patterns:a", "test:patterns:b"}, 0)
	s.mock.ExpectDel("test:patterns:a", "test:patterns:b").SetVal(2)

	n, err := s.cache.DeleteByPrefix(context.Background(), "patterns:")
	s.NoError(err)
	s.Equal(int64(2), n)
}

func (s *CacheTestSuite) TestGetOrSetHitSkipsLoader() {
	val := cachedPatterns{Carrier: "usaa"}
	data, _ := json.Marshal(val)
	s.mock.ExpectGet("test:patterns:usaa").SetVal(string(data))

	var dest cachedPatterns
	err := s.cache.GetOrSet(context.Background(), "patterns:usaa", &dest, time.Minute,
		func(context.Context) (interface{}, error) {
			s.Fail("loader must not run on a hit")
			return nil, nil
		})
	s.NoError(err)
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGetOrSetLoaderErrorPropagates() {
	s.mock.ExpectGet("test:patterns:usaa").RedisNil()

	var dest cachedPatterns
	err := s.cache.GetOrSet(context.Background(), "patterns:usaa", &dest, time.Minute,
		func(context.Context) (interface{}, error) {
			return nil, assert.AnError
		})
	s.ErrorIs(err, assert.AnError)
}

func (s *CacheTestSuite) TestGetOrSetNilLoaderResultCachesNull() {
	s.mock.ExpectGet("test:patterns:usaa").RedisNil()
	s.mock.ExpectSet("test:patterns:usaa", nullSentinel, 30*time.Second).SetVal("OK")

	var dest cachedPatterns
	err := s.cache.GetOrSet(context.Background(), "patterns:usaa", &dest, time.Minute,
		func(context.Context) (interface{}, error) {
			return nil, nil
		})
	s.ErrorIs(err, ErrCacheMiss)
}

func (s *CacheTestSuite) TestGetOrSetLoadsAndReturnsValue() {
	s.mock.ExpectGet("test:patterns:usaa").RedisNil()

	val := cachedPatterns{Carrier: "usaa", Items: []string{"gutter apron"}}
	var dest cachedPatterns
	// The cache-populate write is best effort; the loaded value reaches the
	// caller even when the write is rejected.
	err := s.cache.GetOrSet(context.Background(), "patterns:usaa", &dest, time.Minute,
		func(context.Context) (interface{}, error) {
			return val, nil
		})
	s.NoError(err)
	s.Equal(val, dest)
}

func TestCacheTestSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}
