//go:build integration

package continuity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"heirloom/internal/continuity"
	"heirloom/pkg/domain"
	"heirloom/pkg/testutil/containers"
)

type RedisHeartbeatSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *continuity.RedisHeartbeatStore
}

func TestRedisHeartbeatSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisHeartbeatSuite))
}

func (s *RedisHeartbeatSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = continuity.NewRedisHeartbeatStore(s.redis.Client)
}

func (s *RedisHeartbeatSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisHeartbeatSuite) TestBeatAndLastBeat() {
	ctx := context.Background()
	ownerID := domain.NewOwnerID()
	at := time.Now().Truncate(time.Second)

	s.Require().NoError(s.store.Beat(ctx, ownerID, at))

	got, found, err := s.store.LastBeat(ctx, ownerID)
	s.Require().NoError(err)
	s.True(found)
	s.Equal(at.Unix(), got.Unix())

	_, found, err = s.store.LastBeat(ctx, domain.NewOwnerID())
	s.Require().NoError(err)
	s.False(found)
}

func (s *RedisHeartbeatSuite) TestBeatOverwritesScore() {
	ctx := context.Background()
	ownerID := domain.NewOwnerID()
	old := time.Now().Add(-time.Hour)
	fresh := time.Now()

	s.Require().NoError(s.store.Beat(ctx, ownerID, old))
	s.Require().NoError(s.store.Beat(ctx, ownerID, fresh))

	expired, err := s.store.Expired(ctx, time.Now().Add(-30*time.Minute))
	s.Require().NoError(err)
	s.Empty(expired)
}

func (s *RedisHeartbeatSuite) TestExpiredAndForget() {
	ctx := context.Background()
	now := time.Now()

	lapsed := domain.NewOwnerID()
	alive := domain.NewOwnerID()
	s.Require().NoError(s.store.Beat(ctx, lapsed, now.Add(-time.Hour)))
	s.Require().NoError(s.store.Beat(ctx, alive, now))

	expired, err := s.store.Expired(ctx, now.Add(-30*time.Minute))
	s.Require().NoError(err)
	s.Require().Len(expired, 1)
	s.Equal(lapsed, expired[0])

	s.Require().NoError(s.store.Forget(ctx, lapsed))
	expired, err = s.store.Expired(ctx, now.Add(-30*time.Minute))
	s.Require().NoError(err)
	s.Empty(expired)
}
