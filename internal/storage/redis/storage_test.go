package redis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestNewConnects() {
	cfg := DefaultConfig()
	cfg.URL = "redis://" + s.mini.Addr()

	st, err := New(cfg)
	s.Require().NoError(err)
	defer st.Close()

	records, err := st.Load(s.ctx, "games")
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *StorageSuite) TestNewRejectsBadURL() {
	cfg := DefaultConfig()
	cfg.URL = "not a url"

	_, err := New(cfg)
	s.Error(err)
}

func (s *StorageSuite) TestLoadMissingKeyIsEmpty() {
	records, err := s.storage.Load(s.ctx, "users")
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *StorageSuite) TestPersistAndLoad() {
	err := s.storage.Persist(s.ctx, "games", []json.RawMessage{
		json.RawMessage(`{"id":"g1","title":"Terraria"}`),
		json.RawMessage(`{"id":"g2","title":"Minecraft"}`),
	})
	s.Require().NoError(err)

	records, err := s.storage.Load(s.ctx, "games")
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.JSONEq(`{"id":"g1","title":"Terraria"}`, string(records[0]))
	s.JSONEq(`{"id":"g2","title":"Minecraft"}`, string(records[1]))
}

func (s *StorageSuite) TestPersistUsesPrefixedKey() {
	s.Require().NoError(s.storage.Persist(s.ctx, "reviews", []json.RawMessage{json.RawMessage(`{"id":"r1"}`)}))

	s.True(s.mini.Exists("gameshelf:collection:reviews"))
	values, err := s.mini.List("gameshelf:collection:reviews")
	s.Require().NoError(err)
	s.Equal([]string{`{"id":"r1"}`}, values)
}

func (s *StorageSuite) TestPersistReplacesList() {
	s.Require().NoError(s.storage.Persist(s.ctx, "games", []json.RawMessage{
		json.RawMessage(`{"id":"g1"}`),
		json.RawMessage(`{"id":"g2"}`),
	}))
	s.Require().NoError(s.storage.Persist(s.ctx, "games", []json.RawMessage{
		json.RawMessage(`{"id":"g3"}`),
	}))

	records, err := s.storage.Load(s.ctx, "games")
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.JSONEq(`{"id":"g3"}`, string(records[0]))
}

func (s *StorageSuite) TestPersistEmptyRemovesKey() {
	s.Require().NoError(s.storage.Persist(s.ctx, "games", []json.RawMessage{json.RawMessage(`{"id":"g1"}`)}))
	s.Require().NoError(s.storage.Persist(s.ctx, "games", nil))

	s.False(s.mini.Exists("gameshelf:collection:games"))
}

func (s *StorageSuite) TestCustomPrefix() {
	cfg := DefaultConfig()
	cfg.KeyPrefix = "test"
	st := NewWithClient(redis.NewClient(&redis.Options{Addr: s.mini.Addr()}), cfg)
	defer st.Close()

	s.Require().NoError(st.Persist(s.ctx, "users", []json.RawMessage{json.RawMessage(`{"id":"u1"}`)}))
	s.True(s.mini.Exists("test:collection:users"))
}

func (s *StorageSuite) TestLoadFailsWhenServerDown() {
	s.mini.Close()

	_, err := s.storage.Load(s.ctx, "games")
	s.Error(err)
}
