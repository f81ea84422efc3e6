package sql

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	cfg := DefaultConfig()
	cfg.DSN = filepath.Join(s.T().TempDir(), "test.db")

	var err error
	s.storage, err = New(cfg)
	s.Require().NoError(err)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

func (s *StorageSuite) TestNewRejectsUnknownDriver() {
	_, err := New(Config{Driver: "oracle"})
	s.Error(err)
}

func (s *StorageSuite) TestLoadEmptyCollection() {
	records, err := s.storage.Load(s.ctx, "games")
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *StorageSuite) TestPersistAndLoadKeepsOrder() {
	err := s.storage.Persist(s.ctx, "games", []json.RawMessage{
		json.RawMessage(`{"id":"g2","title":"UNO"}`),
		json.RawMessage(`{"id":"g1","title":"Terraria"}`),
	})
	s.Require().NoError(err)

	records, err := s.storage.Load(s.ctx, "games")
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.JSONEq(`{"id":"g2","title":"UNO"}`, string(records[0]))
	s.JSONEq(`{"id":"g1","title":"Terraria"}`, string(records[1]))
}

func (s *StorageSuite) TestPersistReplacesOnlyItsCollection() {
	s.Require().NoError(s.storage.Persist(s.ctx, "games", []json.RawMessage{json.RawMessage(`{"id":"g1"}`)}))
	s.Require().NoError(s.storage.Persist(s.ctx, "users", []json.RawMessage{json.RawMessage(`{"id":"u1"}`)}))
	s.Require().NoError(s.storage.Persist(s.ctx, "games", []json.RawMessage{}))

	games, err := s.storage.Load(s.ctx, "games")
	s.Require().NoError(err)
	s.Empty(games)

	users, err := s.storage.Load(s.ctx, "users")
	s.Require().NoError(err)
	s.Len(users, 1)
}

func (s *StorageSuite) TestPersistRejectsNonObjectRecord() {
	err := s.storage.Persist(s.ctx, "games", []json.RawMessage{json.RawMessage(`42`)})
	s.Error(err)

	// The failed write must not have touched the stored collection
	records, err := s.storage.Load(s.ctx, "games")
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *StorageSuite) TestRecordIDColumn() {
	s.Require().NoError(s.storage.Persist(s.ctx, "reviews", []json.RawMessage{json.RawMessage(`{"id":"r1"}`)}))

	var row record
	err := s.storage.db.Where("collection = ?", "reviews").First(&row).Error
	s.Require().NoError(err)
	s.Equal("r1", row.RecordID)
	s.Equal(0, row.Position)
}
