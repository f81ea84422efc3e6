package storage_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameshelf/internal/storage"
	"github.com/mcoot/gameshelf/internal/storage/memory"
	"github.com/mcoot/gameshelf/internal/testutil"
)

type item struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func (i item) RecordID() string {
	return i.ID
}

type CollectionSuite struct {
	suite.Suite
	backend    *memory.Storage
	registry   *prometheus.Registry
	collection *storage.Collection[item]
	ctx        context.Context
}

func TestCollectionSuite(t *testing.T) {
	suite.Run(t, new(CollectionSuite))
}

func (s *CollectionSuite) SetupTest() {
	s.backend = memory.New()
	s.registry = prometheus.NewRegistry()
	metrics := storage.NewMetrics(s.registry)
	s.collection = storage.NewCollection[item]("items", s.backend, testutil.NopLogger(), metrics)
	s.ctx = context.Background()
}

func (s *CollectionSuite) seed(items ...item) {
	raw := make([]json.RawMessage, len(items))
	for i, it := range items {
		data, err := json.Marshal(it)
		s.Require().NoError(err)
		raw[i] = data
	}
	s.Require().NoError(s.backend.Persist(s.ctx, "items", raw))
}

// Read tests

func (s *CollectionSuite) TestLoadAllEmpty() {
	records, err := s.collection.LoadAll(s.ctx)
	s.Require().NoError(err)
	s.NotNil(records)
	s.Empty(records)
}

func (s *CollectionSuite) TestLoadAllKeepsOrder() {
	s.seed(item{ID: "b"}, item{ID: "a"}, item{ID: "c"})

	records, err := s.collection.LoadAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(records, 3)
	s.Equal("b", records[0].ID)
	s.Equal("a", records[1].ID)
	s.Equal("c", records[2].ID)
}

func (s *CollectionSuite) TestFindByID() {
	s.seed(item{ID: "a", Name: "first"}, item{ID: "b", Name: "second"})

	rec, ok, err := s.collection.FindByID(s.ctx, "b")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("second", rec.Name)

	_, ok, err = s.collection.FindByID(s.ctx, "missing")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *CollectionSuite) TestFindOneReturnsFirstMatch() {
	s.seed(item{ID: "a", Count: 1}, item{ID: "b", Count: 2}, item{ID: "c", Count: 2})

	rec, ok, err := s.collection.FindOne(s.ctx, func(i item) bool { return i.Count == 2 })
	s.Require().NoError(err)
	s.True(ok)
	s.Equal("b", rec.ID)
}

func (s *CollectionSuite) TestFindAllFilters() {
	s.seed(item{ID: "a", Count: 1}, item{ID: "b", Count: 2}, item{ID: "c", Count: 3})

	recs, err := s.collection.FindAll(s.ctx, func(i item) bool { return i.Count >= 2 })
	s.Require().NoError(err)
	s.Len(recs, 2)
}

func (s *CollectionSuite) TestReadsReturnCopies() {
	s.seed(item{ID: "a", Tags: []string{"x"}})

	rec, _, _ := s.collection.FindByID(s.ctx, "a")
	rec.Tags[0] = "mutated"

	again, _, _ := s.collection.FindByID(s.ctx, "a")
	s.Equal([]string{"x"}, again.Tags)
}

func (s *CollectionSuite) TestCount() {
	s.seed(item{ID: "a"}, item{ID: "b"})

	n, err := s.collection.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
}

// Write tests

func (s *CollectionSuite) TestInsertPersists() {
	s.Require().NoError(s.collection.Insert(s.ctx, item{ID: "a", Name: "new"}))

	raw := s.backend.Raw("items")
	s.Require().Len(raw, 1)
	s.JSONEq(`{"id":"a","name":"new","count":0,"tags":null}`, string(raw[0]))
}

func (s *CollectionSuite) TestUpdateMergesAndPersists() {
	s.seed(item{ID: "a", Count: 1})

	rec, ok, err := s.collection.Update(s.ctx, "a", func(i *item) error {
		i.Count++
		return nil
	})
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(2, rec.Count)

	s.collection.Reload()
	stored, _, _ := s.collection.FindByID(s.ctx, "a")
	s.Equal(2, stored.Count)
}

func (s *CollectionSuite) TestUpdateMissing() {
	_, ok, err := s.collection.Update(s.ctx, "missing", func(*item) error { return nil })
	s.Require().NoError(err)
	s.False(ok)
}

func (s *CollectionSuite) TestUpdateCallbackErrorWritesNothing() {
	s.seed(item{ID: "a", Count: 1})
	boom := errors.New("rejected")

	_, ok, err := s.collection.Update(s.ctx, "a", func(i *item) error {
		i.Count = 99
		return boom
	})
	s.ErrorIs(err, boom)
	s.True(ok)

	rec, _, _ := s.collection.FindByID(s.ctx, "a")
	s.Equal(1, rec.Count)
}

func (s *CollectionSuite) TestDelete() {
	s.seed(item{ID: "a"}, item{ID: "b"}, item{ID: "c"})

	removed, err := s.collection.Delete(s.ctx, "b")
	s.Require().NoError(err)
	s.True(removed)

	removed, err = s.collection.Delete(s.ctx, "b")
	s.Require().NoError(err)
	s.False(removed)

	// Index must be rebuilt after removal
	rec, ok, _ := s.collection.FindByID(s.ctx, "c")
	s.True(ok)
	s.Equal("c", rec.ID)
}

func (s *CollectionSuite) TestMutateAbortsOnError() {
	s.seed(item{ID: "a"})
	boom := errors.New("duplicate")

	err := s.collection.Mutate(s.ctx, func(items []item) ([]item, error) {
		return nil, boom
	})
	s.ErrorIs(err, boom)

	n, _ := s.collection.Count(s.ctx)
	s.Equal(1, n)
}

func (s *CollectionSuite) TestPersistReplaces() {
	s.seed(item{ID: "a"})

	s.Require().NoError(s.collection.Persist(s.ctx, []item{{ID: "x"}, {ID: "y"}}))

	recs, err := s.collection.LoadAll(s.ctx)
	s.Require().NoError(err)
	s.Len(recs, 2)
	s.Len(s.backend.Raw("items"), 2)
}

func (s *CollectionSuite) TestConcurrentUpdatesDoNotLoseWrites() {
	s.seed(item{ID: "counter"})

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.collection.Update(s.ctx, "counter", func(i *item) error {
				i.Count++
				return nil
			})
			s.NoError(err)
		}()
	}
	wg.Wait()

	rec, _, _ := s.collection.FindByID(s.ctx, "counter")
	s.Equal(50, rec.Count)
}

// Failure tests

func (s *CollectionSuite) TestUnreadableBackendDegradesToEmpty() {
	s.seed(item{ID: "a"})
	s.backend.FailLoads(errors.New("disk unreadable"))

	records, err := s.collection.LoadAll(s.ctx)
	s.ErrorIs(err, storage.ErrIOFailure)
	s.Empty(records)
	s.Empty(s.collection.Snapshot(s.ctx))
}

func (s *CollectionSuite) TestCorruptRecordIsIOFailure() {
	s.Require().NoError(s.backend.Persist(s.ctx, "items", []json.RawMessage{json.RawMessage(`"not an object"`)}))

	_, err := s.collection.LoadAll(s.ctx)
	s.ErrorIs(err, storage.ErrIOFailure)
}

func (s *CollectionSuite) TestMutationsRefusedWhileUnreadable() {
	s.seed(item{ID: "a"})
	s.backend.FailLoads(errors.New("disk unreadable"))

	err := s.collection.Insert(s.ctx, item{ID: "b"})
	s.ErrorIs(err, storage.ErrIOFailure)

	// The stored data was not overwritten
	s.Len(s.backend.Raw("items"), 1)

	// A failed load is retried once the backend recovers
	s.backend.FailLoads(nil)
	s.Require().NoError(s.collection.Insert(s.ctx, item{ID: "b"}))
	s.Len(s.backend.Raw("items"), 2)
}

func (s *CollectionSuite) TestFailedPersistKeepsPreviousState() {
	s.seed(item{ID: "a", Count: 1})
	_, _, err := s.collection.FindByID(s.ctx, "a")
	s.Require().NoError(err)

	s.backend.FailPersists(errors.New("disk full"))
	_, _, err = s.collection.Update(s.ctx, "a", func(i *item) error {
		i.Count = 5
		return nil
	})
	s.ErrorIs(err, storage.ErrIOFailure)

	rec, _, _ := s.collection.FindByID(s.ctx, "a")
	s.Equal(1, rec.Count)
}

// Metrics tests

func (s *CollectionSuite) TestMetricsRecorded() {
	s.Require().NoError(s.collection.Insert(s.ctx, item{ID: "a"}))

	// One load and one persist series
	n, err := promtest.GatherAndCount(s.registry, "gameshelf_storage_operations_total")
	s.Require().NoError(err)
	s.Equal(2, n)

	n, err = promtest.GatherAndCount(s.registry, "gameshelf_storage_records")
	s.Require().NoError(err)
	s.Equal(1, n)
}
