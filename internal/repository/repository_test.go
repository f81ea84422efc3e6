package repository

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gameshelf/internal/dependencies/mocks"
	"github.com/mcoot/gameshelf/internal/storage/memory"
	"github.com/mcoot/gameshelf/internal/testutil"
)

// repoSuite is embedded by every repository suite
type repoSuite struct {
	suite.Suite
	backend *memory.Storage
	ids     *mocks.MockIdentity
	clock   *mocks.MockClock
	repos   *Repositories
	ctx     context.Context
}

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func (s *repoSuite) SetupTest() {
	s.backend = memory.New()
	s.ids = mocks.NewMockIdentity()
	s.clock = mocks.NewMockClock(epoch)
	s.repos = New(s.backend, s.ids, s.clock, testutil.NopLogger(), nil)
	s.ctx = context.Background()
}

func ptr[T any](v T) *T {
	return &v
}
