package factory

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mcoot/gameshelf/internal/dependencies/mocks"
	"github.com/mcoot/gameshelf/internal/storage/memory"
	"github.com/mcoot/gameshelf/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Backend and mocks for test control
	Memory       *memory.Storage
	MockClock    *mocks.MockClock
	MockIdentity *mocks.MockIdentity
}

// NewTestApp creates an App over in-memory storage with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockIdentity := mocks.NewMockIdentity()

	app := newWithDependencies(store, mockClock, mockIdentity, prometheus.NewRegistry(), testutil.NopLogger())

	return &TestApp{
		App:          app,
		Memory:       store,
		MockClock:    mockClock,
		MockIdentity: mockIdentity,
	}
}
