package startup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestStartup_StartsInDependencyOrder(t *testing.T) {
	var order []string
	record := func(name string) func(context.Context) error {
		return func(context.Context) error {
			order = append(order, name)
			return nil
		}
	}

	s := NewStartup(testLogger(), 1)
	s.AddDependency(Func{Name: "migrations", Upstream: []string{"database"}, StartFunc: record("migrations")})
	s.AddDependency(Func{Name: "database", StartFunc: record("database")})
	s.AddDependency(Func{Name: "redis", StartFunc: record("redis")})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"database", "migrations", "redis"}, order)
	assert.Equal(t, StatusStarted, s.Status("migrations"))
}

func TestStartup_RetriesFailedDependency(t *testing.T) {
	calls := 0
	s := NewStartup(testLogger(), 3)
	s.backoffUnit = time.Millisecond
	s.AddDependency(Func{Name: "kafka", StartFunc: func(context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("broker unavailable")
		}
		return nil
	}})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, 2, calls)
}

func TestStartup_GivesUpAfterMaxAttempts(t *testing.T) {
	s := NewStartup(testLogger(), 2)
	s.backoffUnit = time.Millisecond
	s.AddDependency(Func{Name: "graph", StartFunc: func(context.Context) error {
		return errors.New("no route to host")
	}})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, StatusFailed, s.Status("graph"))
}

func TestStartup_StopsInReverseOrder(t *testing.T) {
	var stopped []string
	stop := func(name string) func(context.Context) error {
		return func(context.Context) error {
			stopped = append(stopped, name)
			return nil
		}
	}

	s := NewStartup(testLogger(), 1)
	s.AddDependency(Func{Name: "database", StopFunc: stop("database")})
	s.AddDependency(Func{Name: "migrations", Upstream: []string{"database"}, StopFunc: stop("migrations")})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"migrations", "database"}, stopped)
	assert.Equal(t, StatusStopped, s.Status("database"))
}

func TestStartup_UnknownUpstream(t *testing.T) {
	s := NewStartup(testLogger(), 1)
	s.AddDependency(Func{Name: "providers", Upstream: []string{"redis"}})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown startup dependency 'redis'")
}
