package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Counters(t *testing.T) {
	s := New()
	s.AddRepos(3)
	s.RecordRepo(false, false)
	s.RecordRepo(true, false)
	s.RecordRepo(false, true)

	snap := s.Snapshot()
	assert.Equal(t, int64(3), snap.RepoTotal)
	assert.Equal(t, int64(3), snap.RepoDone)
	assert.Equal(t, int64(1), snap.Partial)
	assert.Equal(t, int64(1), snap.Failed)
	assert.Equal(t, int64(1), snap.Succeeded())
}

func TestStatus_APICallsConcurrent(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.IncrementAPICalls()
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), s.GetAPICalls())
}

func TestStatus_UpdateRateLimit(t *testing.T) {
	t.Run("Success - Not observed until reported", func(t *testing.T) {
		assert.False(t, New().GetRateLimit().Observed)
	})

	t.Run("Success - Keeps the latest report", func(t *testing.T) {
		s := New()
		reset := time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)
		s.UpdateRateLimit(5000, 4200, reset)
		s.UpdateRateLimit(5000, 4100, reset)

		got := s.GetRateLimit()
		assert.True(t, got.Observed)
		assert.Equal(t, int64(4100), got.Remaining)
		assert.Equal(t, reset, got.Reset)
		assert.Zero(t, s.Snapshot().Warnings)
	})

	t.Run("Success - Low quota warning is throttled", func(t *testing.T) {
		s := New()
		for i := 0; i < 5; i++ {
			s.UpdateRateLimit(5000, 90-int64(i), time.Time{})
		}

		assert.Equal(t, int64(1), s.Snapshot().Warnings)
	})
}

func TestStatus_WarnAndErrorCounts(t *testing.T) {
	s := New()
	s.Warnf("warn %d\n", 1)
	s.Warnf("warn %d\n", 2)
	s.Errorf("boom\n")

	snap := s.Snapshot()
	assert.Equal(t, int64(2), snap.Warnings)
	assert.Equal(t, int64(1), snap.Errors)
}
