package jobs

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCleaner struct {
	calls atomic.Int32
	err   error
}

func (c *countingCleaner) CleanupExpiredSessions() (int64, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestCleanupSessions(t *testing.T) {
	c := &countingCleaner{}
	CleanupSessions(c)
	assert.Equal(t, int32(1), c.calls.Load())

	c.err = errors.New("db closed")
	CleanupSessions(c)
	assert.Equal(t, int32(2), c.calls.Load())
}

func TestScheduleSessionCleanup(t *testing.T) {
	sc := New()
	require.Error(t, sc.ScheduleSessionCleanup(&countingCleaner{}, 0))

	c := &countingCleaner{}
	require.NoError(t, sc.ScheduleSessionCleanup(c, 20*time.Millisecond))
	sc.Start()
	defer sc.Stop()

	assert.Eventually(t, func() bool { return c.calls.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)
}
