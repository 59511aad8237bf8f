package async

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task did not finish")
	}
}

func TestSafeGo_Success(t *testing.T) {
	logger, hook := test.NewNullLogger()
	executed := false

	wait(t, SafeGo(context.Background(), logger, time.Second, "test task", func(ctx context.Context) error {
		executed = true
		return nil
	}))

	assert.True(t, executed)
	assert.Empty(t, hook.AllEntries())
}

func TestSafeGo_WithError(t *testing.T) {
	logger, hook := test.NewNullLogger()

	wait(t, SafeGo(context.Background(), logger, time.Second, "test task", func(ctx context.Context) error {
		return errors.New("test error")
	}))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "test task", entry.Data["task"])
}

func TestSafeGo_Timeout(t *testing.T) {
	logger, hook := test.NewNullLogger()

	wait(t, SafeGo(context.Background(), logger, 20*time.Millisecond, "slow task", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.ErrorIs(t, entry.Data["error"].(error), context.DeadlineExceeded)
}

func TestSafeGo_PanicRecovery(t *testing.T) {
	logger, hook := test.NewNullLogger()

	wait(t, SafeGo(context.Background(), logger, time.Second, "test task", func(ctx context.Context) error {
		panic("test panic")
	}))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "test panic", entry.Data["panic"])
}

func TestSafeGo_OutlivesParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	cancel()

	var taskErr error
	wait(t, SafeGo(parent, nil, time.Second, "detached", func(ctx context.Context) error {
		taskErr = ctx.Err()
		return nil
	}))

	assert.NoError(t, taskErr)
}
