package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestShutdownManager_RunsFuncs(t *testing.T) {
	log, _ := test.NewNullLogger()
	srv := &http.Server{Addr: "127.0.0.1:0"}
	sm := NewShutdownManager(log, time.Second, srv)

	var calls int32
	for i := 0; i < 3; i++ {
		sm.RegisterShutdownFunc(func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
	}

	assert.NoError(t, sm.Shutdown())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestShutdownManager_CollectsErrors(t *testing.T) {
	log, hook := test.NewNullLogger()
	sm := NewShutdownManager(log, time.Second)

	boom := errors.New("boom")
	sm.RegisterShutdownFunc(func(ctx context.Context) error { return boom })
	sm.RegisterShutdownFunc(func(ctx context.Context) error { return nil })

	err := sm.Shutdown()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestShutdownManager_Timeout(t *testing.T) {
	log, _ := test.NewNullLogger()
	sm := NewShutdownManager(log, 20*time.Millisecond)

	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})

	assert.Error(t, sm.Shutdown())
}

func TestShutdownManager_WaitForContext(t *testing.T) {
	log, _ := test.NewNullLogger()
	sm := NewShutdownManager(log, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, sm.WaitForShutdown(ctx))
}

func TestRecoveryMiddleware(t *testing.T) {
	log, hook := test.NewNullLogger()
	h := RecoveryMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "PANIC recovered in HTTP handler", hook.LastEntry().Message)
}

func TestRecoverPanic(t *testing.T) {
	log, hook := test.NewNullLogger()
	func() {
		defer RecoverPanic(log, "job")
		panic("boom")
	}()
	assert.Equal(t, "job", hook.LastEntry().Data["context"])
}
