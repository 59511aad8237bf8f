package async

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/sirupsen/logrus"
)

// SafeGo executes fn in a goroutine with:
// - a context that keeps the parent's values but not its cancellation
// - timeout enforcement
// - panic recovery
// - error logging
//
// The returned channel is closed when fn has returned.
func SafeGo(parentCtx context.Context, logger logrus.FieldLogger, timeout time.Duration, taskName string, fn func(context.Context) error) <-chan struct{} {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	done := make(chan struct{})

	go func() {
		defer close(done)

		ctx, cancel := context.WithTimeout(context.WithoutCancel(parentCtx), timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(logrus.Fields{
					"task":  taskName,
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("background task panicked")
			}
		}()

		if err := fn(ctx); err != nil {
			logger.WithFields(logrus.Fields{
				"task":  taskName,
				"error": err,
			}).Warn("background task failed")
		}
	}()

	return done
}
