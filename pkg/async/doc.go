// Package async runs best-effort background tasks.
//
// SafeGo detaches the task from the caller's cancellation, bounds it with a
// timeout and recovers panics, so request handlers can hand off work such as
// filling a cache without delaying the response:
//
//	async.SafeGo(r.Context(), logger, 2*time.Second, "cache completions", func(ctx context.Context) error {
//		return c.Set(ctx, key, suggestions)
//	})
package async
