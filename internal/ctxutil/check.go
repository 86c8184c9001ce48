// Package ctxutil holds small context helpers shared by commands and
// shutdown paths.
package ctxutil

import (
	"context"
	"time"
)

// Canceled returns ctx.Err(). Commands call it on entry so a cancelled
// invocation does no work.
func Canceled(ctx context.Context) error {
	return ctx.Err()
}

// Detached returns a context that keeps the values of parent but not its
// cancellation, bounded by timeout. Shutdown work that must outlive a
// cancelled request or signal context runs under it.
func Detached(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
