package httpapi

import (
	"context"
	"sync/atomic"
)

// baseCtx is canceled by the process on shutdown. Every upstream call and
// stream started by a handler also ends when it is done.
var baseCtx atomic.Value

func init() { baseCtx.Store(holder{context.Background()}) }

// holder keeps the stored dynamic type constant for atomic.Value.
type holder struct{ ctx context.Context }

// SetBaseContext sets the process-level context; nil restores Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	baseCtx.Store(holder{ctx})
}

func serverBaseCtx() context.Context { return baseCtx.Load().(holder).ctx }

// requestContext derives a context from the request that is also canceled
// when the base context ends. cancel must be called when the handler returns.
func requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(serverBaseCtx(), cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
