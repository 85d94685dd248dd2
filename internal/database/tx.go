package database

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

type txKey struct{}

// unit is the request-scoped transaction plus work deferred until it commits.
type unit struct {
	tx *gorm.DB

	mu          sync.Mutex
	afterCommit []func()
}

// WithTx stores a request-scoped transaction in ctx.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, &unit{tx: tx})
}

func unitFrom(ctx context.Context) *unit {
	u, _ := ctx.Value(txKey{}).(*unit)
	return u
}

// Conn returns the transaction carried by ctx, or db bound to ctx when the
// call is not part of a request unit of work.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if u := unitFrom(ctx); u != nil && u.tx != nil {
		return u.tx
	}
	return db.WithContext(ctx)
}

// AfterCommit defers fn until the transaction in ctx commits. It is dropped
// on rollback. Without a transaction fn runs immediately.
func AfterCommit(ctx context.Context, fn func()) {
	u := unitFrom(ctx)
	if u == nil {
		fn()
		return
	}
	u.mu.Lock()
	u.afterCommit = append(u.afterCommit, fn)
	u.mu.Unlock()
}

// RunAfterCommit runs the callbacks registered on ctx, in order. Call it
// once, after a successful commit.
func RunAfterCommit(ctx context.Context) {
	u := unitFrom(ctx)
	if u == nil {
		return
	}
	u.mu.Lock()
	fns := u.afterCommit
	u.afterCommit = nil
	u.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
