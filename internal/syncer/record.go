package syncer

import (
	"context"
	"sync/atomic"
	"time"
)

// Record is implemented by any entity kind the synchronizer manages.
// Records are value types; WithRecordID and WithField return modified
// copies so the collection can swap them in under its own lock.
type Record[T any] interface {
	RecordID() int64
	WithRecordID(id int64) T
	WithField(field, value string) (T, bool)
}

// Remote is the authoritative record store for one entity kind.
// Insert is acknowledged with the stored record carrying the
// store-assigned id. Select filters are field=value equality pairs.
type Remote[T any] interface {
	Insert(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id int64, fields map[string]any) error
	Delete(ctx context.Context, id int64) error
	Select(ctx context.Context, filter map[string]string) ([]T, error)
}

var tempSeq atomic.Int64

// NextTempID mints a temporary identifier: negative, unique for the
// process lifetime, monotonic, seeded from wall-clock millis. Store
// ids are positive sqlite rowids, so the ranges never collide.
func NextTempID() int64 {
	now := time.Now().UnixMilli()
	for {
		prev := tempSeq.Load()
		next := now
		if next <= prev {
			next = prev + 1
		}
		if tempSeq.CompareAndSwap(prev, next) {
			return -next
		}
	}
}

// IsTempID reports whether id was minted locally and has not been
// reconciled with a store-assigned identity yet.
func IsTempID(id int64) bool { return id < 0 }
