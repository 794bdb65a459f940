// Package ident generates record identifiers. The stored documents use
// integer ids, so ids come from a process-wide monotonic counter seeded from
// the wall clock rather than a raw timestamp, which would collide for records
// created within the same second.
package ident

import (
	"sync/atomic"
	"time"
)

var counter atomic.Int64

func init() {
	counter.Store(time.Now().UnixMilli())
}

// Next returns a new unique int64 identifier. Values are strictly increasing
// within a process.
func Next() int64 {
	return counter.Add(1)
}
