// Package metrics holds the in-process instruments the webhook and
// request paths report into.
package metrics

import (
	"sync/atomic"
	"time"
)

// Counter is a monotonically increasing event count, safe for
// concurrent use. The zero value is ready to use.
type Counter struct {
	n atomic.Uint64
}

func (c *Counter) Inc() {
	c.n.Add(1)
}

func (c *Counter) Add(delta uint64) {
	c.n.Add(delta)
}

func (c *Counter) Load() uint64 {
	return c.n.Load()
}

// Timer measures elapsed wall time for a request or job.
type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
