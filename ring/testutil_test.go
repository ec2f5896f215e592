package ring

import (
	"bytes"
	"runtime"
	"sync"
	"testing"
	"time"
)

// checkNumGoroutines should be deferred at the start of a (non-parallel)
// test, to verify that all goroutines started during the test have exited.
func checkNumGoroutines(timeout time.Duration) func(t *testing.T) {
	before := runtime.NumGoroutine()
	return func(t *testing.T) {
		t.Helper()
		deadline := time.Now().Add(timeout)
		for {
			n := runtime.NumGoroutine()
			if n <= before {
				return
			}
			if time.Now().After(deadline) {
				t.Errorf(`expected at most %d goroutines, got %d`, before, n)
				return
			}
			time.Sleep(time.Millisecond * 10)
		}
	}
}

// syncBuffer is a bytes.Buffer safe for concurrent writes, e.g. from loggers
// used by multiple participants.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (x *syncBuffer) Write(p []byte) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.b.Write(p)
}

func (x *syncBuffer) String() string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.b.String()
}
