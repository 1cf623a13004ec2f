// Package resource bounds the memory and bandwidth spent on batch uploads.
//
// The Controller manages two budgets:
//
//   - Memory: encoded batches waiting for upload (weighted semaphore, blocking)
//   - IO: upload throughput in bytes per second (token bucket)
//
// # Architecture
//
//	┌───────────────────────────────────────────────┐
//	│                  Controller                   │
//	├───────────────────────┬───────────────────────┤
//	│  Memory Limit         │  IO Rate Limiter      │
//	│  (backpressure)       │  (token bucket)       │
//	├───────────────────────┼───────────────────────┤
//	│  AcquireMemory        │  AcquireIO            │
//	│  ReleaseMemory        │                       │
//	│  MemoryUsage/Limit    │                       │
//	└───────────────────────┴───────────────────────┘
//
// # Memory
//
// AcquireMemory blocks until enough encoded batches have been written, so a
// generator that outpaces its store slows down instead of buffering without
// bound. A reservation larger than the whole limit is clamped to the limit:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 256 << 20,
//	})
//	if err := rc.AcquireMemory(ctx, int64(len(data))); err != nil {
//	    return err // ctx canceled
//	}
//	defer rc.ReleaseMemory(int64(len(data)))
//
// # IO
//
// AcquireIO waits for bandwidth tokens. Requests above the burst size are
// served in burst-sized steps.
//
// A nil *Controller imposes no limits.
package resource
