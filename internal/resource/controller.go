package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when a reservation would exceed the
// memory limit.
var ErrMemoryLimitExceeded = errors.New("resource: memory limit exceeded")

// Config holds resource limits. Zero values mean unlimited.
type Config struct {
	// MemoryLimitBytes bounds the memory reserved through AcquireMemory.
	MemoryLimitBytes int64

	// MaxConcurrentLoads bounds the number of loads holding a slot.
	MaxConcurrentLoads int64

	// ReadBytesPerSec bounds the throughput of AcquireRead.
	ReadBytesPerSec int64
}

// Controller enforces a Config.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	loadSem *semaphore.Weighted // nil if unlimited

	readLimiter *rate.Limiter // nil if unlimited
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.MaxConcurrentLoads > 0 {
		c.loadSem = semaphore.NewWeighted(cfg.MaxConcurrentLoads)
	}
	if cfg.ReadBytesPerSec > 0 {
		c.readLimiter = rate.NewLimiter(rate.Limit(cfg.ReadBytesPerSec), int(cfg.ReadBytesPerSec))
	}

	return c
}

// AcquireMemory reserves bytes without blocking.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}
	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return ErrMemoryLimitExceeded
	}
	c.memUsed.Add(bytes)
	return nil
}

// ReleaseMemory returns a reservation made by AcquireMemory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the reserved memory in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireLoad blocks until a load slot is free.
func (c *Controller) AcquireLoad(ctx context.Context) error {
	if c == nil || c.loadSem == nil {
		return ctx.Err()
	}
	return c.loadSem.Acquire(ctx, 1)
}

// ReleaseLoad frees a slot taken by AcquireLoad.
func (c *Controller) ReleaseLoad() {
	if c == nil || c.loadSem == nil {
		return
	}
	c.loadSem.Release(1)
}

// AcquireRead waits until the read limit allows n bytes. Requests larger
// than one second of throughput are split.
func (c *Controller) AcquireRead(ctx context.Context, n int) error {
	if c == nil || c.readLimiter == nil {
		return nil
	}
	burst := c.readLimiter.Burst()
	for n > 0 {
		chunk := min(n, burst)
		if err := c.readLimiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}
