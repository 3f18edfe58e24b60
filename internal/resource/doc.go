// Package resource limits the memory, load concurrency and read throughput
// spent on skeleton loading.
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   512 << 20, // cached skeletons
//	    MaxConcurrentLoads: 8,         // parallel blob reads
//	    ReadBytesPerSec:    50 << 20,  // remote store throughput
//	})
//
// Memory reservations are non-blocking and fail fast with
// ErrMemoryLimitExceeded. Load slots and read tokens block until available
// or the context is done.
//
// All methods are safe for concurrent use and treat a nil Controller as
// unlimited.
package resource
