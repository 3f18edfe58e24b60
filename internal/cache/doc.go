// Package cache provides a cost-bounded LRU cache.
//
// Entries carry a caller-supplied cost (for skeletons, an estimate of their
// resident size). When a resource.Controller is attached, every admitted
// entry also reserves its cost there, so several caches can share one
// global memory budget.
package cache
