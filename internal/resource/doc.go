// Package resource governs the shared limits of a backend:
//
//   - Memory: bytes held by cached filter masks (non-blocking, fail-fast)
//   - Concurrency: number of in-flight per-view queries (semaphore)
//   - Rate: queries started per second (token bucket)
//
// All methods handle a nil *Controller as "no limits".
package resource
