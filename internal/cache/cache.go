package cache

import "time"

// Cache is the read/write surface shared by the query layer's typed
// caches.
type Cache[T any] interface {
	// Get retrieves a fresh value; invalidated or expired entries miss.
	Get(key string) (T, bool)

	// GetStale retrieves a value even after it expired or was
	// invalidated, for callers that prefer stale data over nothing.
	GetStale(key string) (T, bool)

	// Set stores a value under the cache's staleness window.
	Set(key string, data T)

	// Invalidate marks a key stale without dropping its data.
	Invalidate(key string)

	// InvalidatePrefix marks every key with the prefix stale and
	// returns how many were touched.
	InvalidatePrefix(prefix string) int

	// Delete removes a key outright.
	Delete(key string)

	// Size returns the current number of entries, stale ones included.
	Size() int
}

// Cleaner is implemented by caches that support periodic cleanup.
type Cleaner interface {
	CleanExpired() int
}

// Manager drives periodic cleanup for a set of registered caches.
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// NewManager creates a new cache manager
func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches.
// Register must not be called after StartCleanup.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, cache := range m.caches {
				cache.CleanExpired()
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop gracefully stops the cleanup routine
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
