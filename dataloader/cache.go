package dataloader

import (
	"container/list"
	"fmt"
	"sync"
)

// CacheManager is an LRU cache of preprocessed image tensors keyed by file
// path. It can be owned by a single DataLoader or shared between several,
// typically between a train and a validation loader over the same files.
type CacheManager struct {
	mu      sync.Mutex
	cache   map[string][]float32
	lru     *list.List
	lruMap  map[string]*list.Element
	maxSize int

	hits   int64
	misses int64
}

// NewCacheManager creates a cache holding at most maxSize entries.
func NewCacheManager(maxSize int) *CacheManager {
	return &CacheManager{
		cache:   make(map[string][]float32),
		lru:     list.New(),
		lruMap:  make(map[string]*list.Element),
		maxSize: maxSize,
	}
}

// Get retrieves an entry and marks it most recently used.
func (cm *CacheManager) Get(key string) ([]float32, bool) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	data, exists := cm.cache[key]
	if !exists {
		cm.misses++
		return nil, false
	}
	if elem, ok := cm.lruMap[key]; ok {
		cm.lru.MoveToFront(elem)
	}
	cm.hits++
	return data, true
}

// Put stores an entry, evicting the least recently used entry when the
// cache is full.
func (cm *CacheManager) Put(key string, data []float32) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if elem, exists := cm.lruMap[key]; exists {
		cm.cache[key] = data
		cm.lru.MoveToFront(elem)
		return
	}

	for cm.maxSize > 0 && len(cm.cache) >= cm.maxSize {
		oldest := cm.lru.Back()
		if oldest == nil {
			break
		}
		oldestKey := oldest.Value.(string)
		cm.lru.Remove(oldest)
		delete(cm.lruMap, oldestKey)
		delete(cm.cache, oldestKey)
	}

	cm.cache[key] = data
	cm.lruMap[key] = cm.lru.PushFront(key)
}

// Len returns the number of cached entries.
func (cm *CacheManager) Len() int {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return len(cm.cache)
}

// Clear removes all entries and resets the hit/miss counters.
func (cm *CacheManager) Clear() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.cache = make(map[string][]float32)
	cm.lru = list.New()
	cm.lruMap = make(map[string]*list.Element)
	cm.hits = 0
	cm.misses = 0
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// HitRate returns the fraction of lookups served from the cache.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

func (s CacheStats) String() string {
	return fmt.Sprintf("cache: %d entries, %d hits, %d misses (%.1f%% hit rate)",
		s.Entries, s.Hits, s.Misses, s.HitRate()*100)
}

// Stats returns a snapshot of the cache counters.
func (cm *CacheManager) Stats() CacheStats {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return CacheStats{
		Entries: len(cm.cache),
		Hits:    cm.hits,
		Misses:  cm.misses,
	}
}
