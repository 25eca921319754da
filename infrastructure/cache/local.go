package cache

import (
	"hash/fnv"
	"sync"
	"time"
)

const DefaultShards = 16

type item[V any] struct {
	value      V
	expiration int64
	lastAccess int64
}

func (it item[V]) expired(now int64) bool {
	return it.expiration > 0 && now > it.expiration
}

type shard[V any] struct {
	mu       sync.Mutex
	items    map[string]item[V]
	maxItems int
}

// Local is an in-process cache spread over shards to keep lock contention
// low. Each shard evicts its least recently used entry once full.
type Local[V any] struct {
	shards []*shard[V]
	ttl    time.Duration
	now    func() time.Time
}

type LocalOptions struct {
	Shards int
	// MaxItems bounds the whole cache; 0 means unbounded.
	MaxItems int
	TTL      time.Duration
}

func NewLocal[V any](opts LocalOptions) *Local[V] {
	if opts.Shards <= 0 {
		opts.Shards = DefaultShards
	}
	perShard := 0
	if opts.MaxItems > 0 {
		perShard = max(opts.MaxItems/opts.Shards, 1)
	}

	l := &Local[V]{
		shards: make([]*shard[V], opts.Shards),
		ttl:    opts.TTL,
		now:    time.Now,
	}
	for i := range l.shards {
		l.shards[i] = &shard[V]{items: make(map[string]item[V]), maxItems: perShard}
	}
	return l
}

func (l *Local[V]) shardFor(key string) *shard[V] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return l.shards[h.Sum32()%uint32(len(l.shards))]
}

func (l *Local[V]) Set(key string, value V) {
	now := l.now().UnixNano()
	var exp int64
	if l.ttl > 0 {
		exp = now + int64(l.ttl)
	}

	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[key]; !exists && s.maxItems > 0 && len(s.items) >= s.maxItems {
		s.evictLRU(now)
	}
	s.items[key] = item[V]{value: value, expiration: exp, lastAccess: now}
}

func (l *Local[V]) Get(key string) (V, bool) {
	now := l.now().UnixNano()
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.items[key]
	if !ok || it.expired(now) {
		if ok {
			delete(s.items, key)
		}
		var zero V
		return zero, false
	}
	it.lastAccess = now
	s.items[key] = it
	return it.value, true
}

func (l *Local[V]) Delete(key string) {
	s := l.shardFor(key)
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

func (l *Local[V]) Len() int {
	n := 0
	for _, s := range l.shards {
		s.mu.Lock()
		n += len(s.items)
		s.mu.Unlock()
	}
	return n
}

// evictLRU drops expired entries, then the least recently used one if the
// shard is still full.
func (s *shard[V]) evictLRU(now int64) {
	for k, it := range s.items {
		if it.expired(now) {
			delete(s.items, k)
		}
	}
	if len(s.items) < s.maxItems {
		return
	}

	var (
		victim string
		oldest int64
	)
	for k, it := range s.items {
		if victim == "" || it.lastAccess < oldest {
			victim, oldest = k, it.lastAccess
		}
	}
	delete(s.items, victim)
}
