// Package session 维护每个会话的限流状态，并对入站事件做准入判定。
package session

import (
	"hash/fnv"
	"sort"
	"sync"
	"time"
)

const shardCount = 32

// Session holds the gate state of one chat. Every field except lastSeen is read
// and written only while holding mu; lastSeen is guarded by the owning shard.
type Session struct {
	mu sync.Mutex

	lastMessageTime time.Time
	blockedUntil    time.Time
	lastMessageID   int64
	hasMessageID    bool

	lastSeen time.Time
}

type shard struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// Registry is the single accessor for chat sessions. Sessions are created lazily
// and spread over fixed shards so that lookups for different chats rarely contend.
type Registry struct {
	shards [shardCount]shard
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].sessions = make(map[string]*Session)
	}
	return r
}

func (r *Registry) shardFor(chatID string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(chatID))
	return &r.shards[h.Sum32()%shardCount]
}

// GetOrCreate returns the session of chatID, creating it on first use, and marks
// it as seen at now.
func (r *Registry) GetOrCreate(chatID string, now time.Time) *Session {
	sh := r.shardFor(chatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	s, ok := sh.sessions[chatID]
	if !ok {
		s = &Session{}
		sh.sessions[chatID] = s
	}
	s.lastSeen = now
	return s
}

// acquire returns the live session of chatID with its lock held. A session
// evicted between lookup and locking is dropped and the lookup retried, so the
// caller never mutates a session that is no longer in the registry. While the
// lock is held Sweep cannot evict it.
func (r *Registry) acquire(chatID string, now time.Time) *Session {
	for {
		s := r.GetOrCreate(chatID, now)
		s.mu.Lock()
		if r.holds(chatID, s) {
			return s
		}
		s.mu.Unlock()
	}
}

func (r *Registry) holds(chatID string, s *Session) bool {
	sh := r.shardFor(chatID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.sessions[chatID] == s
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	n := 0
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.Lock()
		n += len(sh.sessions)
		sh.mu.Unlock()
	}
	return n
}

// Sweep evicts sessions not seen for idleTTL and, when maxSessions > 0, the least
// recently seen remaining sessions beyond that cap. A session is never evicted
// while blocked or while its lock is held. It returns the number evicted.
func (r *Registry) Sweep(now time.Time, idleTTL time.Duration, maxSessions int) int {
	type candidate struct {
		sh       *shard
		chatID   string
		lastSeen time.Time
	}
	evicted := 0
	var survivors []candidate
	total := 0
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.Lock()
		for id, s := range sh.sessions {
			if !evictable(s, now) {
				total++
				continue
			}
			if idleTTL > 0 && now.Sub(s.lastSeen) >= idleTTL {
				delete(sh.sessions, id)
				evicted++
				continue
			}
			total++
			survivors = append(survivors, candidate{sh: sh, chatID: id, lastSeen: s.lastSeen})
		}
		sh.mu.Unlock()
	}
	if maxSessions <= 0 || total <= maxSessions {
		return evicted
	}
	sort.Slice(survivors, func(i, j int) bool { return survivors[i].lastSeen.Before(survivors[j].lastSeen) })
	for _, c := range survivors {
		if total <= maxSessions {
			break
		}
		c.sh.mu.Lock()
		if s, ok := c.sh.sessions[c.chatID]; ok && s.lastSeen.Equal(c.lastSeen) && evictable(s, now) {
			delete(c.sh.sessions, c.chatID)
			evicted++
			total--
		}
		c.sh.mu.Unlock()
	}
	return evicted
}

// evictable must be called with the shard lock held.
func evictable(s *Session, now time.Time) bool {
	if !s.mu.TryLock() {
		return false
	}
	defer s.mu.Unlock()
	return s.blockedUntil.IsZero() || !now.Before(s.blockedUntil)
}
