package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestArbiter() *Arbiter {
	return NewArbiter(NewRegistry(), 2*time.Second, 10*time.Second)
}

func TestAdmit_FirstEventAccepted(t *testing.T) {
	a := newTestArbiter()
	adm := a.Admit("42", 1, t0)
	assert.Equal(t, Accepted, adm.Outcome)
	assert.True(t, adm.Forward())
	assert.Empty(t, adm.Notices)
}

func TestAdmit_CooldownBlocksThenRecovers(t *testing.T) {
	a := newTestArbiter()
	require.Equal(t, Accepted, a.Admit("42", 1, t0).Outcome)

	second := t0.Add(500 * time.Millisecond)
	adm := a.Admit("42", 2, second)
	assert.Equal(t, Blocked, adm.Outcome)
	assert.Equal(t, []Notice{NoticeBlocked}, adm.Notices)
	assert.Equal(t, second.Add(10*time.Second), adm.BlockedUntil)

	// still blocked just before expiry
	adm = a.Admit("42", 3, second.Add(9*time.Second))
	assert.Equal(t, Blocked, adm.Outcome)
	assert.Equal(t, []Notice{NoticeBlocked}, adm.Notices)

	adm = a.Admit("42", 4, second.Add(11*time.Second))
	assert.Equal(t, Accepted, adm.Outcome)
	assert.Equal(t, []Notice{NoticeUnblocked}, adm.Notices)

	// the unblock notice is one-time
	adm = a.Admit("42", 5, second.Add(14*time.Second))
	assert.Equal(t, Accepted, adm.Outcome)
	assert.Empty(t, adm.Notices)
}

func TestAdmit_UnblockingEventIsProcessed(t *testing.T) {
	a := newTestArbiter()
	a.Admit("42", 1, t0)
	a.Admit("42", 2, t0.Add(time.Second)) // blocked until t0+11s, lastMessageTime t0+1s
	adm := a.Admit("42", 3, t0.Add(11*time.Second))
	assert.Equal(t, Accepted, adm.Outcome)
	assert.Equal(t, []Notice{NoticeUnblocked}, adm.Notices)
}

func TestAdmit_BlockedEventsDoNotExtendBlock(t *testing.T) {
	a := newTestArbiter()
	a.Admit("42", 1, t0)
	first := a.Admit("42", 2, t0.Add(time.Second))
	again := a.Admit("42", 3, t0.Add(1500*time.Millisecond))
	assert.Equal(t, first.BlockedUntil, again.BlockedUntil)
}

func TestAdmit_Dedup(t *testing.T) {
	a := newTestArbiter()
	require.Equal(t, Accepted, a.Admit("42", 100, t0).Outcome)

	adm := a.Admit("42", 100, t0.Add(3*time.Second))
	assert.Equal(t, Duplicate, adm.Outcome)
	assert.False(t, adm.Forward())

	require.Equal(t, Accepted, a.Admit("42", 101, t0.Add(6*time.Second)).Outcome)
	// only the most recent id is remembered
	assert.Equal(t, Accepted, a.Admit("42", 100, t0.Add(9*time.Second)).Outcome)
}

func TestAdmit_ChatsAreIndependent(t *testing.T) {
	a := newTestArbiter()
	assert.Equal(t, Accepted, a.Admit("a", 1, t0).Outcome)
	assert.Equal(t, Accepted, a.Admit("b", 1, t0.Add(100*time.Millisecond)).Outcome)
	assert.Equal(t, Blocked, a.Admit("a", 2, t0.Add(200*time.Millisecond)).Outcome)
	assert.Equal(t, Accepted, a.Admit("b", 2, t0.Add(3*time.Second)).Outcome)
}

func TestAdmit_ConcurrentSameChatAcceptsExactlyOne(t *testing.T) {
	a := newTestArbiter()
	const n = 64
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if a.Admit("42", int64(id), t0).Forward() {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, accepted)
}

func TestAdmit_ConcurrentDistinctChats(t *testing.T) {
	a := newTestArbiter()
	const n = 200
	var wg sync.WaitGroup
	results := make([]Outcome, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = a.Admit(fmt.Sprintf("chat-%d", i), 1, t0).Outcome
		}(i)
	}
	wg.Wait()
	for i, o := range results {
		assert.Equal(t, Accepted, o, "chat-%d", i)
	}
	assert.Equal(t, n, a.Registry().Len())
}

func TestNewArbiter_Defaults(t *testing.T) {
	a := NewArbiter(nil, 0, 0)
	assert.Equal(t, DefaultBlock, a.BlockDuration())
	assert.Equal(t, Blocked, func() Outcome {
		a.Admit("x", 1, t0)
		return a.Admit("x", 2, t0.Add(DefaultCooldown-time.Millisecond)).Outcome
	}())
}
