package session

import (
	"time"

	"github.com/johncarlocaintic/VictusGlobal/internal/logger"
)

const (
	DefaultCooldown = 2 * time.Second
	DefaultBlock    = 10 * time.Second
)

// Outcome 是一次准入判定的结果。
type Outcome int

const (
	Accepted Outcome = iota
	Blocked
	Duplicate
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Blocked:
		return "blocked"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Notice identifies a fixed message the caller must deliver to the chat after the
// gate has released its lock.
type Notice int

const (
	NoticeBlocked Notice = iota + 1
	NoticeUnblocked
)

func (n Notice) String() string {
	switch n {
	case NoticeBlocked:
		return "blocked"
	case NoticeUnblocked:
		return "unblocked"
	default:
		return "unknown"
	}
}

// Admission is the result of Admit. Notices are in delivery order.
type Admission struct {
	Outcome      Outcome
	Notices      []Notice
	BlockedUntil time.Time
}

func (a Admission) Forward() bool { return a.Outcome == Accepted }

// Arbiter serializes and rate-limits inbound events per chat.
type Arbiter struct {
	registry *Registry
	cooldown time.Duration
	block    time.Duration
	log      *logger.Component
}

func NewArbiter(registry *Registry, cooldown, block time.Duration) *Arbiter {
	if registry == nil {
		registry = NewRegistry()
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	if block <= 0 {
		block = DefaultBlock
	}
	return &Arbiter{
		registry: registry,
		cooldown: cooldown,
		block:    block,
		log:      logger.With("arbiter"),
	}
}

func (a *Arbiter) Registry() *Registry { return a.registry }

// BlockDuration returns the configured block length.
func (a *Arbiter) BlockDuration() time.Duration { return a.block }

// Admit evaluates one inbound event of chatID at now. The chat lock is held only
// for the state transition; nothing here performs I/O.
func (a *Arbiter) Admit(chatID string, messageID int64, now time.Time) Admission {
	s := a.registry.acquire(chatID, now)
	defer s.mu.Unlock()

	var adm Admission
	if !s.blockedUntil.IsZero() {
		if now.Before(s.blockedUntil) {
			adm.Outcome = Blocked
			adm.BlockedUntil = s.blockedUntil
			adm.Notices = append(adm.Notices, NoticeBlocked)
			return adm
		}
		s.blockedUntil = time.Time{}
		adm.Notices = append(adm.Notices, NoticeUnblocked)
	}

	if !s.lastMessageTime.IsZero() && now.Sub(s.lastMessageTime) < a.cooldown {
		s.blockedUntil = now.Add(a.block)
		s.lastMessageTime = now
		adm.Outcome = Blocked
		adm.BlockedUntil = s.blockedUntil
		adm.Notices = append(adm.Notices, NoticeBlocked)
		a.log.Infof("chat=%s cooldown violated, blocked until %s", chatID, s.blockedUntil.Format(time.RFC3339))
		return adm
	}
	s.lastMessageTime = now

	if s.hasMessageID && s.lastMessageID == messageID {
		adm.Outcome = Duplicate
		a.log.Debugf("chat=%s duplicate message_id=%d", chatID, messageID)
		return adm
	}
	s.lastMessageID = messageID
	s.hasMessageID = true
	adm.Outcome = Accepted
	return adm
}
