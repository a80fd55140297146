package activity

import (
	"sync"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
)

// Presence is the room roster fed by join/leave events. A message from a
// user also marks them present. A user counts as offline only after an
// explicit leave; somebody the roster never heard of is assumed online.
type Presence struct {
	mu sync.RWMutex
	// true - в комнате, false - вышел
	members map[string]bool
}

func NewPresence() *Presence {
	return &Presence{members: make(map[string]bool)}
}

// Join marks the user online and reports whether that changed the roster.
func (p *Presence) Join(username string) bool {
	return p.set(username, true)
}

// Leave marks the user offline and reports whether that changed the roster.
func (p *Presence) Leave(username string) bool {
	return p.set(username, false)
}

func (p *Presence) set(username string, online bool) bool {
	name := domain.NormalizeUsername(username)
	if name == "" {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	prev, known := p.members[name]
	p.members[name] = online
	return !known || prev != online
}

func (p *Presence) IsOnline(username string) bool {
	name := domain.NormalizeUsername(username)
	p.mu.RLock()
	defer p.mu.RUnlock()
	online, known := p.members[name]
	return !known || online
}

// Count is the number of users known to be in the room.
func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, online := range p.members {
		if online {
			n++
		}
	}
	return n
}

// Restore replaces the roster with a persisted one.
func (p *Presence) Restore(members []domain.RoomMember) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.members = make(map[string]bool, len(members))
	for _, m := range members {
		if name := domain.NormalizeUsername(m.Username); name != "" {
			p.members[name] = m.Online
		}
	}
}

var _ domain.PresenceChecker = (*Presence)(nil)
