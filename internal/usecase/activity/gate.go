// Package activity tracks who has been talking in the room recently and who
// is present right now.
package activity

import (
	"sort"
	"sync"
	"time"

	"github.com/LavaJover/shvark-heist-service/internal/domain"
)

type GateConfig struct {
	Window      time.Duration
	MinUsers    int
	MinMessages int
	// Ignored is never counted, usually the house account.
	Ignored []string
}

// Gate keeps a rolling window of chat messages and decides whether the room
// is lively enough to start a heist.
type Gate struct {
	cfg     GateConfig
	ignored map[string]struct{}

	mu       sync.Mutex
	messages []time.Time
	lastSeen map[string]time.Time
}

func NewGate(cfg GateConfig) *Gate {
	ignored := make(map[string]struct{}, len(cfg.Ignored))
	for _, name := range cfg.Ignored {
		ignored[domain.NormalizeUsername(name)] = struct{}{}
	}
	return &Gate{
		cfg:      cfg,
		ignored:  ignored,
		lastSeen: make(map[string]time.Time),
	}
}

// Record counts one message from username at the given time. It reports
// false for messages the gate ignores.
func (g *Gate) Record(username string, at time.Time) bool {
	name := domain.NormalizeUsername(username)
	if name == "" {
		return false
	}
	if _, skip := g.ignored[name]; skip {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.recordLocked(name, at)
	return true
}

func (g *Gate) recordLocked(name string, at time.Time) {
	g.messages = append(g.messages, at)
	if prev, ok := g.lastSeen[name]; !ok || at.After(prev) {
		g.lastSeen[name] = at
	}
}

// Restore replaces the window with persisted messages, dropping anything
// already outside it at now.
func (g *Gate) Restore(messages []domain.ChatActivity, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.messages = nil
	g.lastSeen = make(map[string]time.Time)
	for _, m := range messages {
		name := domain.NormalizeUsername(m.Username)
		if name == "" {
			continue
		}
		if _, skip := g.ignored[name]; skip {
			continue
		}
		g.recordLocked(name, m.At)
	}
	g.pruneLocked(now)
}

// Window is the length of the rolling window.
func (g *Gate) Window() time.Duration {
	return g.cfg.Window
}

// Active reports whether both thresholds are met inside the window ending at now.
func (g *Gate) Active(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pruneLocked(now)
	return len(g.lastSeen) >= g.cfg.MinUsers && len(g.messages) >= g.cfg.MinMessages
}

// Stats returns the distinct user and message counts inside the window.
func (g *Gate) Stats(now time.Time) (users, messages int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pruneLocked(now)
	return len(g.lastSeen), len(g.messages)
}

// RecentParticipants lists the distinct users seen inside the window, sorted.
func (g *Gate) RecentParticipants(now time.Time) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pruneLocked(now)
	names := make([]string, 0, len(g.lastSeen))
	for name := range g.lastSeen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Prune drops everything older than the window. Called periodically so an
// idle room does not hold memory.
func (g *Gate) Prune(now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pruneLocked(now)
}

func (g *Gate) pruneLocked(now time.Time) {
	cutoff := now.Add(-g.cfg.Window)

	keep := g.messages[:0]
	for _, at := range g.messages {
		if at.After(cutoff) {
			keep = append(keep, at)
		}
	}
	g.messages = keep

	for name, at := range g.lastSeen {
		if !at.After(cutoff) {
			delete(g.lastSeen, name)
		}
	}
}
