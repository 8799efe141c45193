package resilience

import (
	"sync"
	"time"
)

// Group size defaults. Keys come from operator-supplied URLs, so the group
// is bounded both by idle time and by count.
const (
	DefaultGroupMaxKeys = 1024
	DefaultGroupIdleTTL = 10 * time.Minute
)

type groupEntry struct {
	breaker  *Breaker
	lastUsed time.Time
}

// Group hands out one breaker per key (typically a remote host) so a single
// failing site cannot trip scans of every other site. Closed breakers unused
// for IdleTTL are dropped; at MaxKeys the least recently used closed breaker
// makes room, and only when none is closed does an open one go.
type Group struct {
	settings Settings
	maxKeys  int
	idleTTL  time.Duration
	now      func() time.Time

	mu        sync.Mutex
	entries   map[string]*groupEntry
	lastSweep time.Time
}

// NewGroup creates a breaker group sharing one Settings value
func NewGroup(settings Settings) *Group {
	return &Group{
		settings:  settings,
		maxKeys:   DefaultGroupMaxKeys,
		idleTTL:   DefaultGroupIdleTTL,
		now:       time.Now,
		entries:   make(map[string]*groupEntry),
		lastSweep: time.Now(),
	}
}

// WithLimits overrides the key cap and idle TTL. Non-positive values keep
// the defaults.
func (g *Group) WithLimits(maxKeys int, idleTTL time.Duration) *Group {
	if maxKeys > 0 {
		g.maxKeys = maxKeys
	}
	if idleTTL > 0 {
		g.idleTTL = idleTTL
	}
	return g
}

// Get returns the breaker for key, creating it on first use
func (g *Group) Get(key string) *Breaker {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if e, ok := g.entries[key]; ok {
		e.lastUsed = now
		return e.breaker
	}

	if now.Sub(g.lastSweep) >= g.idleTTL || len(g.entries) >= g.maxKeys {
		g.evictIdleLocked(now)
		g.lastSweep = now
	}
	for len(g.entries) >= g.maxKeys {
		g.evictOldestLocked()
	}

	b := New(key, g.settings)
	g.entries[key] = &groupEntry{breaker: b, lastUsed: now}
	return b
}

// Len returns the number of tracked keys
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.entries)
}

// States returns a snapshot of every breaker's state
func (g *Group) States() map[string]State {
	g.mu.Lock()
	breakers := make([]*Breaker, 0, len(g.entries))
	for _, e := range g.entries {
		breakers = append(breakers, e.breaker)
	}
	g.mu.Unlock()

	states := make(map[string]State, len(breakers))
	for _, b := range breakers {
		states[b.Name()] = b.State()
	}
	return states
}

func (g *Group) evictIdleLocked(now time.Time) {
	for key, e := range g.entries {
		if now.Sub(e.lastUsed) >= g.idleTTL && e.breaker.State() == StateClosed {
			delete(g.entries, key)
		}
	}
}

func (g *Group) evictOldestLocked() {
	var (
		victim       string
		found        bool
		victimClosed bool
		victimUsed   time.Time
	)
	for key, e := range g.entries {
		closed := e.breaker.State() == StateClosed
		switch {
		case !found,
			closed && !victimClosed,
			closed == victimClosed && e.lastUsed.Before(victimUsed):
			victim, victimClosed, victimUsed = key, closed, e.lastUsed
			found = true
		}
	}
	delete(g.entries, victim)
}
