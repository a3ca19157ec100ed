package hub

import (
	"sync"
)

// Presence maps a durable user identity to at most one live connection. It is
// the only shared mutable structure in the dispatch core; all access goes
// through the methods below, guarded by a single lock.
type Presence struct {
	mu     sync.RWMutex
	byUser map[int64]*Client
}

func NewPresence() *Presence {
	return &Presence{
		byUser: make(map[int64]*Client),
	}
}

// Bind associates userID with client, unconditionally overwriting any
// existing binding for that id. A later login supersedes an earlier one; the
// superseded connection is not invalidated here.
func (p *Presence) Bind(userID int64, client *Client) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byUser[userID] = client
}

// Lookup returns the live connection currently bound to userID, if any.
func (p *Presence) Lookup(userID int64) (*Client, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	client, ok := p.byUser[userID]
	return client, ok
}

// UnbindIfMatches removes the binding for userID only when it still points at
// client. A stale disconnect arriving after a newer login for the same id
// therefore cannot evict the newer binding.
func (p *Presence) UnbindIfMatches(userID int64, client *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if current, ok := p.byUser[userID]; ok && current == client {
		delete(p.byUser, userID)
		return true
	}
	return false
}

// UnbindByHandle scans for the entry bound to client and removes it. Used
// when the disconnecting connection's user id is not tracked by the caller.
// One connection binds at most one id under normal protocol use, so the scan
// stops after removing a single entry.
func (p *Presence) UnbindByHandle(client *Client) (int64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for userID, current := range p.byUser {
		if current == client {
			delete(p.byUser, userID)
			return userID, true
		}
	}
	return 0, false
}

// Online returns the user ids with a live binding in this instance.
func (p *Presence) Online() []int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]int64, 0, len(p.byUser))
	for userID := range p.byUser {
		ids = append(ids, userID)
	}
	return ids
}
