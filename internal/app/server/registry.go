package server

import "sync"

// registry maps an authenticated identity to its current connection and
// enforces the single-session policy: binding an identity that already
// owns a connection forcibly closes the old one.
type registry struct {
	mu    sync.Mutex
	conns map[string]*client
}

func newRegistry() *registry {
	return &registry{conns: make(map[string]*client)}
}

func (r *registry) bind(identity string, c *client) {
	r.mu.Lock()
	old, ok := r.conns[identity]
	r.conns[identity] = c
	r.mu.Unlock()
	if ok && old != c {
		old.close()
	}
}

// unbind removes the mapping only if it still points at c, so a stale
// unbind from a dying connection cannot evict a newer bind.
func (r *registry) unbind(c *client) {
	identity := c.getIdentity()
	if identity == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[identity] == c {
		delete(r.conns, identity)
	}
}

func (r *registry) lookup(identity string) (*client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[identity]
	return c, ok
}
