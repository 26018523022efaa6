package server

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// maxRatingGap is the widest rating difference the queue will pair.
const maxRatingGap = 100

// queueEntry is one waiting player. It lives in exactly one bucket
// until matched, cancelled, or disconnected.
type queueEntry struct {
	conn        *client
	identity    string
	rating      int
	timeControl int
}

type privateRoom struct {
	code         string
	host         *client
	hostIdentity string
	timeControl  int
	rated        bool
}

type rematchWaiter struct {
	requester   string
	opponent    string
	timeControl int
	timer       *time.Timer
}

// matchmaker holds the waiting players, bucketed by rounded rating and
// time control, plus private-room and rematch rendezvous state. All
// mutation is serialized behind mu so concurrent play requests cannot
// claim the same waiter.
type matchmaker struct {
	mu        sync.Mutex
	buckets   map[string][]*queueEntry
	queued    map[string]struct{}
	rooms     map[string]*privateRoom
	rematches map[string]*rematchWaiter

	rematchWindow time.Duration
}

func newMatchmaker(rematchWindow time.Duration) *matchmaker {
	return &matchmaker{
		buckets:       make(map[string][]*queueEntry),
		queued:        make(map[string]struct{}),
		rooms:         make(map[string]*privateRoom),
		rematches:     make(map[string]*rematchWaiter),
		rematchWindow: rematchWindow,
	}
}

func bucketKey(rating, timeControl int) string {
	return fmt.Sprintf("%d_%d", int(math.Round(float64(rating)/100)), timeControl)
}

func bucketKeyOffset(rating, timeControl, offset int) string {
	return fmt.Sprintf("%d_%d", int(math.Round(float64(rating)/100))+offset, timeControl)
}

// enqueue tries to pair the caller against the same and adjacent
// buckets, first-in-first-matched, accepting the first waiter within
// maxRatingGap. With no match the entry joins its own bucket.
func (m *matchmaker) enqueue(c *client, identity string, rating, timeControl int) (*queueEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.removeLocked(identity)

	for offset := -1; offset <= 1; offset++ {
		key := bucketKeyOffset(rating, timeControl, offset)
		entries := m.buckets[key]
		for i, entry := range entries {
			if entry.identity == identity {
				continue
			}
			if abs(rating-entry.rating) > maxRatingGap {
				continue
			}
			m.buckets[key] = append(entries[:i], entries[i+1:]...)
			if len(m.buckets[key]) == 0 {
				delete(m.buckets, key)
			}
			delete(m.queued, entry.identity)
			return entry, true
		}
	}

	key := bucketKey(rating, timeControl)
	m.buckets[key] = append(m.buckets[key], &queueEntry{
		conn:        c,
		identity:    identity,
		rating:      rating,
		timeControl: timeControl,
	})
	m.queued[identity] = struct{}{}
	return nil, false
}

// remove cancels the identity's queue membership, if any.
func (m *matchmaker) remove(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(identity)
}

func (m *matchmaker) removeLocked(identity string) {
	for key, entries := range m.buckets {
		kept := entries[:0]
		for _, entry := range entries {
			if entry.identity == identity {
				delete(m.queued, identity)
				continue
			}
			kept = append(kept, entry)
		}
		if len(kept) == 0 {
			delete(m.buckets, key)
		} else {
			m.buckets[key] = kept
		}
	}
}

func (m *matchmaker) isQueued(identity string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.queued[identity]
	return ok
}

// createRoom reserves a private room code for the host.
func (m *matchmaker) createRoom(code string, host *client, hostIdentity string, timeControl int, rated bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.rooms[code]; taken {
		return errRoomCodeTaken
	}
	m.rooms[code] = &privateRoom{
		code:         code,
		host:         host,
		hostIdentity: hostIdentity,
		timeControl:  timeControl,
		rated:        rated,
	}
	m.queued[hostIdentity] = struct{}{}
	return nil
}

// joinRoom consumes a reserved room. The host cannot join its own room.
func (m *matchmaker) joinRoom(code, joinerIdentity string) (*privateRoom, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[code]
	if !ok {
		return nil, errRoomCodeUnknown
	}
	if room.hostIdentity == joinerIdentity {
		return nil, errOwnRoom
	}
	delete(m.rooms, code)
	delete(m.queued, room.hostIdentity)
	return room, nil
}

func rematchKey(identity string, timeControl int) string {
	return fmt.Sprintf("%s|%d", identity, timeControl)
}

// offerRematch registers a one-sided rematch offer, or consumes the
// opponent's mirrored offer if one is already waiting. An unmatched
// offer silently expires after the rematch window.
func (m *matchmaker) offerRematch(requester, opponent string, timeControl int) (matched bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := rematchKey(opponent, timeControl)
	if waiter, ok := m.rematches[key]; ok && waiter.opponent == requester {
		waiter.timer.Stop()
		delete(m.rematches, key)
		return true
	}

	selfKey := rematchKey(requester, timeControl)
	if waiter, ok := m.rematches[selfKey]; ok {
		waiter.timer.Stop()
	}
	waiter := &rematchWaiter{
		requester:   requester,
		opponent:    opponent,
		timeControl: timeControl,
	}
	waiter.timer = time.AfterFunc(m.rematchWindow, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.rematches[selfKey] == waiter {
			delete(m.rematches, selfKey)
		}
	})
	m.rematches[selfKey] = waiter
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
