package state

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Clock hands out action ids, timestamps and Lamport times for one site.
type Clock struct {
	site    string
	mu      sync.Mutex
	lamport uint64
	now     func() time.Time
}

// NewClock returns a clock for site. An empty site gets a random one.
func NewClock(site string) *Clock {
	if site == "" {
		site = uuid.NewString()
	}
	return &Clock{site: site, now: time.Now}
}

// Site returns the site id stamped on local actions.
func (c *Clock) Site() string { return c.site }

// Tick advances the Lamport time and returns it.
func (c *Clock) Tick() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lamport++
	return c.lamport
}

// Observe moves the Lamport time past a remote timestamp.
func (c *Clock) Observe(remote uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if remote > c.lamport {
		c.lamport = remote
	}
}

// Stamp fills in id, timestamp, owner and Lamport time of a local action.
func (c *Clock) Stamp(a DrawAction) DrawAction {
	a.ID = uuid.NewString()
	a.Timestamp = c.now()
	a.Owner = c.site
	a.Lamport = c.Tick()
	return a
}
