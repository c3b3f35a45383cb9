package state

import (
	"cmp"
	"log/slog"
	"slices"
	"sync"

	"DrawStudio/internal/logging"
)

// Log records every action this site has produced or accepted, so that an
// action relayed back by a peer is applied only once.
type Log struct {
	clock   *Clock
	mu      sync.RWMutex
	actions map[string]DrawAction
	log     *slog.Logger
}

// NewLog returns an empty log stamping local actions with clock.
func NewLog(clock *Clock, l *slog.Logger) *Log {
	return &Log{
		clock:   clock,
		actions: make(map[string]DrawAction),
		log:     logging.Or(l, "state"),
	}
}

// Clock returns the clock of the local site.
func (lg *Log) Clock() *Clock { return lg.clock }

// AddLocal stamps an action produced on this site, records it and returns
// the stamped copy.
func (lg *Log) AddLocal(a DrawAction) DrawAction {
	a = lg.clock.Stamp(a.Clone())

	lg.mu.Lock()
	lg.actions[a.ID] = a
	lg.mu.Unlock()

	lg.log.Debug("local action", "id", a.ID, "mode", a.Mode, "lamport", a.Lamport)
	return a
}

// AddRemote records an action received from a peer. It reports false when
// the action was seen before and must not be applied again.
func (lg *Log) AddRemote(a DrawAction) bool {
	lg.mu.Lock()
	defer lg.mu.Unlock()

	if _, ok := lg.actions[a.ID]; ok {
		lg.log.Debug("duplicate action ignored", "id", a.ID)
		return false
	}
	lg.clock.Observe(a.Lamport)
	lg.actions[a.ID] = a.Clone()
	lg.log.Debug("remote action", "id", a.ID, "owner", a.Owner, "lamport", a.Lamport)
	return true
}

// Forget drops a remote action that could not be applied, so a later
// delivery of the same id is accepted again.
func (lg *Log) Forget(id string) {
	lg.mu.Lock()
	defer lg.mu.Unlock()
	delete(lg.actions, id)
}

// Seen reports whether an action id is known.
func (lg *Log) Seen(id string) bool {
	lg.mu.RLock()
	defer lg.mu.RUnlock()
	_, ok := lg.actions[id]
	return ok
}

// Len returns the number of recorded actions.
func (lg *Log) Len() int {
	lg.mu.RLock()
	defer lg.mu.RUnlock()
	return len(lg.actions)
}

// Actions returns all recorded actions in Lamport order, ties broken by
// owner then id.
func (lg *Log) Actions() []DrawAction {
	lg.mu.RLock()
	out := make([]DrawAction, 0, len(lg.actions))
	for _, a := range lg.actions {
		out = append(out, a)
	}
	lg.mu.RUnlock()

	slices.SortFunc(out, func(a, b DrawAction) int {
		return cmp.Or(
			cmp.Compare(a.Lamport, b.Lamport),
			cmp.Compare(a.Owner, b.Owner),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return out
}
