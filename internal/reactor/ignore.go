// Package reactor is C7: the single-threaded X11 event loop that
// translates X events into C5/C6 operations and tree state back into X
// requests. Grounded on funkycode-marwind/manager/manager.go's Run method
// (the switch over xgb event types) and becomeWM, generalized with the
// ignore table and settle-then-flush ordering spec §5 adds on top. The
// multi-source wait itself is a select over Go channels in cmd/marwind's
// run loop.
package reactor

import "time"

// ignoreEntry records one outgoing request whose self-caused event must be
// swallowed (spec §4.7's event-ignore table).
type ignoreEntry struct {
	sequence     uint16
	responseType byte
	at           time.Time
}

// IgnoreTable tracks outstanding sequence numbers from requests the reactor
// itself issued (Reparent/ConfigureWindow/Map) so the resulting
// notification events aren't mistaken for client-driven changes.
type IgnoreTable struct {
	entries []ignoreEntry
}

// NewIgnoreTable builds an empty table.
func NewIgnoreTable() *IgnoreTable {
	return &IgnoreTable{}
}

// Add records sequence as expecting a responseType event.
func (t *IgnoreTable) Add(sequence uint16, responseType byte, now time.Time) {
	t.entries = append(t.entries, ignoreEntry{sequence: sequence, responseType: responseType, at: now})
}

// Match reports and consumes a matching entry, if any.
func (t *IgnoreTable) Match(sequence uint16, responseType byte) bool {
	for i, e := range t.entries {
		if e.sequence == sequence && e.responseType == responseType {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return true
		}
	}
	return false
}

// GC drops entries older than 5 seconds (spec §4.7).
func (t *IgnoreTable) GC(now time.Time) {
	fresh := t.entries[:0]
	for _, e := range t.entries {
		if now.Sub(e.at) < 5*time.Second {
			fresh = append(fresh, e)
		}
	}
	t.entries = fresh
}
