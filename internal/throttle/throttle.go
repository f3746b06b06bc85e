// Package throttle gates candidate alert events by per-(entity, kind) cooldown.
package throttle

import (
	"time"

	"github.com/pokewonder/pokewonder/internal/models"
)

// Policy holds the configured cooldown window per alert kind.
// A kind with no entry (or a zero duration) has no cooldown: every candidate
// passes. NEW_ITEM and WAIT_THRESHOLD rely on that: their underlying
// conditions (record existence, ThresholdsCrossed) are monotonic, so the
// change detector already guarantees they never repeat per entity.
type Policy struct {
	Cooldowns map[models.AlertKind]time.Duration
}

// NewPolicy creates a policy from a cooldown table.
func NewPolicy(cooldowns map[models.AlertKind]time.Duration) Policy {
	return Policy{Cooldowns: cooldowns}
}

// Allow decides whether a candidate event may be emitted, given the state
// record that owns its cooldown clocks. On emission the record's clock for
// the kind is advanced to now; a suppressed event leaves the record
// untouched, so the next cycle re-evaluates against the original send time.
//
// HEARTBEAT is gated by UTC calendar date instead of a duration window: one
// ping per day, aligned to date boundaries the way the original state file's
// last-operational-date was.
func (p Policy) Allow(ev models.AlertEvent, record *models.StateRecord, now time.Time) bool {
	last, ok := record.AlertedAt(ev.Kind)

	if ev.Kind == models.AlertHeartbeat {
		if ok && sameUTCDate(last, now) {
			return false
		}
		record.MarkAlerted(ev.Kind, now)
		return true
	}

	if ok {
		cooldown := p.Cooldowns[ev.Kind]
		if cooldown > 0 && now.Sub(last) <= cooldown {
			return false
		}
	}
	record.MarkAlerted(ev.Kind, now)
	return true
}

func sameUTCDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
