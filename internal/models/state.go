package models

import (
	"sort"
	"time"
)

// RecordKind distinguishes the per-kind meaning of StateRecord.LastStatus.
type RecordKind string

// RecordKind constants.
const (
	RecordKindTargetQueue RecordKind = "target-queue" // LastStatus: OK / QUEUE / BLOCK
	RecordKindTargetStock RecordKind = "target-stock" // LastStatus: Availability of a product-page target
	RecordKindItem        RecordKind = "item"         // LastStatus: Availability of a discovered item
	RecordKindMeta        RecordKind = "meta"         // reserved entries (heartbeat)
)

// TargetStatus is the queue/block state of a target page.
type TargetStatus string

// TargetStatus constants.
const (
	TargetStatusOK    TargetStatus = "OK"
	TargetStatusQueue TargetStatus = "QUEUE"
	TargetStatusBlock TargetStatus = "BLOCK"
)

// StateRecord is the durable last-known state for one entity key.
//
// Invariants: LastSeenAt >= FirstSeenAt; ThresholdsCrossed only grows;
// at most one LastAlertAt entry is touched per alert kind per cycle.
// Records are never deleted; stale entries are harmless.
type StateRecord struct {
	Kind        RecordKind `json:"kind"`
	LastStatus  string     `json:"last_status"`
	FirstSeenAt time.Time  `json:"first_seen_at"`
	LastSeenAt  time.Time  `json:"last_seen_at"`

	// crossed wait-time thresholds, e.g. "6h"; monotonic, never cleared
	ThresholdsCrossed []string `json:"thresholds_crossed,omitempty"`

	// one cooldown clock per alert kind
	LastAlertAt map[AlertKind]time.Time `json:"last_alert_at,omitempty"`
}

// NewStateRecord seeds a record for a first observation.
func NewStateRecord(kind RecordKind, status string, now time.Time) StateRecord {
	return StateRecord{
		Kind:        kind,
		LastStatus:  status,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
}

// HasThreshold reports whether the threshold label was already crossed.
func (r *StateRecord) HasThreshold(label string) bool {
	for _, t := range r.ThresholdsCrossed {
		if t == label {
			return true
		}
	}
	return false
}

// AddThreshold marks a threshold as crossed. Idempotent; keeps the set sorted
// so the persisted form is stable across runs.
func (r *StateRecord) AddThreshold(label string) {
	if r.HasThreshold(label) {
		return
	}
	r.ThresholdsCrossed = append(r.ThresholdsCrossed, label)
	sort.Strings(r.ThresholdsCrossed)
}

// AlertedAt returns the last emission time for a kind and whether one exists.
func (r *StateRecord) AlertedAt(kind AlertKind) (time.Time, bool) {
	t, ok := r.LastAlertAt[kind]
	return t, ok
}

// MarkAlerted updates the cooldown clock for a kind.
func (r *StateRecord) MarkAlerted(kind AlertKind, now time.Time) {
	if r.LastAlertAt == nil {
		r.LastAlertAt = make(map[AlertKind]time.Time)
	}
	r.LastAlertAt[kind] = now
}

// Clone returns a deep copy, so detector output never aliases store memory.
func (r StateRecord) Clone() StateRecord {
	out := r
	if r.ThresholdsCrossed != nil {
		out.ThresholdsCrossed = append([]string(nil), r.ThresholdsCrossed...)
	}
	if r.LastAlertAt != nil {
		out.LastAlertAt = make(map[AlertKind]time.Time, len(r.LastAlertAt))
		for k, v := range r.LastAlertAt {
			out.LastAlertAt[k] = v
		}
	}
	return out
}
