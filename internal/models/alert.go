package models

import "time"

// AlertKind classifies a notification-worthy transition.
type AlertKind string

// AlertKind constants.
const (
	AlertNewItem       AlertKind = "NEW_ITEM"
	AlertRestock       AlertKind = "RESTOCK"
	AlertBuyableNow    AlertKind = "BUYABLE_NOW"
	AlertQueueDetected AlertKind = "QUEUE_DETECTED"
	AlertQueueCleared  AlertKind = "QUEUE_CLEARED"
	AlertBlockDetected AlertKind = "BLOCK_DETECTED"
	AlertWaitThreshold AlertKind = "WAIT_THRESHOLD"
	AlertFetchError    AlertKind = "FETCH_ERROR"
	AlertHeartbeat     AlertKind = "HEARTBEAT"
)

// Emoji returns the stable message prefix for a kind.
func (k AlertKind) Emoji() string {
	switch k {
	case AlertNewItem:
		return "🆕"
	case AlertRestock:
		return "🔁"
	case AlertBuyableNow:
		return "🛒"
	case AlertQueueDetected:
		return "⏳"
	case AlertQueueCleared:
		return "✅"
	case AlertBlockDetected:
		return "🚫"
	case AlertWaitThreshold:
		return "⏰"
	case AlertFetchError:
		return "⚠️"
	case AlertHeartbeat:
		return "🟢"
	default:
		return "ℹ️"
	}
}

// DispatchPriority orders kinds for notification: substantive alerts first,
// operational noise (fetch errors) last.
func (k AlertKind) DispatchPriority() int {
	switch k {
	case AlertHeartbeat:
		return 0
	case AlertRestock:
		return 1
	case AlertBuyableNow:
		return 2
	case AlertNewItem:
		return 3
	case AlertQueueCleared:
		return 4
	case AlertQueueDetected:
		return 5
	case AlertWaitThreshold:
		return 6
	case AlertBlockDetected:
		return 7
	case AlertFetchError:
		return 8
	default:
		return 9
	}
}

// AlertEvent is one candidate notification. Produced by the change detector,
// filtered by the throttler, never persisted beyond the cooldown clock it
// updates on the owning StateRecord.
type AlertEvent struct {
	EntityKey  string    `json:"entity_key"`
	Kind       AlertKind `json:"kind"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}
