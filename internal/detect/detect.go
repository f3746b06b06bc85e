// Package detect computes alert events from signal/state transitions.
//
// Everything here is pure: given the prior record for an entity and its
// fresh signals, it returns the candidate events and the next record.
// No I/O, no clock reads, no store access, so every transition rule is
// testable in isolation.
package detect

import (
	"fmt"
	"sort"
	"time"

	"github.com/pokewonder/pokewonder/internal/models"
)

// TargetSignals bundles the page-level signals for one target observation.
type TargetSignals struct {
	URL         string
	Queue       models.QueueSignal
	Block       models.BlockSignal
	FetchFailed bool
}

// Status derives the page status; block beats queue (a captcha inside a
// queue page is still a block).
func Status(q models.QueueSignal, b models.BlockSignal) models.TargetStatus {
	switch {
	case b.Active:
		return models.TargetStatusBlock
	case q.Active:
		return models.TargetStatusQueue
	default:
		return models.TargetStatusOK
	}
}

// Target evaluates queue/block/wait/fetch-error transitions for a target page.
//
// Transition rules:
//   - OK|BLOCK → QUEUE emits QUEUE_DETECTED
//   - QUEUE → OK emits QUEUE_CLEARED; QUEUE → BLOCK does not (a block is a
//     different obstruction, not a cleared queue)
//   - any transition into BLOCK emits BLOCK_DETECTED
//   - an absent prior is an unknown baseline: the record is seeded and no
//     transition event fires
//
// thresholdHours are evaluated descending while status is QUEUE and a wait
// countdown is present; each threshold crosses at most once per entity,
// recorded in ThresholdsCrossed.
func Target(key string, sig TargetSignals, prior *models.StateRecord, now time.Time, thresholdHours []int) ([]models.AlertEvent, models.StateRecord) {
	if sig.FetchFailed {
		return targetFetchError(key, sig, prior, now)
	}

	status := Status(sig.Queue, sig.Block)
	baseline := prior == nil

	var next models.StateRecord
	var events []models.AlertEvent
	if baseline {
		next = models.NewStateRecord(models.RecordKindTargetQueue, string(status), now)
	} else {
		next = prior.Clone()
		next.Kind = models.RecordKindTargetQueue
		prev := models.TargetStatus(next.LastStatus)
		next.LastStatus = string(status)
		next.LastSeenAt = now

		if prev != status {
			switch {
			case status == models.TargetStatusQueue:
				events = append(events, event(key, models.AlertQueueDetected, now, queueMessage(sig)))
			case status == models.TargetStatusBlock:
				events = append(events, event(key, models.AlertBlockDetected, now,
					fmt.Sprintf("%s Bot block on %s", models.AlertBlockDetected.Emoji(), sig.URL)))
			case status == models.TargetStatusOK && prev == models.TargetStatusQueue:
				events = append(events, event(key, models.AlertQueueCleared, now,
					fmt.Sprintf("%s Queue cleared on %s", models.AlertQueueCleared.Emoji(), sig.URL)))
			}
		}
	}

	if status == models.TargetStatusQueue && sig.Queue.WaitSeconds != nil {
		crossed := crossThresholds(key, sig, &next, now, thresholdHours)
		// the unknown baseline records its crossings silently: thresholds
		// already under water at first sight are not news
		if !baseline {
			events = append(events, crossed...)
		}
	}
	return events, next
}

// targetFetchError downgrades a transport failure to a FETCH_ERROR candidate.
// The candidate is produced every failing cycle; the throttler's cooldown
// turns that into first-alert-then-rate-limited-re-alert. The last known
// page status is kept rather than overwritten with a guess.
func targetFetchError(key string, sig TargetSignals, prior *models.StateRecord, now time.Time) ([]models.AlertEvent, models.StateRecord) {
	var next models.StateRecord
	if prior == nil {
		next = models.NewStateRecord(models.RecordKindTargetQueue, string(models.TargetStatusOK), now)
	} else {
		next = prior.Clone()
		next.LastSeenAt = now
	}
	ev := event(key, models.AlertFetchError, now,
		fmt.Sprintf("%s Fetch failed for %s", models.AlertFetchError.Emoji(), sig.URL))
	return []models.AlertEvent{ev}, next
}

// crossThresholds emits one WAIT_THRESHOLD per newly crossed threshold,
// largest first. Thresholds never un-cross: a wait time climbing back above
// a crossed threshold produces nothing.
func crossThresholds(key string, sig TargetSignals, next *models.StateRecord, now time.Time, thresholdHours []int) []models.AlertEvent {
	wait := *sig.Queue.WaitSeconds

	hours := append([]int(nil), thresholdHours...)
	sort.Sort(sort.Reverse(sort.IntSlice(hours)))

	var events []models.AlertEvent
	for _, h := range hours {
		label := fmt.Sprintf("%dh", h)
		if wait > h*3600 || next.HasThreshold(label) {
			continue
		}
		next.AddThreshold(label)
		events = append(events, event(key, models.AlertWaitThreshold, now,
			fmt.Sprintf("%s Queue wait under %s on %s", models.AlertWaitThreshold.Emoji(), label, sig.URL)))
	}
	return events
}

// Item evaluates the lifecycle of one item (or single-product target page).
//
// Rules:
//   - absent prior: exactly one NEW_ITEM, record seeded
//   - prior out_of_stock → in_stock: RESTOCK
//   - prior unknown → in_stock with an add-to-cart hint: BUYABLE_NOW
//
// RESTOCK and BUYABLE_NOW are mutually exclusive for one transition, with
// RESTOCK taking precedence when the prior state was specifically
// out_of_stock. Non-improving transitions never alert, but the record still
// advances (LastSeenAt, LastStatus stored verbatim).
func Item(key string, recordKind models.RecordKind, sig models.StockSignal, prior *models.StateRecord, now time.Time) ([]models.AlertEvent, models.StateRecord) {
	if prior == nil {
		next := models.NewStateRecord(recordKind, string(sig.Availability), now)
		ev := event(key, models.AlertNewItem, now,
			fmt.Sprintf("%s New: %s (%s) — %s", models.AlertNewItem.Emoji(), sig.Title, sig.Kind, sig.URL))
		return []models.AlertEvent{ev}, next
	}

	next := prior.Clone()
	next.Kind = recordKind
	prev := models.Availability(next.LastStatus)
	next.LastStatus = string(sig.Availability)
	next.LastSeenAt = now

	var events []models.AlertEvent
	if sig.Availability == models.AvailabilityInStock && prev != models.AvailabilityInStock {
		switch {
		case prev == models.AvailabilityOutOfStock:
			events = append(events, event(key, models.AlertRestock, now,
				fmt.Sprintf("%s Restock: %s — %s", models.AlertRestock.Emoji(), sig.Title, sig.URL)))
		case sig.AddToCart:
			events = append(events, event(key, models.AlertBuyableNow, now,
				fmt.Sprintf("%s Buyable now: %s — %s", models.AlertBuyableNow.Emoji(), sig.Title, sig.URL)))
		}
	}
	return events, next
}

// Heartbeat evaluates the once-per-day operational ping, modeled as a plain
// alert on a reserved meta record so it rides the same throttle path.
func Heartbeat(key string, prior *models.StateRecord, now time.Time) ([]models.AlertEvent, models.StateRecord) {
	var next models.StateRecord
	if prior == nil {
		next = models.NewStateRecord(models.RecordKindMeta, "operational", now)
	} else {
		next = prior.Clone()
		next.LastSeenAt = now
	}
	ev := event(key, models.AlertHeartbeat, now,
		fmt.Sprintf("%s pokewonder operational — %s", models.AlertHeartbeat.Emoji(), now.UTC().Format("2006-01-02")))
	return []models.AlertEvent{ev}, next
}

func queueMessage(sig TargetSignals) string {
	msg := fmt.Sprintf("%s Queue detected on %s", models.AlertQueueDetected.Emoji(), sig.URL)
	if sig.Queue.WaitSeconds != nil {
		msg += fmt.Sprintf(" (wait ~%dm)", *sig.Queue.WaitSeconds/60)
	}
	return msg
}

func event(key string, kind models.AlertKind, now time.Time, msg string) models.AlertEvent {
	return models.AlertEvent{EntityKey: key, Kind: kind, Message: msg, OccurredAt: now}
}
