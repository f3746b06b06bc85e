package detect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokewonder/pokewonder/internal/models"
)

var thresholds = []int{6, 3, 1}

func waitSecs(hours float64) *int {
	s := int(hours * 3600)
	return &s
}

func targetSig(queue, block bool, wait *int) TargetSignals {
	return TargetSignals{
		URL:   "https://shop.example/tcg",
		Queue: models.QueueSignal{Active: queue, WaitSeconds: wait},
		Block: models.BlockSignal{Active: block},
	}
}

func kinds(events []models.AlertEvent) []models.AlertKind {
	var out []models.AlertKind
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestStatus_BlockBeatsQueue(t *testing.T) {
	got := Status(models.QueueSignal{Active: true}, models.BlockSignal{Active: true})
	assert.Equal(t, models.TargetStatusBlock, got)
}

func TestTarget_BaselineNeverAlerts(t *testing.T) {
	now := time.Now()

	// even a first observation in QUEUE is just the unknown baseline
	events, next := Target("k", targetSig(true, false, nil), nil, now, thresholds)
	assert.Empty(t, events)
	assert.Equal(t, string(models.TargetStatusQueue), next.LastStatus)
	assert.Equal(t, now, next.FirstSeenAt)
	assert.Equal(t, models.RecordKindTargetQueue, next.Kind)
}

func TestTarget_QueueTransitionSequence(t *testing.T) {
	// OK → QUEUE → BLOCK → OK emits QUEUE_DETECTED, BLOCK_DETECTED and no
	// QUEUE_CLEARED (the last transition originates from BLOCK, not QUEUE)
	now := time.Now()

	_, rec := Target("k", targetSig(false, false, nil), nil, now, thresholds)

	events, rec := Target("k", targetSig(true, false, nil), &rec, now.Add(time.Minute), thresholds)
	assert.Equal(t, []models.AlertKind{models.AlertQueueDetected}, kinds(events))

	events, rec = Target("k", targetSig(false, true, nil), &rec, now.Add(2*time.Minute), thresholds)
	assert.Equal(t, []models.AlertKind{models.AlertBlockDetected}, kinds(events))

	events, rec = Target("k", targetSig(false, false, nil), &rec, now.Add(3*time.Minute), thresholds)
	assert.Empty(t, events, "BLOCK → OK must not emit QUEUE_CLEARED")
	assert.Equal(t, string(models.TargetStatusOK), rec.LastStatus)
}

func TestTarget_QueueCleared(t *testing.T) {
	now := time.Now()

	_, rec := Target("k", targetSig(true, false, nil), nil, now, thresholds)
	events, _ := Target("k", targetSig(false, false, nil), &rec, now.Add(time.Minute), thresholds)
	assert.Equal(t, []models.AlertKind{models.AlertQueueCleared}, kinds(events))
}

func TestTarget_BlockFromQueue(t *testing.T) {
	now := time.Now()

	_, rec := Target("k", targetSig(true, false, nil), nil, now, thresholds)
	events, _ := Target("k", targetSig(true, true, nil), &rec, now.Add(time.Minute), thresholds)

	// a captcha inside a queue page is still a block
	assert.Equal(t, []models.AlertKind{models.AlertBlockDetected}, kinds(events))
}

func TestTarget_MonotonicThresholds(t *testing.T) {
	now := time.Now()

	_, rec := Target("k", targetSig(false, false, nil), nil, now, thresholds)

	// 7h: queue detected, no threshold yet
	events, rec := Target("k", targetSig(true, false, waitSecs(7)), &rec, now, thresholds)
	assert.Equal(t, []models.AlertKind{models.AlertQueueDetected}, kinds(events))

	step := func(hours float64, want ...models.AlertKind) {
		var events []models.AlertEvent
		events, rec = Target("k", targetSig(true, false, waitSecs(hours)), &rec, now, thresholds)
		if len(want) == 0 {
			assert.Empty(t, events, "wait %.1fh", hours)
			return
		}
		assert.Equal(t, want, kinds(events), "wait %.1fh", hours)
	}

	step(4.0, models.AlertWaitThreshold) // crosses 6
	step(2.0, models.AlertWaitThreshold) // crosses 3
	step(0.5, models.AlertWaitThreshold) // crosses 1

	// climbing back above a crossed threshold yields nothing and
	// the set keeps every crossed entry
	step(5.0)
	assert.ElementsMatch(t, []string{"6h", "3h", "1h"}, rec.ThresholdsCrossed)
}

func TestTarget_SkippedThresholdsCrossTogether(t *testing.T) {
	now := time.Now()

	_, rec := Target("k", targetSig(false, false, nil), nil, now, thresholds)
	events, rec := Target("k", targetSig(true, false, waitSecs(0.5)), &rec, now, thresholds)

	// dropping straight below all thresholds crosses them in order 6,3,1
	require.Len(t, events, 4)
	assert.Equal(t, models.AlertQueueDetected, events[0].Kind)
	assert.Contains(t, events[1].Message, "6h")
	assert.Contains(t, events[2].Message, "3h")
	assert.Contains(t, events[3].Message, "1h")
	assert.ElementsMatch(t, []string{"6h", "3h", "1h"}, rec.ThresholdsCrossed)
}

func TestTarget_IdempotentReobservation(t *testing.T) {
	now := time.Now()
	sig := targetSig(true, false, waitSecs(2))

	_, rec := Target("k", targetSig(false, false, nil), nil, now, thresholds)
	events1, rec := Target("k", sig, &rec, now.Add(time.Minute), thresholds)
	events2, _ := Target("k", sig, &rec, now.Add(2*time.Minute), thresholds)

	assert.Equal(t, []models.AlertKind{
		models.AlertQueueDetected, models.AlertWaitThreshold, models.AlertWaitThreshold,
	}, kinds(events1))
	assert.Empty(t, events2, "same signals twice must yield no second event")
}

func TestTarget_BaselineRecordsThresholdsSilently(t *testing.T) {
	now := time.Now()

	// a queue already 2h deep at first sight is baseline, not news
	events, rec := Target("k", targetSig(true, false, waitSecs(2)), nil, now, thresholds)
	assert.Empty(t, events)
	assert.ElementsMatch(t, []string{"6h", "3h"}, rec.ThresholdsCrossed)

	// only the remaining threshold can fire later
	events, _ = Target("k", targetSig(true, false, waitSecs(0.5)), &rec, now.Add(time.Minute), thresholds)
	assert.Equal(t, []models.AlertKind{models.AlertWaitThreshold}, kinds(events))
}

func TestTarget_FetchErrorKeepsStatus(t *testing.T) {
	now := time.Now()

	_, rec := Target("k", targetSig(true, false, nil), nil, now, thresholds)

	sig := targetSig(false, false, nil)
	sig.FetchFailed = true
	events, next := Target("k", sig, &rec, now.Add(time.Minute), thresholds)

	assert.Equal(t, []models.AlertKind{models.AlertFetchError}, kinds(events))
	assert.Equal(t, string(models.TargetStatusQueue), next.LastStatus,
		"a failed fetch must not overwrite the last known status")
	assert.Equal(t, now.Add(time.Minute), next.LastSeenAt)
}

func stock(avail models.Availability, cart bool) models.StockSignal {
	return models.StockSignal{
		Title:        "Scarlet & Violet Elite Trainer Box",
		URL:          "https://shop.example/p/sv-etb",
		Kind:         models.ItemKindETB,
		Availability: avail,
		AddToCart:    cart,
	}
}

func TestItem_NewItemExactlyOnce(t *testing.T) {
	now := time.Now()

	events, rec := Item("k", models.RecordKindItem, stock(models.AvailabilityUnknown, false), nil, now)
	require.Equal(t, []models.AlertKind{models.AlertNewItem}, kinds(events))

	events, _ = Item("k", models.RecordKindItem, stock(models.AvailabilityUnknown, false), &rec, now.Add(time.Minute))
	assert.Empty(t, events)
}

func TestItem_RestockPrecedence(t *testing.T) {
	now := time.Now()

	_, rec := Item("k", models.RecordKindItem, stock(models.AvailabilityOutOfStock, false), nil, now)

	// prior out_of_stock → in_stock with add-to-cart: exactly one RESTOCK,
	// never BUYABLE_NOW
	events, next := Item("k", models.RecordKindItem, stock(models.AvailabilityInStock, true), &rec, now.Add(time.Minute))
	assert.Equal(t, []models.AlertKind{models.AlertRestock}, kinds(events))
	assert.Equal(t, string(models.AvailabilityInStock), next.LastStatus)
}

func TestItem_BuyableNowFromUnknown(t *testing.T) {
	now := time.Now()

	_, rec := Item("k", models.RecordKindItem, stock(models.AvailabilityUnknown, false), nil, now)
	events, _ := Item("k", models.RecordKindItem, stock(models.AvailabilityInStock, true), &rec, now.Add(time.Minute))
	assert.Equal(t, []models.AlertKind{models.AlertBuyableNow}, kinds(events))
}

func TestItem_NonImprovingTransitionsSilent(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name        string
		prior, next models.Availability
	}{
		{"unknown to out_of_stock", models.AvailabilityUnknown, models.AvailabilityOutOfStock},
		{"in_stock to out_of_stock", models.AvailabilityInStock, models.AvailabilityOutOfStock},
		{"no change", models.AvailabilityOutOfStock, models.AvailabilityOutOfStock},
		{"in_stock to unknown", models.AvailabilityInStock, models.AvailabilityUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, rec := Item("k", models.RecordKindItem, stock(tc.prior, false), nil, now)
			events, next := Item("k", models.RecordKindItem, stock(tc.next, false), &rec, now.Add(time.Minute))
			assert.Empty(t, events)
			assert.Equal(t, string(tc.next), next.LastStatus, "state still advances")
			assert.Equal(t, now.Add(time.Minute), next.LastSeenAt)
		})
	}
}

func TestItem_StampsRecordKind(t *testing.T) {
	now := time.Now()

	_, rec := Item("k", models.RecordKindTargetStock, stock(models.AvailabilityOutOfStock, false), nil, now)
	require.Equal(t, models.RecordKindTargetStock, rec.Kind)

	// a prior record with a foreign kind is corrected, not propagated
	rec.Kind = models.RecordKindTargetQueue
	_, next := Item("k", models.RecordKindTargetStock, stock(models.AvailabilityOutOfStock, false), &rec, now.Add(time.Minute))
	assert.Equal(t, models.RecordKindTargetStock, next.Kind)
}

func TestItem_InStockWithoutCartHintFromUnknown(t *testing.T) {
	now := time.Now()

	_, rec := Item("k", models.RecordKindItem, stock(models.AvailabilityUnknown, false), nil, now)

	// unknown → in_stock without the strong add-to-cart hint stays silent
	events, _ := Item("k", models.RecordKindItem, stock(models.AvailabilityInStock, false), &rec, now.Add(time.Minute))
	assert.Empty(t, events)
}

func TestHeartbeat_CandidateEveryCall(t *testing.T) {
	now := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)

	events, rec := Heartbeat("k", nil, now)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Message, "2026-08-30")

	// throttling is the gate, not detection
	events, _ = Heartbeat("k", &rec, now.Add(time.Hour))
	assert.Len(t, events, 1)
}
