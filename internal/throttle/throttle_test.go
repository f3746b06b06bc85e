package throttle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pokewonder/pokewonder/internal/models"
)

func candidate(kind models.AlertKind, at time.Time) models.AlertEvent {
	return models.AlertEvent{EntityKey: "k", Kind: kind, Message: "m", OccurredAt: at}
}

func TestAllow_FirstEverAlwaysEmits(t *testing.T) {
	policy := NewPolicy(map[models.AlertKind]time.Duration{
		models.AlertFetchError: 30 * time.Minute,
	})
	rec := models.NewStateRecord(models.RecordKindTargetQueue, "OK", time.Now())

	now := time.Now()
	assert.True(t, policy.Allow(candidate(models.AlertFetchError, now), &rec, now))

	last, ok := rec.AlertedAt(models.AlertFetchError)
	assert.True(t, ok)
	assert.Equal(t, now, last)
}

func TestAllow_CooldownSuppression(t *testing.T) {
	policy := NewPolicy(map[models.AlertKind]time.Duration{
		models.AlertFetchError: 1800 * time.Second,
	})

	base := time.Now()

	t.Run("10 minutes apart: second suppressed", func(t *testing.T) {
		rec := models.NewStateRecord(models.RecordKindTargetQueue, "OK", base)
		assert.True(t, policy.Allow(candidate(models.AlertFetchError, base), &rec, base))
		assert.False(t, policy.Allow(candidate(models.AlertFetchError, base), &rec, base.Add(10*time.Minute)))
	})

	t.Run("31 minutes apart: both emitted", func(t *testing.T) {
		rec := models.NewStateRecord(models.RecordKindTargetQueue, "OK", base)
		assert.True(t, policy.Allow(candidate(models.AlertFetchError, base), &rec, base))
		assert.True(t, policy.Allow(candidate(models.AlertFetchError, base), &rec, base.Add(31*time.Minute)))
	})
}

func TestAllow_SuppressionKeepsClock(t *testing.T) {
	policy := NewPolicy(map[models.AlertKind]time.Duration{
		models.AlertQueueDetected: time.Hour,
	})
	base := time.Now()
	rec := models.NewStateRecord(models.RecordKindTargetQueue, "QUEUE", base)

	assert.True(t, policy.Allow(candidate(models.AlertQueueDetected, base), &rec, base))
	assert.False(t, policy.Allow(candidate(models.AlertQueueDetected, base), &rec, base.Add(30*time.Minute)))

	// the clock still points at the original send, so 61m after it the
	// event passes even though only 31m passed since the suppressed one
	assert.True(t, policy.Allow(candidate(models.AlertQueueDetected, base), &rec, base.Add(61*time.Minute)))
}

func TestAllow_UnconfiguredKindAlwaysEmits(t *testing.T) {
	policy := NewPolicy(nil)
	base := time.Now()
	rec := models.NewStateRecord(models.RecordKindItem, "unknown", base)

	assert.True(t, policy.Allow(candidate(models.AlertRestock, base), &rec, base))
	assert.True(t, policy.Allow(candidate(models.AlertRestock, base), &rec, base.Add(time.Second)))
}

func TestAllow_HeartbeatOncePerUTCDay(t *testing.T) {
	policy := NewPolicy(nil)
	morning := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)
	rec := models.NewStateRecord(models.RecordKindMeta, "operational", morning)

	assert.True(t, policy.Allow(candidate(models.AlertHeartbeat, morning), &rec, morning))
	assert.False(t, policy.Allow(candidate(models.AlertHeartbeat, morning), &rec, morning.Add(10*time.Hour)),
		"same UTC day")
	assert.True(t, policy.Allow(candidate(models.AlertHeartbeat, morning), &rec, morning.Add(19*time.Hour)),
		"next UTC day, even though under 24h elapsed")
}
