package coordinator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pokewonder/pokewonder/internal/detect"
	"github.com/pokewonder/pokewonder/internal/extract"
	"github.com/pokewonder/pokewonder/internal/identity"
	"github.com/pokewonder/pokewonder/internal/models"
)

// targetResult is one target's fetch+extract outcome.
type targetResult struct {
	target   models.Target
	obs      models.Observation
	ext      extract.Extraction
	fetchErr bool
}

// RunCycle executes exactly one cycle. Fetch and extraction run on a bounded
// worker pool; detection and state merging run sequentially afterwards, so
// per-key updates are single-writer even if two targets ever discover the
// same item URL. The store is committed exactly once, before dispatch: a
// commit failure is fatal to the cycle and nothing is sent.
func (c *Coordinator) RunCycle(ctx context.Context) (*CycleResult, error) {
	result := &CycleResult{
		CycleID: uuid.New().String(),
		Targets: len(c.cfg.Targets),
	}
	log := c.log.With().Str("cycle_id", result.CycleID).Logger()

	log.Info().Int("targets", len(c.cfg.Targets)).Msg("starting cycle")

	results := c.observeAll(ctx)

	now := c.now()
	var emitted []models.AlertEvent
	for _, res := range results {
		ev, supp := c.processTarget(res, now, result)
		emitted = append(emitted, ev...)
		result.Suppressed += supp
	}

	if c.cfg.Heartbeat {
		emitted = append(emitted, c.heartbeat(now, result)...)
	}

	// stable dispatch order: substantive alerts first, errors last
	sort.SliceStable(emitted, func(i, j int) bool {
		return emitted[i].Kind.DispatchPriority() < emitted[j].Kind.DispatchPriority()
	})
	result.Emitted = len(emitted)

	if err := c.store.Commit(); err != nil {
		return result, fmt.Errorf("commit state: %w", err)
	}

	c.dispatch(ctx, result, emitted)

	if c.cfg.Summary {
		c.sendSummary(ctx, results, result)
	}

	log.Info().
		Int("emitted", result.Emitted).
		Int("suppressed", result.Suppressed).
		Int("items_seen", result.ItemsSeen).
		Int("fetch_errors", result.FetchErrors).
		Msg("cycle complete")
	return result, nil
}

// observeAll fans fetch+extract out over a bounded worker pool and returns
// results in target order, so state merging stays deterministic.
func (c *Coordinator) observeAll(ctx context.Context) []targetResult {
	jobs := make(chan int)
	results := make([]targetResult, len(c.cfg.Targets))

	workers := c.cfg.Concurrency
	if workers > len(c.cfg.Targets) {
		workers = len(c.cfg.Targets)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = c.observe(ctx, c.cfg.Targets[i])
			}
		}()
	}

	for i := range c.cfg.Targets {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}

// observe fetches and extracts one target. The recover boundary keeps one
// target's failure (including a panicking extractor on hostile markup) from
// aborting the rest of the cycle.
func (c *Coordinator) observe(ctx context.Context, t models.Target) (res targetResult) {
	res.target = t
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Str("target", t.Name).Msg("target processing panicked")
			res.fetchErr = true
		}
	}()

	fctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	out, err := c.fetcher.Fetch(fctx, t.URL)
	if err != nil {
		c.log.Warn().Err(err).Str("target", t.Name).Msg("fetch failed")
		res.fetchErr = true
		return res
	}

	res.obs = models.Observation{
		TargetURL: t.URL,
		FinalURL:  out.FinalURL,
		Status:    out.Status,
		Body:      out.Body,
		FetchedAt: c.now(),
	}
	if out.Status == models.TransportError {
		res.fetchErr = true
		return res
	}

	res.ext = c.extractor.Extract(t, res.obs)
	return res
}

// processTarget runs detection and throttling for one target and its items
// against the buffered store. Returns the emitted events and the suppressed
// count.
func (c *Coordinator) processTarget(res targetResult, now time.Time, stats *CycleResult) ([]models.AlertEvent, int) {
	t := res.target
	if res.fetchErr {
		stats.FetchErrors++
	}
	stats.ItemsSeen += len(res.ext.Items)

	var emitted []models.AlertEvent
	suppressed := 0

	// page-level queue/block/error record, scoped so a product target's
	// stock record on the same URL keeps its own key and state
	statusKey := identity.ScopedKey(statusScope, t.URL)
	prior := c.getPrior(statusKey)
	events, next := detect.Target(statusKey, detect.TargetSignals{
		URL:         t.URL,
		Queue:       res.ext.Queue,
		Block:       res.ext.Block,
		FetchFailed: res.fetchErr,
	}, prior, now, c.cfg.ThresholdHours)
	stats.Candidates += len(events)
	for _, ev := range events {
		if c.policy.Allow(ev, &next, now) {
			emitted = append(emitted, ev)
		} else {
			suppressed++
		}
	}
	c.store.Put(statusKey, next)

	// item-level records
	for _, sig := range res.ext.Items {
		key, kind := itemIdentity(t, sig)
		prior := c.getPrior(key)
		events, next := detect.Item(key, kind, sig, prior, now)
		stats.Candidates += len(events)
		for _, ev := range events {
			if c.policy.Allow(ev, &next, now) {
				emitted = append(emitted, ev)
			} else {
				suppressed++
			}
		}
		c.store.Put(key, next)
	}

	return emitted, suppressed
}

// itemIdentity anchors a product-page target's stock record on the target's
// own URL (the final URL can wander through redirects); listing discoveries
// key on the item URL.
func itemIdentity(t models.Target, sig models.StockSignal) (string, models.RecordKind) {
	if t.Kind == models.TargetKindProduct {
		return identity.Key(t.URL), models.RecordKindTargetStock
	}
	return identity.Key(sig.URL), models.RecordKindItem
}

// heartbeat emits the daily operational ping through the same
// detect/throttle path as every other alert.
func (c *Coordinator) heartbeat(now time.Time, stats *CycleResult) []models.AlertEvent {
	key := identity.Key(HeartbeatURL)
	prior := c.getPrior(key)
	events, next := detect.Heartbeat(key, prior, now)
	stats.Candidates += len(events)

	var emitted []models.AlertEvent
	for _, ev := range events {
		if c.policy.Allow(ev, &next, now) {
			emitted = append(emitted, ev)
		} else {
			stats.Suppressed++
		}
	}
	c.store.Put(key, next)
	return emitted
}

func (c *Coordinator) getPrior(key string) *models.StateRecord {
	rec, ok := c.store.Get(key)
	if !ok {
		return nil
	}
	return &rec
}

// dispatch hands surviving events to the notifier (and the bus publisher
// when configured). Failures are logged, never retried in-cycle: the next
// cycle's cooldown logic is the retry path.
func (c *Coordinator) dispatch(ctx context.Context, result *CycleResult, events []models.AlertEvent) {
	for _, ev := range events {
		if err := c.notifier.Send(ctx, ev.Message); err != nil {
			result.NotifyFailures++
			c.log.Warn().Err(err).Str("kind", string(ev.Kind)).Str("entity", ev.EntityKey).Msg("notification failed")
		}
		if c.publisher == nil {
			continue
		}
		env := AlertEnvelope{
			CycleID:    result.CycleID,
			EntityKey:  ev.EntityKey,
			Kind:       ev.Kind,
			Message:    ev.Message,
			OccurredAt: ev.OccurredAt,
		}
		if err := c.publisher.PublishAlert(ctx, env); err != nil {
			c.log.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("event publish failed")
		}
	}
}
