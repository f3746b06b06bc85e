// Package coordinator drives one monitoring cycle: fan fetches out over the
// configured targets, classify, detect changes against the state store,
// throttle, commit once, then dispatch surviving events.
package coordinator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pokewonder/pokewonder/internal/extract"
	"github.com/pokewonder/pokewonder/internal/fetch"
	"github.com/pokewonder/pokewonder/internal/logger"
	"github.com/pokewonder/pokewonder/internal/models"
	"github.com/pokewonder/pokewonder/internal/store"
	"github.com/pokewonder/pokewonder/internal/throttle"
)

// HeartbeatURL is the reserved pseudo-URL anchoring the daily operational
// ping's state record.
const HeartbeatURL = "pokewonder://heartbeat"

// statusScope namespaces a target's page-status record key away from the
// stock record a product target keeps on the same URL.
const statusScope = "status"

// Fetcher retrieves one page. Implementations may be a plain HTTP client or
// a full browser; the coordinator does not care.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Result, error)
}

// Notifier delivers one message to a human, best-effort.
type Notifier interface {
	Send(ctx context.Context, message string) error
}

// AlertEnvelope is the wire form of an emitted alert for downstream
// consumers.
type AlertEnvelope struct {
	CycleID    string           `json:"cycle_id"`
	EntityKey  string           `json:"entity_key"`
	Kind       models.AlertKind `json:"kind"`
	Message    string           `json:"message"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// Marshal serializes the envelope for publishing.
func (e AlertEnvelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// EventPublisher publishes emitted alerts to a message bus.
type EventPublisher interface {
	PublishAlert(ctx context.Context, event AlertEnvelope) error
}

// Config holds the per-run parameters of a cycle.
type Config struct {
	Targets        []models.Target
	Cooldowns      map[models.AlertKind]time.Duration
	ThresholdHours []int
	Concurrency    int
	FetchTimeout   time.Duration
	Heartbeat      bool
	Summary        bool
}

// Coordinator runs cycles. One instance per process; not safe for
// concurrent RunCycle calls (the store commit is a single-writer step).
type Coordinator struct {
	cfg       Config
	fetcher   Fetcher
	notifier  Notifier
	publisher EventPublisher // optional
	store     store.Store
	extractor *extract.Extractor
	policy    throttle.Policy
	log       *logger.Logger

	// clock, swappable in tests
	now func() time.Time
}

// New creates a coordinator. publisher may be nil to disable bus publishing.
func New(
	cfg Config,
	fetcher Fetcher,
	notifier Notifier,
	publisher EventPublisher,
	st store.Store,
	log *logger.Logger,
) *Coordinator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 20 * time.Second
	}
	if len(cfg.ThresholdHours) == 0 {
		cfg.ThresholdHours = []int{6, 3, 1}
	}
	return &Coordinator{
		cfg:       cfg,
		fetcher:   fetcher,
		notifier:  notifier,
		publisher: publisher,
		store:     st,
		extractor: extract.New(),
		policy:    throttle.NewPolicy(cfg.Cooldowns),
		log:       log,
		now:       time.Now,
	}
}

// CycleResult contains per-cycle statistics.
type CycleResult struct {
	CycleID        string
	Targets        int
	FetchErrors    int
	ItemsSeen      int
	Candidates     int
	Emitted        int
	Suppressed     int
	NotifyFailures int
}
