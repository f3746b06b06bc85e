package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pokewonder/pokewonder/internal/models"
)

// WatchFile is the YAML document describing what to watch and how often to
// re-alert. Cooldowns use Go duration syntax ("30m", "1h").
type WatchFile struct {
	Targets        []models.Target   `yaml:"targets"`
	Cooldowns      map[string]string `yaml:"cooldowns"`
	ThresholdHours []int             `yaml:"threshold_hours"`
	Summary        bool              `yaml:"summary"`
	Heartbeat      bool              `yaml:"heartbeat"`
}

// Watch is the parsed, validated form handed to the coordinator.
type Watch struct {
	Targets        []models.Target
	Cooldowns      map[models.AlertKind]time.Duration
	ThresholdHours []int
	Summary        bool
	Heartbeat      bool
}

// DefaultCooldowns mirror the operational defaults: errors half-hourly,
// queue chatter hourly, restocks near-immediately.
func DefaultCooldowns() map[models.AlertKind]time.Duration {
	return map[models.AlertKind]time.Duration{
		models.AlertFetchError:    30 * time.Minute,
		models.AlertQueueDetected: 60 * time.Minute,
		models.AlertBlockDetected: 60 * time.Minute,
		models.AlertRestock:       5 * time.Minute,
		models.AlertBuyableNow:    5 * time.Minute,
		models.AlertQueueCleared:  5 * time.Minute,
	}
}

// DefaultThresholdHours is the wait-time alert ladder.
var DefaultThresholdHours = []int{6, 3, 1}

// LoadWatch reads and validates the watch file.
func LoadWatch(path string) (*Watch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watch file: %w", err)
	}

	var file WatchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse watch file: %w", err)
	}
	if len(file.Targets) == 0 {
		return nil, fmt.Errorf("watch file %s lists no targets", path)
	}

	w := &Watch{
		Targets:        file.Targets,
		Cooldowns:      DefaultCooldowns(),
		ThresholdHours: DefaultThresholdHours,
		Summary:        file.Summary,
		Heartbeat:      file.Heartbeat,
	}
	if len(file.ThresholdHours) > 0 {
		w.ThresholdHours = file.ThresholdHours
	}

	for i := range w.Targets {
		t := &w.Targets[i]
		if t.URL == "" {
			return nil, fmt.Errorf("target %d has no url", i)
		}
		if t.Kind == "" {
			t.Kind = models.TargetKindListing
		}
		if t.Kind != models.TargetKindListing && t.Kind != models.TargetKindProduct {
			return nil, fmt.Errorf("target %s: unknown kind %q", t.URL, t.Kind)
		}
		if t.Name == "" {
			t.Name = t.URL
		}
	}

	for kind, raw := range file.Cooldowns {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("cooldown %s: %w", kind, err)
		}
		w.Cooldowns[models.AlertKind(kind)] = d
	}
	return w, nil
}
