// Package models defines shared data types for the application.
package models

import "time"

// TargetKind tells the extractor how to read a page.
type TargetKind string

// TargetKind constants define the supported page shapes.
const (
	TargetKindListing TargetKind = "listing"
	TargetKindProduct TargetKind = "product"
)

// Target is one externally configured page to monitor.
// Immutable for the duration of a cycle.
type Target struct {
	Name string     `yaml:"name" json:"name"`
	URL  string     `yaml:"url" json:"url"`
	Kind TargetKind `yaml:"kind" json:"kind"`

	// filters for items discovered on listing pages;
	// empty means everything matches
	Keywords []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Sets     []string `yaml:"sets,omitempty" json:"sets,omitempty"`
}

// TransportStatus is the coarse outcome of one fetch.
type TransportStatus string

// TransportStatus constants.
const (
	TransportOK      TransportStatus = "ok"
	TransportBlocked TransportStatus = "blocked"
	TransportError   TransportStatus = "error"
)

// Observation is the result of fetching one Target once. Transient, never persisted.
type Observation struct {
	TargetURL string          `json:"target_url"`
	FinalURL  string          `json:"final_url"`
	Status    TransportStatus `json:"status"`
	Body      string          `json:"-"`
	FetchedAt time.Time       `json:"fetched_at"`
}
