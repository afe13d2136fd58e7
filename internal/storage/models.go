package storage

import (
	"time"

	"github.com/google/uuid"

	"github.com/Kakaur/tensr-signal-agent/internal/signal"
)

// Run lifecycle states. Only finalized runs are visible to readers;
// a crash between pending and finalized leaves no observable batch.
const (
	RunStatusPending   = "pending"
	RunStatusFinalized = "finalized"
)

// RunRecord is one persisted pipeline execution.
type RunRecord struct {
	ID          uuid.UUID
	Timestamp   time.Time
	ProfilePath string
	ProfileJSON []byte
	Status      string
	Warning     string
	SignalCount int
}

// BatchInfo summarises a finalized run for listings.
type BatchInfo struct {
	ID          uuid.UUID `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	ProfilePath string    `json:"profile_path,omitempty"`
	SignalCount int       `json:"signal_count"`
	Warning     string    `json:"warning,omitempty"`
}

// SignalRecord is a scored signal as stored, tagged with its batch.
type SignalRecord struct {
	signal.Scored

	ID           int64     `json:"id"`
	RunID        uuid.UUID `json:"run_id"`
	RunTimestamp time.Time `json:"run_timestamp"`
}

// SignalFilter narrows read queries. Zero values mean no filtering.
type SignalFilter struct {
	Region  string
	Domains []string
	Tiers   []signal.Tier
}

// Summary holds tier counts for the most recent finalized run.
type Summary struct {
	RunID     *uuid.UUID `json:"run_id"`
	Timestamp *time.Time `json:"timestamp"`
	Hot       int        `json:"HOT"`
	Warm      int        `json:"WARM"`
	Nurture   int        `json:"NURTURE"`
	Hold      int        `json:"HOLD"`
	Total     int        `json:"total"`
}
