package domain

import (
	"fmt"
	"time"
)

// ScrapeRunStatus represents the status of a catalog scrape run
type ScrapeRunStatus string

const (
	ScrapeRunStatusRunning   ScrapeRunStatus = "running"
	ScrapeRunStatusCompleted ScrapeRunStatus = "completed"
	ScrapeRunStatusFailed    ScrapeRunStatus = "failed"
)

// ScrapeRun records one execution of the catalog scraper
type ScrapeRun struct {
	ID              string
	Status          ScrapeRunStatus
	Pages           int
	SchemesUpserted int
	TotalReported   int
	SnapshotKey     string // object storage key of the archived raw payload, if any
	Error           string
	StartedAt       time.Time
	FinishedAt      *time.Time
}

// NewScrapeRun creates a new ScrapeRun instance
func NewScrapeRun(id string, startedAt time.Time) *ScrapeRun {
	return &ScrapeRun{
		ID:        id,
		Status:    ScrapeRunStatusRunning,
		StartedAt: startedAt,
	}
}

// ValidateScrapeRun validates a ScrapeRun instance
func ValidateScrapeRun(r *ScrapeRun) error {
	if r == nil {
		return fmt.Errorf("scrape run cannot be nil")
	}

	if r.ID == "" {
		return fmt.Errorf("scrape run ID is required")
	}

	if !isValidScrapeRunStatus(r.Status) {
		return fmt.Errorf("scrape run Status is invalid: %s", r.Status)
	}

	if r.Pages < 0 || r.SchemesUpserted < 0 {
		return fmt.Errorf("scrape run counters cannot be negative")
	}

	return nil
}

// isValidScrapeRunStatus checks if a ScrapeRunStatus is valid
func isValidScrapeRunStatus(s ScrapeRunStatus) bool {
	switch s {
	case ScrapeRunStatusRunning, ScrapeRunStatusCompleted, ScrapeRunStatusFailed:
		return true
	}
	return false
}
