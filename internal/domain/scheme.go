package domain

import (
	"fmt"
	"strings"
	"time"
)

// SchemeRecord represents one government scheme in the catalog.
// Records are created by the scraper, gain an embedding during the index
// phase, and are read-only from the query pipeline's point of view.
type SchemeRecord struct {
	ID          string
	SourceID    string // upstream catalog identifier (slug), used for idempotent upserts
	Title       string
	Description string
	Category    string
	State       string
	Department  string
	Link        string
	Position    int64 // insertion order, the stable tie-break for equal scores
	Embedded    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewSchemeRecord creates a new SchemeRecord instance
func NewSchemeRecord(
	id, sourceID string,
	title, description, category, state, department, link string,
	createdAt, updatedAt time.Time,
) *SchemeRecord {
	return &SchemeRecord{
		ID:          id,
		SourceID:    sourceID,
		Title:       title,
		Description: description,
		Category:    category,
		State:       state,
		Department:  department,
		Link:        link,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// ValidateSchemeRecord validates a SchemeRecord instance
func ValidateSchemeRecord(s *SchemeRecord) error {
	if s == nil {
		return fmt.Errorf("scheme cannot be nil")
	}

	if s.ID == "" {
		return fmt.Errorf("scheme ID is required")
	}

	if s.SourceID == "" {
		return fmt.Errorf("scheme SourceID is required")
	}

	if s.Title == "" {
		return fmt.Errorf("scheme Title is required")
	}

	return nil
}

// EmbeddingText returns the canonical text embedded for a scheme. The same
// layout is used at index time and at query-context time; changing it makes
// stored vectors drift from query vectors, so keep it stable.
func (s *SchemeRecord) EmbeddingText() string {
	var b strings.Builder
	writeField(&b, "Title", s.Title)
	writeField(&b, "Description", s.Description)
	writeField(&b, "Category", s.Category)
	writeField(&b, "Department", s.Department)
	writeField(&b, "State", s.State)
	return strings.TrimRight(b.String(), "\n")
}

func writeField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

// MatchesState reports whether the scheme satisfies a state filter.
// An empty filter matches everything; comparison is case-insensitive.
func (s *SchemeRecord) MatchesState(state string) bool {
	return state == "" || strings.EqualFold(s.State, state)
}

// MatchesCategory reports whether the scheme satisfies a category filter.
func (s *SchemeRecord) MatchesCategory(category string) bool {
	return category == "" || strings.EqualFold(s.Category, category)
}
