// internal/models/models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisStatus is the lifecycle state of an Analysis run.
type AnalysisStatus string

const (
	AnalysisStatusPending    AnalysisStatus = "pending"
	AnalysisStatusProcessing AnalysisStatus = "processing"
	AnalysisStatusCompleted  AnalysisStatus = "completed"
	AnalysisStatusFailed     AnalysisStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s AnalysisStatus) Terminal() bool {
	return s == AnalysisStatusCompleted || s == AnalysisStatusFailed
}

// QueryStatus is the lifecycle state of a single Query.
type QueryStatus string

const (
	QueryStatusPending    QueryStatus = "pending"
	QueryStatusProcessing QueryStatus = "processing"
	QueryStatusCompleted  QueryStatus = "completed"
	QueryStatusFailed     QueryStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s QueryStatus) Terminal() bool {
	return s == QueryStatusCompleted || s == QueryStatusFailed
}

// Analysis is one full visibility run for one institution. It owns all of
// its Queries; progress is the percentage of queries in a terminal state.
type Analysis struct {
	ID              uuid.UUID      `json:"id" db:"id"`
	InstitutionName string         `json:"institution_name" db:"institution_name"`
	CanonicalName   string         `json:"canonical_name" db:"canonical_name"`
	Location        string         `json:"location" db:"location"`
	Status          AnalysisStatus `json:"status" db:"status"`
	Progress        int            `json:"progress" db:"progress"`
	VisibilityScore *float64       `json:"visibility_score,omitempty" db:"visibility_score"`
	ErrorMessage    *string        `json:"error_message,omitempty" db:"error_message"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
}

// Query is one atomic unit of work: a single search-style question sent to
// an AI answering service on behalf of one Analysis.
type Query struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	AnalysisID   uuid.UUID   `json:"analysis_id" db:"analysis_id"`
	Topic        string      `json:"topic" db:"topic"`
	Text         string      `json:"text" db:"text"`
	Position     int         `json:"position" db:"position"`
	ForceMention bool        `json:"force_mention" db:"force_mention"`
	FocusName    string      `json:"focus_name" db:"focus_name"`
	Status       QueryStatus `json:"status" db:"status"`

	// Result fields, populated exactly once on completion or failure.
	AnswerText      string      `json:"answer_text" db:"answer_text"`
	BrandsMentioned StringSlice `json:"brands_mentioned" db:"brands_mentioned"`
	CitedURLs       StringSlice `json:"cited_urls" db:"cited_urls"`
	Rank            int         `json:"rank" db:"rank"`
	Weight          float64     `json:"weight" db:"weight"`
	Cost            float64     `json:"cost" db:"cost"`
	ErrorMessage    *string     `json:"error_message,omitempty" db:"error_message"`
	ProcessedAt     *time.Time  `json:"processed_at,omitempty" db:"processed_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Competitor is a derived per-analysis aggregate keyed on (analysis, brand).
type Competitor struct {
	ID           uuid.UUID `json:"id" db:"id"`
	AnalysisID   uuid.UUID `json:"analysis_id" db:"analysis_id"`
	BrandName    string    `json:"brand_name" db:"brand_name"`
	MentionCount int       `json:"mention_count" db:"mention_count"`
	AverageRank  float64   `json:"average_rank" db:"average_rank"`

	// CanonicalBrand groups campus/branch variants under one parent name.
	// Schema-only for now; nothing consumes it yet.
	CanonicalBrand *string `json:"canonical_brand,omitempty" db:"canonical_brand"`
}

// Source is a derived per-analysis aggregate keyed on (analysis, domain).
type Source struct {
	ID            uuid.UUID `json:"id" db:"id"`
	AnalysisID    uuid.UUID `json:"analysis_id" db:"analysis_id"`
	Domain        string    `json:"domain" db:"domain"`
	CitationCount int       `json:"citation_count" db:"citation_count"`
}

// TopicGroup is one topical category of generated queries.
type TopicGroup struct {
	Name    string   `json:"name"`
	Queries []string `json:"queries"`
}

// GenerationPlan is the output of the topic/query generation call that seeds
// an Analysis with its battery of queries.
type GenerationPlan struct {
	CanonicalName string       `json:"canonical_name"`
	Location      string       `json:"location"`
	Topics        []TopicGroup `json:"topics"`
}
