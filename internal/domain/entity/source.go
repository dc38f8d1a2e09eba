package entity

import (
	"errors"
	"fmt"
	"time"
)

// Source types supported by the collector adapters.
const (
	SourceTypeFeed   = "feed"
	SourceTypeScrape = "scrape"
)

// Health tracking constants. A source is automatically deactivated once
// it accumulates DisableFailureThreshold consecutive failures; reactivation
// is an explicit operator action, never time-based.
const (
	HealthScoreMax          = 100
	HealthScoreMin          = 0
	HealthSuccessDelta      = 5
	HealthFailureDelta      = 10
	DisableFailureThreshold = 10
)

// Source represents a configured content origin for one community.
// It carries the endpoint, per-source scrape rules, and the health state
// mutated by the health tracker after every collection attempt.
type Source struct {
	ID          int64
	CommunityID int64
	Name        string
	SourceType  string // feed or scrape
	Endpoint    string

	ScrapeConfig *ScrapeConfig `json:"scrape_config"`

	PollInterval time.Duration

	ConsecutiveFailures int
	HealthScore         int
	Active              bool
	LastSuccessAt       *time.Time
	LastFailureAt       *time.Time
	LastError           string
}

// ScrapeConfig holds per-source rules for the page scraper.
// Selector fields are CSS selectors; empty selectors fall back to the
// scraper's generic article-container heuristics.
type ScrapeConfig struct {
	ListSelector  string `json:"list_selector,omitempty"`
	TitleSelector string `json:"title_selector,omitempty"`
	BodySelector  string `json:"body_selector,omitempty"`
	LinkSelector  string `json:"link_selector,omitempty"`

	// BaseURL is used to resolve relative item links. Defaults to the
	// source endpoint when empty.
	BaseURL string `json:"base_url,omitempty"`

	// RequiresDynamicRendering selects the headless-renderer strategy
	// instead of static HTML parsing.
	RequiresDynamicRendering bool `json:"requires_dynamic_rendering,omitempty"`
}

// Validate validates the Source entity fields.
func (s *Source) Validate() error {
	if s.CommunityID == 0 {
		return errors.New("community_id is required")
	}
	if s.Endpoint == "" {
		return errors.New("endpoint is required")
	}

	if s.SourceType == "" {
		s.SourceType = SourceTypeFeed
	}
	switch s.SourceType {
	case SourceTypeFeed, SourceTypeScrape:
	default:
		return fmt.Errorf("invalid source_type: %s (must be feed or scrape)", s.SourceType)
	}

	if s.SourceType == SourceTypeScrape && s.ScrapeConfig == nil {
		return errors.New("scrape_config is required for scrape sources")
	}

	if s.HealthScore < HealthScoreMin || s.HealthScore > HealthScoreMax {
		return fmt.Errorf("health_score out of range: %d", s.HealthScore)
	}

	return nil
}
