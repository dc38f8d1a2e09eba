package entity

import "time"

// Opportunity quality tiers and their fixed priority scores.
const (
	OpportunityQualityHot  = "hot"
	OpportunityQualityWarm = "warm"
	OpportunityQualityCold = "cold"

	PriorityScoreHot  = 85
	PriorityScoreWarm = 60
	PriorityScoreCold = 35
)

// Opportunity lifecycle statuses. Only new/assigned/contacted count as open;
// transitions beyond new belong to the external sales workflow.
const (
	OpportunityStatusNew       = "new"
	OpportunityStatusAssigned  = "assigned"
	OpportunityStatusContacted = "contacted"
	OpportunityStatusWon       = "won"
	OpportunityStatusLost      = "lost"
)

// OpenOpportunityStatuses lists the statuses considered open for the
// one-open-opportunity-per-business invariant.
var OpenOpportunityStatuses = []string{
	OpportunityStatusNew,
	OpportunityStatusAssigned,
	OpportunityStatusContacted,
}

// OpportunityActivity is one append-only entry in an opportunity's log.
type OpportunityActivity struct {
	At           time.Time `json:"at"`
	Kind         string    `json:"kind"` // created, additional_coverage
	Note         string    `json:"note"`
	RawContentID int64     `json:"raw_content_id,omitempty"`
}

// SalesOpportunity is a commercial lead derived from classified content.
// At most one open opportunity exists per (business name, community);
// repeated triggers append to the activity log instead.
type SalesOpportunity struct {
	ID              int64
	CommunityID     int64
	BusinessID      *int64
	BusinessName    string
	OpportunityType string
	Quality         string
	Status          string
	PriorityScore   int
	Trigger         string
	SourceContentID int64
	Activities      []OpportunityActivity
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// QualityForOpportunityType derives the quality tier from the opportunity
// type reported by classification.
func QualityForOpportunityType(opportunityType string) string {
	switch opportunityType {
	case "new_business", "grand_opening":
		return OpportunityQualityHot
	case "positive_coverage", "event_host":
		return OpportunityQualityWarm
	default:
		return OpportunityQualityCold
	}
}

// PriorityScoreForQuality returns the fixed priority score for a quality tier.
func PriorityScoreForQuality(quality string) int {
	switch quality {
	case OpportunityQualityHot:
		return PriorityScoreHot
	case OpportunityQualityWarm:
		return PriorityScoreWarm
	default:
		return PriorityScoreCold
	}
}
