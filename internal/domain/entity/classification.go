package entity

import (
	"encoding/json"
	"fmt"
)

// Processing tiers and priorities accepted from the AI response. The values
// are opaque to the pipeline but must be present and well-formed before a
// payload is stored.
var (
	ValidProcessingTiers = map[string]bool{"brief": true, "standard": true, "full": true}
	ValidPriorities      = map[string]bool{"breaking": true, "high": true, "normal": true, "low": true}
)

// requiredClassificationKeys are the top-level keys the AI response must
// carry. A response missing any of them is a classification failure.
var requiredClassificationKeys = []string{
	"content_types",
	"primary_type",
	"categories",
	"tags",
	"local_relevance_score",
	"local_relevance_reason",
	"news_value_score",
	"news_value_reason",
	"businesses_mentioned",
	"people_mentioned",
	"locations_mentioned",
	"organizations_mentioned",
	"dates_mentioned",
	"event_data",
	"processing_recommendation",
	"sales_flag",
}

// MentionedBusiness is one entry of businesses_mentioned, annotated with the
// matcher's resolution after classification.
type MentionedBusiness struct {
	Name    string `json:"name"`
	Role    string `json:"role"`
	IsLocal bool   `json:"is_local"`
	Context string `json:"context"`

	// Filled in by the business matcher, not the AI. Confidence is the
	// match score: 100 for exact hits, the similarity percentage for
	// fuzzy ones, 0 when the name did not resolve.
	BusinessID   *int64  `json:"business_id,omitempty"`
	IsAdvertiser bool    `json:"is_advertiser,omitempty"`
	IsCustomer   bool    `json:"is_customer,omitempty"`
	Confidence   float64 `json:"confidence,omitempty"`
}

// EventData carries the nested event fields of a classification.
type EventData struct {
	IsEvent   bool   `json:"is_event"`
	EventName string `json:"event_name,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Venue     string `json:"venue,omitempty"`
}

// ProcessingRecommendation is the AI's routing suggestion for downstream
// publishing.
type ProcessingRecommendation struct {
	Tier              string `json:"tier"`
	Priority          string `json:"priority"`
	SuggestedHeadline string `json:"suggested_headline"`
	Angle             string `json:"angle"`
}

// SalesFlag signals a commercial opportunity extracted from content.
type SalesFlag struct {
	HasBusinessOpportunity bool   `json:"has_business_opportunity"`
	BusinessName           string `json:"business_name"`
	OpportunityType        string `json:"opportunity_type"`
	OpportunityQuality     string `json:"opportunity_quality"`
	RecommendedAction      string `json:"recommended_action"`
}

// Classification is the structured payload returned by the AI completion
// collaborator and stored on a classified RawContent row.
type Classification struct {
	ContentTypes           []string                 `json:"content_types"`
	PrimaryType            string                   `json:"primary_type"`
	Categories             []string                 `json:"categories"`
	Tags                   []string                 `json:"tags"`
	LocalRelevanceScore    int                      `json:"local_relevance_score"`
	LocalRelevanceReason   string                   `json:"local_relevance_reason"`
	NewsValueScore         int                      `json:"news_value_score"`
	NewsValueReason        string                   `json:"news_value_reason"`
	BusinessesMentioned    []MentionedBusiness      `json:"businesses_mentioned"`
	PeopleMentioned        []string                 `json:"people_mentioned"`
	LocationsMentioned     []string                 `json:"locations_mentioned"`
	OrganizationsMentioned []string                 `json:"organizations_mentioned"`
	DatesMentioned         []string                 `json:"dates_mentioned"`
	EventData              EventData                `json:"event_data"`
	ProcessingRec          ProcessingRecommendation `json:"processing_recommendation"`
	SalesFlag              SalesFlag                `json:"sales_flag"`
}

// ParseClassification decodes and validates a raw AI response body.
// It enforces the presence of every required top-level key, score bounds,
// and the processing tier/priority enums before the payload may be stored.
func ParseClassification(raw []byte) (*Classification, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClassification, err)
	}

	for _, k := range requiredClassificationKeys {
		if _, ok := keys[k]; !ok {
			return nil, fmt.Errorf("%w: missing required key %q", ErrInvalidClassification, k)
		}
	}

	var c Classification
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClassification, err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks score bounds and enum fields of a decoded payload.
func (c *Classification) Validate() error {
	if c.LocalRelevanceScore < 0 || c.LocalRelevanceScore > 100 {
		return fmt.Errorf("%w: local_relevance_score out of range: %d",
			ErrInvalidClassification, c.LocalRelevanceScore)
	}
	if c.NewsValueScore < 0 || c.NewsValueScore > 100 {
		return fmt.Errorf("%w: news_value_score out of range: %d",
			ErrInvalidClassification, c.NewsValueScore)
	}
	if !ValidProcessingTiers[c.ProcessingRec.Tier] {
		return fmt.Errorf("%w: invalid processing tier %q",
			ErrInvalidClassification, c.ProcessingRec.Tier)
	}
	if !ValidPriorities[c.ProcessingRec.Priority] {
		return fmt.Errorf("%w: invalid priority %q",
			ErrInvalidClassification, c.ProcessingRec.Priority)
	}
	return nil
}
