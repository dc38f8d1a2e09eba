package entity

import "time"

// Business is a canonical registry entry for a real-world business within a
// community. It is owned by external business-management functionality; the
// pipeline only reads it during matching.
type Business struct {
	ID             int64
	CommunityID    int64
	Name           string
	NormalizedName string
	IsAdvertiser   bool
	IsCustomer     bool
}

// HasCommercialRelationship reports whether the business is already an
// advertiser or a customer. Opportunities are never created for such
// businesses.
func (b *Business) HasCommercialRelationship() bool {
	return b.IsAdvertiser || b.IsCustomer
}

// Mention roles describe how a business appears in a piece of content.
const (
	MentionRoleHost      = "host"
	MentionRoleSubject   = "subject"
	MentionRoleMentioned = "mentioned"
)

// BusinessMention links one RawContent item to a business, resolved or not.
// Created exclusively by the router and immutable thereafter.
type BusinessMention struct {
	ID           int64
	CommunityID  int64
	RawContentID int64
	BusinessID   *int64 // nil when the name did not resolve
	BusinessName string
	Role         string
	IsPrimary    bool
	Context      string
	Confidence   float64
	CreatedAt    time.Time
}
