// Package route turns a stored classification into durable side effects:
// business mention records and, when the sales flag fires, a sales
// opportunity. Routing is idempotent per business: one open opportunity per
// (community, business name), with repeat triggers folded into its activity
// log.
package route

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"localwire/internal/domain/entity"
	"localwire/internal/observability/metrics"
	"localwire/internal/repository"
)

// BusinessLookup resolves a business name against the registry. Satisfied by
// the matcher; a miss is (nil, 0, nil).
type BusinessLookup interface {
	FindMatch(ctx context.Context, communityID int64, name string) (*entity.Business, float64, error)
}

// Router persists mention and opportunity side effects of classification.
type Router struct {
	mentionRepo     repository.MentionRepository
	opportunityRepo repository.OpportunityRepository
	lookup          BusinessLookup
	now             func() time.Time
}

// NewRouter creates a Router.
func NewRouter(mentionRepo repository.MentionRepository, opportunityRepo repository.OpportunityRepository, lookup BusinessLookup) *Router {
	return &Router{
		mentionRepo:     mentionRepo,
		opportunityRepo: opportunityRepo,
		lookup:          lookup,
		now:             time.Now,
	}
}

// Route applies both side effects for one classified item. Mention creation
// failures abort routing; the opportunity step runs after mentions so a
// failed opportunity write never loses mention rows.
func (r *Router) Route(ctx context.Context, item *entity.RawContent, c *entity.Classification) error {
	if err := r.CreateBusinessMentions(ctx, item, c); err != nil {
		return err
	}
	return r.CreateSalesOpportunity(ctx, item, c)
}

// CreateBusinessMentions stores one mention row per businesses_mentioned
// entry. The first entry is the primary mention. Unresolved names are kept
// with a nil business id so sales can still see them.
func (r *Router) CreateBusinessMentions(ctx context.Context, item *entity.RawContent, c *entity.Classification) error {
	for i, mb := range c.BusinessesMentioned {
		if mb.Name == "" {
			continue
		}

		mention := &entity.BusinessMention{
			CommunityID:  item.CommunityID,
			RawContentID: item.ID,
			BusinessID:   mb.BusinessID,
			BusinessName: mb.Name,
			Role:         mb.Role,
			IsPrimary:    i == 0,
			Context:      mb.Context,
			Confidence:   mb.Confidence,
			CreatedAt:    r.now(),
		}
		if err := r.mentionRepo.Create(ctx, mention); err != nil {
			return fmt.Errorf("create mention for %q: %w", mb.Name, err)
		}
	}
	return nil
}

// CreateSalesOpportunity evaluates the sales flag of one classification.
//
// No-ops: flag not set, or set without a business name. Suppressed: the
// flagged business resolves, via the annotated mentions or the registry,
// to an existing commercial relationship. Deduplicated: an open opportunity
// for the name exists, so an additional_coverage activity is appended
// instead of a second row.
func (r *Router) CreateSalesOpportunity(ctx context.Context, item *entity.RawContent, c *entity.Classification) error {
	flag := c.SalesFlag
	if !flag.HasBusinessOpportunity {
		return nil
	}
	if flag.BusinessName == "" {
		metrics.RecordOpportunity("skipped")
		slog.Debug("sales flag without business name skipped",
			slog.Int64("raw_content_id", item.ID))
		return nil
	}

	matched := matchedBusiness(c, flag.BusinessName)
	if matched == nil {
		// The flagged name was not among the annotated mentions (the AI
		// may spell it differently, or mention no businesses at all), so
		// ask the registry directly before deciding on suppression.
		business, _, err := r.lookup.FindMatch(ctx, item.CommunityID, flag.BusinessName)
		if err != nil {
			return fmt.Errorf("resolve flagged business %q: %w", flag.BusinessName, err)
		}
		if business != nil {
			matched = &matchedMention{
				id:              business.ID,
				hasRelationship: business.HasCommercialRelationship(),
			}
		}
	}
	if matched != nil && matched.hasRelationship {
		metrics.RecordOpportunity("suppressed")
		slog.Info("opportunity suppressed for existing commercial relationship",
			slog.Int64("raw_content_id", item.ID),
			slog.String("business_name", flag.BusinessName))
		return nil
	}

	open, err := r.opportunityRepo.FindOpenByBusinessName(ctx, item.CommunityID, flag.BusinessName)
	if err != nil {
		return fmt.Errorf("find open opportunity for %q: %w", flag.BusinessName, err)
	}
	if open != nil {
		activity := entity.OpportunityActivity{
			At:           r.now(),
			Kind:         "additional_coverage",
			Note:         fmt.Sprintf("additional coverage: %s", item.Title),
			RawContentID: item.ID,
		}
		if err := r.opportunityRepo.AppendActivity(ctx, open.ID, activity); err != nil {
			return fmt.Errorf("append opportunity activity: %w", err)
		}
		metrics.RecordOpportunity("deduplicated")
		return nil
	}

	quality := flag.OpportunityQuality
	if quality == "" {
		quality = entity.QualityForOpportunityType(flag.OpportunityType)
	}

	note := fmt.Sprintf("created from coverage: %s", item.Title)
	if flag.RecommendedAction != "" {
		note += fmt.Sprintf(" (recommended: %s)", flag.RecommendedAction)
	}

	opp := &entity.SalesOpportunity{
		CommunityID:     item.CommunityID,
		BusinessName:    flag.BusinessName,
		OpportunityType: flag.OpportunityType,
		Quality:         quality,
		Status:          entity.OpportunityStatusNew,
		PriorityScore:   entity.PriorityScoreForQuality(quality),
		Trigger:         fmt.Sprintf("coverage: %s", item.Title),
		SourceContentID: item.ID,
		Activities: []entity.OpportunityActivity{{
			At:           r.now(),
			Kind:         "created",
			Note:         note,
			RawContentID: item.ID,
		}},
		CreatedAt: r.now(),
		UpdatedAt: r.now(),
	}
	if matched != nil {
		opp.BusinessID = &matched.id
	}

	if err := r.opportunityRepo.Create(ctx, opp); err != nil {
		return fmt.Errorf("create opportunity for %q: %w", flag.BusinessName, err)
	}

	metrics.RecordOpportunity("created")
	slog.Info("sales opportunity created",
		slog.Int64("raw_content_id", item.ID),
		slog.String("business_name", flag.BusinessName),
		slog.String("quality", quality),
		slog.Int("priority_score", opp.PriorityScore))
	return nil
}

// matchedMention is the matcher's view of the flagged business, pulled back
// out of the annotated businesses_mentioned list.
type matchedMention struct {
	id              int64
	hasRelationship bool
}

func matchedBusiness(c *entity.Classification, name string) *matchedMention {
	for _, mb := range c.BusinessesMentioned {
		if mb.Name == name && mb.BusinessID != nil {
			return &matchedMention{
				id:              *mb.BusinessID,
				hasRelationship: mb.IsAdvertiser || mb.IsCustomer,
			}
		}
	}
	return nil
}
