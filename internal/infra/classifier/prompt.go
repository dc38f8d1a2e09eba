package classifier

import (
	"fmt"
	"strings"

	"localwire/internal/domain/entity"
)

// responseSchema is the JSON contract the model must return. Every key is
// required; the pipeline rejects responses missing any of them.
const responseSchema = `{
  "content_types": ["news"],
  "primary_type": "news",
  "categories": ["government"],
  "tags": ["budget"],
  "local_relevance_score": 0-100,
  "local_relevance_reason": "one sentence",
  "news_value_score": 0-100,
  "news_value_reason": "one sentence",
  "businesses_mentioned": [{"name": "", "role": "host|subject|mentioned", "is_local": true, "context": ""}],
  "people_mentioned": [""],
  "locations_mentioned": [""],
  "organizations_mentioned": [""],
  "dates_mentioned": [""],
  "event_data": {"is_event": false, "event_name": "", "start_date": "", "end_date": "", "venue": ""},
  "processing_recommendation": {"tier": "brief|standard|full", "priority": "breaking|high|normal|low", "suggested_headline": "", "angle": ""},
  "sales_flag": {"has_business_opportunity": false, "business_name": "", "opportunity_type": "", "opportunity_quality": "", "recommended_action": ""}
}`

// BuildPrompt constructs the classification prompt for one item. The body
// is truncated to the configured character limit; source context is
// included when available so the model can weigh the origin.
func BuildPrompt(item *entity.RawContent, src *entity.Source, cfg Config) string {
	body := item.Body
	if len(body) > cfg.BodyCharLimit {
		body = body[:cfg.BodyCharLimit] + "\n(content truncated)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You classify local content for %s.\n\n", cfg.Locale)

	if src != nil {
		fmt.Fprintf(&b, "Source: %s (%s)\n", src.Name, src.SourceType)
	}
	fmt.Fprintf(&b, "Title: %s\n", item.Title)
	if item.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", item.URL)
	}
	if !item.PublishedAt.IsZero() {
		fmt.Fprintf(&b, "Published: %s\n", item.PublishedAt.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "\nContent:\n%s\n\n", body)

	b.WriteString("Respond with exactly one JSON object matching this schema, with every key present:\n")
	b.WriteString(responseSchema)
	b.WriteString("\nReturn only the JSON object, no prose and no code fences.")

	return b.String()
}

// extractJSON trims prose and markdown fences around the model's JSON
// object. Models occasionally wrap the payload despite instructions.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)

	if after, ok := strings.CutPrefix(response, "```json"); ok {
		response = after
	} else if after, ok := strings.CutPrefix(response, "```"); ok {
		response = after
	}
	response = strings.TrimSuffix(strings.TrimSpace(response), "```")
	response = strings.TrimSpace(response)

	// Fall back to the outermost braces when prose surrounds the object.
	if !strings.HasPrefix(response, "{") {
		start := strings.Index(response, "{")
		end := strings.LastIndex(response, "}")
		if start >= 0 && end > start {
			response = response[start : end+1]
		}
	}

	return response
}
