package entity_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localwire/internal/domain/entity"
)

// validResponse returns a minimal response body satisfying the full schema.
func validResponse(t *testing.T, overrides map[string]any) []byte {
	t.Helper()

	base := map[string]any{
		"content_types":           []string{"news"},
		"primary_type":            "news",
		"categories":              []string{"government"},
		"tags":                    []string{"budget"},
		"local_relevance_score":   90,
		"local_relevance_reason":  "city council action",
		"news_value_score":        75,
		"news_value_reason":       "affects all residents",
		"businesses_mentioned":    []map[string]any{},
		"people_mentioned":        []string{"Mayor Smith"},
		"locations_mentioned":     []string{"City Hall"},
		"organizations_mentioned": []string{"City Council"},
		"dates_mentioned":         []string{"2026-09-01"},
		"event_data":              map[string]any{"is_event": false},
		"processing_recommendation": map[string]any{
			"tier":               "standard",
			"priority":           "normal",
			"suggested_headline": "Council Approves Budget",
			"angle":              "local impact",
		},
		"sales_flag": map[string]any{
			"has_business_opportunity": false,
		},
	}
	for k, v := range overrides {
		base[k] = v
	}
	raw, err := json.Marshal(base)
	require.NoError(t, err)
	return raw
}

func TestParseClassification_Valid(t *testing.T) {
	c, err := entity.ParseClassification(validResponse(t, nil))
	require.NoError(t, err)
	assert.Equal(t, "news", c.PrimaryType)
	assert.Equal(t, 90, c.LocalRelevanceScore)
	assert.Equal(t, "standard", c.ProcessingRec.Tier)
	assert.False(t, c.SalesFlag.HasBusinessOpportunity)
}

func TestParseClassification_NotJSON(t *testing.T) {
	_, err := entity.ParseClassification([]byte("I'm sorry, I cannot classify this."))
	assert.True(t, errors.Is(err, entity.ErrInvalidClassification))
}

func TestParseClassification_MissingRequiredKey(t *testing.T) {
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(validResponse(t, nil), &body))
	delete(body, "sales_flag")
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	_, err = entity.ParseClassification(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrInvalidClassification))
	assert.Contains(t, err.Error(), "sales_flag")
}

func TestParseClassification_ScoreOutOfRange(t *testing.T) {
	_, err := entity.ParseClassification(validResponse(t, map[string]any{
		"news_value_score": 150,
	}))
	assert.True(t, errors.Is(err, entity.ErrInvalidClassification))
}

func TestParseClassification_InvalidTier(t *testing.T) {
	_, err := entity.ParseClassification(validResponse(t, map[string]any{
		"processing_recommendation": map[string]any{
			"tier":     "exhaustive",
			"priority": "normal",
		},
	}))
	assert.True(t, errors.Is(err, entity.ErrInvalidClassification))
}

func TestParseClassification_InvalidPriority(t *testing.T) {
	_, err := entity.ParseClassification(validResponse(t, map[string]any{
		"processing_recommendation": map[string]any{
			"tier":     "brief",
			"priority": "urgent",
		},
	}))
	assert.True(t, errors.Is(err, entity.ErrInvalidClassification))
}
