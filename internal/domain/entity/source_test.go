package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"localwire/internal/domain/entity"
)

func TestSource_Validate(t *testing.T) {
	tests := []struct {
		name    string
		source  entity.Source
		wantErr bool
	}{
		{
			name: "valid feed source",
			source: entity.Source{
				CommunityID: 1,
				SourceType:  entity.SourceTypeFeed,
				Endpoint:    "https://example.com/feed.xml",
			},
		},
		{
			name: "valid scrape source with config",
			source: entity.Source{
				CommunityID:  1,
				SourceType:   entity.SourceTypeScrape,
				Endpoint:     "https://example.com/news",
				ScrapeConfig: &entity.ScrapeConfig{ListSelector: ".news-item"},
			},
		},
		{
			name: "missing community",
			source: entity.Source{
				SourceType: entity.SourceTypeFeed,
				Endpoint:   "https://example.com/feed.xml",
			},
			wantErr: true,
		},
		{
			name: "missing endpoint",
			source: entity.Source{
				CommunityID: 1,
				SourceType:  entity.SourceTypeFeed,
			},
			wantErr: true,
		},
		{
			name: "scrape source without config",
			source: entity.Source{
				CommunityID: 1,
				SourceType:  entity.SourceTypeScrape,
				Endpoint:    "https://example.com/news",
			},
			wantErr: true,
		},
		{
			name: "unknown source type",
			source: entity.Source{
				CommunityID: 1,
				SourceType:  "carrier-pigeon",
				Endpoint:    "https://example.com",
			},
			wantErr: true,
		},
		{
			name: "health score out of range",
			source: entity.Source{
				CommunityID: 1,
				SourceType:  entity.SourceTypeFeed,
				Endpoint:    "https://example.com/feed.xml",
				HealthScore: 101,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.source.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSource_Validate_DefaultsToFeed(t *testing.T) {
	s := entity.Source{CommunityID: 1, Endpoint: "https://example.com/feed.xml"}
	require.NoError(t, s.Validate())
	assert.Equal(t, entity.SourceTypeFeed, s.SourceType)
}
