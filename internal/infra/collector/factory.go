package collector

import (
	"fmt"
	"net/http"
	"time"

	"localwire/internal/domain/entity"
	"localwire/internal/usecase/collect"
)

// Factory selects the collection adapter for a source by its type and
// rendering requirements. Adapters are shared across sources so circuit
// breakers accumulate state per strategy, not per source.
type Factory struct {
	feed     *FeedCollector
	static   *StaticCollector
	rendered *RenderedCollector
}

// NewFactory creates a Factory. renderScript may be empty to use the
// default renderer binary from PATH.
func NewFactory(client *http.Client, renderScript string, renderTimeout time.Duration) *Factory {
	if client == nil {
		client = http.DefaultClient
	}
	return &Factory{
		feed:     NewFeedCollector(client),
		static:   NewStaticCollector(client),
		rendered: NewRenderedCollector(renderScript, renderTimeout),
	}
}

// EnableContentEnhancement turns on full-article fetching for feed items
// whose body is shorter than threshold characters.
func (f *Factory) EnableContentEnhancement(enhancer ContentEnhancer, threshold int) {
	f.feed.enhancer = enhancer
	f.feed.enhanceThreshold = threshold
}

// CollectorFor implements collect.CollectorFactory.
func (f *Factory) CollectorFor(src *entity.Source) (collect.Collector, error) {
	switch src.SourceType {
	case entity.SourceTypeFeed:
		return f.feed, nil
	case entity.SourceTypeScrape:
		if src.ScrapeConfig != nil && src.ScrapeConfig.RequiresDynamicRendering {
			return f.rendered, nil
		}
		return f.static, nil
	default:
		return nil, fmt.Errorf("no collector for source type %q", src.SourceType)
	}
}
