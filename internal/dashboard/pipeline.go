package dashboard

import (
	"github.com/rickgao/pricedash/internal/feed"
	"github.com/rickgao/pricedash/internal/model"
)

// Pipeline is one feed's adapter and store.
type Pipeline struct {
	Normalizer *feed.Normalizer
	Store      *model.Store
}

// NewPipeline creates a pipeline with a fresh store for names.
func NewPipeline(adapter feed.Adapter, names []string, opts ...model.Option) *Pipeline {
	return &Pipeline{
		Normalizer: feed.NewNormalizer(adapter),
		Store:      model.NewStore(adapter.Feed(), names, opts...),
	}
}

// Feed returns the pipeline's feed identifier.
func (p *Pipeline) Feed() string {
	return p.Normalizer.Feed()
}
