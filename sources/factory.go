package sources

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/datazip-inc/mapsource/constants"
	"github.com/datazip-inc/mapsource/logger"
	"github.com/datazip-inc/mapsource/protocol"
	"github.com/datazip-inc/mapsource/types"
)

type builder func(engine protocol.Engine, layer *types.Layer) (protocol.Source, error)

// Factory builds engine sources from layer descriptors. It keeps no state
// between calls, so a single Factory may be shared by goroutines.
type Factory struct {
	engine      protocol.Engine
	builders    map[types.SourceType]builder
	concurrency int
}

type Option func(f *Factory)

// WithConcurrency bounds the number of layers CreateSources builds at once
func WithConcurrency(limit int) Option {
	return func(f *Factory) {
		if limit > 0 {
			f.concurrency = limit
		}
	}
}

func NewFactory(engine protocol.Engine, opts ...Option) *Factory {
	f := &Factory{
		engine: engine,
		builders: map[types.SourceType]builder{
			types.GeoJSON: buildGeoJSON,
			types.Query:   buildQuery,
			types.MVT:     buildMVT,
			types.BQMVT:   buildBQMVT,
		},
		concurrency: constants.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateSource invokes exactly one builder, picked by layer.Type
func (f *Factory) CreateSource(layer *types.Layer) (protocol.Source, error) {
	if layer == nil {
		return nil, ErrNilLayer
	}

	build, found := f.builders[layer.Type]
	if !found {
		return nil, &UnsupportedTypeError{Type: layer.Type}
	}

	source, err := build(f.engine, layer)
	if err != nil {
		return nil, err
	}

	logger.Debugf("created %s source[%s] from %s layer", source.Kind(), source.ID(), layer.Type)
	return source, nil
}

// CreateSources builds all layers concurrently and returns sources in
// layer order. The first failure stops the remaining builds.
func (f *Factory) CreateSources(ctx context.Context, layers []*types.Layer) ([]protocol.Source, error) {
	sources := make([]protocol.Source, len(layers))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(f.concurrency)

	for idx, layer := range layers {
		idx, layer := idx, layer
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			source, err := f.CreateSource(layer)
			if err != nil {
				return fmt.Errorf("layer[%d]: %w", idx, err)
			}
			sources[idx] = source
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return sources, nil
}

var _ protocol.Adapter = (*Factory)(nil)
