package protocol

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb/maptile"

	"github.com/datazip-inc/mapsource/types"
)

type Config interface {
	Validate() error
}

// Source is a handle produced by an Engine; callers own it once returned
type Source interface {
	ID() string
	// Kind is the engine side source name i.e. GeoJSON, SQL, MVT or BQMVT
	Kind() string
}

// Engine is the source construction surface of a map rendering engine.
// Constructors must not retain the arguments' backing maps.
type Engine interface {
	// NewGeoJSON receives the decoded document exactly as it was encoded
	NewGeoJSON(data json.RawMessage, options map[string]any) (Source, error)
	NewSQL(query string, auth Auth, config SQLConfig) (Source, error)
	NewMVT(file string, metadata any) (Source, error)
	NewBQMVT(connection BQConnection, metadata any, options BQMVTOptions) (Source, error)
}

// Adapter turns layer descriptors into engine sources
type Adapter interface {
	CreateSource(layer *types.Layer) (Source, error)
	CreateSources(ctx context.Context, layers []*types.Layer) ([]Source, error)
}

type Auth struct {
	Username string `json:"username"`
	APIKey   string `json:"apiKey"`
}

type SQLConfig struct {
	ServerURL string `json:"serverURL"`
}

type BQConnection struct {
	ProjectID string `json:"projectId"`
	DatasetID string `json:"datasetId"`
	TableID   string `json:"tableId"`
	Token     string `json:"token"`
}

// ZoomMapper picks the zoom level of the backing tiles fetched for a
// viewport zoom. Engines call it at tile fetch time.
type ZoomMapper interface {
	SourceZoom(viewport maptile.Zoom) maptile.Zoom
}

type ZoomMapperFunc func(viewport maptile.Zoom) maptile.Zoom

func (f ZoomMapperFunc) SourceZoom(viewport maptile.Zoom) maptile.Zoom {
	return f(viewport)
}

type BQMVTOptions struct {
	ViewportZoomToSourceZoom ZoomMapper
}

// Writer materialises decoded layer features to a destination
type Writer interface {
	GetConfigRef() Config
	// Check validates the destination is reachable and writable
	Check() error
	Type() string
	Setup(layer string) error
	Write(ctx context.Context, record types.FeatureRecord) error
	Close() error
}
