// Package carto is the default Engine. Its sources are plain values that
// serialise to the constructor arguments a browser map expects, so they can
// be shipped to a page and replayed against the rendering library there.
package carto

import (
	"github.com/goccy/go-json"
	"github.com/paulmach/orb/maptile"

	"github.com/datazip-inc/mapsource/constants"
	"github.com/datazip-inc/mapsource/protocol"
	"github.com/datazip-inc/mapsource/utils"
)

const (
	GeoJSONKind = "GeoJSON"
	SQLKind     = "SQL"
	MVTKind     = "MVT"
	BQMVTKind   = "BQMVT"
)

type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Header is embedded by every source and carries its identity
type Header struct {
	SourceID   string `json:"id"`
	SourceKind string `json:"type"`
}

func newHeader(kind string) Header {
	return Header{SourceID: utils.ULID(), SourceKind: kind}
}

func (h Header) ID() string {
	return h.SourceID
}

func (h Header) Kind() string {
	return h.SourceKind
}

type GeoJSONSource struct {
	Header
	Data    json.RawMessage `json:"data"`
	Options map[string]any  `json:"options"`
}

type SQLSource struct {
	Header
	Query  string             `json:"query"`
	Auth   protocol.Auth      `json:"auth"`
	Config protocol.SQLConfig `json:"config"`
}

type MVTSource struct {
	Header
	File     string `json:"file"`
	Metadata any    `json:"metadata"`
}

type BQMVTSource struct {
	Header
	Connection protocol.BQConnection `json:"connection"`
	Metadata   any                   `json:"metadata"`
	// deepest zoom the mapper returns, for clients that cannot run it
	MaxSourceZoom maptile.Zoom `json:"maxSourceZoom"`

	zoomMapper protocol.ZoomMapper
}

// SourceZoom maps a viewport zoom to the zoom of the tiles to request
func (s *BQMVTSource) SourceZoom(viewport maptile.Zoom) maptile.Zoom {
	if s.zoomMapper == nil {
		return viewport
	}

	return s.zoomMapper.SourceZoom(viewport)
}

func (e *Engine) NewGeoJSON(data json.RawMessage, options map[string]any) (protocol.Source, error) {
	return &GeoJSONSource{
		Header:  newHeader(GeoJSONKind),
		Data:    data,
		Options: options,
	}, nil
}

func (e *Engine) NewSQL(query string, auth protocol.Auth, config protocol.SQLConfig) (protocol.Source, error) {
	return &SQLSource{
		Header: newHeader(SQLKind),
		Query:  query,
		Auth:   auth,
		Config: config,
	}, nil
}

func (e *Engine) NewMVT(file string, metadata any) (protocol.Source, error) {
	return &MVTSource{
		Header:   newHeader(MVTKind),
		File:     file,
		Metadata: metadata,
	}, nil
}

func (e *Engine) NewBQMVT(connection protocol.BQConnection, metadata any, options protocol.BQMVTOptions) (protocol.Source, error) {
	source := &BQMVTSource{
		Header:     newHeader(BQMVTKind),
		Connection: connection,
		Metadata:   metadata,
		zoomMapper: options.ViewportZoomToSourceZoom,
	}
	source.MaxSourceZoom = source.SourceZoom(maptile.Zoom(constants.MaxTileZoom))

	return source, nil
}

var _ protocol.Engine = (*Engine)(nil)
