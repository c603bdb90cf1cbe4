package sources

import (
	"github.com/paulmach/orb/maptile"

	"github.com/datazip-inc/mapsource/constants"
	"github.com/datazip-inc/mapsource/pkg/geocodec"
	"github.com/datazip-inc/mapsource/protocol"
	"github.com/datazip-inc/mapsource/types"
)

func buildBQMVT(engine protocol.Engine, layer *types.Layer) (protocol.Source, error) {
	data, err := layer.BQMVT()
	if err != nil {
		return nil, &DecodeError{Stage: geocodec.StageData, Err: err}
	}

	connection := protocol.BQConnection{
		ProjectID: data.Data.ProjectID,
		DatasetID: data.Data.DatasetID,
		TableID:   data.Data.TableID,
		Token:     data.Data.Token,
	}

	return engine.NewBQMVT(connection, data.Metadata, protocol.BQMVTOptions{
		ViewportZoomToSourceZoom: protocol.ZoomMapperFunc(ClampZoom),
	})
}

// ClampZoom serves every viewport zoom above 13 from zoom 14 tiles, the
// deepest level the BigQuery tilesets are generated for.
func ClampZoom(zoom maptile.Zoom) maptile.Zoom {
	if zoom > constants.ZoomClampThreshold {
		return constants.MaxSourceZoom
	}

	return zoom
}
