package sources

import (
	"github.com/goccy/go-json"

	"github.com/datazip-inc/mapsource/pkg/geocodec"
	"github.com/datazip-inc/mapsource/protocol"
	"github.com/datazip-inc/mapsource/types"
)

func buildMVT(engine protocol.Engine, layer *types.Layer) (protocol.Source, error) {
	data, err := layer.MVT()
	if err != nil {
		return nil, &DecodeError{Stage: geocodec.StageData, Err: err}
	}

	var metadata any
	if err := json.Unmarshal([]byte(data.Metadata), &metadata); err != nil {
		return nil, &DecodeError{Stage: geocodec.StageMetadata, Err: err}
	}

	return engine.NewMVT(data.File, metadata)
}
