package sources

import (
	"github.com/datazip-inc/mapsource/pkg/geocodec"
	"github.com/datazip-inc/mapsource/protocol"
	"github.com/datazip-inc/mapsource/types"
	"github.com/datazip-inc/mapsource/utils"
)

func buildGeoJSON(engine protocol.Engine, layer *types.Layer) (protocol.Source, error) {
	// engines may mutate options; hand them a copy
	options := make(map[string]any)
	if layer.Options != nil {
		if err := utils.Unmarshal(layer.Options, &options); err != nil {
			return nil, err
		}
	}

	payload, err := layer.Text()
	if err != nil {
		return nil, &DecodeError{Stage: geocodec.StageData, Err: err}
	}

	data, err := geocodec.DecodeJSON(payload)
	if err != nil {
		return nil, err
	}

	return engine.NewGeoJSON(data, options)
}
