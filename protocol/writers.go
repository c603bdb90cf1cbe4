package protocol

import (
	"context"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/datazip-inc/mapsource/logger"
	"github.com/datazip-inc/mapsource/pkg/geocodec"
	"github.com/datazip-inc/mapsource/types"
	"github.com/datazip-inc/mapsource/utils"
)

type NewFunc func() Writer

var RegisteredWriters = map[types.AdapterType]NewFunc{}

// NewWriter creates, configures and checks the writer named by config
func NewWriter(config *types.WriterConfig) (Writer, error) {
	newfunc, found := RegisteredWriters[config.Type]
	if !found {
		return nil, fmt.Errorf("invalid destination type has been passed [%s]", config.Type)
	}

	writer := newfunc()
	if err := utils.Unmarshal(config.WriterConfig, writer.GetConfigRef()); err != nil {
		return nil, err
	}

	if err := writer.GetConfigRef().Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s writer config: %s", writer.Type(), err)
	}

	if err := writer.Check(); err != nil {
		return nil, fmt.Errorf("failed to test destination: %s", err)
	}

	return writer, nil
}

// LayerName names exported layers by position, or by the "name" option
// when it is usable as a file name.
func LayerName(idx int, layer *types.Layer) string {
	fallback := fmt.Sprintf("layer_%d", idx)
	name, ok := layer.Options["name"].(string)
	if !ok || name == "" {
		return fallback
	}
	if !utils.IsFileName(name) {
		logger.Warnf("layer[%d] name %q is not a valid file name, exporting it as %s", idx, name, fallback)
		return fallback
	}

	return name
}

// ExportLayers decodes every GeoJSON layer and writes its features;
// other layer types hold no local data and are skipped.
func ExportLayers(ctx context.Context, writer Writer, layers []*types.Layer) (*types.ExportReport, error) {
	report := &types.ExportReport{}
	for idx, layer := range layers {
		if layer.Type != types.GeoJSON {
			logger.Debugf("skipping %s layer[%d], nothing to export", layer.Type, idx)
			continue
		}

		payload, err := layer.Text()
		if err != nil {
			return report, fmt.Errorf("layer[%d]: %w", idx, err)
		}
		fc, err := geocodec.DecodeGeoJSON(payload)
		if err != nil {
			return report, fmt.Errorf("layer[%d]: %w", idx, err)
		}

		written, err := writeCollection(ctx, writer, LayerName(idx, layer), fc)
		report.Features += written
		if err != nil {
			return report, fmt.Errorf("layer[%d]: %w", idx, err)
		}
		report.Layers++
	}

	return report, nil
}

func writeCollection(ctx context.Context, writer Writer, name string, fc *geojson.FeatureCollection) (int64, error) {
	if err := writer.Setup(name); err != nil {
		return 0, fmt.Errorf("failed to setup writer: %s", err)
	}

	var written int64
	for _, feature := range fc.Features {
		if err := ctx.Err(); err != nil {
			return written, err
		}

		record, err := types.NewFeatureRecord(name, feature)
		if err != nil {
			return written, err
		}
		if err := writer.Write(ctx, record); err != nil {
			return written, err
		}
		written++
	}

	logger.Infof("wrote %d features of layer[%s]", written, name)
	return written, nil
}
