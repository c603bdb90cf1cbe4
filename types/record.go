package types

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/geojson"
)

// FeatureRecord is one decoded GeoJSON feature flattened for export
type FeatureRecord struct {
	Layer        string `json:"layer" parquet:"layer"`
	FeatureID    string `json:"feature_id,omitempty" parquet:"feature_id,optional"`
	Geometry     []byte `json:"geometry" parquet:"geometry"`
	GeometryType string `json:"geometry_type" parquet:"geometry_type"`
	Properties   string `json:"properties" parquet:"properties"`
}

func NewFeatureRecord(layer string, feature *geojson.Feature) (FeatureRecord, error) {
	record := FeatureRecord{Layer: layer}
	if feature.ID != nil {
		record.FeatureID = fmt.Sprint(feature.ID)
	}

	if feature.Geometry != nil {
		geometry, err := wkb.Marshal(feature.Geometry)
		if err != nil {
			return record, fmt.Errorf("failed to encode geometry as wkb: %s", err)
		}
		record.Geometry = geometry
		record.GeometryType = feature.Geometry.GeoJSONType()
	}

	properties, err := json.Marshal(feature.Properties)
	if err != nil {
		return record, fmt.Errorf("failed to marshal feature properties: %s", err)
	}
	record.Properties = string(properties)

	return record, nil
}
