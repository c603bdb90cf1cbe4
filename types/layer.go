package types

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/hashstructure"

	"github.com/datazip-inc/mapsource/pkg/geocodec"
	"github.com/datazip-inc/mapsource/utils"
)

type SourceType string

const (
	GeoJSON SourceType = "GeoJSON"
	Query   SourceType = "Query"
	MVT     SourceType = "MVT"
	BQMVT   SourceType = "BQMVT"
)

// SourceTypes lists every layer type a factory knows how to build
var SourceTypes = []SourceType{GeoJSON, Query, MVT, BQMVT}

func (s SourceType) Supported() bool {
	return utils.ExistInArray(SourceTypes, s)
}

// Layer describes one map data source as produced by the notebook side.
// Data varies by Type:
//   - GeoJSON: base64 text of the compressed GeoJSON document
//   - Query: raw SQL text
//   - MVT: MVTData
//   - BQMVT: BQMVTData
type Layer struct {
	Type        SourceType      `json:"type" validate:"required"`
	Data        json.RawMessage `json:"data" validate:"required"`
	Options     map[string]any  `json:"options,omitempty"`
	Credentials *Credentials    `json:"credentials,omitempty"`
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty" validate:"omitempty,url"`
}

type MVTData struct {
	// URL or {z}/{x}/{y} template of the tile service
	File string `json:"file" validate:"required"`
	// TileJSON style metadata, JSON encoded
	Metadata string `json:"metadata" validate:"required,json"`
}

type BQMVTData struct {
	Data     BQConnection `json:"data"`
	Metadata any          `json:"metadata,omitempty" validate:"required"`
}

// TileMetadata is the metadata document of MVT and BQMVT layers: the
// feature id column and the type of every other column in the tiles.
type TileMetadata struct {
	IDProperty string                  `json:"idProperty" validate:"required"`
	Properties map[string]PropertyMeta `json:"properties,omitempty" validate:"omitempty,dive"`
}

type PropertyMeta struct {
	// number, category, date...
	Type string `json:"type" validate:"required"`
}

type BQConnection struct {
	ProjectID string `json:"project_id" validate:"required"`
	DatasetID string `json:"dataset_id" validate:"required"`
	TableID   string `json:"table_id" validate:"required"`
	Token     string `json:"token" validate:"required"`
}

// Text returns Data for layers whose payload is a plain JSON string
func (l *Layer) Text() (string, error) {
	var text string
	if err := json.Unmarshal(l.Data, &text); err != nil {
		return "", fmt.Errorf("%s layer data is not a string: %s", l.Type, err)
	}

	return text, nil
}

func (l *Layer) MVT() (*MVTData, error) {
	data := &MVTData{}
	if err := json.Unmarshal(l.Data, data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal MVT layer data: %s", err)
	}

	return data, nil
}

func (l *Layer) BQMVT() (*BQMVTData, error) {
	data := &BQMVTData{}
	if err := json.Unmarshal(l.Data, data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal BQMVT layer data: %s", err)
	}

	return data, nil
}

// Fingerprint returns a stable hash of the descriptor; equal layers share it
func (l *Layer) Fingerprint() (string, error) {
	hash, err := hashstructure.Hash(l, nil)
	if err != nil {
		return "", fmt.Errorf("failed to hash layer: %s", err)
	}

	return fmt.Sprintf("%x", hash), nil
}

// Validate checks the descriptor and its type specific data. It is stricter
// than building a source: GeoJSON payloads must decode to a GeoJSON object
// and tile metadata must name its id property.
func (l *Layer) Validate() error {
	err := utils.Validate(l)
	if l.Type != "" && !l.Type.Supported() {
		err = multierror.Append(err, fmt.Errorf("type must be one of %v", SourceTypes))
	}
	if err != nil {
		return err
	}

	switch l.Type {
	case GeoJSON:
		text, err := l.Text()
		if err != nil {
			return err
		}
		_, err = geocodec.DecodeGeoJSON(text)
		return err
	case Query:
		if _, err := l.Text(); err != nil {
			return err
		}
		if l.Credentials == nil {
			return fmt.Errorf("Query layer requires credentials")
		}
		return utils.Validate(l.Credentials)
	case MVT:
		data, err := l.MVT()
		if err != nil {
			return err
		}
		if err := utils.Validate(data); err != nil {
			return err
		}
		metadata := TileMetadata{}
		if err := json.Unmarshal([]byte(data.Metadata), &metadata); err != nil {
			return fmt.Errorf("failed to parse MVT metadata: %s", err)
		}
		return utils.Validate(metadata)
	case BQMVT:
		data, err := l.BQMVT()
		if err != nil {
			return err
		}
		if err := utils.Validate(data); err != nil {
			return err
		}
		metadata := TileMetadata{}
		if err := utils.Unmarshal(data.Metadata, &metadata); err != nil {
			return fmt.Errorf("failed to parse BQMVT metadata: %s", err)
		}
		return utils.Validate(metadata)
	}

	return nil
}

// LayerFile is the on-disk form of a map's layers. Both {"layers": [...]}
// and a bare array are accepted.
type LayerFile struct {
	Layers []*Layer `json:"layers"`
}

func (f *LayerFile) UnmarshalJSON(data []byte) error {
	var layers []*Layer
	if err := json.Unmarshal(data, &layers); err == nil {
		f.Layers = layers
		return nil
	}

	type Alias LayerFile
	var temp Alias
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}

	*f = LayerFile(temp)
	return nil
}
