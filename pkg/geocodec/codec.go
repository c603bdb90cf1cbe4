// Package geocodec reads and writes the compact GeoJSON payload used by
// GeoJSON layers: base64(deflate(utf8(json))).
package geocodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/paulmach/orb/geojson"
)

var errEmptyPayload = errors.New("empty payload")

// DecodeJSON reverses the layer encoding: base64 decode, inflate, utf-8
// check and finally JSON parse. The document is returned byte for byte; any
// well formed JSON is accepted, GeoJSON or not.
func DecodeJSON(b64Data string) (json.RawMessage, error) {
	text, err := DecodeText(b64Data)
	if err != nil {
		return nil, err
	}

	var document any
	if err := json.Unmarshal(text, &document); err != nil {
		return nil, decodeErr(StageJSON, err)
	}

	return json.RawMessage(text), nil
}

// DecodeGeoJSON decodes a payload into orb's model for export. Unlike
// DecodeJSON it requires a GeoJSON document; a bare Feature or Geometry is
// wrapped into a collection.
func DecodeGeoJSON(b64Data string) (*geojson.FeatureCollection, error) {
	text, err := DecodeText(b64Data)
	if err != nil {
		return nil, err
	}

	return ParseGeoJSON(text)
}

// DecodeText returns the inflated utf-8 document without parsing it
func DecodeText(b64Data string) ([]byte, error) {
	compressed, err := decodeBase64(b64Data)
	if err != nil {
		return nil, decodeErr(StageBase64, err)
	}
	if len(compressed) == 0 {
		return nil, decodeErr(StageBase64, errEmptyPayload)
	}

	text, err := Inflate(compressed)
	if err != nil {
		return nil, decodeErr(StageInflate, err)
	}

	if !utf8.Valid(text) {
		return nil, decodeErr(StageUTF8, errors.New("payload is not valid utf-8"))
	}

	return text, nil
}

// ParseGeoJSON parses a GeoJSON document of any type into a FeatureCollection.
// orb keeps two dimensions only and drops foreign members, so the result
// feeds export and validation, never an engine.
func ParseGeoJSON(text []byte) (*geojson.FeatureCollection, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(text, &head); err != nil {
		return nil, decodeErr(StageJSON, err)
	}

	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(text)
		if err != nil {
			return nil, decodeErr(StageJSON, err)
		}
		return fc, nil
	case "Feature":
		feature, err := geojson.UnmarshalFeature(text)
		if err != nil {
			return nil, decodeErr(StageJSON, err)
		}
		fc := geojson.NewFeatureCollection()
		return fc.Append(feature), nil
	case "":
		return nil, decodeErr(StageJSON, errors.New("missing GeoJSON type"))
	default:
		geometry, err := geojson.UnmarshalGeometry(text)
		if err != nil {
			return nil, decodeErr(StageJSON, err)
		}
		fc := geojson.NewFeatureCollection()
		return fc.Append(geojson.NewFeature(geometry.Geometry())), nil
	}
}

// EncodeGeoJSON produces the layer payload for a collection using zlib,
// the format written by the notebook side.
func EncodeGeoJSON(fc *geojson.FeatureCollection) (string, error) {
	text, err := fc.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("failed to marshal feature collection: %s", err)
	}

	return EncodeText(text)
}

func EncodeText(text []byte) (string, error) {
	buf := &bytes.Buffer{}
	writer := zlib.NewWriter(buf)
	if _, err := writer.Write(text); err != nil {
		return "", fmt.Errorf("failed to compress payload: %s", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to compress payload: %s", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Inflate decompresses gzip, zlib or raw deflate data, picked by header
func Inflate(compressed []byte) ([]byte, error) {
	var (
		reader io.ReadCloser
		err    error
	)
	switch {
	case isGzip(compressed):
		reader, err = gzip.NewReader(bytes.NewReader(compressed))
	case isZlib(compressed):
		reader, err = zlib.NewReader(bytes.NewReader(compressed))
	default:
		reader = flate.NewReader(bytes.NewReader(compressed))
	}
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}

// zlib header: CM=8 (deflate), CINFO<=7 and CMF*256+FLG a multiple of 31
func isZlib(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	cmf, flg := data[0], data[1]
	return cmf&0x0f == 8 && cmf>>4 <= 7 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// decodeBase64 accepts padded and unpadded standard or url-safe alphabets,
// ignoring line breaks as atob does.
func decodeBase64(data string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\t', ' ':
			return -1
		}
		return r
	}, data)

	if strings.ContainsAny(cleaned, "-_") {
		return base64.RawURLEncoding.DecodeString(strings.TrimRight(cleaned, "="))
	}

	return base64.RawStdEncoding.DecodeString(strings.TrimRight(cleaned, "="))
}
