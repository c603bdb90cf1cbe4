package geocodec

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	point := geojson.NewFeature(orb.Point{-3.7038, 40.4168})
	point.Properties["name"] = "Madrid"
	point.Properties["population"] = 3223334.0
	fc.Append(point)

	line := geojson.NewFeature(orb.LineString{{0, 0}, {1, 1}, {2, 0}})
	line.Properties["kind"] = "road"
	fc.Append(line)

	return fc
}

func TestRoundTrip(t *testing.T) {
	fc := sampleCollection()

	payload, err := EncodeGeoJSON(fc)
	require.NoError(t, err)

	decoded, err := DecodeGeoJSON(payload)
	require.NoError(t, err)

	require.Len(t, decoded.Features, 2)
	assert.Equal(t, orb.Point{-3.7038, 40.4168}, decoded.Features[0].Geometry)
	assert.Equal(t, "Madrid", decoded.Features[0].Properties["name"])
	assert.Equal(t, 3223334.0, decoded.Features[0].Properties["population"])
	assert.Equal(t, orb.LineString{{0, 0}, {1, 1}, {2, 0}}, decoded.Features[1].Geometry)
	assert.Equal(t, "road", decoded.Features[1].Properties["kind"])
}

func TestInflateFormats(t *testing.T) {
	text := []byte(`{"type":"FeatureCollection","features":[]}`)

	gzipped := &bytes.Buffer{}
	gw := gzip.NewWriter(gzipped)
	_, err := gw.Write(text)
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	raw := &bytes.Buffer{}
	fw, err := flate.NewWriter(raw, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = fw.Write(text)
	require.NoError(t, err)
	require.NoError(t, fw.Close())

	zlibbed, err := EncodeText(text)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		payload string
	}{
		{name: "zlib", payload: zlibbed},
		{name: "gzip", payload: base64.StdEncoding.EncodeToString(gzipped.Bytes())},
		{name: "raw deflate", payload: base64.StdEncoding.EncodeToString(raw.Bytes())},
		{name: "unpadded", payload: base64.RawStdEncoding.EncodeToString(gzipped.Bytes())},
		{name: "url safe", payload: base64.RawURLEncoding.EncodeToString(gzipped.Bytes())},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := DecodeText(tc.payload)
			require.NoError(t, err)
			assert.Equal(t, text, decoded)
		})
	}
}

func TestParseGeoJSONWrapsSingleObjects(t *testing.T) {
	testCases := []struct {
		name     string
		document string
		expected orb.Geometry
	}{
		{
			name:     "feature",
			document: `{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"a":1}}`,
			expected: orb.Point{1, 2},
		},
		{
			name:     "geometry",
			document: `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`,
			expected: orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fc, err := ParseGeoJSON([]byte(tc.document))
			require.NoError(t, err)
			require.Len(t, fc.Features, 1)
			assert.Equal(t, tc.expected, fc.Features[0].Geometry)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	valid, err := EncodeText([]byte(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)
	compressed, err := base64.StdEncoding.DecodeString(valid)
	require.NoError(t, err)
	truncated := base64.StdEncoding.EncodeToString(compressed[:len(compressed)/2])

	notJSON, err := EncodeText([]byte(`{"type":`))
	require.NoError(t, err)
	badUTF8, err := EncodeText([]byte{0xff, 0xfe, 0xfd})
	require.NoError(t, err)

	testCases := []struct {
		name    string
		payload string
		stage   Stage
	}{
		{name: "malformed base64", payload: "not base64 at all!", stage: StageBase64},
		{name: "empty", payload: "", stage: StageBase64},
		{name: "truncated stream", payload: truncated, stage: StageInflate},
		{name: "invalid json", payload: notJSON, stage: StageJSON},
		{name: "invalid utf-8", payload: badUTF8, stage: StageUTF8},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			document, err := DecodeJSON(tc.payload)
			assert.Nil(t, document)

			var decodeErr *DecodeError
			require.True(t, errors.As(err, &decodeErr), "expected DecodeError, got %v", err)
			assert.Equal(t, tc.stage, decodeErr.Stage)
		})
	}
}

func TestDecodeJSONKeepsDocument(t *testing.T) {
	testCases := []struct {
		name     string
		document string
	}{
		{name: "3d point with foreign members", document: `{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2,300]},"properties":{},"custom":"x"}`},
		{name: "no type member", document: `{"features":[]}`},
		{name: "bare array", document: `[{"a":1}]`},
		{name: "scalar", document: `"hello"`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payload, err := EncodeText([]byte(tc.document))
			require.NoError(t, err)

			document, err := DecodeJSON(payload)
			require.NoError(t, err)
			assert.Equal(t, tc.document, string(document))
		})
	}
}

func TestParseGeoJSONRequiresType(t *testing.T) {
	fc, err := ParseGeoJSON([]byte(`{"features":[]}`))
	assert.Nil(t, fc)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, StageJSON, decodeErr.Stage)
}
