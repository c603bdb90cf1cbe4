package protocol_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datazip-inc/mapsource/carto"
	"github.com/datazip-inc/mapsource/pkg/geocodec"
	"github.com/datazip-inc/mapsource/protocol"
	"github.com/datazip-inc/mapsource/sources"
	"github.com/datazip-inc/mapsource/types"
)

var root = protocol.CreateRootCommand(func(concurrency int) protocol.Adapter {
	return sources.NewFactory(carto.New(), sources.WithConcurrency(concurrency))
})

func encodedCollection(t *testing.T, points ...orb.Point) string {
	t.Helper()
	fc := geojson.NewFeatureCollection()
	for _, point := range points {
		fc.Append(geojson.NewFeature(point))
	}
	payload, err := geocodec.EncodeGeoJSON(fc)
	require.NoError(t, err)
	return payload
}

func layersJSON(t *testing.T) []byte {
	t.Helper()
	layers := map[string]any{
		"layers": []map[string]any{
			{
				"type":    "GeoJSON",
				"data":    encodedCollection(t, orb.Point{1, 2}, orb.Point{3, 4}),
				"options": map[string]any{"name": "points"},
			},
			{
				"type":        "Query",
				"data":        "SELECT * FROM t",
				"credentials": map[string]any{"username": "alice"},
			},
		},
	}
	data, err := json.Marshal(layers)
	require.NoError(t, err)
	return data
}

func TestSourcesEndpoint(t *testing.T) {
	server := httptest.NewServer(protocol.NewRouter(sources.NewFactory(carto.New())))
	defer server.Close()

	resp, err := http.Post(server.URL+"/sources", "application/json", bytes.NewReader(layersJSON(t)))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Sources []map[string]any `json:"sources"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Sources, 2)
	assert.Equal(t, "GeoJSON", body.Sources[0]["type"])
	assert.Equal(t, "SQL", body.Sources[1]["type"])
	assert.Equal(t, map[string]any{"serverURL": "https://alice.carto.com/"}, body.Sources[1]["config"])
}

func TestSourcesEndpointErrors(t *testing.T) {
	server := httptest.NewServer(protocol.NewRouter(sources.NewFactory(carto.New())))
	defer server.Close()

	testCases := []struct {
		name   string
		body   string
		status int
	}{
		{name: "malformed body", body: `{"layers":`, status: http.StatusBadRequest},
		{name: "unsupported type", body: `[{"type":"Raster","data":"x"}]`, status: http.StatusUnprocessableEntity},
		{name: "bad payload", body: `[{"type":"GeoJSON","data":"@@@"}]`, status: http.StatusUnprocessableEntity},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(server.URL+"/sources", "application/json", strings.NewReader(tc.body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestOversizedBodyRejected(t *testing.T) {
	defer protocol.SetMaxRequestBody(64)()
	server := httptest.NewServer(protocol.NewRouter(sources.NewFactory(carto.New())))
	defer server.Close()

	body := layersJSON(t)
	require.Greater(t, len(body), 64)

	for _, endpoint := range []string{"/sources", "/validate"} {
		t.Run(endpoint, func(t *testing.T) {
			resp, err := http.Post(server.URL+endpoint, "application/json", bytes.NewReader(body))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
		})
	}
}

func TestValidateEndpoint(t *testing.T) {
	server := httptest.NewServer(protocol.NewRouter(sources.NewFactory(carto.New())))
	defer server.Close()

	body := `[{"type":"Query","data":"SELECT 1","credentials":{"username":"alice"}},{"type":"MVT","data":{"file":"f","metadata":"{"}}]`
	resp, err := http.Post(server.URL+"/validate", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Valid  bool     `json:"valid"`
		Errors []string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.True(t, strings.HasPrefix(result.Errors[0], "layer[1]"))
}

func TestHealthz(t *testing.T) {
	recorder := httptest.NewRecorder()
	protocol.NewRouter(sources.NewFactory(carto.New())).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
}

func TestCheckLayersCollectsAllErrors(t *testing.T) {
	adapter := sources.NewFactory(carto.New())
	layers := []*types.Layer{
		{Type: "Raster", Data: json.RawMessage(`"x"`)},
		{Type: types.Query, Data: json.RawMessage(`"SELECT 1"`), Credentials: &types.Credentials{Username: "alice"}},
		{Type: types.GeoJSON, Data: json.RawMessage(`"@@@"`)},
	}

	err := protocol.CheckLayers(adapter, layers)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "layer[0]")
	assert.NotContains(t, err.Error(), "layer[1]")
	assert.Contains(t, err.Error(), "layer[2]")
}

type memoryWriter struct {
	setups  []string
	records []types.FeatureRecord
}

func (m *memoryWriter) GetConfigRef() protocol.Config { return nil }
func (m *memoryWriter) Check() error                  { return nil }
func (m *memoryWriter) Type() string                  { return "MEMORY" }
func (m *memoryWriter) Close() error                  { return nil }

func (m *memoryWriter) Setup(layer string) error {
	m.setups = append(m.setups, layer)
	return nil
}

func (m *memoryWriter) Write(_ context.Context, record types.FeatureRecord) error {
	m.records = append(m.records, record)
	return nil
}

func TestExportLayers(t *testing.T) {
	file := &types.LayerFile{}
	require.NoError(t, json.Unmarshal(layersJSON(t), file))

	writer := &memoryWriter{}
	report, err := protocol.ExportLayers(context.Background(), writer, file.Layers)
	require.NoError(t, err)

	assert.Equal(t, &types.ExportReport{Layers: 1, Features: 2}, report)
	assert.Equal(t, []string{"points"}, writer.setups)
	require.Len(t, writer.records, 2)
	assert.Equal(t, "points", writer.records[0].Layer)
	assert.Equal(t, "Point", writer.records[0].GeometryType)
}

func TestLayerName(t *testing.T) {
	testCases := []struct {
		name     string
		options  map[string]any
		expected string
	}{
		{name: "no options", expected: "layer_3"},
		{name: "named", options: map[string]any{"name": "roads"}, expected: "roads"},
		{name: "not a string", options: map[string]any{"name": 7}, expected: "layer_3"},
		{name: "parent traversal", options: map[string]any{"name": "../../etc/x"}, expected: "layer_3"},
		{name: "nested", options: map[string]any{"name": "a/b"}, expected: "layer_3"},
		{name: "windows separator", options: map[string]any{"name": `a\b`}, expected: "layer_3"},
		{name: "absolute", options: map[string]any{"name": "/tmp/x"}, expected: "layer_3"},
		{name: "dot dot", options: map[string]any{"name": ".."}, expected: "layer_3"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, protocol.LayerName(3, &types.Layer{Options: tc.options}))
		})
	}
}

func TestCreateCommandWritesSources(t *testing.T) {
	dir := t.TempDir()
	layersPath := filepath.Join(dir, "layers.json")
	require.NoError(t, os.WriteFile(layersPath, layersJSON(t), 0o600))
	defer viper.Set("CONFIG_FOLDER", "")

	root.SetArgs([]string{"create", "--no-save=false", "--layers", layersPath})
	require.NoError(t, root.Execute())

	var written []map[string]any
	data, err := os.ReadFile(filepath.Join(dir, "sources.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &written))
	require.Len(t, written, 2)
	assert.Equal(t, "GeoJSON", written[0]["type"])
	assert.Equal(t, "SQL", written[1]["type"])
}

func TestEncodeCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "points.geojson")
	require.NoError(t, os.WriteFile(input, []byte(`{"type":"Point","coordinates":[5,6]}`), 0o600))

	out := &bytes.Buffer{}
	root.SetOut(out)
	defer root.SetOut(nil)
	root.SetArgs([]string{"encode", "--no-save", "--input", input})
	require.NoError(t, root.Execute())

	fc, err := geocodec.DecodeGeoJSON(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, orb.Point{5, 6}, fc.Features[0].Geometry)
}
