package constants

const (
	DefaultAPIKey         = "default_public"
	CartoServerURLPattern = "https://%s.carto.com/"

	// tiles above ZoomClampThreshold are fetched from MaxSourceZoom
	ZoomClampThreshold = 13
	MaxSourceZoom      = 14

	MaxTileZoom = 22

	DefaultConcurrency = 6
	DefaultServerPort  = 8080

	ParquetFileExt = "parquet"
)
