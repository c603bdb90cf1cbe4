package parquet

import (
	"github.com/datazip-inc/mapsource/utils"
)

type Config struct {
	Path      string `json:"local_path,omitempty"` // Local file path (for local file system usage)
	Bucket    string `json:"s3_bucket,omitempty" validate:"required_with=Region"`
	Region    string `json:"s3_region,omitempty" validate:"required_with=Bucket"`
	AccessKey string `json:"s3_access_key,omitempty" validate:"required_with=SecretKey"`
	SecretKey string `json:"s3_secret_key,omitempty" validate:"required_with=AccessKey"`
	Prefix    string `json:"s3_path,omitempty"`
}

func (c *Config) Validate() error {
	return utils.Validate(c)
}
