package types

type AdapterType string

const (
	Parquet AdapterType = "PARQUET"
)

type WriterConfig struct {
	Type         AdapterType `json:"type" validate:"required"`
	WriterConfig any         `json:"writer"`
}
