package sources

import (
	"errors"
	"fmt"

	"github.com/datazip-inc/mapsource/pkg/geocodec"
	"github.com/datazip-inc/mapsource/types"
)

var (
	// ErrMissingCredentials is returned for Query layers without credentials
	ErrMissingCredentials = errors.New("layer has no credentials")
	ErrNilLayer           = errors.New("layer is empty")
)

type DecodeError = geocodec.DecodeError

// UnsupportedTypeError is returned when no builder exists for a layer type
type UnsupportedTypeError struct {
	Type types.SourceType
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported layer type [%s], expected one of %v", e.Type, types.SourceTypes)
}
