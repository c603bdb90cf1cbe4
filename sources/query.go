package sources

import (
	"fmt"

	"github.com/datazip-inc/mapsource/constants"
	"github.com/datazip-inc/mapsource/pkg/geocodec"
	"github.com/datazip-inc/mapsource/protocol"
	"github.com/datazip-inc/mapsource/types"
)

func buildQuery(engine protocol.Engine, layer *types.Layer) (protocol.Source, error) {
	if layer.Credentials == nil {
		return nil, ErrMissingCredentials
	}

	query, err := layer.Text()
	if err != nil {
		return nil, &DecodeError{Stage: geocodec.StageData, Err: err}
	}

	auth, config := queryAuth(layer.Credentials)
	return engine.NewSQL(query, auth, config)
}

// queryAuth treats empty and absent api_key/base_url alike
func queryAuth(credentials *types.Credentials) (protocol.Auth, protocol.SQLConfig) {
	auth := protocol.Auth{
		Username: credentials.Username,
		APIKey:   credentials.APIKey,
	}
	if auth.APIKey == "" {
		auth.APIKey = constants.DefaultAPIKey
	}

	config := protocol.SQLConfig{
		ServerURL: credentials.BaseURL,
	}
	if config.ServerURL == "" {
		config.ServerURL = fmt.Sprintf(constants.CartoServerURLPattern, credentials.Username)
	}

	return auth, config
}
