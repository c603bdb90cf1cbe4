package protocol

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datazip-inc/mapsource/logger"
	"github.com/datazip-inc/mapsource/types"
	"github.com/datazip-inc/mapsource/utils"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "validate layers and the export destination",
	Run: func(_ *cobra.Command, _ []string) {
		err := func() error {
			layers, err := loadLayers()
			if err != nil {
				return err
			}

			if err := CheckLayers(adapter, layers); err != nil {
				return err
			}

			if destinationConfig != nil {
				if _, err := NewWriter(destinationConfig); err != nil {
					return err
				}
			}

			return nil
		}()

		// log success
		message := types.Message{
			Type: types.ConnectionStatusMessage,
			ConnectionStatus: &types.StatusRow{
				Status: types.ConnectionSucceed,
			},
		}
		if err != nil {
			message.ConnectionStatus.Message = err.Error()
			message.ConnectionStatus.Status = types.ConnectionFailed
		}
		logger.Info(message)
	},
}

// CheckLayers validates every layer and then builds it, reporting all
// failures rather than the first
func CheckLayers(adapter Adapter, layers []*types.Layer) error {
	checks := make([]func() error, 0, len(layers))
	for idx, layer := range layers {
		layer := layer
		checks = append(checks, utils.ErrExecFormat(fmt.Sprintf("layer[%d]: %%s", idx), func() error {
			return checkLayer(adapter, layer)
		}))
	}

	return utils.ErrExecSequential(checks...)
}

func checkLayer(adapter Adapter, layer *types.Layer) error {
	if layer == nil {
		return fmt.Errorf("layer is empty")
	}
	if err := layer.Validate(); err != nil {
		return err
	}

	_, err := adapter.CreateSource(layer)
	return err
}
