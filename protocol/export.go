package protocol

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datazip-inc/mapsource/logger"
	"github.com/datazip-inc/mapsource/types"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "write features of GeoJSON layers to the destination",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if destinationConfig == nil {
			return fmt.Errorf("--destination not passed")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		layers, err := loadLayers()
		if err != nil {
			return err
		}

		writer, err := NewWriter(destinationConfig)
		if err != nil {
			return err
		}

		report, exportErr := ExportLayers(cmd.Context(), writer, layers)
		if err := writer.Close(); err != nil {
			return fmt.Errorf("failed to close writer: %s", err)
		}
		if exportErr != nil {
			return exportErr
		}

		logger.Info(types.Message{
			Type:   types.ExportMessage,
			Export: report,
		})
		return nil
	},
}
