package protocol

import (
	"github.com/spf13/cobra"

	"github.com/datazip-inc/mapsource/logger"
	"github.com/datazip-inc/mapsource/types"
)

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "build engine sources for every layer",
	RunE: func(cmd *cobra.Command, _ []string) error {
		layers, err := loadLayers()
		if err != nil {
			return err
		}

		sources, err := adapter.CreateSources(cmd.Context(), layers)
		if err != nil {
			return err
		}

		message := types.Message{
			Type:    types.SourcesMessage,
			Sources: sourcesToAny(sources),
		}
		logger.Infof("created %d sources", len(sources))
		if noSave {
			logger.Info(message)
			return nil
		}

		if err := logger.FileLogger(message.Sources, "sources", ".json"); err != nil {
			logger.Fatalf("failed to create sources file: %s", err)
		}

		return nil
	},
}

func sourcesToAny(sources []Source) []any {
	output := make([]any, 0, len(sources))
	for _, source := range sources {
		output = append(output, source)
	}

	return output
}
