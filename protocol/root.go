package protocol

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datazip-inc/mapsource/constants"
	"github.com/datazip-inc/mapsource/logger"
	"github.com/datazip-inc/mapsource/types"
	"github.com/datazip-inc/mapsource/utils"
)

// NewAdapterFunc builds the adapter once flags are parsed
type NewAdapterFunc func(concurrency int) Adapter

var (
	layersPath            string
	destinationConfigPath string
	noSave                bool
	concurrency           int

	destinationConfig *types.WriterConfig

	commands   = []*cobra.Command{}
	newAdapter NewAdapterFunc
	adapter    Adapter
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "mapsource",
	Short: "translate map layer descriptors into rendering engine sources",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// set global variables
		if !noSave && layersPath != "" {
			viper.Set("CONFIG_FOLDER", filepath.Dir(layersPath))
		}
		// logger uses CONFIG_FOLDER
		logger.Init()

		if newAdapter == nil {
			return fmt.Errorf("no adapter registered")
		}
		adapter = newAdapter(concurrency)

		if destinationConfigPath != "" {
			destinationConfig = &types.WriterConfig{}
			if err := utils.UnmarshalFile(destinationConfigPath, destinationConfig); err != nil {
				return err
			}
			if err := utils.Validate(destinationConfig); err != nil {
				return fmt.Errorf("invalid destination config: %s", err)
			}
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}

		if ok := utils.IsValidSubcommand(commands, args[0]); !ok {
			return fmt.Errorf("'%s' is an invalid command. Use 'mapsource --help' to display usage guide", args[0])
		}

		return nil
	},
}

func CreateRootCommand(adapterFunc NewAdapterFunc) *cobra.Command {
	newAdapter = adapterFunc
	RootCmd.AddCommand(commands...)

	return RootCmd
}

// loadLayers reads the layers file, warning about repeated descriptors
func loadLayers() ([]*types.Layer, error) {
	if layersPath == "" {
		return nil, fmt.Errorf("--layers not passed")
	}

	file := &types.LayerFile{}
	if err := utils.UnmarshalFile(layersPath, file); err != nil {
		return nil, err
	}
	if len(file.Layers) == 0 {
		return nil, fmt.Errorf("no layers found in %s", layersPath)
	}

	seen := make(map[string]int)
	for idx, layer := range file.Layers {
		if layer == nil {
			return nil, fmt.Errorf("layer[%d] is empty", idx)
		}
		fingerprint, err := layer.Fingerprint()
		if err != nil {
			return nil, err
		}
		if first, found := seen[fingerprint]; found {
			logger.Warnf("layer[%d] duplicates layer[%d]", idx, first)
			continue
		}
		seen[fingerprint] = idx
	}

	return file.Layers, nil
}

func init() {
	commands = append(commands, createCmd, checkCmd, exportCmd, encodeCmd, serveCmd)
	RootCmd.PersistentFlags().StringVarP(&layersPath, "layers", "", "", "(Required) Layers file, JSON or YAML")
	RootCmd.PersistentFlags().StringVarP(&destinationConfigPath, "destination", "", "", "(Optional) Destination config for export")
	RootCmd.PersistentFlags().IntVarP(&concurrency, "concurrency", "", constants.DefaultConcurrency, "(Optional) Layers built concurrently")
	RootCmd.PersistentFlags().BoolVarP(&noSave, "no-save", "", false, "(Optional) Flag to skip logging artifacts in file")
	RootCmd.PersistentFlags().String("log-level", "info", "(Optional) Log level")
	_ = viper.BindPFlag("LOG_LEVEL", RootCmd.PersistentFlags().Lookup("log-level"))

	viper.SetEnvPrefix("MAPSOURCE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("SERVER_PORT", constants.DefaultServerPort)

	// Disable Cobra CLI's built-in usage and error handling
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true
}
