package protocol

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datazip-inc/mapsource/pkg/geocodec"
)

var inputPath string

// encodeCmd prints the GeoJSON layer payload for a GeoJSON document
var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "encode a GeoJSON file as GeoJSON layer data",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if inputPath == "" {
			return fmt.Errorf("--input not passed")
		}

		text, err := os.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("failed to read input: %s", err)
		}

		// parse first so only valid documents get encoded
		fc, err := geocodec.ParseGeoJSON(text)
		if err != nil {
			return err
		}

		payload, err := geocodec.EncodeGeoJSON(fc)
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(cmd.OutOrStdout(), payload)
		return err
	},
}

func init() {
	encodeCmd.Flags().StringVarP(&inputPath, "input", "", "", "(Required) GeoJSON file to encode")
}
