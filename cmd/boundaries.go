package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var boundariesCmd = &cobra.Command{
	Use:   "boundaries",
	Short: "Write the flattened boundary table",
	Long: `Fetches the configured boundary source (GeoJSON URL or file, shapefile, or
zipped shapefile) and writes one CSV row per boundary: id, name, join key,
geometry type, polygon count and bounding box. Useful for checking which
names the choropleth join will see.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "boundaries"))

		out, _ := cmd.Flags().GetString("out")
		if source, _ := cmd.Flags().GetString("source"); source != "" {
			cfg.Choropleth.Boundaries.Source = source
		}

		n, err := initPipeline().WriteBoundaryTable(ctx, out)
		if err != nil {
			return eris.Wrap(err, "boundaries")
		}

		log.Info("boundaries: complete", zap.String("path", out), zap.Int("rows", n))
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d boundaries)\n", out, n)
		return nil
	},
}

func init() {
	boundariesCmd.Flags().String("out", "boundaries.csv", "output CSV path")
	boundariesCmd.Flags().String("source", "", "boundary source URL or path (default: from config)")
	rootCmd.AddCommand(boundariesCmd)
}
