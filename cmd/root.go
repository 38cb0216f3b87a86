package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geomap/internal/config"
)

var (
	cfg        *config.Config
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "geomap",
	Short: "Render geographic datasets as HTML and PNG maps",
	Long: `Builds Leaflet web maps from geographic data and exports each one as a
standalone HTML page and a PNG image: a point-of-interest map and a
choropleth of arrival statistics joined to country boundaries.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		zap.L().Error("geomap: command failed", zap.Error(err))
		os.Exit(1)
	}
}
