package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/geomap/internal/dataset"
)

var choroplethCmd = &cobra.Command{
	Use:   "choropleth",
	Short: "Render the arrivals choropleth map",
	Long: `Loads the arrivals spreadsheet, totals each nationality, joins the totals
to country centroids, shades country boundaries by total, labels each
country, and writes <choropleth.name>.html and <choropleth.name>.png.

Countries without coordinates are handled by choropleth.join_policy
(fill, flag or drop).`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "choropleth"))

		if policy, _ := cmd.Flags().GetString("join-policy"); policy != "" {
			if _, err := dataset.ParsePolicy(policy); err != nil {
				return eris.Wrap(err, "choropleth: --join-policy")
			}
			cfg.Choropleth.JoinPolicy = policy
		}
		if table, _ := cmd.Flags().GetString("boundary-table"); table != "" {
			cfg.Choropleth.Boundaries.TablePath = table
		}

		res, err := initPipeline().RunChoropleth(ctx)
		if err != nil {
			return eris.Wrap(err, "choropleth")
		}

		log.Info("choropleth: complete",
			zap.String("html", res.HTMLPath),
			zap.String("png", res.PNGPath),
			zap.Int("records", res.Records),
			zap.Strings("unmatched", res.Unmatched),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", res.HTMLPath, res.PNGPath)
		return nil
	},
}

func init() {
	choroplethCmd.Flags().String("join-policy", "", "unmatched country policy: fill, flag or drop (default: from config)")
	choroplethCmd.Flags().String("boundary-table", "", "also write the flattened boundary table to this CSV path")
	rootCmd.AddCommand(choroplethCmd)
}
