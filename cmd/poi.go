package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var poiCmd = &cobra.Command{
	Use:   "poi",
	Short: "Render the point-of-interest map",
	Long: `Draws a circle and a text label at the configured point of interest
(NASA Johnson Space Center by default), adds the page title, and writes
<poi.name>.html and <poi.name>.png to the output directory.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "poi"))

		res, err := initPipeline().RunPOI(ctx)
		if err != nil {
			return eris.Wrap(err, "poi")
		}

		log.Info("poi: complete", zap.String("html", res.HTMLPath), zap.String("png", res.PNGPath))
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", res.HTMLPath, res.PNGPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(poiCmd)
}
