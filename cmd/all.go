package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Render both maps, one after the other",
	Long:  "Runs the poi pipeline and then the choropleth pipeline. A failure in the first stops the run.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		log := zap.L().With(zap.String("command", "all"))
		p := initPipeline()

		poi, err := p.RunPOI(ctx)
		if err != nil {
			return eris.Wrap(err, "all: poi")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", poi.HTMLPath, poi.PNGPath)

		choro, err := p.RunChoropleth(ctx)
		if err != nil {
			return eris.Wrap(err, "all: choropleth")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", choro.HTMLPath, choro.PNGPath)

		log.Info("all: complete", zap.Strings("maps", []string{poi.Name, choro.Name}))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(allCmd)
}
