package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eringen/pubform"
	"github.com/eringen/pubform/views"
)

var (
	serveAddr  string
	serveTimed bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the content-submission form",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}
		if serveTimed {
			cfg = cfg.TimedFeedback()
		}

		var opts []pubform.Option
		if configFile != "" {
			opts = append(opts, pubform.WithConfigFile(configFile))
		}
		app := pubform.New(cfg, views.Default(), opts...)
		defer app.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return app.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveTimed, "timed-feedback", false, "Auto-dismiss the success banner after 5 seconds")
}
