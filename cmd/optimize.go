package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/greenmove/evcharge/app"
	"github.com/greenmove/evcharge/config"
	"github.com/greenmove/evcharge/infra/logger"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run one solve/commit cycle and print the result",
	RunE:  optimizeOnce,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
}

func optimizeOnce(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// A one-shot run needs neither transports nor background workers.
	cfg.MQTT.Enabled = false
	cfg.Simulator.Enabled = false
	cfg.Metrics.PrometheusEnabled = false

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("optimize-command").Errorf("service close: %v", err)
		}
	}()

	res, err := svc.Controller.RunOptimization(context.Background())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
