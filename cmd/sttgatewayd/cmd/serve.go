package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/machanirobotics-labs/sttgateway/internal/config"
	"github.com/machanirobotics-labs/sttgateway/internal/engine"
	"github.com/machanirobotics-labs/sttgateway/internal/logging"
	"github.com/machanirobotics-labs/sttgateway/internal/server"
)

func runServe(cmd *cobra.Command, args []string) error {
	logging.Init()

	eng := engine.New(serverCfg.RecognizerURL, serverCfg.Model, serverCfg.SampleRate)
	defer eng.Close()

	params := config.DefaultParams()
	srv := server.New(serverCfg, params, eng)

	logging.Infow("sttgatewayd: starting", "port", serverCfg.Port, "no_gpu", serverCfg.NoGPU, "model", serverCfg.Model)
	if err := srv.ListenAndServe(); err != nil {
		return fmt.Errorf("sttgatewayd: %w", err)
	}
	return nil
}
