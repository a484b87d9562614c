// Package cmd implements the CLI surface, built on cobra to match the
// pack's established command-tree idiom.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/machanirobotics-labs/sttgateway/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "sttgatewayd",
	Short: "Real-time speech transcription gateway",
	Long: `sttgatewayd accepts continuous PCM audio from many concurrent
WebSocket clients and streams back incremental transcriptions produced by
an external speech recognition engine.`,
	RunE: runServe,
}

var serverCfg = config.DefaultServerConfig()

// Execute runs the root command, returning any error from RunE so main can
// translate it into a non-zero process exit.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().IntVar(&serverCfg.Port, "port", serverCfg.Port, "listen port")
	rootCmd.Flags().StringVar(&serverCfg.Host, "host", serverCfg.Host, "informational bind host")
	rootCmd.Flags().StringVar(&serverCfg.Model, "model", serverCfg.Model, "model file for the recognizer")
	rootCmd.Flags().BoolVar(&serverCfg.NoGPU, "no-gpu", serverCfg.NoGPU, "disable hardware acceleration (logged only; not passed to the engine)")
	rootCmd.Flags().StringVar(&serverCfg.RecognizerURL, "recognizer-url", serverCfg.RecognizerURL, "HTTP endpoint of an external recognizer (empty uses a stub engine)")
	rootCmd.Flags().IntVar(&serverCfg.SampleRate, "sample-rate", serverCfg.SampleRate, "sample rate the recognizer expects, in Hz")
}
