package main

import (
	"os"

	"github.com/machanirobotics-labs/sttgateway/cmd/sttgatewayd/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
