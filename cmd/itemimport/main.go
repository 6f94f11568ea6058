// Command itemimport validates item CSV files, imports them into a
// collection ledger and scaffolds new CSV files.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/ledgerimport/internal/config"
	"github.com/JonMunkholm/ledgerimport/internal/logging"
)

func main() {
	// Load keeps variables already set in the shell
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitUsage)
	}

	// stdout carries command output, logs go to stderr
	logging.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	Execute(cfg)
}
