package config

import (
	"time"

	"github.com/urfave/cli/v2"
)

const defaultPollInterval = 5 * time.Second

// Logging flags, grounded in the same console/dir verbosity split the node
// daemon exposes; the oracle only needs the single-process subset.
var (
	LogConsoleVerbosityFlag = &cli.StringFlag{
		Name:  "log.console.verbosity",
		Usage: "log level written to stderr (crit, error, warn, info, debug, trace)",
		Value: "info",
	}
	LogDirVerbosityFlag = &cli.StringFlag{
		Name:  "log.dir.verbosity",
		Usage: "log level written to the log file",
		Value: "info",
	}
	LogDirPathFlag = &cli.StringFlag{
		Name:  "log.dir.path",
		Usage: "directory to write rotated log files to; empty disables file logging",
	}
	LogDirPrefixFlag = &cli.StringFlag{
		Name:  "log.dir.prefix",
		Usage: "filename prefix for rotated log files",
		Value: "epoch-oracle",
	}
	LogJSONFlag = &cli.BoolFlag{
		Name:  "log.json",
		Usage: "emit structured JSON log lines instead of terminal-formatted text",
	}
)
