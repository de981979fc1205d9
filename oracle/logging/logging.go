// Package logging wires up the structured logger the rest of the oracle
// daemon writes to: a terminal handler on stderr, plus an optional rotated
// file handler when a log directory is configured.
package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ledgerwatch/log/v3"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/gateway-fm/epoch-oracle/oracle/config"
)

// jsonLineFormat renders each record as one JSON object per line; used
// when structured (machine-parseable) logging is requested instead of the
// terminal format.
func jsonLineFormat(r *log.Record) []byte {
	fields := make(map[string]interface{}, len(r.Ctx)/2+3)
	fields["t"] = r.Time
	fields["lvl"] = r.Lvl.String()
	fields["msg"] = r.Msg
	for i := 0; i+1 < len(r.Ctx); i += 2 {
		if key, ok := r.Ctx[i].(string); ok {
			fields[key] = r.Ctx[i+1]
		}
	}
	line, err := json.Marshal(fields)
	if err != nil {
		return []byte(r.Msg + "\n")
	}
	return append(line, '\n')
}

// Setup configures the root logger from parsed CLI flags and returns it.
func Setup(ctx *cli.Context) log.Logger {
	consoleLevel, err := tryGetLogLevel(ctx.String(config.LogConsoleVerbosityFlag.Name))
	if err != nil {
		consoleLevel = log.LvlInfo
	}
	dirLevel, err := tryGetLogLevel(ctx.String(config.LogDirVerbosityFlag.Name))
	if err != nil {
		dirLevel = log.LvlInfo
	}
	jsonOutput := ctx.Bool(config.LogJSONFlag.Name)
	dirPath := ctx.String(config.LogDirPathFlag.Name)
	filePrefix := ctx.String(config.LogDirPrefixFlag.Name)

	logger := log.Root()
	setup(logger, filePrefix, dirPath, consoleLevel, dirLevel, jsonOutput)
	return logger
}

func setup(logger log.Logger, filePrefix, dirPath string, consoleLevel, dirLevel log.Lvl, jsonOutput bool) {
	var format log.Format
	if jsonOutput {
		format = log.FormatFunc(jsonLineFormat)
	} else {
		format = log.TerminalFormatNoColor()
	}
	consoleHandler := log.LvlFilterHandler(consoleLevel, log.StreamHandler(os.Stderr, format))
	logger.SetHandler(consoleHandler)

	if dirPath == "" {
		logger.Info("console logging only")
		return
	}

	if err := os.MkdirAll(dirPath, 0764); err != nil {
		logger.Warn("failed to create log dir, console logging only", "err", err)
		return
	}

	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(dirPath, filePrefix+".log"),
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	fileHandler := log.LvlFilterHandler(dirLevel, log.StreamHandler(rotated, log.TerminalFormatNoColor()))
	logger.SetHandler(log.MultiHandler(consoleHandler, fileHandler))
	logger.Info("logging to file system", "dir", dirPath, "prefix", filePrefix, "level", dirLevel)
}

func tryGetLogLevel(s string) (log.Lvl, error) {
	lvl, err := log.LvlFromString(s)
	if err != nil {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, err
		}
		return log.Lvl(n), nil
	}
	return lvl, nil
}
