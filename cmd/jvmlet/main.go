// Command jvmlet interprets a single entry class file (spec §1, §6).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jvmlet/internal/stringpool"
	"jvmlet/internal/vm"
)

var debugLevel int

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "jvmlet: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jvmlet <class-name>",
		Short: "Interpret a single entry class file",
		Args:  cobra.ExactArgs(1),
		RunE:  runEntry,
	}
	cmd.Flags().IntVar(&debugLevel, "debug", 0, "debug trace level: 0 (silent), 1 (instructions), 2 (instructions + operand stack)")
	return cmd
}

func runEntry(cmd *cobra.Command, args []string) error {
	if debugLevel < 0 || debugLevel > 2 {
		return errors.Errorf("--debug must be 0, 1, or 2, got %d", debugLevel)
	}

	raw := strings.TrimSuffix(args[0], ".class")
	rootDir := filepath.Dir(raw)
	className := filepath.Base(raw)

	logger, err := newLogger(debugLevel)
	if err != nil {
		return errors.Wrap(err, "constructing logger")
	}
	defer logger.Sync() //nolint:errcheck

	strPool := stringpool.New()
	ctx := vm.NewContext(rootDir, strPool, os.Stdout, debugLevel, logger)

	if err := ctx.RunEntry(className); err != nil {
		return errors.Wrapf(err, "running %s", className)
	}
	return nil
}

// newLogger builds the zap logger used for --debug tracing. At level 0
// logging is fully disabled; at 1/2 a console encoder keeps trace lines
// readable on a terminal rather than emitting structured JSON.
func newLogger(level int) (*zap.Logger, error) {
	if level == 0 {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	return cfg.Build()
}
