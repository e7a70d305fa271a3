// Package main provides omap-bench, a benchmark tool that fills an
// OrderedMapOf from a file of whitespace-separated key/value pairs.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/llxisdsh/omap/internal/bench"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out, errOut io.Writer) int {
	flagSet := flag.NewFlagSet("omap-bench", flag.ContinueOnError)
	flagSet.SetOutput(errOut)

	var overrides bench.Config

	flagSet.StringVar(&overrides.Input, "input", "", "File of whitespace-separated key/value pairs")
	flagSet.StringVar(&overrides.Probe, "probe", "", "Key to look up after filling (default \"ahhzz@yahoo.com\")")
	flagSet.StringVar(&overrides.Hasher, "hasher", "", "Key hasher: builtin or xxhash")
	flagSet.IntVar(&overrides.MaxBucketSize, "max-bucket-size", 0, "Maximum entries per bucket chain (default 10)")
	flagSet.IntVar(&overrides.Presize, "presize", 0, "Expected number of entries")
	flagSet.StringVar(&overrides.JSONOut, "json-out", "", "Write a JSON report to this path")
	configPath := flagSet.String("config", "", "JSONC config file")

	flagSet.Usage = func() {
		fmt.Fprint(errOut, "Usage: omap-bench --input FILE [flags]\n\n")
		fmt.Fprint(errOut, "Fills an ordered map from FILE, copies it and looks up one key.\n\n")
		fmt.Fprint(errOut, "Flags:\n")
		flagSet.PrintDefaults()
	}

	parseErr := flagSet.Parse(args)
	if parseErr != nil {
		if errors.Is(parseErr, flag.ErrHelp) {
			return 0
		}

		return 1
	}

	if err := execute(*configPath, overrides, out); err != nil {
		fmt.Fprintln(errOut, "error:", err)

		return 1
	}

	return 0
}

func execute(configPath string, overrides bench.Config, out io.Writer) error {
	cfg, err := bench.LoadConfig(configPath, overrides)
	if err != nil {
		return err
	}

	input, err := os.ReadFile(cfg.Input)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}

	report := bench.Run(input, cfg)
	report.WriteText(out)

	if cfg.JSONOut != "" {
		return report.WriteJSON(cfg.JSONOut)
	}

	return nil
}
