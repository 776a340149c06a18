// Package main implements a game ROM asset extractor
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/SiggeMcKvack/Torch/internal/app"
	"github.com/SiggeMcKvack/Torch/internal/cli"
	"github.com/SiggeMcKvack/Torch/internal/config"
	"github.com/SiggeMcKvack/Torch/internal/pipeline"
	retroapp "github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
)

var (
	version = "0.1.0"
	commit  = ""
	date    = ""
)

func main() {
	opts, extOpts, err := cli.ParseFlags()
	if err != nil {
		var usageErr *cli.UsageError
		if errors.As(err, &usageErr) {
			printBanner(opts.Quiet)
			usageErr.ShowUsage()
			os.Exit(1)
		}
		fmt.Println(err)
		os.Exit(1)
	}

	if !opts.Quiet {
		printBanner(false)
	}

	logger := config.CreateLogger(opts.Debug, opts.Quiet)
	app.PrintInfo(logger, opts)

	p := pipeline.New(logger)
	entries, err := p.Execute(retroapp.Context(), opts, extOpts)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("Operation cancelled")
			os.Exit(1)
		}
		logger.Error("Extraction failed", log.Err(err))
		os.Exit(1)
	}

	if err := app.WriteArtifacts(logger, opts, entries); err != nil {
		logger.Error("Writing artifacts failed", log.Err(err))
		os.Exit(1)
	}
}

func printBanner(quiet bool) {
	if quiet {
		return
	}
	fmt.Println("[-------------------------------]")
	fmt.Println("[ torch - ROM asset extractor   ]")
	fmt.Printf("[-------------------------------]\n\n")
	fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))
}
