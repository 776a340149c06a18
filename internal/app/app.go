// Package app provides the main application helpers for the extractor.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/SiggeMcKvack/Torch/internal/export"
	"github.com/SiggeMcKvack/Torch/internal/options"
	"github.com/retroenv/retrogolib/log"
)

// PrintInfo prints the information about the extraction run setup.
func PrintInfo(logger *log.Logger, opts options.Program) {
	if opts.Quiet {
		return
	}

	logger.Info("Processing image",
		log.String("file", opts.Input),
		log.String("graphs", opts.Graphs),
		log.String("exporter", opts.Exporter),
	)
	if opts.Strict {
		logger.Info("Strict mode enabled, warnings are fatal")
	}
}

// WriteArtifacts hands the drained artifact sequence to the file system
// exporter: payloads and declaration texts as files in the output directory,
// or a manifest on the console if no directory is given.
func WriteArtifacts(logger *log.Logger, opts options.Program, entries []export.WriteEntry) error {
	if opts.Output == "" {
		for _, entry := range entries {
			fmt.Printf("%-30s %-8s %8d bytes  %016x\n",
				entry.Name, entry.Type, len(entry.Data), entry.Digest)
		}
		return nil
	}

	if err := os.MkdirAll(opts.Output, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", opts.Output, err)
	}

	for _, entry := range entries {
		if len(entry.Data) > 0 {
			name := filepath.Join(opts.Output, entry.Name+".bin")
			if err := os.WriteFile(name, entry.Data, 0o644); err != nil {
				return fmt.Errorf("writing artifact %s: %w", name, err)
			}
		}
		if entry.HeaderText != "" {
			ext := ".h"
			if opts.Exporter == string(export.KindCode) {
				ext = ".inc.c"
			}
			name := filepath.Join(opts.Output, entry.Name+ext)
			if err := os.WriteFile(name, []byte(entry.HeaderText), 0o644); err != nil {
				return fmt.Errorf("writing artifact %s: %w", name, err)
			}
		}
	}

	logger.Info("Artifacts written",
		log.Int("count", len(entries)),
		log.String("directory", opts.Output))
	return nil
}
