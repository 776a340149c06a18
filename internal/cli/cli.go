// Package cli handles command line interface logic
package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/SiggeMcKvack/Torch/internal/options"
)

// ParseFlags parses command line flags and returns program and extractor options
func ParseFlags() (options.Program, options.Extractor, error) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	var opts options.Program
	readOptionFlags(flags, &opts)

	err := flags.Parse(os.Args[1:])
	args := flags.Args()
	if err != nil || (len(args) == 0 && opts.Input == "") {
		return opts, options.Extractor{}, &UsageError{flags: flags}
	}

	if err := validateArgs(args); err != nil {
		return opts, options.Extractor{}, err
	}

	if err := normalizeOptions(&opts); err != nil {
		return opts, options.Extractor{}, err
	}

	if opts.Input == "" {
		opts.Input = args[0]
	}

	return opts, createExtractorOptions(opts), nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: torch [options] <image file to extract>\n\n")
	e.flags.PrintDefaults()
	fmt.Println()
}

// validateArgs checks if arguments are in correct order
func validateArgs(args []string) error {
	for i, arg := range args {
		if i > 0 && len(arg) > 0 && arg[0] == '-' {
			return &UsageError{
				msg: fmt.Sprintf("Potential argument %s found after the image file, please pass the image file as last argument", arg),
			}
		}
	}
	return nil
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(opts *options.Program) error {
	opts.Exporter = strings.ToLower(opts.Exporter)

	validExporters := []string{"header", "code", "binary", "modding"}
	for _, valid := range validExporters {
		if opts.Exporter == valid {
			return nil
		}
	}

	return fmt.Errorf("unsupported exporter: %s. Valid options: %s",
		opts.Exporter, strings.Join(validExporters, ", "))
}

// createExtractorOptions creates extractor options based on program options
func createExtractorOptions(opts options.Program) options.Extractor {
	extOpts := options.NewExtractor()
	extOpts.Strict = opts.Strict
	extOpts.Parallel = opts.Parallel
	return extOpts
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Input, "i", "", "name of the input image file")
	flags.StringVar(&opts.Graphs, "g", "assets", "directory containing the asset graph files")
	flags.StringVar(&opts.Output, "o", "", "output directory for the extracted artifacts, manifest printed on console if no name given")
	flags.StringVar(&opts.Exporter, "e", "code", "exporter kind of the generated artifacts (header/code/binary/modding)")
	flags.BoolVar(&opts.Parallel, "parallel", false, "walk dependency-independent files concurrently")
	flags.BoolVar(&opts.Strict, "strict", false, "treat duplicate address and byte range overlap warnings as fatal errors")
	flags.BoolVar(&opts.Debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}
