// Package options contains the program options.
package options

// Parameters contains file path options.
type Parameters struct {
	Input  string `flag:"i" usage:"input image file"`
	Graphs string `flag:"g" usage:"directory containing asset graph files"`
	Output string `flag:"o" usage:"output directory (default: manifest on stdout)"`
}

// Flags contains behavior options.
type Flags struct {
	Exporter string `flag:"e" usage:"exporter kind: header, code, binary, modding" default:"code"`
	Parallel bool   `flag:"parallel" usage:"walk dependency-independent files concurrently"`
	Strict   bool   `flag:"strict" usage:"promote duplicate address and overlap warnings to fatal errors"`
	Debug    bool   `flag:"debug" usage:"enable debug logging"`
	Quiet    bool   `flag:"q" usage:"quiet mode"`
}

// Program options of the extractor.
type Program struct {
	Parameters
	Flags
}

// Extractor defines options to control an extraction run.
type Extractor struct {
	// Strict promotes duplicate address and overlap warnings to fatal errors.
	Strict bool

	// AbortOnParseError stops the run on the first factory parse failure.
	// When disabled the failing node is skipped with a warning.
	AbortOnParseError bool

	// MaxDecompressedSize is the ceiling for header-declared decompressed
	// sizes, 0 selects the codec package default.
	MaxDecompressedSize uint32

	// Parallel walks dependency-independent files concurrently.
	Parallel bool
}

// NewExtractor returns a new options instance with default options.
func NewExtractor() Extractor {
	return Extractor{
		AbortOnParseError: true,
	}
}
