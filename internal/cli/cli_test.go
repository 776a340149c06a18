package cli

import (
	"errors"
	"os"
	"testing"

	"github.com/SiggeMcKvack/Torch/internal/options"
	"github.com/retroenv/retrogolib/assert"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want options.Program
	}{
		{
			name: "default flags",
			args: []string{"prog", "test.z64"},
			want: options.Program{
				Parameters: options.Parameters{Input: "test.z64", Graphs: "assets"},
				Flags:      options.Flags{Exporter: "code"},
			},
		},
		{
			name: "input flag instead of argument",
			args: []string{"prog", "-i", "test.z64"},
			want: options.Program{
				Parameters: options.Parameters{Input: "test.z64", Graphs: "assets"},
				Flags:      options.Flags{Exporter: "code"},
			},
		},
		{
			name: "exporter and output directory",
			args: []string{"prog", "-e", "Binary", "-o", "out", "test.z64"},
			want: options.Program{
				Parameters: options.Parameters{Input: "test.z64", Graphs: "assets", Output: "out"},
				Flags:      options.Flags{Exporter: "binary"},
			},
		},
		{
			name: "behavior flags",
			args: []string{"prog", "-parallel", "-strict", "-g", "graphs", "test.z64"},
			want: options.Program{
				Parameters: options.Parameters{Input: "test.z64", Graphs: "graphs"},
				Flags:      options.Flags{Exporter: "code", Parallel: true, Strict: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			t.Cleanup(func() { os.Args = oldArgs })

			os.Args = tt.args

			got, extOpts, err := ParseFlags()
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Strict, extOpts.Strict)
			assert.Equal(t, tt.want.Parallel, extOpts.Parallel)
			assert.True(t, extOpts.AbortOnParseError)
		})
	}
}

func TestParseFlagsMissingInput(t *testing.T) {
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })

	os.Args = []string{"prog"}

	_, _, err := ParseFlags()
	var usageErr *UsageError
	assert.True(t, errors.As(err, &usageErr))
}

func TestParseFlagsUnknownExporter(t *testing.T) {
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })

	os.Args = []string{"prog", "-e", "xml", "test.z64"}

	_, _, err := ParseFlags()
	assert.ErrorContains(t, err, "unsupported exporter")
}

func TestValidateArgs(t *testing.T) {
	assert.NoError(t, validateArgs([]string{"test.z64"}))
	assert.NoError(t, validateArgs([]string{"test.z64", ""}))

	err := validateArgs([]string{"test.z64", "-strict"})
	var usageErr *UsageError
	assert.True(t, errors.As(err, &usageErr))
}
