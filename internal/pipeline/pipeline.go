// Package pipeline orchestrates the extraction workflow stages.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SiggeMcKvack/Torch/internal/codec"
	"github.com/SiggeMcKvack/Torch/internal/export"
	"github.com/SiggeMcKvack/Torch/internal/factory"
	"github.com/SiggeMcKvack/Torch/internal/graph"
	"github.com/SiggeMcKvack/Torch/internal/options"
	"github.com/SiggeMcKvack/Torch/internal/rom"
	"github.com/SiggeMcKvack/Torch/internal/segment"
	"github.com/SiggeMcKvack/Torch/internal/walker"
	"github.com/retroenv/retrogolib/log"
	"golang.org/x/sync/errgroup"
)

const segmentConfigName = "segments.yaml"

// Pipeline orchestrates the complete extraction workflow.
type Pipeline struct {
	logger *log.Logger
}

// New creates a new extraction pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{logger: logger}
}

// Execute runs the complete extraction pipeline and returns the ordered
// artifact sequence for the exporter. A fatal error yields no artifacts.
func (p *Pipeline) Execute(ctx context.Context, opts options.Program,
	extOpts options.Extractor) ([]export.WriteEntry, error) {

	exporter, err := export.KindFromString(opts.Exporter)
	if err != nil {
		return nil, err
	}

	image, err := rom.LoadFile(opts.Input)
	if err != nil {
		return nil, err
	}

	graphs, err := p.loadGraphs(opts.Graphs)
	if err != nil {
		return nil, err
	}

	segments, err := p.loadSegments(opts.Graphs)
	if err != nil {
		return nil, err
	}

	engine := codec.NewEngine(p.logger, extOpts.MaxDecompressedSize)
	registry := factory.Default(p.logger)
	w := walker.New(p.logger, extOpts, image, segments, engine, registry, graphs, exporter)

	levels, err := dependencyOrder(graphs)
	if err != nil {
		return nil, err
	}

	if err := p.walk(ctx, w, levels, extOpts.Parallel); err != nil {
		return nil, err
	}

	if err := w.MergeDiagnostics(); err != nil {
		return nil, err
	}
	if warnings := w.Warnings(); warnings != nil {
		p.logger.Warn("Extraction finished with diagnostics",
			log.String("details", warnings.Error()))
	}

	stats := engine.Stats()
	p.logger.Debug("Decode cache statistics",
		log.Uint64("hits", stats.Hits),
		log.Uint64("decodes", stats.Decodes))

	return w.Output().Drain(), nil
}

// walk processes all files in dependency order. In parallel mode the files
// of one level have no dependency on each other and are walked concurrently.
func (p *Pipeline) walk(ctx context.Context, w *walker.Walker, levels [][]string, parallel bool) error {
	for _, level := range levels {
		if !parallel {
			for _, file := range level {
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("walk canceled: %w", err)
				}
				if err := w.WalkFile(file); err != nil {
					return err
				}
			}
			continue
		}

		g, groupCtx := errgroup.WithContext(ctx)
		for _, file := range level {
			g.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return fmt.Errorf("walk canceled: %w", err)
				}
				return w.WalkFile(file)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// loadGraphs reads all asset graph documents of the directory. Graph files
// are keyed by their base name without extension, the name external
// references use.
func (p *Pipeline) loadGraphs(dir string) (map[string]*graph.File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading graph directory %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == segmentConfigName {
			continue
		}
		if ext := filepath.Ext(name); ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	graphs := make(map[string]*graph.File, len(names))
	for _, name := range names {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("opening graph file %s: %w", name, err)
		}

		key := strings.TrimSuffix(name, filepath.Ext(name))
		g, err := graph.LoadYAML(key, f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		graphs[key] = g

		p.logger.Debug("Loaded asset graph",
			log.String("file", key),
			log.Int("nodes", len(g.Nodes)))
	}

	if len(graphs) == 0 {
		return nil, fmt.Errorf("graph directory %s contains no graph files", dir)
	}
	return graphs, nil
}

// loadSegments builds the segment table set from the optional configuration
// document next to the graphs. Without one the set is empty and all nodes
// use absolute offsets.
func (p *Pipeline) loadSegments(dir string) (*segment.Set, error) {
	f, err := os.Open(filepath.Join(dir, segmentConfigName))
	if err != nil {
		if os.IsNotExist(err) {
			return segment.Build(nil)
		}
		return nil, fmt.Errorf("opening segment configuration: %w", err)
	}
	defer func() { _ = f.Close() }()

	tables, err := segment.LoadYAML(f)
	if err != nil {
		return nil, err
	}
	set, err := segment.Build(tables)
	if err != nil {
		return nil, fmt.Errorf("building segment tables: %w", err)
	}

	p.logger.Debug("Built segment tables", log.Int("tables", set.Len()))
	return set, nil
}
