package pipeline

import (
	"sort"

	"github.com/SiggeMcKvack/Torch/internal/graph"
	"github.com/SiggeMcKvack/Torch/internal/walker"
)

// dependencyOrder groups files into levels: a file's level is one past the
// deepest level of its external references. Files within a level have no
// dependency on each other and may be walked concurrently. A reference
// cycle fails with the offending chain.
func dependencyOrder(graphs map[string]*graph.File) ([][]string, error) {
	levels := make(map[string]int, len(graphs))
	visiting := make(map[string]bool, len(graphs))

	var visit func(file string, chain []string) (int, error)
	visit = func(file string, chain []string) (int, error) {
		if level, ok := levels[file]; ok {
			return level, nil
		}
		if visiting[file] {
			return 0, &walker.CycleError{Chain: append(append([]string{}, chain...), file)}
		}

		g, ok := graphs[file]
		if !ok {
			// unresolved references are reported with node context during
			// the walk, ignore them for ordering
			return 0, nil
		}

		visiting[file] = true
		chain = append(chain, file)

		level := 0
		for _, ref := range g.Externals() {
			depLevel, err := visit(ref, chain)
			if err != nil {
				return 0, err
			}
			if depLevel+1 > level {
				level = depLevel + 1
			}
		}

		visiting[file] = false
		levels[file] = level
		return level, nil
	}

	files := make([]string, 0, len(graphs))
	for name := range graphs {
		files = append(files, name)
	}
	sort.Strings(files)

	maxLevel := 0
	for _, name := range files {
		level, err := visit(name, nil)
		if err != nil {
			return nil, err
		}
		if level > maxLevel {
			maxLevel = level
		}
	}

	ordered := make([][]string, maxLevel+1)
	for _, name := range files {
		level := levels[name]
		ordered[level] = append(ordered[level], name)
	}
	return ordered, nil
}
