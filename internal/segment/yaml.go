package segment

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type yamlDocument struct {
	Segments []yamlTable `yaml:"segments"`
}

type yamlTable struct {
	Name  string `yaml:"name"`
	Start uint32 `yaml:"start"`
	End   uint32 `yaml:"end"`
	VRAM  uint32 `yaml:"vram"`
	Index byte   `yaml:"index"`
}

// LoadYAML reads segment table definitions from a configuration document.
func LoadYAML(r io.Reader) ([]Table, error) {
	var doc yamlDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing segment configuration: %w", err)
	}

	tables := make([]Table, 0, len(doc.Segments))
	for _, s := range doc.Segments {
		if s.Name == "" {
			return nil, fmt.Errorf("segment table [0x%X, 0x%X] has no name", s.Start, s.End)
		}
		if s.End < s.Start {
			return nil, fmt.Errorf("segment table %s: end 0x%X before start 0x%X",
				s.Name, s.End, s.Start)
		}
		tables = append(tables, Table{
			Name:  s.Name,
			Start: s.Start,
			End:   s.End,
			VRAM:  s.VRAM,
			Index: s.Index,
		})
	}
	return tables, nil
}
