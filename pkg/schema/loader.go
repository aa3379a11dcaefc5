package schema

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a schema document from JSON or YAML. JSON is attempted first;
// anything that is not valid JSON falls through to the YAML decoder.
func Parse(data []byte) (*FormSchema, error) {
	var doc FormSchema
	if err := json.Unmarshal(data, &doc); err != nil {
		if yerr := yaml.Unmarshal(data, &doc); yerr != nil {
			return nil, fmt.Errorf("schema: parse document: %w", yerr)
		}
	}
	Normalize(&doc)
	SortFields(&doc)
	return &doc, nil
}

// LoadFS walks a directory tree and parses every .json, .yaml and .yml file
// into a schema, keyed by file name without extension.
func LoadFS(fsys fs.FS, root string) (map[string]*FormSchema, error) {
	if root == "" {
		root = "."
	}
	docs := map[string]*FormSchema{}

	err := fs.WalkDir(fsys, root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		ext := strings.ToLower(path.Ext(p))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", p, err)
		}
		doc, err := Parse(data)
		if err != nil {
			return fmt.Errorf("schema: %s: %w", p, err)
		}

		key := strings.TrimSuffix(path.Base(p), ext)
		if _, dup := docs[key]; dup {
			return fmt.Errorf("schema: duplicate document name %q", key)
		}
		docs[key] = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// SortFields orders fields by their Order value, breaking ties by array
// position, then renumbers orders to match slice indexes.
func SortFields(s *FormSchema) {
	sort.SliceStable(s.Fields, func(i, j int) bool {
		return s.Fields[i].Order < s.Fields[j].Order
	})
	for i := range s.Fields {
		s.Fields[i].Order = i
	}
	sort.SliceStable(s.Sections, func(i, j int) bool {
		return s.Sections[i].Order < s.Sections[j].Order
	})
}
