package main

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aledsdavies/apitree/record"
)

// yamlLoader adapts a YAML (or JSON, a YAML subset) file on disk into
// a record.LoadedModule: Go cannot dynamically import another Go
// source file's exports the way the host systems this runtime was
// ported from can, so the CLI's own Loader works over a generic,
// runtime-readable document format instead. A top-level mapping's
// "default" key becomes the module's default export; every other key
// becomes a named export. A non-mapping document (scalar, sequence)
// becomes a default-only export.
func yamlLoader(path string) (record.LoadedModule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return record.LoadedModule{}, err
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return record.LoadedModule{}, err
	}

	m, ok := doc.(map[string]any)
	if !ok {
		return record.LoadedModule{HasDefault: true, Default: doc}, nil
	}

	mod := record.LoadedModule{Named: make(map[string]any, len(m))}
	for k, v := range m {
		if k == "default" {
			mod.HasDefault = true
			mod.Default = v
			continue
		}
		mod.Named[k] = v
	}
	return mod, nil
}
