package main

import (
	"github.com/aledsdavies/apitree/instance"
)

// loadConfig reads --config through instance.FromYAML when configFlag is
// set, otherwise returns the zero Config so the CLI's own flags and
// instance.New's defaults take over.
func loadConfig(path string) (instance.Config, error) {
	if path == "" {
		return instance.Config{}, nil
	}
	return instance.FromYAML(path)
}
