package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// resolveExternalPath returns path as-is if absolute, otherwise joins it with baseDir.
func resolveExternalPath(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// loadToolFiles reads each file in ToolFiles, unmarshals it as
// map[string]ToolConfig, and merges it into c.Tools with duplicate detection.
func (c *Config) loadToolFiles(baseDir string) error {
	if len(c.ToolFiles) == 0 {
		return nil
	}

	if c.Tools == nil {
		c.Tools = map[string]ToolConfig{}
	}

	// Track where each tool override was defined for duplicate detection.
	sources := make(map[string]string, len(c.Tools))
	for name := range c.Tools {
		sources[name] = "inline config"
	}

	for _, relPath := range c.ToolFiles {
		absPath := resolveExternalPath(baseDir, relPath)
		data, err := os.ReadFile(absPath)
		if err != nil {
			return fmt.Errorf("load tool file %q: %w", relPath, err)
		}

		var tools map[string]ToolConfig
		if err := yaml.Unmarshal(data, &tools); err != nil {
			return fmt.Errorf("parse tool file %q: %w", relPath, err)
		}

		for name, tool := range tools {
			if existing, ok := sources[name]; ok {
				return fmt.Errorf("tool %q defined in both %s and %q", name, existing, relPath)
			}
			sources[name] = relPath
			c.Tools[name] = tool
		}
	}

	return nil
}
