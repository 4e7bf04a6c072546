package config

import (
	"fmt"
	"os"

	"promptcraft/internal/model"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Questions []model.Question `yaml:"questions"`
}

// LoadCatalog returns the built-in catalog when path is empty, otherwise the
// questions listed in the YAML file at path.
func LoadCatalog(path string) (model.Catalog, error) {
	if path == "" {
		return model.DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog document.
func ParseCatalog(data []byte) (model.Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	catalog := model.Catalog(file.Questions)
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return catalog, nil
}
