package parser

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

const stressQueriesFile = "queries.json"

// StressQueries maps each query name to its textual variants
type StressQueries struct {
	// Names is sorted so that seeded runs are reproducible
	Names    []string
	Variants map[string][]string
	Path     string
}

// LoadStressQueries reads <benchmarkPath>/<vendor>/queries.json, falling
// back to <benchmarkPath>/queries.json. The file is a JSON object mapping
// query name to a list of SQL variants.
func LoadStressQueries(benchmarkPath, vendor string) (*StressQueries, error) {
	path, found := resolveVendorFile(benchmarkPath, vendor, stressQueriesFile)
	if !found {
		return nil, fmt.Errorf("no %s found for vendor '%s' under %s", stressQueriesFile, vendor, benchmarkPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	queries, err := ParseStressQueries(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	queries.Path = path
	return queries, nil
}

// ParseStressQueries decodes a queries.json document
func ParseStressQueries(data []byte) (*StressQueries, error) {
	var variants map[string][]string
	if err := json.Unmarshal(data, &variants); err != nil {
		return nil, fmt.Errorf("queries must be a JSON object of name to SQL variants: %w", err)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("no benchmark queries found")
	}

	names := make([]string, 0, len(variants))
	for name, list := range variants {
		if len(list) == 0 {
			return nil, fmt.Errorf("query '%s' has no variants", name)
		}
		names = append(names, name)
	}
	slices.Sort(names)

	return &StressQueries{Names: names, Variants: variants}, nil
}
