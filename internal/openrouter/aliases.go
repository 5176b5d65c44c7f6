package openrouter

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var defaultAliases []byte

type AliasFamily struct {
	Prefix string `yaml:"prefix"`
	Target string `yaml:"target"`
}

// AliasTable maps client model identifiers onto OpenRouter identifiers.
type AliasTable struct {
	Default  string            `yaml:"default"`
	Aliases  map[string]string `yaml:"aliases"`
	Families []AliasFamily     `yaml:"families"`
}

func DefaultAliasTable() *AliasTable {
	table, err := parseAliasTable(defaultAliases)
	if err != nil {
		panic(fmt.Sprintf("embedded alias table is invalid: %v", err))
	}
	return table
}

// LoadAliasTable reads a table from path, or returns the embedded one when
// path is empty.
func LoadAliasTable(path string) (*AliasTable, error) {
	if path == "" {
		return DefaultAliasTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alias table %s: %w", path, err)
	}
	return parseAliasTable(data)
}

func parseAliasTable(data []byte) (*AliasTable, error) {
	var table AliasTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("failed to parse alias table: %w", err)
	}
	normalized := make(map[string]string, len(table.Aliases))
	for alias, target := range table.Aliases {
		normalized[strings.ToLower(strings.TrimSpace(alias))] = target
	}
	table.Aliases = normalized
	return &table, nil
}

func (t *AliasTable) Resolve(modelID string) string {
	modelID = strings.TrimSpace(modelID)
	if modelID == "" {
		return t.Default
	}
	key := strings.ToLower(modelID)
	if target, ok := t.Aliases[key]; ok {
		return target
	}
	if !strings.Contains(key, "/") {
		for _, family := range t.Families {
			if strings.HasPrefix(key, strings.ToLower(family.Prefix)) {
				return family.Target
			}
		}
	}
	return modelID
}
