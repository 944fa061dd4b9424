package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldWeights scores matches by the field they occurred in. Name matches
// must outrank synonym matches, which must outrank description matches.
type FieldWeights struct {
	Name        float64 `yaml:"name"`
	Synonyms    float64 `yaml:"synonyms"`
	Description float64 `yaml:"description"`
}

// SearchConfig is the externally tunable retrieval configuration. Domain
// experts adjust this file; no code change is needed to retune ranking.
type SearchConfig struct {
	SynonymTable string       `yaml:"synonym_table"` // path relative to this file
	FieldWeights FieldWeights `yaml:"field_weights"`
	Fuzziness    string       `yaml:"fuzziness"` // "auto" or a fixed edit distance "0".."2"
	MinScore     float64      `yaml:"min_score"`
	ResultLimit  int          `yaml:"result_limit"`

	// Synonyms is the loaded synonym table: token -> equivalence class.
	Synonyms map[string][]string `yaml:"-"`
}

// DefaultSearchConfig mirrors the shipped configs/search.yaml.
func DefaultSearchConfig() *SearchConfig {
	return &SearchConfig{
		FieldWeights: FieldWeights{Name: 3.0, Synonyms: 2.0, Description: 1.0},
		Fuzziness:    "auto",
		MinScore:     0.1,
		ResultLimit:  10,
		Synonyms:     map[string][]string{},
	}
}

// LoadSearchConfig reads the yaml retrieval config and its synonym table.
// A missing file yields the defaults; a malformed file is an error.
func LoadSearchConfig(path string) (*SearchConfig, error) {
	cfg := DefaultSearchConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read search config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse search config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.SynonymTable != "" {
		synPath := cfg.SynonymTable
		if !filepath.IsAbs(synPath) {
			synPath = filepath.Join(filepath.Dir(path), synPath)
		}
		synonyms, err := LoadSynonymTable(synPath)
		if err != nil {
			return nil, err
		}
		cfg.Synonyms = synonyms
	}
	return cfg, nil
}

// LoadSynonymTable reads a yaml map of token -> alternate tokens. Keys and
// values are lowercased so lookup matches the analyzers.
func LoadSynonymTable(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read synonym table %s: %w", path, err)
	}
	raw := map[string][]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse synonym table %s: %w", path, err)
	}
	table := make(map[string][]string, len(raw))
	for k, vs := range raw {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" {
			continue
		}
		out := make([]string, 0, len(vs))
		for _, v := range vs {
			if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
				out = append(out, v)
			}
		}
		table[key] = out
	}
	return table, nil
}

// FixedFuzziness returns (n, true) when fuzziness is a fixed edit distance,
// or (0, false) for "auto".
func (c *SearchConfig) FixedFuzziness() (int, bool) {
	if strings.EqualFold(c.Fuzziness, "auto") || c.Fuzziness == "" {
		return 0, false
	}
	n, err := strconv.Atoi(c.Fuzziness)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (c *SearchConfig) validate() error {
	if c.FieldWeights.Name <= 0 || c.FieldWeights.Synonyms <= 0 || c.FieldWeights.Description <= 0 {
		return fmt.Errorf("field_weights must all be positive")
	}
	if c.ResultLimit <= 0 {
		return fmt.Errorf("result_limit must be positive")
	}
	if !strings.EqualFold(c.Fuzziness, "auto") {
		n, err := strconv.Atoi(c.Fuzziness)
		if err != nil || n < 0 || n > 2 {
			return fmt.Errorf("fuzziness must be auto or an integer 0..2, got %q", c.Fuzziness)
		}
	}
	return nil
}
