package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed mapping.yaml
var defaultMapping []byte

// Mapping is the field-mapping and KPI configuration document. It is data,
// not code: new export formats and KPI cards are onboarded by editing the
// YAML, never the normalization logic.
type Mapping struct {
	Sources map[string]SourceMapping `yaml:"sources"`
	Pages   []PageConfig             `yaml:"pages"`
}

// SourceMapping describes one source's header candidates per logical field.
type SourceMapping struct {
	Fields map[string][]string `yaml:"fields"`

	// AbandonedKeywords classify an inbound status as abandoned via
	// case-insensitive substring match.
	AbandonedKeywords []string `yaml:"abandoned_keywords"`
}

// PageConfig lists the KPI cards of one dashboard page in display order.
type PageConfig struct {
	Key  string      `yaml:"key"`
	KPIs []KPIConfig `yaml:"kpis"`
}

// KPIConfig is one KPI card: display metadata plus optional thresholds.
type KPIConfig struct {
	Key       string   `yaml:"key"`
	Label     string   `yaml:"label"`
	Format    string   `yaml:"format"`
	WarnAbove *float64 `yaml:"warn_above"`
	CritAbove *float64 `yaml:"crit_above"`
	WarnBelow *float64 `yaml:"warn_below"`
	CritBelow *float64 `yaml:"crit_below"`
}

// LoadMapping parses the mapping document from path, or the embedded default
// when path is empty.
func LoadMapping(path string) (*Mapping, error) {
	data := defaultMapping
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read mapping file: %w", err)
		}
		data = b
	}

	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse mapping: %w", err)
	}
	if len(m.Sources) == 0 {
		return nil, fmt.Errorf("mapping defines no sources")
	}
	for name, src := range m.Sources {
		if len(src.Fields) == 0 {
			return nil, fmt.Errorf("source %q defines no fields", name)
		}
	}
	return &m, nil
}

// Source returns the mapping for one source, with ok=false when unknown.
func (m *Mapping) Source(name string) (SourceMapping, bool) {
	src, ok := m.Sources[name]
	return src, ok
}

// Page returns the KPI page config for key, nil when unknown.
func (m *Mapping) Page(key string) *PageConfig {
	for i := range m.Pages {
		if m.Pages[i].Key == key {
			return &m.Pages[i]
		}
	}
	return nil
}
