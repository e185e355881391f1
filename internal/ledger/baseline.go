package ledger

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

const baselineSource = "baseline"

//go:embed baseline.yaml
var baselineYAML []byte

type baselineFile struct {
	Months []baselineEntry `yaml:"months"`
}

type baselineEntry struct {
	Key        int    `yaml:"key"`
	Start      string `yaml:"start"`
	Confidence string `yaml:"confidence"`
	Source     string `yaml:"source"`
}

// Baseline returns the historical month starts compiled into the binary
func Baseline() ([]MonthRecord, error) {
	return ParseBaseline(baselineYAML)
}

// ParseBaseline decodes a baseline YAML document. Entries without a source
// are tagged "baseline".
func ParseBaseline(data []byte) ([]MonthRecord, error) {
	var doc baselineFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse baseline: %w", err)
	}

	records := make([]MonthRecord, 0, len(doc.Months))
	for i, e := range doc.Months {
		source := e.Source
		if source == "" {
			source = baselineSource
		}
		rec, err := parseRecord(e.Key, e.Start, e.Confidence, source)
		if err != nil {
			return nil, fmt.Errorf("baseline entry %d: %w", i+1, err)
		}
		records = append(records, rec)
	}

	return records, nil
}
