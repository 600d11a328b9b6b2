package strategy

import (
	"bytes"
	"fmt"
	"os"

	"github.com/wonny/papertrade/internal/contracts"
	"gopkg.in/yaml.v3"
)

// file is the YAML layout of a strategy definitions file
type file struct {
	Strategies []fileStrategy `yaml:"strategies"`
}

type fileStrategy struct {
	Name    string       `yaml:"name"`
	URL     string       `yaml:"url"`
	OwnerID string       `yaml:"owner_id"`
	Weights *fileWeights `yaml:"weights"`
}

type fileWeights struct {
	ROCE          float64 `yaml:"roce"`
	ROCE3Yr       float64 `yaml:"roce_3yr"`
	QtrProfitVar  float64 `yaml:"qtr_profit_var"`
	QtrSalesVar   float64 `yaml:"qtr_sales_var"`
	ProfitVar3Yrs float64 `yaml:"profit_var_3yrs"`
	SalesVar3Yrs  float64 `yaml:"sales_var_3yrs"`
	DividendYield float64 `yaml:"div_yld"`
	MarketCap     float64 `yaml:"mar_cap"`
	InvertedPE    float64 `yaml:"inverted_pe"`
}

// LoadFile reads strategy definitions from YAML.
// Unknown keys fail the load so a typo never silently becomes a zero weight.
func LoadFile(path string) ([]Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates strategy definitions
func Parse(data []byte) ([]Input, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode strategies: %w", err)
	}

	defs := make([]Input, 0, len(f.Strategies))
	seen := make(map[string]struct{}, len(f.Strategies))
	for i, fs := range f.Strategies {
		in := normalize(Input{Name: fs.Name, URL: fs.URL, OwnerID: fs.OwnerID})
		if fs.Weights != nil {
			w := contracts.Weights(*fs.Weights)
			in.Weights = &w
		}
		if err := Validate(in); err != nil {
			return nil, fmt.Errorf("strategy #%d: %w", i+1, err)
		}
		if _, dup := seen[in.Name]; dup {
			return nil, fmt.Errorf("strategy #%d: duplicate name %q", i+1, in.Name)
		}
		seen[in.Name] = struct{}{}
		defs = append(defs, in)
	}
	return defs, nil
}
