package modemcfg

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jwhitham-go/comfilter/internal/biquad"
)

//go:embed deemphasis.yaml
var deemphasisYAML []byte

// LoadDeemphasisTable parses the embedded per-sample-rate zero/pole
// table and registers it with internal/biquad, grounded on the
// teacher's deviceid.go (yaml.Unmarshal of an embedded/loaded
// tocalls.yaml into a Go map at package init) but reduced to five
// entries instead of a vendor/model table. Called once during modem
// start-up, before any Deemphasis filter is designed.
func LoadDeemphasisTable() error {
	var raw map[float64]struct {
		Zero float64 `yaml:"zero"`
		Pole float64 `yaml:"pole"`
	}
	if err := yaml.Unmarshal(deemphasisYAML, &raw); err != nil {
		return fmt.Errorf("modemcfg: parsing embedded de-emphasis table: %w", err)
	}

	table := make(map[float64]struct{ Zero, Pole float64 }, len(raw))
	for rate, entry := range raw {
		table[rate] = struct{ Zero, Pole float64 }{Zero: entry.Zero, Pole: entry.Pole}
	}
	biquad.RegisterDeemphasisTable(table)
	return nil
}

func init() {
	if err := LoadDeemphasisTable(); err != nil {
		panic(err)
	}
}
