package mutator

import (
	"io"

	"gopkg.in/yaml.v3"
)

// Tuning holds the externalized reflow geometry: the pixel budget per
// physical row of a dialog box, and the advance multipliers for the
// `bartz`/`gil` placeholders (§4.6's bartz_advance/gil_advance). Pulling
// these out of code means the reflow geometry can be retuned for a
// different box size without a rebuild — only this numeric table is
// externalized; the find/replace dictionary itself stays hard-coded
// input data, out of scope here.
type Tuning struct {
	LineWidths      []int `yaml:"line_widths"`
	BartzMultiplier int   `yaml:"bartz_multiplier"`
	GilMultiplier   int   `yaml:"gil_multiplier"`
}

// DefaultTuning returns the original's geometry: a 3-line dialog box at
// 217/217/212 pixels, with 6x/7x bartz/gil advance multipliers.
func DefaultTuning() Tuning {
	return Tuning{
		LineWidths:      []int{217, 217, 212},
		BartzMultiplier: 6,
		GilMultiplier:   7,
	}
}

// LoadTuning decodes a Tuning document from r, starting from
// DefaultTuning so a partial document only overrides the fields it
// names.
func LoadTuning(r io.Reader) (Tuning, error) {
	tuning := DefaultTuning()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&tuning); err != nil && err != io.EOF {
		return Tuning{}, err
	}
	if len(tuning.LineWidths) == 0 {
		tuning.LineWidths = DefaultTuning().LineWidths
	}
	return tuning, nil
}

func (t Tuning) lineWidth(row int) int {
	if len(t.LineWidths) == 0 {
		return 0
	}
	if row >= len(t.LineWidths) {
		row = len(t.LineWidths) - 1
	}
	return t.LineWidths[row]
}
