package filterchain

import (
	"fmt"
	"math"
)

// Trim defaults.
const (
	DefaultSilenceThreshold = -50.0
	DefaultMinimumSilenceMS = 500
)

// TrimParams configures leading/trailing silence removal.
type TrimParams struct {
	ThresholdDB      float64
	MinimumSilenceMS int
	PaddingMS        int
}

// Validate range-checks the trim parameters.
func (p TrimParams) Validate() error {
	switch {
	case math.IsNaN(p.ThresholdDB) || p.ThresholdDB > 0:
		return invalid("silence_threshold", p.ThresholdDB, "silence threshold must be zero or negative (dB)")
	case p.MinimumSilenceMS < 0:
		return invalid("minimum_silence_ms", p.MinimumSilenceMS, "minimum silence length must not be negative")
	case p.PaddingMS < 0:
		return invalid("padding_ms", p.PaddingMS, "padding must not be negative")
	}
	return nil
}

// TrimGraph strips leading and trailing silence and re-pads each end by
// PaddingMS. Silence inside the file is left alone: the trailing edge is
// trimmed as a leading edge of the reversed stream.
func TrimGraph(p TrimParams) Chain {
	edge := fmt.Sprintf("silenceremove=start_periods=1:start_threshold=%sdB:start_duration=%s",
		formatFloat(p.ThresholdDB), formatFloat(float64(p.MinimumSilenceMS)/1000))
	chain := Chain{edge, "areverse", edge, "areverse"}
	if p.PaddingMS > 0 {
		chain = append(chain,
			fmt.Sprintf("adelay=delays=%d:all=1", p.PaddingMS),
			fmt.Sprintf("apad=pad_dur=%s", formatFloat(float64(p.PaddingMS)/1000)),
		)
	}
	return chain
}
