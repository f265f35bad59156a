package filterchain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"soundconverter/internal/services"
)

const (
	minTempo = 0.5
	maxTempo = 2.0
	// tempoEpsilon is the distance from 1.0 below which a residual atempo is
	// dropped.
	tempoEpsilon = 1e-3
)

// Chain is an ordered list of filter primitives.
type Chain []string

// String joins the primitives into an ffmpeg filter expression.
func (c Chain) String() string {
	return strings.Join(c, ",")
}

// Empty reports whether the chain has no primitives. Callers omit -filter:a
// for an empty chain.
func (c Chain) Empty() bool {
	return len(c) == 0
}

// Build returns the pitch stage followed by the speed stage.
func Build(speed float64, semitones int, sampleRate int) (Chain, error) {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return nil, invalid("speed", speed, "speed must be a positive number")
	}
	var chain Chain
	if semitones != 0 {
		if sampleRate <= 0 {
			return nil, invalid("sample_rate", sampleRate, "sample rate must be positive to shift pitch")
		}
		ratio := math.Pow(2, float64(semitones)/12)
		chain = append(chain, fmt.Sprintf("asetrate=%d", int(float64(sampleRate)*ratio)))
		chain = append(chain, Tempo(1/ratio)...)
	}
	chain = append(chain, Tempo(speed)...)
	return chain, nil
}

// Tempo decomposes factor into atempo primitives each within [0.5, 2.0].
// A factor within tempoEpsilon of 1 yields no primitives.
func Tempo(factor float64) Chain {
	var out Chain
	remaining := factor
	for remaining < minTempo {
		out = append(out, atempo(minTempo))
		remaining /= minTempo
	}
	for remaining > maxTempo {
		out = append(out, atempo(maxTempo))
		remaining /= maxTempo
	}
	if math.Abs(remaining-1) > tempoEpsilon {
		out = append(out, atempo(remaining))
	}
	return out
}

func atempo(factor float64) string {
	return "atempo=" + formatFloat(factor)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func invalid(field string, value any, message string) error {
	return services.New(services.ErrValidation, services.CodeInvalidParameter, message, nil).
		With("field", field).
		With("value", value)
}
