package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"soundconverter/internal/encoder"
	"soundconverter/internal/services"
)

// Parameter ranges for the modify operation.
const (
	MinSpeed     = 0.1
	MaxSpeed     = 10.0
	MaxSemitones = 24
	minBitrateK  = 32
	maxBitrateK  = 320
)

func invalidParam(field string, value any, format string, args ...any) error {
	return services.New(services.ErrValidation, services.CodeInvalidParameter, fmt.Sprintf(format, args...), nil).
		With("field", field).
		With("value", value)
}

// OutputFormat resolves a convert target format.
func OutputFormat(name string) (encoder.Format, error) {
	if strings.TrimSpace(name) == "" {
		return encoder.Format{}, services.New(services.ErrValidation, services.CodeInvalidFormat, "missing required parameter: format", nil)
	}
	f, ok := encoder.LookupFormat(name)
	if !ok {
		return encoder.Format{}, services.New(services.ErrValidation, services.CodeInvalidFormat,
			fmt.Sprintf("unsupported output format: %s", name), nil).
			With("format", name).
			With("supported", encoder.FormatNames())
	}
	return f, nil
}

// Bitrate normalizes a bitrate such as "192k" or "192". Values outside
// 32k..320k are rejected. Empty input returns "".
func Bitrate(value string) (string, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || encoder.IsStandardBitrate(value) {
		return value, nil
	}
	kbps, err := strconv.Atoi(strings.TrimSuffix(value, "k"))
	if err != nil || kbps < minBitrateK || kbps > maxBitrateK {
		return "", invalidParam("bitrate", value, "invalid bitrate %q (standard: %s)", value, strings.Join(encoder.StandardBitrates, ", "))
	}
	return strconv.Itoa(kbps) + "k", nil
}

// Speed checks the modify speed ratio.
func Speed(speed float64) error {
	if math.IsNaN(speed) || speed < MinSpeed || speed > MaxSpeed {
		return invalidParam("speed", speed, "speed must be between %g and %g", MinSpeed, MaxSpeed)
	}
	return nil
}

// Pitch checks the modify pitch shift in semitones.
func Pitch(semitones int) error {
	if semitones < -MaxSemitones || semitones > MaxSemitones {
		return invalidParam("pitch", semitones, "pitch must be between -%d and %d semitones", MaxSemitones, MaxSemitones)
	}
	return nil
}

// CutWindow checks the modify cut percentages.
func CutWindow(start, end float64) error {
	if math.IsNaN(start) || start < 0 || start > 100 {
		return invalidParam("cut_start", start, "cut_start must be between 0 and 100")
	}
	if math.IsNaN(end) || end < 0 || end > 100 {
		return invalidParam("cut_end", end, "cut_end must be between 0 and 100")
	}
	return nil
}
